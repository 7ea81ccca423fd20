package scraper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrMissingWorkerID = errors.New("worker output requires a worker id")

// Layout is where a run keeps its files.
type Layout struct {
	DataDir         string
	StagingDir      string
	ConsolidatedDir string
}

// Ensure creates every directory of the layout that doesn't exist yet.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.DataDir, l.StagingDir, l.ConsolidatedDir} {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func trimPrefix(prefix string) string {
	return strings.TrimRight(prefix, "_")
}

// WorkerFile is the staging file owned by one worker:
// {prefix}_{timestamp}_{worker id, 5 digits}.csv
func (l Layout) WorkerFile(prefix, timestamp string, workerID int) (string, error) {
	if workerID < 1 {
		return "", fmt.Errorf("%w: got %d", ErrMissingWorkerID, workerID)
	}
	name := fmt.Sprintf("%s_%s_%05d.csv", trimPrefix(prefix), timestamp, workerID)
	return filepath.Join(l.StagingDir, name), nil
}

// RunFilePrefix is the name prefix shared by every worker file of the run
// stamped with timestamp.
func (l Layout) RunFilePrefix(prefix, timestamp string) string {
	return fmt.Sprintf("%s_%s_", trimPrefix(prefix), timestamp)
}

// ConsolidatedFile is the merged output of a run:
// {prefix}_consolidated_data_{timestamp}.csv
func (l Layout) ConsolidatedFile(prefix, timestamp string) string {
	name := fmt.Sprintf("%s_consolidated_data_%s.csv", trimPrefix(prefix), timestamp)
	return filepath.Join(l.ConsolidatedDir, name)
}
