package scraper

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hoopscrape/lib/assert"
	"hoopscrape/lib/chrono"
	"hoopscrape/lib/telemetry"
)

const (
	report_consolidator_list    = "consolidator.list"
	report_consolidator_read    = "consolidator.read"
	report_consolidator_write   = "consolidator.write"
	report_consolidator_cleanup = "consolidator.cleanup"
	report_consolidator_files   = "consolidator.files"
)

// ConsolidateResult describes a consolidated file.
type ConsolidateResult struct {
	Path string
	// Inputs are the files that were merged, in merge order.
	Inputs []string
	// Rows counts data rows, the header isn't included.
	Rows    int
	Header  Row
	Removed int
}

// Consolidator merges csv files sharing a prefix into one file.
type Consolidator struct {
	layout Layout
	time   chrono.TimeAPI
	tel    telemetry.API
}

func NewConsolidator(layout Layout, time chrono.TimeAPI, tel telemetry.API) Consolidator {
	assert.NotNil(time)
	assert.NotNil(tel)
	return Consolidator{
		layout: layout,
		time:   time,
		tel:    telemetry.NewScopedAPI("consolidator", tel),
	}
}

// matchingFiles lists the regular files in dir whose name starts with prefix,
// ignoring case, in directory listing order.
func matchingFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	prefix = strings.ToLower(prefix)
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(entry.Name()), prefix) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func readRows(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
}

// publish links tmp into place at path. If a file by that name already exists
// it tries path with a _1, _2, ... suffix, an existing file is never replaced.
func publish(tmp, path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	candidate := path
	for i := 1; ; i++ {
		err := os.Link(tmp, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

// writeRows writes rows to a temp file in dir and publishes it, it returns
// the path the file ended up at.
func writeRows(dir, path string, rows []Row) (string, error) {
	tmp, err := os.CreateTemp(dir, ".consolidate-*.csv")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			break
		}
	}
	writer.Flush()
	err = errors.Join(err, writer.Error(), tmp.Close())
	if err != nil {
		return "", err
	}
	return publish(tmp.Name(), path)
}

// Consolidate merges every file in inputDir whose name starts with prefix into
// a new timestamped file in the consolidated directory. Only the first row of
// the first non-empty file is kept as header, the first row of every later
// file is dropped.
//
// Inputs are read in full before anything is written, and only removed (when
// cleanup is set) once the merged file is in place. A consolidated file is
// never overwritten, a name collision gets a numeric suffix instead.
func (c Consolidator) Consolidate(prefix, inputDir string, cleanup bool) (ConsolidateResult, error) {
	return c.consolidate(prefix, prefix, inputDir, cleanup)
}

// ConsolidateRun is Consolidate restricted to the worker files of the run
// stamped with timestamp, files left behind by earlier runs of the same
// prefix are neither merged nor removed.
func (c Consolidator) ConsolidateRun(prefix, timestamp, inputDir string, cleanup bool) (ConsolidateResult, error) {
	return c.consolidate(prefix, c.layout.RunFilePrefix(prefix, timestamp), inputDir, cleanup)
}

func (c Consolidator) consolidate(prefix, match, inputDir string, cleanup bool) (ConsolidateResult, error) {
	files, err := matchingFiles(inputDir, match)
	if err != nil {
		c.tel.ReportBroken(report_consolidator_list, err, inputDir)
		return ConsolidateResult{}, fmt.Errorf("list %s: %w", inputDir, err)
	}
	c.tel.ReportCount(report_consolidator_files, int64(len(files)))
	if len(files) == 0 {
		c.tel.ReportWarning(
			report_consolidator_files,
			fmt.Errorf("found 0 files with the prefix %q", match),
			inputDir,
		)
	}

	result := ConsolidateResult{Inputs: files}
	var merged []Row
	for _, path := range files {
		rows, err := readRows(path)
		if err != nil {
			c.tel.ReportBroken(report_consolidator_read, err, path)
			return ConsolidateResult{}, fmt.Errorf("read %s: %w", path, err)
		}
		if len(rows) == 0 {
			continue
		}
		if result.Header == nil {
			result.Header = rows[0]
			merged = append(merged, rows...)
			continue
		}
		c.tel.ReportDebug("skipping header", "file", path)
		merged = append(merged, rows[1:]...)
	}
	if len(merged) > 0 {
		result.Rows = len(merged) - 1
	}

	err = os.MkdirAll(c.layout.ConsolidatedDir, 0755)
	if err != nil {
		c.tel.ReportBroken(report_consolidator_write, err, c.layout.ConsolidatedDir)
		return ConsolidateResult{}, err
	}
	path := c.layout.ConsolidatedFile(prefix, chrono.Timestamp(c.time.Now()))
	published, err := writeRows(c.layout.ConsolidatedDir, path, merged)
	if err != nil {
		c.tel.ReportBroken(report_consolidator_write, err, path)
		return ConsolidateResult{}, fmt.Errorf("write %s: %w", path, err)
	}
	if published != path {
		c.tel.ReportDebug("consolidated name taken", "wanted", path, "used", published)
	}
	result.Path = published

	if cleanup {
		for _, input := range files {
			err := os.Remove(input)
			if err != nil {
				c.tel.ReportWarning(report_consolidator_cleanup, err, input)
				continue
			}
			result.Removed++
		}
	}

	return result, nil
}
