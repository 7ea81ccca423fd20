package scraper

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadURLColumn reads a csv produced by a previous run and returns the last
// column of every data row, the header row is skipped.
func ReadURLColumn(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var urls []string
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return urls, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if line == 0 || len(record) == 0 {
			continue
		}
		u := strings.TrimSpace(record[len(record)-1])
		if u == "" {
			continue
		}
		urls = append(urls, u)
	}
}
