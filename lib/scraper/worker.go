package scraper

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"hoopscrape/lib/assert"
	"hoopscrape/lib/telemetry"
)

const (
	report_worker_fetch    = "worker.fetch"
	report_worker_extract  = "worker.extract"
	report_worker_header   = "worker.header"
	report_worker_row      = "worker.row"
	report_worker_progress = "worker.progress"
	report_worker_output   = "worker.output"
)

// WorkerResult summarizes one worker's run.
type WorkerResult struct {
	WorkerID int
	// Path is the worker's staging file, it is empty if the worker failed
	// before creating it or removed it after a write error.
	Path            string
	Items           int
	Fetched         int
	FetchFailures   int
	ExtractFailures int
	DroppedRows     int
	// Rows counts data rows, the header isn't included.
	Rows int
}

// Worker processes one chunk of work items into a staging file.
type Worker struct {
	fetcher       PayloadFetcher
	layout        Layout
	prefix        string
	timestamp     string
	progressEvery int
	tel           telemetry.API
}

func NewWorker(fetcher PayloadFetcher, layout Layout, prefix, timestamp string, progressEvery int, tel telemetry.API) Worker {
	assert.NotNil(fetcher)
	assert.NotNil(tel)
	assert.NotEmptyStr(prefix)
	assert.NotEmptyStr(timestamp)

	return Worker{
		fetcher:       fetcher,
		layout:        layout,
		prefix:        prefix,
		timestamp:     timestamp,
		progressEvery: progressEvery,
		tel:           tel,
	}
}

// extract calls the extractor, turning a panic into an error so a single
// malformed payload can't take the other items of the chunk down with it.
func extract(ctx context.Context, extractor Extractor, item WorkItem, payload []byte) (rows []Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return extractor.Extract(ctx, item, payload)
}

// Run fetches and extracts every item of chunk in order, writing the header
// of the first non-empty extraction once followed by the data rows of every
// item. Items that fail to fetch or extract are reported and skipped.
//
// The returned error is either ErrMissingWorkerID or an I/O error on the
// staging file, in which case the partial file is removed.
func (w Worker) Run(ctx context.Context, chunk []WorkItem, workerID int, extractor Extractor) (WorkerResult, error) {
	assert.NotNil(extractor)

	tel := telemetry.NewScopedAPI(fmt.Sprintf("worker %05d", workerID), w.tel)
	result := WorkerResult{WorkerID: workerID, Items: len(chunk)}

	path, err := w.layout.WorkerFile(w.prefix, w.timestamp, workerID)
	if err != nil {
		return result, err
	}
	file, err := os.Create(path)
	if err != nil {
		tel.ReportBroken(report_worker_output, err, path)
		return result, fmt.Errorf("create worker file: %w", err)
	}
	result.Path = path

	tel.ReportDebug("start", "items", len(chunk), "file", path)

	writer := csv.NewWriter(file)
	var header Row
	var writeErr error

	for i, item := range chunk {
		if w.progressEvery > 0 && (i+1)%w.progressEvery == 0 {
			tel.ReportCount(report_worker_progress, int64(i+1))
		}

		outcome, err := w.fetcher.Fetch(ctx, item.URL)
		if err != nil {
			result.FetchFailures++
			tel.ReportWarning(report_worker_fetch, err, item.URL)
			continue
		}
		result.Fetched++

		rows, err := extract(ctx, extractor, item, outcome.Body)
		if err != nil {
			result.ExtractFailures++
			tel.ReportWarning(report_worker_extract, err, item.URL)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		if header == nil {
			header = rows[0]
			writeErr = writer.Write(header)
			if writeErr != nil {
				break
			}
		} else if !sameRow(header, rows[0]) {
			result.ExtractFailures++
			tel.ReportWarning(
				report_worker_header,
				fmt.Errorf("header %v does not match %v", rows[0], header),
				item.URL,
			)
			continue
		}

		for _, row := range rows[1:] {
			if len(row) != len(header) {
				result.DroppedRows++
				tel.ReportWarning(
					report_worker_row,
					fmt.Errorf("row has %d columns, header has %d", len(row), len(header)),
					item.URL,
				)
				continue
			}
			writeErr = writer.Write(row)
			if writeErr != nil {
				break
			}
			result.Rows++
		}
		if writeErr != nil {
			break
		}
	}

	writer.Flush()
	err = errors.Join(writeErr, writer.Error(), file.Close())
	if err != nil {
		tel.ReportBroken(report_worker_output, err, path)
		os.Remove(path)
		result.Path = ""
		return result, fmt.Errorf("write worker file %s: %w", path, err)
	}

	tel.ReportDebug("done", "rows", result.Rows, "fetch_failures", result.FetchFailures)
	return result, nil
}
