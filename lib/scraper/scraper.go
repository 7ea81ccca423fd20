// Package scraper is the engine shared by every data source: it partitions a
// work list across workers, fetches each item with bounded retries, hands the
// payload to a source specific Extractor and merges the per-worker csv files.
//
// each source generally has this structure:
// 1. compute the work list (date range, season range, urls from a previous run).
// 2. work item -> GET request.
// 3. make assertions on response validity (status 200 only, anything else is retried).
// 4. transform the payload (goquery selectors or json) into rows, header first.
//
// only step 1 and 4 vary between sources, the rest lives here.
package scraper

import (
	"context"
	"slices"
)

// Row is an ordered list of column values, the first row returned by an
// Extractor is its header.
type Row []string

// WorkItem is one unit of work handed to a worker, it is not modified after
// the work list is partitioned.
type WorkItem struct {
	URL string
	// Labels carries source metadata that isn't derivable from the url,
	// e.g. the season or season type a leaderboard page belongs to.
	Labels map[string]string
}

// Label returns the label under key or "".
func (w WorkItem) Label(key string) string {
	return w.Labels[key]
}

// URLItems wraps plain urls into work items.
func URLItems(urls []string) []WorkItem {
	items := make([]WorkItem, len(urls))
	for i, u := range urls {
		items[i] = WorkItem{URL: u}
	}
	return items
}

// Extractor turns the payload fetched for a work item into rows. The first row
// is the header, every row after it has the same width.
//
// Returning an error skips the whole item, extractors that can isolate a
// malformed record should report it and skip just that record instead.
type Extractor interface {
	Extract(ctx context.Context, item WorkItem, payload []byte) ([]Row, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(ctx context.Context, item WorkItem, payload []byte) ([]Row, error)

func (f ExtractorFunc) Extract(ctx context.Context, item WorkItem, payload []byte) ([]Row, error) {
	return f(ctx, item, payload)
}

// Job is everything the orchestrator needs to run one source.
type Job struct {
	// Prefix names the staging and consolidated files.
	Prefix    string
	Items     []WorkItem
	Extractor Extractor
	// ProgressEvery is how many items a worker processes between progress
	// reports, 0 disables them.
	ProgressEvery int
}

func sameRow(a, b Row) bool {
	return slices.Equal(a, b)
}
