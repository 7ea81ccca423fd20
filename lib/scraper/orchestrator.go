package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoopscrape/lib/assert"
	"hoopscrape/lib/chrono"
	"hoopscrape/lib/telemetry"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	report_orchestrator_run     = "orchestrator.run"
	report_orchestrator_items   = "orchestrator.items"
	report_orchestrator_workers = "orchestrator.workers"
	report_orchestrator_rows    = "orchestrator.rows"
	report_orchestrator_failed  = "orchestrator.fetch-failures"
)

// Report is what a run did, stage by stage.
type Report struct {
	RunID      string
	Prefix     string
	Items      int
	ChunkSizes []int
	Workers    []WorkerResult
	// Consolidated is the zero value when the run was skipped.
	Consolidated ConsolidateResult
	Started      time.Time
	Finished     time.Time
}

func (r Report) sum(field func(WorkerResult) int) int {
	total := 0
	for _, w := range r.Workers {
		total += field(w)
	}
	return total
}

func (r Report) Fetched() int {
	return r.sum(func(w WorkerResult) int { return w.Fetched })
}

func (r Report) FetchFailures() int {
	return r.sum(func(w WorkerResult) int { return w.FetchFailures })
}

func (r Report) ExtractFailures() int {
	return r.sum(func(w WorkerResult) int { return w.ExtractFailures })
}

func (r Report) DroppedRows() int {
	return r.sum(func(w WorkerResult) int { return w.DroppedRows })
}

func (r Report) Rows() int {
	return r.sum(func(w WorkerResult) int { return w.Rows })
}

// Orchestrator runs jobs: partition, one worker per chunk, wait for all of
// them, consolidate the files of this run. There is no way to cancel a run once it has started.
type Orchestrator struct {
	cfg          Config
	layout       Layout
	fetcher      PayloadFetcher
	consolidator Consolidator
	time         chrono.TimeAPI
	tel          telemetry.API
}

// NewOrchestrator fills the config defaults and validates it, an invalid
// config is rejected here, before any work begins.
func NewOrchestrator(cfg Config, fetcher PayloadFetcher, time chrono.TimeAPI, tel telemetry.API) (Orchestrator, error) {
	assert.NotNil(fetcher)
	assert.NotNil(time)
	assert.NotNil(tel)

	cfg = cfg.WithDefaults()
	err := cfg.Validate()
	if err != nil {
		return Orchestrator{}, err
	}

	layout := cfg.Layout()
	return Orchestrator{
		cfg:          cfg,
		layout:       layout,
		fetcher:      fetcher,
		consolidator: NewConsolidator(layout, time, tel),
		time:         time,
		tel:          tel,
	}, nil
}

// Layout is the directory layout the orchestrator writes to.
func (o Orchestrator) Layout() Layout {
	return o.layout
}

// Run executes job. An empty work list is a no-op: nothing is partitioned,
// spawned or consolidated.
//
// Worker errors don't stop the other workers or the consolidation, they are
// joined into the returned error alongside a complete report.
func (o Orchestrator) Run(ctx context.Context, job Job) (Report, error) {
	assert.NotEmptyStr(job.Prefix)
	assert.NotNil(job.Extractor)

	report := Report{
		RunID:   uuid.NewString(),
		Prefix:  job.Prefix,
		Items:   len(job.Items),
		Started: o.time.Now(),
	}
	tel := telemetry.NewScopedAPI(fmt.Sprintf("%s %s", job.Prefix, report.RunID), o.tel)

	if len(job.Items) == 0 {
		tel.ReportWarning(report_orchestrator_run, errors.New("no work items, nothing to do"))
		report.Finished = o.time.Now()
		return report, nil
	}

	err := o.layout.Ensure()
	if err != nil {
		tel.ReportBroken(report_orchestrator_run, err)
		return report, err
	}

	chunks := Partition(job.Items, o.cfg.WorkerLimit)
	report.ChunkSizes = make([]int, len(chunks))
	for i, chunk := range chunks {
		report.ChunkSizes[i] = len(chunk)
	}
	tel.ReportCount(report_orchestrator_items, int64(len(job.Items)))
	tel.ReportCount(report_orchestrator_workers, int64(len(chunks)))

	timestamp := chrono.Timestamp(report.Started)
	worker := NewWorker(
		o.fetcher,
		o.layout,
		job.Prefix,
		timestamp,
		job.ProgressEvery,
		tel,
	)

	// each goroutine only ever writes its own index
	results := make([]WorkerResult, len(chunks))
	workerErrs := make([]error, len(chunks))
	var group errgroup.Group
	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.Go(func() error {
			results[i], workerErrs[i] = worker.Run(ctx, chunk, i+1, job.Extractor)
			return workerErrs[i]
		})
	}
	group.Wait()
	report.Workers = results
	runErr := errors.Join(workerErrs...)

	tel.ReportCount(report_orchestrator_rows, int64(report.Rows()))
	tel.ReportCount(report_orchestrator_failed, int64(report.FetchFailures()))

	consolidated, err := o.consolidator.ConsolidateRun(job.Prefix, timestamp, o.layout.StagingDir, !o.cfg.KeepStagingFiles)
	if err != nil {
		runErr = errors.Join(runErr, err)
	}
	report.Consolidated = consolidated
	report.Finished = o.time.Now()

	return report, runErr
}
