package commands

import (
	"fmt"
	"log/slog"
	"strconv"

	"hoopscrape/cmd/hoopscrape/utils"
	"hoopscrape/lib/chrono"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/serviceutil"
	"hoopscrape/lib/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// runJob builds the http stack described by the config, runs job and
// prints what happened.
func runJob(cmd *cobra.Command, job func(tel telemetry.API) (scraper.Job, error)) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		serviceutil.Fatal("invalid config", err)
	}

	tel := telemetry.SlogAPI{}
	client, err := scraper.NewHTTPClient(cfg, tel)
	if err != nil {
		serviceutil.Fatal("failed to create http client", err)
	}
	backoff, err := cfg.BackoffDuration()
	if err != nil {
		serviceutil.Fatal("invalid config", err)
	}
	fetcher := scraper.NewFetcher(client, cfg.RetryLimit, backoff, tel)

	orchestrator, err := scraper.NewOrchestrator(cfg, fetcher, chrono.NewStandardTime(), tel)
	if err != nil {
		serviceutil.Fatal("failed to create orchestrator", err)
	}

	j, err := job(tel)
	if err != nil {
		serviceutil.Fatal("failed to compute work list", err)
	}

	slog.Info(
		"starting run",
		"prefix", j.Prefix,
		"items", len(j.Items),
		"workers", cfg.WorkerLimit,
		"data_dir", cfg.DataDir,
	)

	report, err := orchestrator.Run(cmd.Context(), j)
	renderReport(report)
	if err != nil {
		serviceutil.Fatal("run finished with errors", err)
	}
}

func renderReport(report scraper.Report) {
	if len(report.Workers) == 0 {
		slog.Info("nothing to do", "prefix", report.Prefix, "run", report.RunID)
		return
	}

	t := utils.NewTable()
	t.SetTitle(fmt.Sprintf("%s (%s)", report.Prefix, report.RunID))
	t.AppendHeader(table.Row{
		"Worker", "Items", "Fetched", "Fetch failures", "Extract failures", "Dropped rows", "Rows", "File",
	})
	for _, w := range report.Workers {
		t.AppendRow(table.Row{
			fmt.Sprintf("%05d", w.WorkerID),
			w.Items,
			w.Fetched,
			w.FetchFailures,
			w.ExtractFailures,
			w.DroppedRows,
			w.Rows,
			w.Path,
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		report.Items,
		report.Fetched(),
		report.FetchFailures(),
		report.ExtractFailures(),
		report.DroppedRows(),
		report.Rows(),
		report.Consolidated.Path,
	})
	t.Render()

	slog.Info(
		"run complete",
		"consolidated", report.Consolidated.Path,
		"rows", strconv.Itoa(report.Consolidated.Rows),
		"took", report.Finished.Sub(report.Started).String(),
	)
}
