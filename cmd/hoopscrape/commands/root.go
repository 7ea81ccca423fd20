package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hoopscrape/lib/configutil"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var rootCmd = &cobra.Command{
	Use:   "hoopscrape",
	Short: "hoopscrape scrapes basketball results and stats from ESPN and stats.nba.com into csv files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
		if !*withTelemetry {
			return
		}

		tel, err := telemetry.SetupFromEnv(
			cmd.Context(),
			"hoopscrape",
			semconv.ServiceInstanceID(uuid.NewString()),
			attribute.String("hoopscrape.command", cmd.Name()),
		)
		if err != nil {
			slog.Warn("failed to setup telemetry, continuing without it", "err", err)
			return
		}
		otelShutdown = tel.Shutdown

		ctx, cancel := context.WithCancel(context.Background())
		perfStatsCancel = cancel
		telemetry.InstrumentPerfStats(ctx, 15*time.Second, telemetry.SlogAPI{})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if perfStatsCancel != nil {
			perfStatsCancel()
		}
		if otelShutdown != nil {
			err := otelShutdown(context.Background())
			if err != nil {
				slog.Warn("failed to flush telemetry", "err", err)
			}
		}
	},
}

var otelShutdown func(context.Context) error
var perfStatsCancel context.CancelFunc

var (
	configPath    *string
	dataDir       *string
	workers       *int
	retries       *int
	backoff       *string
	timeout       *string
	keepStaging   *bool
	verbose       *bool
	withTelemetry *bool
	dumpHttp      *string
	cloudflare    *bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	configPath = flags.String("config", "hoopscrape.json5", "The config file, overrides are read from <name>.local.json5 next to it.")
	dataDir = flags.String("data-dir", "", "The root data directory.")
	workers = flags.Int("workers", 0, "The maximum number of concurrent workers, 0 means one per logical cpu.")
	retries = flags.Int("retries", 0, "The number of attempts made for each url.")
	backoff = flags.String("backoff", "", "The wait between two attempts, e.g. 5s.")
	timeout = flags.String("timeout", "", "The timeout of a single request, e.g. 30s.")
	keepStaging = flags.Bool("keep-staging", false, "Keep worker files after consolidating them.")
	verbose = flags.BoolP("verbose", "v", false, "Log debug output.")
	withTelemetry = flags.Bool("telemetry", false, "Export traces and metrics as configured in telemetry.json5.")
	dumpHttp = flags.String("dump-http", "", "Write every http exchange to this directory.")
	cloudflare = flags.Bool("cloudflare", false, "Use a transport that mimics a browser's tls fingerprint.")
}

// loadConfig reads the config file, if there is one, and applies the flags
// that were set on top of it.
func loadConfig(cmd *cobra.Command) (scraper.Config, error) {
	cfg, err := configutil.ReadConfig[scraper.Config](*configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file found, using defaults", "path", *configPath)
		err = nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", *configPath, err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = *dataDir
	}
	if flags.Changed("workers") {
		cfg.WorkerLimit = *workers
	}
	if flags.Changed("retries") {
		cfg.RetryLimit = *retries
	}
	if flags.Changed("backoff") {
		cfg.Backoff = *backoff
	}
	if flags.Changed("timeout") {
		cfg.Timeout = *timeout
	}
	if flags.Changed("keep-staging") {
		cfg.KeepStagingFiles = *keepStaging
	}
	if flags.Changed("dump-http") {
		cfg.DumpHttpDir = *dumpHttp
	}
	if flags.Changed("cloudflare") {
		cfg.CloudflareBypass = *cloudflare
	}

	cfg = cfg.WithDefaults()
	return cfg, cfg.Validate()
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
