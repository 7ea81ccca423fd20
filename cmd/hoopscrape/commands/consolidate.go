package commands

import (
	"log/slog"

	"hoopscrape/lib/chrono"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/serviceutil"
	"hoopscrape/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	consolidatePrefix *string
	consolidateDir    *string
)

func init() {
	consolidatePrefix = consolidateCmd.Flags().String("prefix", "", "Merge the files whose name starts with this prefix, e.g. box_score.")
	consolidateDir = consolidateCmd.Flags().String("dir", "", "The directory to read from, defaults to the staging directory.")
	consolidateCmd.MarkFlagRequired("prefix")
	rootCmd.AddCommand(consolidateCmd)
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate --prefix <prefix> [--dir <path>]",
	Short: "Merges csv files left behind by earlier runs into a single consolidated file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			serviceutil.Fatal("invalid config", err)
		}

		layout := cfg.Layout()
		dir := *consolidateDir
		if dir == "" {
			dir = layout.StagingDir
		}

		consolidator := scraper.NewConsolidator(layout, chrono.NewStandardTime(), telemetry.SlogAPI{})
		result, err := consolidator.Consolidate(*consolidatePrefix, dir, !cfg.KeepStagingFiles)
		if err != nil {
			serviceutil.Fatal("failed to consolidate", err)
		}

		slog.Info(
			"consolidated",
			"path", result.Path,
			"inputs", len(result.Inputs),
			"rows", result.Rows,
			"removed", result.Removed,
		)
	},
}
