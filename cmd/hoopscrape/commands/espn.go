package commands

import (
	"fmt"
	"time"

	"hoopscrape/internal/scrapers/espn"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var (
	startDate *string
	endDate   *string

	inputFile *string
	pageStart *int
	pageLimit *int

	espnStartYear *int
	espnEndYear   *int
)

func init() {
	startDate = gameResultsCmd.Flags().String("start", "", "The first day to scrape (YYYY-MM-DD).")
	endDate = gameResultsCmd.Flags().String("end", "", "The last day to scrape (YYYY-MM-DD).")
	gameResultsCmd.MarkFlagRequired("start")
	gameResultsCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(gameResultsCmd)

	inputFile = boxScoresCmd.Flags().String("input", "", "A consolidated game results file, its last column holds the box score urls.")
	pageStart = boxScoresCmd.Flags().Int("page-start", 0, "Index of the first url to scrape.")
	pageLimit = boxScoresCmd.Flags().Int("page-limit", 0, "Maximum number of urls to scrape, 0 means all of them.")
	boxScoresCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(boxScoresCmd)

	espnStartYear = espnPlayerStatsCmd.Flags().Int("start-year", 0, "The first season to scrape.")
	espnEndYear = espnPlayerStatsCmd.Flags().Int("end-year", 0, "The last season to scrape.")
	espnPlayerStatsCmd.MarkFlagRequired("start-year")
	espnPlayerStatsCmd.MarkFlagRequired("end-year")
	rootCmd.AddCommand(espnPlayerStatsCmd)
}

var gameResultsCmd = &cobra.Command{
	Use:   "game-results --start <YYYY-MM-DD> --end <YYYY-MM-DD>",
	Short: "Scrapes the ESPN scoreboard of every day in a date range.",
	Run: func(cmd *cobra.Command, args []string) {
		runJob(cmd, func(tel telemetry.API) (scraper.Job, error) {
			start, err := time.Parse(dateLayout, *startDate)
			if err != nil {
				return scraper.Job{}, fmt.Errorf("--start: %w", err)
			}
			end, err := time.Parse(dateLayout, *endDate)
			if err != nil {
				return scraper.Job{}, fmt.Errorf("--end: %w", err)
			}
			return espn.GameResultsJob(start, end, tel), nil
		})
	},
}

var boxScoresCmd = &cobra.Command{
	Use:   "box-scores --input <game_results.csv> [--page-start <n>] [--page-limit <n>]",
	Short: "Scrapes the ESPN box score of every game listed in a game results file.",
	Run: func(cmd *cobra.Command, args []string) {
		runJob(cmd, func(tel telemetry.API) (scraper.Job, error) {
			return espn.BoxScoresJob(*inputFile, *pageStart, *pageLimit, tel)
		})
	},
}

var espnPlayerStatsCmd = &cobra.Command{
	Use:   "espn-player-stats --start-year <year> --end-year <year>",
	Short: "Scrapes the ESPN player leaderboards of every season in a range.",
	Run: func(cmd *cobra.Command, args []string) {
		runJob(cmd, func(tel telemetry.API) (scraper.Job, error) {
			return espn.PlayerStatsJob(*espnStartYear, *espnEndYear, tel), nil
		})
	},
}
