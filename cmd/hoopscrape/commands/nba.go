package commands

import (
	"hoopscrape/internal/scrapers/nba"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	nbaStartYear  *int
	nbaEndYear    *int
	nbaCategories *[]string
)

func init() {
	nbaStartYear = nbaPlayerStatsCmd.Flags().Int("start-year", 0, "The first season to scrape, 2023 is the 2023-24 season.")
	nbaEndYear = nbaPlayerStatsCmd.Flags().Int("end-year", 0, "The last season to scrape.")
	nbaCategories = nbaPlayerStatsCmd.Flags().StringSlice("category", nba.DefaultStatCategories, "The stat categories to rank players by.")
	nbaPlayerStatsCmd.MarkFlagRequired("start-year")
	nbaPlayerStatsCmd.MarkFlagRequired("end-year")
	rootCmd.AddCommand(nbaPlayerStatsCmd)
}

var nbaPlayerStatsCmd = &cobra.Command{
	Use:   "nba-player-stats --start-year <year> --end-year <year> [--category PTS,REB]",
	Short: "Scrapes the stats.nba.com league leaders of every season in a range.",
	Run: func(cmd *cobra.Command, args []string) {
		runJob(cmd, func(tel telemetry.API) (scraper.Job, error) {
			return nba.PlayerStatsJob(*nbaStartYear, *nbaEndYear, *nbaCategories, tel), nil
		})
	},
}
