package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"hoopscrape/lib/assert"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"
)

const report_player_stats_athlete = "player_stats.athlete"

const playerStatsURL = "https://site.web.api.espn.com/apis/common/v3/sports/basketball/nba/statistics/byathlete?region=us&lang=en&contentorigin=espn&isqualified=true&page=%d&limit=%d&sort=offensive.avgPoints%%3Adesc&season=%d&seasontype=%d"

const (
	playerStatsPage  = 1
	playerStatsLimit = 500
)

// SeasonType is the numeric season type of the ESPN api.
type SeasonType int

const (
	RegularSeason SeasonType = 2
	PostSeason    SeasonType = 3
)

func (s SeasonType) String() string {
	switch s {
	case RegularSeason:
		return "Regular Season"
	case PostSeason:
		return "Post Season"
	}
	return fmt.Sprintf("season type %d", int(s))
}

var seasonTypes = []SeasonType{RegularSeason, PostSeason}

var playerStatsHeader = scraper.Row{
	"id",
	"name",
	"year",
	"season_type",
	"games_played",
	"points_per_game",
	"total_points",
}

// PlayerStatsURL is the leaderboard of a season, sorted by points per game.
func PlayerStatsURL(year int, seasonType SeasonType) string {
	return fmt.Sprintf(playerStatsURL, playerStatsPage, playerStatsLimit, year, int(seasonType))
}

// PlayerStatsItems returns one leaderboard page per year per season type.
func PlayerStatsItems(startYear, endYear int) []scraper.WorkItem {
	var items []scraper.WorkItem
	for year := startYear; year <= endYear; year++ {
		for _, seasonType := range seasonTypes {
			items = append(items, scraper.WorkItem{
				URL: PlayerStatsURL(year, seasonType),
				Labels: map[string]string{
					"year":        strconv.Itoa(year),
					"season_type": seasonType.String(),
				},
			})
		}
	}
	return items
}

type byAthleteResponse struct {
	Athletes []struct {
		Athlete struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"athlete"`
		Categories []struct {
			Name   string `json:"name"`
			Totals []any  `json:"totals"`
		} `json:"categories"`
	} `json:"athletes"`
}

// totalAt returns totals[i] as a number, the api sends either strings or
// numbers depending on the season.
func totalAt(totals []any, i int) (float64, error) {
	if i >= len(totals) {
		return 0, fmt.Errorf("no total at index %d", i)
	}
	switch v := totals[i].(type) {
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("unexpected total %v", totals[i])
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PlayerStatsExtractor turns a leaderboard page into one row per athlete.
type PlayerStatsExtractor struct {
	tel telemetry.API
}

func NewPlayerStatsExtractor(tel telemetry.API) PlayerStatsExtractor {
	assert.NotNil(tel)
	return PlayerStatsExtractor{tel: telemetry.NewScopedAPI("espn", tel)}
}

func (e PlayerStatsExtractor) Extract(ctx context.Context, item scraper.WorkItem, payload []byte) ([]scraper.Row, error) {
	var res byAthleteResponse
	err := json.Unmarshal(payload, &res)
	if err != nil {
		return nil, err
	}

	rows := []scraper.Row{playerStatsHeader}
	for i, athlete := range res.Athletes {
		if len(athlete.Categories) < 2 {
			e.tel.ReportWarning(
				report_player_stats_athlete,
				fmt.Errorf("athlete %d (%s): expected 2 categories, got %d", i, athlete.Athlete.ID, len(athlete.Categories)),
				item.URL,
			)
			continue
		}
		gamesPlayed, err := totalAt(athlete.Categories[0].Totals, 0)
		if err != nil {
			e.tel.ReportWarning(report_player_stats_athlete, fmt.Errorf("athlete %s games played: %w", athlete.Athlete.ID, err), item.URL)
			continue
		}
		pointsPerGame, err := totalAt(athlete.Categories[1].Totals, 0)
		if err != nil {
			e.tel.ReportWarning(report_player_stats_athlete, fmt.Errorf("athlete %s points per game: %w", athlete.Athlete.ID, err), item.URL)
			continue
		}

		rows = append(rows, scraper.Row{
			athlete.Athlete.ID,
			athlete.Athlete.DisplayName,
			item.Label("year"),
			item.Label("season_type"),
			formatFloat(gamesPlayed),
			formatFloat(pointsPerGame),
			formatFloat(gamesPlayed * pointsPerGame),
		})
	}
	return rows, nil
}

// PlayerStatsJob scrapes the leaderboards of every season from startYear to
// endYear inclusive.
func PlayerStatsJob(startYear, endYear int, tel telemetry.API) scraper.Job {
	return scraper.Job{
		Prefix:        PlayerStatsPrefix,
		Items:         PlayerStatsItems(startYear, endYear),
		Extractor:     NewPlayerStatsExtractor(tel),
		ProgressEvery: playerStatsProgressEvery,
	}
}
