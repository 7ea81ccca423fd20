// Package nba scrapes the league leaders endpoint of stats.nba.com.
package nba

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"hoopscrape/lib/assert"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"
)

const (
	PlayerStatsPrefix = "player_stats_data_nba"

	playerStatsProgressEvery = 5
)

const report_player_stats_row = "player_stats.row"

const leagueLeadersURL = "https://stats.nba.com/stats/leagueLeaders"

var DefaultStatCategories = []string{"PTS"}

var SeasonTypes = []string{"Regular Season", "Playoffs"}

// rowSet columns of the leagueLeaders response
const (
	columnPlayerID      = 0
	columnPlayer        = 2
	columnGamesPlayed   = 5
	columnPointsPerGame = 23
)

var playerStatsHeader = scraper.Row{
	"id",
	"name",
	"full_year",
	"end_year",
	"season_type",
	"games_played",
	"points_per_game",
	"total_points",
}

// SeasonLabel formats the season starting in year the way stats.nba.com
// does, e.g. 2023 -> "2023-24".
func SeasonLabel(year int) string {
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// LeagueLeadersURL is the per game leaderboard of one season, season type
// and stat category.
func LeagueLeadersURL(season, seasonType, category string) string {
	query := url.Values{}
	query.Set("LeagueID", "00")
	query.Set("PerMode", "PerGame")
	query.Set("Scope", "S")
	query.Set("Season", season)
	query.Set("SeasonType", seasonType)
	query.Set("StatCategory", category)
	return leagueLeadersURL + "?" + query.Encode()
}

// PlayerStatsItems returns one leaderboard per season, season type and stat
// category, with no categories DefaultStatCategories is used.
func PlayerStatsItems(startYear, endYear int, categories []string) []scraper.WorkItem {
	if len(categories) == 0 {
		categories = DefaultStatCategories
	}

	var items []scraper.WorkItem
	for year := startYear; year <= endYear; year++ {
		season := SeasonLabel(year)
		for _, seasonType := range SeasonTypes {
			for _, category := range categories {
				items = append(items, scraper.WorkItem{
					URL: LeagueLeadersURL(season, seasonType, category),
					Labels: map[string]string{
						"full_year":     season,
						"end_year":      strconv.Itoa(year + 1),
						"season_type":   seasonType,
						"stat_category": category,
					},
				})
			}
		}
	}
	return items
}

type leagueLeadersResponse struct {
	ResultSet struct {
		Name    string   `json:"name"`
		Headers []string `json:"headers"`
		RowSet  [][]any  `json:"rowSet"`
	} `json:"resultSet"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func numberAt(row []any, i int) (float64, error) {
	switch v := row[i].(type) {
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("column %d: unexpected value %v", i, row[i])
}

func cell(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return formatFloat(v)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// PlayerStatsExtractor turns a leaderboard into one row per player.
type PlayerStatsExtractor struct {
	tel telemetry.API
}

func NewPlayerStatsExtractor(tel telemetry.API) PlayerStatsExtractor {
	assert.NotNil(tel)
	return PlayerStatsExtractor{tel: telemetry.NewScopedAPI("nba", tel)}
}

func (e PlayerStatsExtractor) Extract(ctx context.Context, item scraper.WorkItem, payload []byte) ([]scraper.Row, error) {
	var res leagueLeadersResponse
	err := json.Unmarshal(payload, &res)
	if err != nil {
		return nil, err
	}

	rows := []scraper.Row{playerStatsHeader}
	for i, row := range res.ResultSet.RowSet {
		if len(row) <= columnPointsPerGame {
			e.tel.ReportWarning(
				report_player_stats_row,
				fmt.Errorf("row %d has %d columns", i, len(row)),
				item.URL,
			)
			continue
		}
		gamesPlayed, err := numberAt(row, columnGamesPlayed)
		if err != nil {
			e.tel.ReportWarning(report_player_stats_row, fmt.Errorf("row %d: %w", i, err), item.URL)
			continue
		}
		pointsPerGame, err := numberAt(row, columnPointsPerGame)
		if err != nil {
			e.tel.ReportWarning(report_player_stats_row, fmt.Errorf("row %d: %w", i, err), item.URL)
			continue
		}

		rows = append(rows, scraper.Row{
			cell(row[columnPlayerID]),
			cell(row[columnPlayer]),
			item.Label("full_year"),
			item.Label("end_year"),
			item.Label("season_type"),
			formatFloat(gamesPlayed),
			formatFloat(pointsPerGame),
			formatFloat(gamesPlayed * pointsPerGame),
		})
	}
	return rows, nil
}

// PlayerStatsJob scrapes the league leaders of every season from startYear
// to endYear inclusive.
func PlayerStatsJob(startYear, endYear int, categories []string, tel telemetry.API) scraper.Job {
	return scraper.Job{
		Prefix:        PlayerStatsPrefix,
		Items:         PlayerStatsItems(startYear, endYear, categories),
		Extractor:     NewPlayerStatsExtractor(tel),
		ProgressEvery: playerStatsProgressEvery,
	}
}
