// Package espn holds the ESPN data sources: daily scoreboards, game box
// scores and the season leaderboard api behind espn.com/nba/stats.
package espn

import (
	"regexp"
)

const baseURL = "https://www.espn.com"

const (
	GameResultsPrefix = "game_results"
	BoxScorePrefix    = "box_score"
	PlayerStatsPrefix = "player_stats_data_espn"
)

const (
	gameResultsProgressEvery = 30
	boxScoreProgressEvery    = 30
	playerStatsProgressEvery = 2
)

var (
	urlDatePattern = regexp.MustCompile(`\d+`)
	gameIDPattern  = regexp.MustCompile(`.*/(\d{1,15})$`)
)

// GameID returns the trailing numeric id of a box score url.
func GameID(url string) (string, bool) {
	match := gameIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}
