package espn

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"hoopscrape/lib/assert"
	"hoopscrape/lib/htmlutil"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_game_results_date = "game_results.date"
	report_game_results_game = "game_results.game"
)

const scoreboardDateLayout = "20060102"

var gameResultsHeader = scraper.Row{
	"date",
	"home_team",
	"away_team",
	"home_team_score_final",
	"home_team_score_q1",
	"home_team_score_q2",
	"home_team_score_q3",
	"home_team_score_q4",
	"away_team_score_final",
	"away_team_score_q1",
	"away_team_score_q2",
	"away_team_score_q3",
	"away_team_score_q4",
	"date_results_url",
	"box_score_url",
}

// no games in july, august and september
func inSeason(month time.Month) bool {
	return month >= time.October || month <= time.June
}

// ScoreboardURL is the scoreboard page of a single day.
func ScoreboardURL(day time.Time) string {
	return fmt.Sprintf("%s/nba/scoreboard/_/date/%s", baseURL, day.Format(scoreboardDateLayout))
}

// GameResultItems returns one scoreboard page per day from start to end
// inclusive, skipping the off-season months.
func GameResultItems(start, end time.Time) []scraper.WorkItem {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var items []scraper.WorkItem
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !inSeason(day.Month()) {
			continue
		}
		items = append(items, scraper.WorkItem{
			URL:    ScoreboardURL(day),
			Labels: map[string]string{"date": day.Format(scoreboardDateLayout)},
		})
	}
	return items
}

// GameResultExtractor turns a scoreboard page into one row per game.
type GameResultExtractor struct {
	tel telemetry.API
}

func NewGameResultExtractor(tel telemetry.API) GameResultExtractor {
	assert.NotNil(tel)
	return GameResultExtractor{tel: telemetry.NewScopedAPI("espn", tel)}
}

func scoreboardDate(item scraper.WorkItem) (string, error) {
	if date := item.Label("date"); date != "" {
		return date, nil
	}
	date := urlDatePattern.FindString(item.URL)
	if date == "" {
		return "", fmt.Errorf("no date in url %s", item.URL)
	}
	return date, nil
}

func (e GameResultExtractor) Extract(ctx context.Context, item scraper.WorkItem, payload []byte) ([]scraper.Row, error) {
	date, err := scoreboardDate(item)
	if err != nil {
		e.tel.ReportBroken(report_game_results_date, err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}

	rows := []scraper.Row{gameResultsHeader}
	doc.Find("section.Scoreboard").Each(func(i int, game *goquery.Selection) {
		row, err := parseGame(game, date, item.URL)
		if err != nil {
			e.tel.ReportWarning(report_game_results_game, fmt.Errorf("game %d on %s: %w", i+1, date, err), item.URL)
			return
		}
		rows = append(rows, row)
	})

	return rows, nil
}

// parseGame reads one scoreboard section. ESPN lists the away team first, so
// competitor 0 is away and competitor 1 is home for names, final scores and
// the per quarter scores alike.
func parseGame(game *goquery.Selection, date, pageURL string) (scraper.Row, error) {
	teams := htmlutil.Texts(game.Find("div.ScoreCell__TeamName--shortDisplayName"))
	if len(teams) < 2 {
		return nil, fmt.Errorf("expected 2 teams, got %d", len(teams))
	}

	buttons := game.Find("a.Button--alt")
	if buttons.Length() < 2 {
		return nil, fmt.Errorf("no box score for %s vs. %s", teams[0], teams[1])
	}
	href, ok := buttons.Eq(1).Attr("href")
	if !ok || href == "" {
		return nil, fmt.Errorf("no box score for %s vs. %s", teams[0], teams[1])
	}

	finals := htmlutil.Texts(game.Find("div.ScoreCell__Score"))
	if len(finals) < 2 {
		return nil, fmt.Errorf("expected 2 final scores, got %d", len(finals))
	}

	// one cell per period per team, overtime periods are ignored
	quarters := htmlutil.Texts(game.Find("div.ScoreboardScoreCell__Value"))
	perTeam := len(quarters) / 2
	if len(quarters)%2 != 0 || perTeam < 4 {
		return nil, fmt.Errorf("expected 4 quarters per team, got %d cells", len(quarters))
	}
	away := quarters[:4]
	home := quarters[perTeam : perTeam+4]

	row := scraper.Row{date, teams[1], teams[0], finals[1]}
	row = append(row, home...)
	row = append(row, finals[0])
	row = append(row, away...)
	row = append(row, pageURL, baseURL+href)
	return row, nil
}

// GameResultsJob scrapes every in-season scoreboard between start and end.
func GameResultsJob(start, end time.Time, tel telemetry.API) scraper.Job {
	return scraper.Job{
		Prefix:        GameResultsPrefix,
		Items:         GameResultItems(start, end),
		Extractor:     NewGameResultExtractor(tel),
		ProgressEvery: gameResultsProgressEvery,
	}
}
