package espn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"hoopscrape/lib/assert"
	"hoopscrape/lib/htmlutil"
	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_box_score_window = "box_score.window"
	report_box_score_game   = "box_score.game"
)

var playerNamePattern = regexp.MustCompile(`(.*) (\w+)`)

var identityHeader = []string{"player_name", "position", "player_page_url", "team_name", "game_id"}

var ErrNoBoxScore = errors.New("no box score on page")

// Window selects items[start:start+limit], a limit <= 0 means no limit. A
// start past the end of the list yields nothing.
func Window[T any](items []T, start, limit int, tel telemetry.API) []T {
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		tel.ReportWarning(
			report_box_score_window,
			fmt.Errorf("page start %d is past the last of %d urls", start, len(items)),
		)
		return nil
	}

	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	window := items[start:end]

	tel.ReportDebug(
		"window",
		"initial", len(items),
		"final", len(window),
		"first", start,
		"last", end,
	)
	return window
}

// BoxScoreItems reads the box score urls out of a consolidated game results
// file and windows them.
func BoxScoreItems(path string, pageStart, pageLimit int, tel telemetry.API) ([]scraper.WorkItem, error) {
	urls, err := scraper.ReadURLColumn(path)
	if err != nil {
		return nil, err
	}
	return scraper.URLItems(Window(urls, pageStart, pageLimit, telemetry.NewScopedAPI("espn", tel))), nil
}

// BoxScoreExtractor turns a game page into one row per player, stats first
// followed by the player's identity columns.
type BoxScoreExtractor struct {
	tel telemetry.API
}

func NewBoxScoreExtractor(tel telemetry.API) BoxScoreExtractor {
	assert.NotNil(tel)
	return BoxScoreExtractor{tel: telemetry.NewScopedAPI("espn", tel)}
}

type player struct {
	name     string
	position string
	pageURL  string
	team     string
}

var excludedNameRows = map[string]bool{
	"starters": true,
	"bench":    true,
	"team":     true,
	"":         true,
}

func parsePlayers(table *goquery.Selection, team string) ([]player, error) {
	var players []player
	var err error
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		text := htmlutil.Text(tr)
		if excludedNameRows[strings.ToLower(text)] {
			return true
		}

		match := playerNamePattern.FindStringSubmatch(text)
		if match == nil {
			err = fmt.Errorf("unrecognized player row %q", text)
			return false
		}
		href, ok := tr.Find("a").First().Attr("href")
		if !ok {
			err = fmt.Errorf("no player page for %q", text)
			return false
		}

		players = append(players, player{
			name:     match[1],
			position: match[2],
			pageURL:  href,
			team:     team,
		})
		return true
	})
	return players, err
}

type statsTable struct {
	header scraper.Row
	rows   []scraper.Row
}

// parseStats reads a team's stats table. The first row is the column
// header, repeated "min" header rows are skipped, "dnp" rows become zero
// rows of the header's width and an empty leading cell (the team totals)
// ends the table.
func parseStats(table *goquery.Selection, columnCount int) statsTable {
	var out statsTable
	first := true
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cells := htmlutil.Texts(tr.Find("td"))
		if len(cells) == 0 {
			return true
		}
		for i := range cells {
			cells[i] = strings.ToLower(cells[i])
		}

		if first {
			first = false
			out.header = append(scraper.Row(cells), shootingHeader...)
			return true
		}

		switch {
		case cells[0] == "min":
			return true
		case strings.HasPrefix(cells[0], "dnp"):
			width := columnCount
			if width <= 0 {
				width = len(out.header) - len(shootingHeader)
			}
			zeros := make(scraper.Row, width+len(shootingHeader))
			for i := range zeros {
				zeros[i] = "0"
			}
			out.rows = append(out.rows, zeros)
		case cells[0] == "":
			return false
		default:
			out.rows = append(out.rows, append(scraper.Row(cells), shootingSplits(cells)...))
		}
		return true
	})
	return out
}

func (e BoxScoreExtractor) Extract(ctx context.Context, item scraper.WorkItem, payload []byte) ([]scraper.Row, error) {
	gameID, ok := GameID(item.URL)
	if !ok {
		return nil, fmt.Errorf("no game id in url %s", item.URL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}

	teams := doc.Find("div.Boxscore.flex.flex-column")
	if teams.Length() == 0 {
		return nil, ErrNoBoxScore
	}

	var header scraper.Row
	var players []player
	var stats []scraper.Row
	for i := 0; i < teams.Length(); i++ {
		team := teams.Eq(i)
		teamName := htmlutil.Text(team.Find("div.BoxscoreItem__TeamName").First())

		tables := team.Find("table")
		if tables.Length() != 2 {
			return nil, fmt.Errorf("team %d (%s): expected 2 tables, got %d", i+1, teamName, tables.Length())
		}

		teamPlayers, err := parsePlayers(tables.Eq(0), teamName)
		if err != nil {
			return nil, fmt.Errorf("team %d (%s): %w", i+1, teamName, err)
		}
		players = append(players, teamPlayers...)

		columnCount := 0
		if header != nil {
			columnCount = len(header) - len(shootingHeader)
		}
		teamStats := parseStats(tables.Eq(1), columnCount)
		if header == nil {
			if teamStats.header == nil {
				return nil, fmt.Errorf("team %d (%s): stats table has no header", i+1, teamName)
			}
			header = teamStats.header
		}
		stats = append(stats, teamStats.rows...)
	}

	if len(players) != len(stats) {
		err := fmt.Errorf("game %s: %d players but %d stat rows", gameID, len(players), len(stats))
		e.tel.ReportWarning(report_box_score_game, err, item.URL)
		return nil, err
	}

	rows := make([]scraper.Row, 0, len(stats)+1)
	rows = append(rows, append(header, identityHeader...))
	for i, row := range stats {
		p := players[i]
		rows = append(rows, append(row, p.name, p.position, p.pageURL, p.team, gameID))
	}
	return rows, nil
}

// BoxScoresJob scrapes every game page listed in a game results file.
func BoxScoresJob(path string, pageStart, pageLimit int, tel telemetry.API) (scraper.Job, error) {
	items, err := BoxScoreItems(path, pageStart, pageLimit, tel)
	if err != nil {
		return scraper.Job{}, err
	}
	return scraper.Job{
		Prefix:        BoxScorePrefix,
		Items:         items,
		Extractor:     NewBoxScoreExtractor(tel),
		ProgressEvery: boxScoreProgressEvery,
	}, nil
}
