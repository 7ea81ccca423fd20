package espn

import (
	"context"
	"os"
	"testing"
	"time"

	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	payload, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return payload
}

func TestGameResultItems(t *testing.T) {
	items := GameResultItems(
		time.Date(2023, time.June, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.October, 2, 0, 0, 0, 0, time.UTC),
	)

	var urls []string
	for _, item := range items {
		urls = append(urls, item.URL)
	}
	require.Equal(t, []string{
		"https://www.espn.com/nba/scoreboard/_/date/20230629",
		"https://www.espn.com/nba/scoreboard/_/date/20230630",
		"https://www.espn.com/nba/scoreboard/_/date/20231001",
		"https://www.espn.com/nba/scoreboard/_/date/20231002",
	}, urls)
	require.Equal(t, "20231002", items[3].Label("date"))
}

func TestGameResultItemsSingleDay(t *testing.T) {
	day := time.Date(2024, time.January, 5, 18, 30, 0, 0, time.UTC)
	require.Len(t, GameResultItems(day, day), 1)
	require.Empty(t, GameResultItems(day, day.AddDate(0, 0, -1)))
}

func TestGameResultExtractor(t *testing.T) {
	rec := &telemetry.Recorder{}
	extractor := NewGameResultExtractor(rec)

	pageURL := "https://www.espn.com/nba/scoreboard/_/date/20240105"
	rows, err := extractor.Extract(
		context.Background(),
		scraper.WorkItem{URL: pageURL},
		readFixture(t, "scoreboard.html"),
	)
	require.NoError(t, err)

	expected := []scraper.Row{
		gameResultsHeader,
		{
			"20240105", "Knicks", "Celtics",
			"104", "20", "31", "26", "27",
			"108", "30", "25", "28", "25",
			pageURL, "https://www.espn.com/nba/boxscore/_/gameId/401584700",
		},
		{
			"20240105", "Bulls", "Heat",
			"108", "25", "25", "25", "25",
			"110", "22", "24", "26", "28",
			pageURL, "https://www.espn.com/nba/boxscore/_/gameId/401584702",
		},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, rec.Find("warning", report_game_results_game), 1)
}

func TestGameResultExtractorPrefersDateLabel(t *testing.T) {
	extractor := NewGameResultExtractor(&telemetry.Recorder{})
	rows, err := extractor.Extract(
		context.Background(),
		scraper.WorkItem{URL: "http://127.0.0.1:8080/scoreboard", Labels: map[string]string{"date": "20240105"}},
		readFixture(t, "scoreboard.html"),
	)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "20240105", rows[1][0])
}

func TestGameResultExtractorEmptyDay(t *testing.T) {
	extractor := NewGameResultExtractor(&telemetry.Recorder{})
	rows, err := extractor.Extract(
		context.Background(),
		scraper.WorkItem{URL: "https://www.espn.com/nba/scoreboard/_/date/20240704"},
		[]byte("<html><body><p>No games</p></body></html>"),
	)
	require.NoError(t, err)
	require.Equal(t, []scraper.Row{gameResultsHeader}, rows)
}

func TestGameResultExtractorNoDate(t *testing.T) {
	extractor := NewGameResultExtractor(&telemetry.Recorder{})
	_, err := extractor.Extract(
		context.Background(),
		scraper.WorkItem{URL: "https://www.espn.com/nba/scoreboard"},
		readFixture(t, "scoreboard.html"),
	)
	require.Error(t, err)
}
