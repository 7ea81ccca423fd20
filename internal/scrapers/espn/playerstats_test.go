package espn

import (
	"context"
	"net/url"
	"testing"

	"hoopscrape/lib/scraper"
	"hoopscrape/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestPlayerStatsItems(t *testing.T) {
	items := PlayerStatsItems(2022, 2023)
	require.Len(t, items, 4)

	require.Equal(t, map[string]string{"year": "2022", "season_type": "Regular Season"}, items[0].Labels)
	require.Equal(t, map[string]string{"year": "2022", "season_type": "Post Season"}, items[1].Labels)
	require.Equal(t, "2023", items[3].Label("year"))

	parsed, err := url.Parse(items[1].URL)
	require.NoError(t, err)
	query := parsed.Query()
	require.Equal(t, "2022", query.Get("season"))
	require.Equal(t, "3", query.Get("seasontype"))
	require.Equal(t, "500", query.Get("limit"))
	require.Equal(t, "1", query.Get("page"))
	require.Equal(t, "offensive.avgPoints:desc", query.Get("sort"))
}

func TestPlayerStatsExtractor(t *testing.T) {
	rec := &telemetry.Recorder{}
	item := PlayerStatsItems(2024, 2024)[0]

	rows, err := NewPlayerStatsExtractor(rec).Extract(context.Background(), item, readFixture(t, "byathlete.json"))
	require.NoError(t, err)

	expected := []scraper.Row{
		playerStatsHeader,
		{"3945274", "Luka Doncic", "2024", "Regular Season", "70", "33.9", "2373"},
		{"3059318", "Joel Embiid", "2024", "Regular Season", "39", "34.7", "1353.3000000000002"},
	}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Fatal(diff)
	}
	require.Len(t, rec.Find("warning", report_player_stats_athlete), 2)
}

func TestPlayerStatsExtractorInvalidJSON(t *testing.T) {
	_, err := NewPlayerStatsExtractor(&telemetry.Recorder{}).Extract(
		context.Background(),
		PlayerStatsItems(2024, 2024)[0],
		[]byte("<html>"),
	)
	require.Error(t, err)
}

func TestSeasonTypeString(t *testing.T) {
	require.Equal(t, "Regular Season", RegularSeason.String())
	require.Equal(t, "Post Season", PostSeason.String())
	require.Equal(t, "season type 4", SeasonType(4).String())
}
