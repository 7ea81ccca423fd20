package scraper

import (
	"path/filepath"
	"testing"
	"time"

	"hoopscrape/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	require.NoError(t, cfg.Validate())

	require.Equal(t, DefaultRetryLimit, cfg.RetryLimit)
	backoff, err := cfg.BackoffDuration()
	require.NoError(t, err)
	require.Equal(t, DefaultBackoff, backoff)
	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, timeout)
	require.Equal(t, DefaultWorkerLimit(), cfg.WorkerLimit)
	require.Positive(t, cfg.WorkerLimit)
	require.False(t, cfg.KeepStagingFiles)
}

func TestConfigZeroBackoff(t *testing.T) {
	cfg := Config{Backoff: "0s"}.WithDefaults()
	require.NoError(t, cfg.Validate())
	backoff, err := cfg.BackoffDuration()
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), backoff)
}

func TestConfigDurationsUnparsable(t *testing.T) {
	// never validated, the bad values must not turn into 0s
	cfg := Config{Backoff: "soon", Timeout: "30"}

	_, err := cfg.BackoffDuration()
	require.ErrorContains(t, err, "backoff")
	_, err = cfg.TimeoutDuration()
	require.ErrorContains(t, err, "timeout")

	_, err = NewHTTPClient(cfg, &telemetry.Recorder{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "negative workers", cfg: Config{WorkerLimit: -1}},
		{name: "negative retries", cfg: Config{RetryLimit: -2}},
		{name: "negative backoff", cfg: Config{Backoff: "-1s"}},
		{name: "unparsable backoff", cfg: Config{Backoff: "soon"}},
		{name: "zero timeout", cfg: Config{Timeout: "0s"}},
		{name: "unparsable timeout", cfg: Config{Timeout: "30"}},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.WithDefaults().Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfigLayout(t *testing.T) {
	layout := Config{DataDir: "out"}.WithDefaults().Layout()
	require.Equal(t, Layout{
		DataDir:         "out",
		StagingDir:      filepath.Join("out", DefaultStagingDir),
		ConsolidatedDir: filepath.Join("out", DefaultConsolidatedDir),
	}, layout)

	abs := filepath.Join(t.TempDir(), "staging")
	layout = Config{DataDir: "out", StagingDir: abs}.WithDefaults().Layout()
	require.Equal(t, abs, layout.StagingDir)
}

func TestLayoutFileNames(t *testing.T) {
	layout := Layout{StagingDir: "s", ConsolidatedDir: "c"}

	path, err := layout.WorkerFile("box_score", "2024_03_09_14_05_06", 12)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("s", "box_score_2024_03_09_14_05_06_00012.csv"), path)

	path, err = layout.WorkerFile("box_score_", "2024_03_09_14_05_06", 1)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("s", "box_score_2024_03_09_14_05_06_00001.csv"), path)

	_, err = layout.WorkerFile("box_score", "2024_03_09_14_05_06", 0)
	require.ErrorIs(t, err, ErrMissingWorkerID)

	require.Equal(
		t,
		filepath.Join("c", "game_results_consolidated_data_2024_03_09_14_05_06.csv"),
		layout.ConsolidatedFile("game_results", "2024_03_09_14_05_06"),
	)
}

func TestLayoutEnsure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	layout := Config{DataDir: root}.WithDefaults().Layout()
	require.NoError(t, layout.Ensure())
	require.DirExists(t, layout.StagingDir)
	require.DirExists(t, layout.ConsolidatedDir)
	require.NoError(t, layout.Ensure())
}
