package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	DataDir    string `json:"data_dir"`
	RetryLimit int    `json:"retry_limit"`
	Cleanup    bool   `json:"cleanup"`
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "hoopscrape.local.json5", LocalPath("hoopscrape.json5"))
	require.Equal(t, filepath.Join("a", "b.local.json5"), LocalPath(filepath.Join("a", "b.json5")))
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "hoopscrape.json5")

	err := os.WriteFile(name, []byte(`{
		// comments are allowed
		data_dir: "data",
		retry_limit: 5,
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(LocalPath(name), []byte(`{retry_limit: 2}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, 2, cfg.RetryLimit)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigInvalid(t *testing.T) {
	name := filepath.Join(t.TempDir(), "broken.json5")
	require.NoError(t, os.WriteFile(name, []byte(`{data_dir: `), 0600))

	_, err := ReadConfig[testConfig](name)
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}
