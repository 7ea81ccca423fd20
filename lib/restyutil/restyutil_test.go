package restyutil

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0777))
	stale := filepath.Join(dir, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0600))

	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.NoFileExists(t, stale)

	out.Write("7", "contents")
	written, err := os.ReadFile(filepath.Join(dir, "7.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}

func TestFormatRequestBodyWithoutBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://www.espn.com/nba/scoreboard", nil)
	require.NoError(t, err)
	req.GetBody = func() (io.ReadCloser, error) {
		return nil, nil
	}
	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(req))

	// a body that is present but whose GetBody yields nothing
	req.Body = io.NopCloser(strings.NewReader("x"))
	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(req))

	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(nil))
}

func TestFormatRequestBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "https://www.espn.com", strings.NewReader("season=2024"))
	require.NoError(t, err)
	require.Equal(t, "season=2024", formatRequestBody(req))
}
