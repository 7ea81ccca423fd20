package telemetry

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("worker 00001", NewScopedAPI("box_score", rec))

	scoped.ReportWarning("worker.fetch", "url")
	scoped.ReportCount("worker.progress", 30)

	reports := rec.Reports()
	require.Len(t, reports, 2)
	require.Equal(t, "box_score: worker 00001: worker.fetch", reports[0].ID)
	require.Equal(t, []any{"url"}, reports[0].Params)

	count, ok := rec.LastCount("worker.progress")
	require.True(t, ok)
	require.Equal(t, int64(30), count)

	_, ok = rec.LastCount("worker.missing")
	require.False(t, ok)
}

func TestRecorderConcurrentUse(t *testing.T) {
	rec := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rec.ReportDebug("tick", j)
			}
		}()
	}
	wg.Wait()
	require.Len(t, rec.Find("debug", "tick"), 400)
}

type memoryOutput struct {
	mutex sync.Mutex
	files map[string]string
}

func (m *memoryOutput) Write(id, contents string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.files[id] = contents
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("scoreboard"))
	}))
	defer server.Close()

	rec := &Recorder{}
	out := &memoryOutput{files: map[string]string{}}
	client := resty.New()
	InstrumentResty(client, rec, out)

	_, err := client.R().Get(server.URL)
	require.NoError(t, err)
	_, err = client.R().Get(server.URL)
	require.NoError(t, err)

	require.Len(t, rec.Find("debug", report_resty_request), 2)
	require.Len(t, rec.Find("debug", report_resty_response), 2)
	require.Contains(t, out.files, "1")
	require.Contains(t, out.files["2"], "scoreboard")
}
