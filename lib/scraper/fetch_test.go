package scraper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"hoopscrape/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type step struct {
	status int
	body   string
	err    error
}

// scriptedTransport answers each request with the next step of its script,
// the last step repeats forever.
type scriptedTransport struct {
	mutex  sync.Mutex
	script []step
	calls  int
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current := s.script[min(s.calls, len(s.script)-1)]
	s.calls++
	if current.err != nil {
		return nil, current.err
	}
	return &http.Response{
		StatusCode: current.status,
		Status:     http.StatusText(current.status),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(current.body)),
		Request:    req,
	}, nil
}

func (s *scriptedTransport) Calls() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.calls
}

func newTestFetcher(transport http.RoundTripper, retryLimit int, tel telemetry.API) (*Fetcher, *[]time.Duration) {
	client := resty.New().SetTransport(transport)
	fetcher := NewFetcher(client, retryLimit, 5*time.Second, tel)

	var sleeps []time.Duration
	fetcher.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}
	return fetcher, &sleeps
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	transport := &scriptedTransport{script: []step{
		{status: http.StatusInternalServerError},
		{err: errors.New("connection reset")},
		{status: http.StatusOK, body: "payload"},
	}}
	rec := &telemetry.Recorder{}
	fetcher, sleeps := newTestFetcher(transport, 5, rec)

	outcome, err := fetcher.Fetch(context.Background(), "http://example.test/a")
	require.NoError(t, err)
	require.Equal(t, 3, transport.Calls())
	require.Equal(t, 3, outcome.Attempts)
	require.Equal(t, http.StatusOK, outcome.Status)
	require.Equal(t, "payload", string(outcome.Body))
	require.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, *sleeps)
	require.Len(t, rec.Find("warning", report_fetcher_get), 2)
	require.Empty(t, rec.Find("broken", report_fetcher_exhausted))
}

func TestFetchGivesUpAfterRetryLimit(t *testing.T) {
	transport := &scriptedTransport{script: []step{
		{status: http.StatusServiceUnavailable},
	}}
	rec := &telemetry.Recorder{}
	fetcher, sleeps := newTestFetcher(transport, 3, rec)

	outcome, err := fetcher.Fetch(context.Background(), "http://example.test/a")
	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.Equal(t, 3, transport.Calls())
	require.Nil(t, outcome.Body)
	require.Len(t, *sleeps, 2)
	require.Len(t, rec.Find("warning", report_fetcher_get), 3)
	require.Len(t, rec.Find("broken", report_fetcher_exhausted), 1)
}

func TestFetchTreatsEveryStatusAlike(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusNoContent, http.StatusBadGateway} {
		transport := &scriptedTransport{script: []step{{status: status}}}
		fetcher, sleeps := newTestFetcher(transport, 1, &telemetry.Recorder{})

		_, err := fetcher.Fetch(context.Background(), "http://example.test/a")
		require.ErrorIs(t, err, ErrRetriesExhausted, "status %d", status)
		require.Equal(t, 1, transport.Calls())
		require.Empty(t, *sleeps)
	}
}

func TestNewHTTPClientDumpsExchanges(t *testing.T) {
	userAgents := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents <- r.Header.Get("user-agent")
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	dumpDir := filepath.Join(t.TempDir(), "dump")
	cfg := Config{DumpHttpDir: dumpDir}.WithDefaults()
	client, err := NewHTTPClient(cfg, &telemetry.Recorder{})
	require.NoError(t, err)

	fetcher := NewFetcher(client, 1, 0, &telemetry.Recorder{})
	outcome, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "hello", string(outcome.Body))
	require.Equal(t, DefaultUserAgent, <-userAgents)

	dumped, err := os.ReadFile(filepath.Join(dumpDir, "1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(dumped), "---- RESPONSE ----")
	require.Contains(t, string(dumped), "hello")
}
