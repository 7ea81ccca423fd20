package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hoopscrape/lib/assert"
	"hoopscrape/lib/restyutil"
	"hoopscrape/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_fetcher_get       = "fetcher.get"
	report_fetcher_exhausted = "fetcher.exhausted"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

var tracer = otel.Tracer("hoopscrape.lib.scraper")
var meter = otel.Meter("hoopscrape.lib.scraper")
var attemptCounter, _ = meter.Int64Counter("fetch_attempts")
var failureCounter, _ = meter.Int64Counter("fetch_failures")

// FetchOutcome is a successful fetch, failures are reported through the error.
type FetchOutcome struct {
	URL      string
	Status   int
	Body     []byte
	Attempts int
}

// PayloadFetcher is what workers need from a Fetcher.
type PayloadFetcher interface {
	Fetch(ctx context.Context, url string) (FetchOutcome, error)
}

// NewHTTPClient creates the resty client used by Fetcher.
func NewHTTPClient(cfg Config, tel telemetry.API) (*resty.Client, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	httpClient := resty.New()
	httpClient.SetTimeout(timeout)
	httpClient.SetHeader("user-agent", cfg.UserAgent)
	if cfg.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	var output restyutil.InstrumentOutput
	if cfg.DumpHttpDir != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(cfg.DumpHttpDir)
		if err != nil {
			return nil, err
		}
		output = fsOutput
	}
	telemetry.InstrumentResty(httpClient, telemetry.NewScopedAPI("http", tel), output)

	return httpClient, nil
}

// Fetcher issues GET requests, retrying every failure with a fixed backoff.
type Fetcher struct {
	http       *resty.Client
	tel        telemetry.API
	retryLimit int
	backoff    time.Duration
	sleep      func(time.Duration)
}

func NewFetcher(http *resty.Client, retryLimit int, backoff time.Duration, tel telemetry.API) *Fetcher {
	assert.NotNil(http)
	assert.NotNil(tel)
	assert.Positive(retryLimit)
	if backoff < 0 {
		panic("expected a non-negative backoff")
	}

	return &Fetcher{
		http:       http,
		tel:        telemetry.NewScopedAPI("fetcher", tel),
		retryLimit: retryLimit,
		backoff:    backoff,
		sleep:      time.Sleep,
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (*resty.Response, error) {
	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return res, fmt.Errorf("unexpected status %d", res.StatusCode())
	}
	return res, nil
}

// Fetch GETs url until it answers 200 or retryLimit attempts have failed. A
// transport error and a non 200 status are treated the same. The backoff is a
// blocking sleep, nothing interrupts it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (FetchOutcome, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	var lastErr error
	for attempt := 1; ; attempt++ {
		attemptCounter.Add(ctx, 1)

		res, err := f.get(ctx, url)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return FetchOutcome{
				URL:      url,
				Status:   res.StatusCode(),
				Body:     res.Body(),
				Attempts: attempt,
			}, nil
		}

		lastErr = err
		failureCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int("attempt", attempt)))
		f.tel.ReportWarning(
			report_fetcher_get,
			fmt.Errorf("attempt %d of %d: %w", attempt, f.retryLimit, err),
			url,
		)

		if attempt >= f.retryLimit {
			break
		}
		f.sleep(f.backoff)
	}

	err := fmt.Errorf("get %s: %w after %d attempts: %w", url, ErrRetriesExhausted, f.retryLimit, lastErr)
	f.tel.ReportBroken(report_fetcher_exhausted, err, url)
	span.RecordError(err)
	span.SetStatus(codes.Error, "retries exhausted")
	return FetchOutcome{}, err
}
