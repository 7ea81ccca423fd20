package scraper

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

const (
	DefaultRetryLimit      = 5
	DefaultBackoff         = 5 * time.Second
	DefaultTimeout         = 30 * time.Second
	DefaultDataDir         = "data"
	DefaultStagingDir      = "thread_data"
	DefaultConsolidatedDir = "consolidated_data"
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the per-run configuration of the engine. Durations are strings in
// time.ParseDuration format so that "0s" can be told apart from unset.
type Config struct {
	DataDir string `json:"data_dir"`
	// StagingDir and ConsolidatedDir are resolved relative to DataDir unless absolute.
	StagingDir      string `json:"staging_dir"`
	ConsolidatedDir string `json:"consolidated_dir"`

	// WorkerLimit caps the number of concurrent workers, 0 means one per logical cpu.
	WorkerLimit int    `json:"worker_limit"`
	RetryLimit  int    `json:"retry_limit"`
	Backoff     string `json:"backoff"`
	Timeout     string `json:"timeout"`
	UserAgent   string `json:"user_agent"`

	// KeepStagingFiles disables deleting worker files after they are consolidated.
	KeepStagingFiles bool `json:"keep_staging_files"`
	// CloudflareBypass wraps the http transport with cloudflare-bp-go.
	CloudflareBypass bool `json:"cloudflare_bypass"`
	// DumpHttpDir, if set, receives a text dump of every http exchange.
	DumpHttpDir string `json:"dump_http_dir"`
}

// DefaultWorkerLimit is the number of logical cpus on the host.
func DefaultWorkerLimit() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// WithDefaults fills every unset field.
func (c Config) WithDefaults() Config {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.StagingDir == "" {
		c.StagingDir = DefaultStagingDir
	}
	if c.ConsolidatedDir == "" {
		c.ConsolidatedDir = DefaultConsolidatedDir
	}
	if c.WorkerLimit == 0 {
		c.WorkerLimit = DefaultWorkerLimit()
	}
	if c.RetryLimit == 0 {
		c.RetryLimit = DefaultRetryLimit
	}
	if c.Backoff == "" {
		c.Backoff = DefaultBackoff.String()
	}
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout.String()
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Validate rejects configurations that cannot run, it is called before any
// work begins.
func (c Config) Validate() error {
	if c.WorkerLimit < 1 {
		return fmt.Errorf("%w: worker_limit must be at least 1, got %d", ErrInvalidConfig, c.WorkerLimit)
	}
	if c.RetryLimit < 1 {
		return fmt.Errorf("%w: retry_limit must be at least 1, got %d", ErrInvalidConfig, c.RetryLimit)
	}
	backoff, err := c.BackoffDuration()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if backoff < 0 {
		return fmt.Errorf("%w: backoff must not be negative, got %s", ErrInvalidConfig, backoff)
	}
	timeout, err := c.TimeoutDuration()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, timeout)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidConfig)
	}
	return nil
}

// BackoffDuration parses the backoff between attempts.
func (c Config) BackoffDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Backoff)
	if err != nil {
		return 0, fmt.Errorf("backoff: %w", err)
	}
	return d, nil
}

// TimeoutDuration parses the per request timeout.
func (c Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	return d, nil
}

// Layout returns the directory layout described by the config.
func (c Config) Layout() Layout {
	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(c.DataDir, dir)
	}
	return Layout{
		DataDir:         c.DataDir,
		StagingDir:      resolve(c.StagingDir),
		ConsolidatedDir: resolve(c.ConsolidatedDir),
	}
}
