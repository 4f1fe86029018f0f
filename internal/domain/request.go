package domain

import (
	"fmt"
	"net/url"
	"time"
)

// Parameter bounds for a download request. Values outside these
// ranges are clamped rather than rejected.
const (
	MinMaxRetries = 0
	MaxMaxRetries = 10

	MinRetryDelay = 100 * time.Millisecond
	MaxRetryDelay = 60 * time.Second

	MinTimeout = 5 * time.Second
	MaxTimeout = 300 * time.Second
)

// Default parameter values, applied when a field is left zero.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second
	DefaultTimeout    = 30 * time.Second
)

// DownloadRequest describes a single download operation. It is
// immutable for the lifetime of one orchestration run.
type DownloadRequest struct {
	// URL is the direct URL to the PDF file.
	URL string

	// DestinationDir is the local directory the file is saved into.
	// It is created if absent.
	DestinationDir string

	// Filename overrides the name derived from the URL. Optional.
	Filename string

	// MaxRetries is the number of retry attempts after the first.
	MaxRetries int

	// RetryDelay is the base delay for the backoff policy.
	RetryDelay time.Duration

	// Timeout bounds each individual attempt, not the whole run.
	Timeout time.Duration
}

// Normalize applies defaults to zero-valued tuning fields and clamps
// all of them into their permitted ranges.
func (r *DownloadRequest) Normalize() {
	if r.RetryDelay == 0 {
		r.RetryDelay = DefaultRetryDelay
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultTimeout
	}

	if r.MaxRetries < MinMaxRetries {
		r.MaxRetries = MinMaxRetries
	}
	if r.MaxRetries > MaxMaxRetries {
		r.MaxRetries = MaxMaxRetries
	}
	if r.RetryDelay < MinRetryDelay {
		r.RetryDelay = MinRetryDelay
	}
	if r.RetryDelay > MaxRetryDelay {
		r.RetryDelay = MaxRetryDelay
	}
	if r.Timeout < MinTimeout {
		r.Timeout = MinTimeout
	}
	if r.Timeout > MaxTimeout {
		r.Timeout = MaxTimeout
	}
}

// Validate checks the required fields. Failures are configuration
// errors and never enter the retry loop.
func (r *DownloadRequest) Validate() error {
	if r.URL == "" {
		return NewConfigError("url is required", nil)
	}
	if r.DestinationDir == "" {
		return NewConfigError("destination directory is required", nil)
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return NewConfigError(fmt.Sprintf("invalid url %q", r.URL), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewConfigError(fmt.Sprintf("unsupported url scheme %q", u.Scheme), nil)
	}
	if u.Host == "" {
		return NewConfigError(fmt.Sprintf("invalid url %q: missing host", r.URL), nil)
	}

	return nil
}
