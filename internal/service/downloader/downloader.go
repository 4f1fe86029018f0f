package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/baldawsari/pdf-downloader-mcp/internal/domain"
	"github.com/baldawsari/pdf-downloader-mcp/internal/pdf"
	"github.com/baldawsari/pdf-downloader-mcp/internal/port"
	"github.com/baldawsari/pdf-downloader-mcp/internal/util/fsutil"
	"go.uber.org/zap"
)

// DefaultUserAgents is the outbound identity pool used when the
// configuration supplies none. Some origins reject particular
// identities; the pool ends with a curl identity for services that
// prefer it.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"curl/8.0.1",
}

// Config contains downloader configuration
type Config struct {
	// UserAgents is the ordered identity pool for rotation.
	UserAgents []string

	// ProgressInterval is how often transfer progress is logged.
	ProgressInterval time.Duration
}

// DefaultConfig returns default downloader configuration
func DefaultConfig() *Config {
	return &Config{
		UserAgents:       DefaultUserAgents,
		ProgressInterval: 10 * time.Second,
	}
}

// Downloader orchestrates one download request through the attempt
// loop: probe, transfer, validate, classify, back off, rotate
// identity. It is safe to share between goroutines; each Run owns all
// of its mutable state.
type Downloader struct {
	config       *Config
	newTransport port.TransportFactory
	validator    *pdf.Validator
	logger       *zap.Logger

	// sleep is the retry suspension point, replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a new Downloader
func New(cfg *Config, factory port.TransportFactory, logger *zap.Logger) *Downloader {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultUserAgents
	}
	if cfg.ProgressInterval == 0 {
		cfg.ProgressInterval = 10 * time.Second
	}

	return &Downloader{
		config:       cfg,
		newTransport: factory,
		validator:    pdf.NewValidator(),
		logger:       logger,
		sleep:        sleepContext,
	}
}

// attemptOutcome is produced once per attempt and consumed
// immediately by the attempt loop.
type attemptOutcome struct {
	bytes   int64
	resumed bool
	elapsed time.Duration
	err     error
}

// Run executes one orchestration run. It never returns an error or
// panics past its boundary; every failure is captured in the result.
func (d *Downloader) Run(ctx context.Context, req domain.DownloadRequest) domain.DownloadResult {
	start := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return failImmediate(start, err)
	}
	if err := os.MkdirAll(req.DestinationDir, 0755); err != nil {
		return failImmediate(start, domain.NewConfigError("cannot create destination directory", err))
	}

	name := req.Filename
	if name == "" {
		name = fsutil.FilenameFromURL(req.URL)
	} else {
		name = fsutil.SanitizeFilename(name)
	}
	path := filepath.Join(req.DestinationDir, name)
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	var (
		lastDesc string
		identity int
		attempts int
	)

	for attempt := 0; attempt <= req.MaxRetries; attempt++ {
		attempts = attempt + 1
		d.logger.Info("download attempt",
			zap.String("url", req.URL),
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", req.MaxRetries+1))

		outcome := d.runAttempt(ctx, req, path, identity)
		if outcome.err == nil {
			return d.succeed(start, absPath, attempts, outcome)
		}

		cls := Classify(outcome.err)
		lastDesc = cls.Description
		d.logger.Warn("attempt failed",
			zap.String("url", req.URL),
			zap.Int("attempt", attempts),
			zap.String("error", cls.Description),
			zap.Bool("retryable", cls.Retryable))

		// A corrupt or permanently rejected file must not masquerade
		// as a valid resumable partial on the next attempt.
		if domain.IsValidationError(outcome.err) || !cls.Retryable {
			os.Remove(path)
		}

		if !cls.Retryable || attempt == req.MaxRetries {
			break
		}

		var wait time.Duration
		if hint, limited := domain.IsRateLimited(outcome.err); limited {
			wait = RateLimitDelay(attempt, req.RetryDelay, hint)
		} else {
			wait = Delay(attempt, req.RetryDelay)
		}

		d.logger.Info("retrying", zap.String("url", req.URL), zap.Duration("wait", wait))
		if err := d.sleep(ctx, wait); err != nil {
			lastDesc = "canceled: " + err.Error()
			break
		}

		if cls.RotateIdentity {
			identity++
		}
	}

	return domain.DownloadResult{
		Success:      false,
		AttemptsUsed: attempts,
		TotalTime:    time.Since(start),
		AverageSpeed: "0.00",
		ErrorMessage: fmt.Sprintf("failed after %d attempts: last error: %s", attempts, lastDesc),
	}
}

// runAttempt performs one full attempt: probe, transfer, validate.
// The transport is built fresh for the current identity and released
// on every exit path.
func (d *Downloader) runAttempt(ctx context.Context, req domain.DownloadRequest, path string, identity int) attemptOutcome {
	start := time.Now()

	tr := d.newTransport(d.userAgent(identity))
	defer tr.Close()

	actx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	var existing int64
	if info, err := os.Stat(path); err == nil {
		existing = info.Size()
	}

	probe, err := tr.Probe(actx, req.URL)
	if err != nil {
		// A failed probe only disables resumption for this attempt.
		d.logger.Debug("probe failed, resumption disabled",
			zap.String("url", req.URL), zap.Error(err))
		probe = port.ProbeInfo{}
	}

	// Already complete on disk: nothing to transfer.
	if existing > 0 && probe.TotalSize > 0 && existing >= probe.TotalSize {
		d.logger.Info("file already complete", zap.String("path", path))
		if err := d.validateFile(path); err != nil {
			return attemptOutcome{err: err}
		}
		return attemptOutcome{resumed: true, elapsed: time.Since(start)}
	}

	resume := probe.SupportsRange && existing > 0
	var offset int64
	if resume {
		offset = existing
		d.logger.Info("resuming download",
			zap.String("url", req.URL), zap.Int64("from_byte", offset))
	}

	body, err := tr.Fetch(actx, req.URL, offset)
	if err != nil && resume {
		// Resume-specific failure falls back to one full fetch within
		// the same attempt instead of recursing.
		d.logger.Warn("resume fetch failed, restarting from zero",
			zap.String("url", req.URL), zap.Error(err))
		os.Remove(path)
		resume, offset = false, 0
		body, err = tr.Fetch(actx, req.URL, 0)
	}
	if err != nil {
		return attemptOutcome{err: err}
	}
	defer body.Close()

	reader := &progressReader{
		reader:   body,
		logger:   d.logger,
		url:      req.URL,
		initial:  offset,
		interval: d.config.ProgressInterval,
		lastLog:  time.Now(),
	}

	written, err := writeStream(path, reader, offset)
	if err != nil {
		// Bytes already on disk are kept for a future resume; the
		// cleanup policy in Run decides whether they survive.
		return attemptOutcome{err: err}
	}

	if err := d.validateFile(path); err != nil {
		return attemptOutcome{err: err}
	}

	return attemptOutcome{bytes: written, resumed: resume, elapsed: time.Since(start)}
}

func (d *Downloader) succeed(start time.Time, absPath string, attempts int, outcome attemptOutcome) domain.DownloadResult {
	var size int64
	if info, err := os.Stat(absPath); err == nil {
		size = info.Size()
	}

	result := domain.DownloadResult{
		Success:         true,
		LocalPath:       absPath,
		FileSize:        size,
		AttemptsUsed:    attempts,
		DownloadTime:    outcome.elapsed,
		TotalTime:       time.Since(start),
		AverageSpeed:    fsutil.FormatSpeed(size, outcome.elapsed.Seconds()),
		Resumed:         outcome.resumed,
		BytesDownloaded: outcome.bytes,
	}

	d.logger.Info("download complete",
		zap.String("path", absPath),
		zap.String("size", fsutil.FormatFileSize(size)),
		zap.Int("attempts", attempts),
		zap.Bool("resumed", outcome.resumed))

	return result
}

func (d *Downloader) validateFile(path string) error {
	result := d.validator.Validate(path)
	for _, w := range result.Warnings {
		d.logger.Warn("validation warning",
			zap.String("path", path), zap.String("warning", w))
	}
	if !result.IsValid {
		return domain.NewValidationError(result.Errors)
	}
	return nil
}

func (d *Downloader) userAgent(identity int) string {
	return d.config.UserAgents[identity%len(d.config.UserAgents)]
}

func failImmediate(start time.Time, err error) domain.DownloadResult {
	return domain.DownloadResult{
		Success:      false,
		AttemptsUsed: 0,
		TotalTime:    time.Since(start),
		AverageSpeed: "0.00",
		ErrorMessage: err.Error(),
	}
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
