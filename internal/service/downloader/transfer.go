package downloader

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// copyBufferSize is the fixed chunk size for streaming writes,
// bounding peak memory independent of file size.
const copyBufferSize = 8 * 1024

// writeStream copies r to path in copyBufferSize chunks. A positive
// offset appends to the existing file; zero truncates it. Bytes
// already flushed to disk survive a mid-stream error so a later
// attempt can resume.
func writeStream(path string, r io.Reader, offset int64) (int64, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return 0, fmt.Errorf("open destination: %w", err)
	}

	buf := make([]byte, copyBufferSize)
	written, err := io.CopyBuffer(f, r, buf)
	closeErr := f.Close()

	if err != nil {
		return written, fmt.Errorf("write stream: %w", err)
	}
	if closeErr != nil {
		return written, fmt.Errorf("close destination: %w", closeErr)
	}

	return written, nil
}

// progressReader wraps a response body to log transfer progress
// periodically.
type progressReader struct {
	reader   io.Reader
	logger   *zap.Logger
	url      string
	initial  int64
	read     int64
	interval time.Duration
	lastLog  time.Time
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read += int64(n)

	if time.Since(r.lastLog) >= r.interval {
		r.logger.Debug("transfer progress",
			zap.String("url", r.url),
			zap.Int64("bytes_on_disk", r.initial+r.read))
		r.lastLog = time.Now()
	}

	return n, err
}
