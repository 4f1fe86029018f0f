package port

import "github.com/baldawsari/pdf-downloader-mcp/internal/domain"

// DownloadLogEntry is one recorded orchestration run.
type DownloadLogEntry struct {
	ID              int64
	URL             string
	LocalPath       string
	Success         bool
	FileSize        int64
	AttemptsUsed    int
	BytesDownloaded int64
	Resumed         bool
	DownloadTime    float64 // seconds
	TotalTime       float64 // seconds
	AverageSpeed    string
	ErrorMessage    string
	CreatedAt       string // RFC 3339
}

// LogStats summarizes the download log.
type LogStats struct {
	Total      int
	Succeeded  int
	Failed     int
	TotalBytes int64
}

// DownloadLogRepository persists completed orchestration runs.
type DownloadLogRepository interface {
	// Record stores the result of one run.
	Record(url string, result domain.DownloadResult) error

	// ListRecent returns up to limit entries, newest first.
	ListRecent(limit int) ([]DownloadLogEntry, error)

	// Stats returns aggregate counters over all entries.
	Stats() (LogStats, error)
}

// Store combines the repositories with connection lifecycle.
type Store interface {
	DownloadLogRepository

	// Ping checks connectivity.
	Ping() error

	// Close releases the underlying connection.
	Close() error
}
