package domain

import "time"

// DownloadResult is the sole externally observable output of one
// orchestration run. It owns no further resources.
type DownloadResult struct {
	// Success reports whether a validated file is on disk.
	Success bool

	// LocalPath is the absolute path of the downloaded file.
	// Set only on success.
	LocalPath string

	// FileSize is the final size of the file on disk in bytes.
	FileSize int64

	// AttemptsUsed is the number of attempts actually made.
	AttemptsUsed int

	// DownloadTime is the duration of the final successful transfer.
	DownloadTime time.Duration

	// TotalTime is the wall-clock duration of the whole run,
	// including retry waits.
	TotalTime time.Duration

	// AverageSpeed is the transfer speed in MB/s formatted to two
	// decimals, e.g. "3.41".
	AverageSpeed string

	// Resumed reports whether the final attempt continued a partial
	// transfer (or found the file already complete on disk).
	Resumed bool

	// BytesDownloaded is the number of bytes written during the
	// final successful attempt only.
	BytesDownloaded int64

	// ErrorMessage describes the failure. Set only when Success is
	// false; it names the attempts made and the last classified
	// failure.
	ErrorMessage string
}
