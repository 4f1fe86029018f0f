package sqlite

import (
	"database/sql"

	"github.com/baldawsari/pdf-downloader-mcp/internal/domain"
	"github.com/baldawsari/pdf-downloader-mcp/internal/port"
)

// Record persists the outcome of one download run.
func (s *Store) Record(url string, result domain.DownloadResult) error {
	query := `
		INSERT INTO download_logs (
			url, local_path, success, file_size, attempts_used,
			bytes_downloaded, resumed, download_time, total_time,
			average_speed, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		url, result.LocalPath, result.Success, result.FileSize,
		result.AttemptsUsed, result.BytesDownloaded, result.Resumed,
		result.DownloadTime.Seconds(), result.TotalTime.Seconds(),
		result.AverageSpeed, result.ErrorMessage)

	return err
}

// ListRecent returns the most recent download log entries, newest
// first.
func (s *Store) ListRecent(limit int) ([]port.DownloadLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, url, local_path, success, file_size, attempts_used,
			   bytes_downloaded, resumed, download_time, total_time,
			   average_speed, error_message, created_at
		FROM download_logs
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []port.DownloadLogEntry
	for rows.Next() {
		var e port.DownloadLogEntry
		err := rows.Scan(
			&e.ID, &e.URL, &e.LocalPath, &e.Success, &e.FileSize,
			&e.AttemptsUsed, &e.BytesDownloaded, &e.Resumed,
			&e.DownloadTime, &e.TotalTime, &e.AverageSpeed,
			&e.ErrorMessage, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Stats returns aggregate counters over all recorded downloads.
func (s *Store) Stats() (port.LogStats, error) {
	var stats port.LogStats

	query := `
		SELECT COUNT(*),
			   COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			   COALESCE(SUM(CASE WHEN success THEN bytes_downloaded ELSE 0 END), 0)
		FROM download_logs
	`

	var succeeded int
	var totalBytes sql.NullInt64
	err := s.db.QueryRow(query).Scan(&stats.Total, &succeeded, &totalBytes)
	if err != nil {
		return stats, err
	}

	stats.Succeeded = succeeded
	stats.Failed = stats.Total - succeeded
	stats.TotalBytes = totalBytes.Int64
	return stats, nil
}
