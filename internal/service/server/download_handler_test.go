package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baldawsari/pdf-downloader-mcp/internal/domain"
	"github.com/baldawsari/pdf-downloader-mcp/internal/port"
	"go.uber.org/zap"
)

// stubRunner records the request it was given and returns a canned
// result.
type stubRunner struct {
	got    domain.DownloadRequest
	result domain.DownloadResult
}

func (s *stubRunner) Run(ctx context.Context, req domain.DownloadRequest) domain.DownloadResult {
	s.got = req
	return s.result
}

// stubStore is an in-memory port.Store for handler tests.
type stubStore struct {
	recorded []port.DownloadLogEntry
	pingErr  error
}

func (s *stubStore) Record(url string, result domain.DownloadResult) error {
	s.recorded = append(s.recorded, port.DownloadLogEntry{
		URL:          url,
		Success:      result.Success,
		AttemptsUsed: result.AttemptsUsed,
	})
	return nil
}

func (s *stubStore) ListRecent(limit int) ([]port.DownloadLogEntry, error) {
	if limit > len(s.recorded) {
		limit = len(s.recorded)
	}
	return s.recorded[:limit], nil
}

func (s *stubStore) Stats() (port.LogStats, error) {
	stats := port.LogStats{Total: len(s.recorded)}
	for _, e := range s.recorded {
		if e.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

func (s *stubStore) Ping() error  { return s.pingErr }
func (s *stubStore) Close() error { return nil }

func newTestServer(runner Runner, store port.Store) *Server {
	return New(DefaultConfig(), runner, store, zap.NewNop())
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSubmit_Success(t *testing.T) {
	runner := &stubRunner{result: domain.DownloadResult{
		Success:         true,
		LocalPath:       "/downloads/paper.pdf",
		FileSize:        4096,
		AttemptsUsed:    1,
		DownloadTime:    2 * time.Second,
		TotalTime:       2100 * time.Millisecond,
		AverageSpeed:    "0.00",
		BytesDownloaded: 4096,
	}}
	store := &stubStore{}
	s := newTestServer(runner, store)

	rec := postJSON(t, s, "/v1/downloads", `{
		"url": "https://example.com/paper.pdf",
		"destination_path": "/downloads",
		"max_retries": 0,
		"retry_delay": 0.5,
		"timeout": 10
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != true {
		t.Error("success = false, want true")
	}
	if resp["local_path"] != "/downloads/paper.pdf" {
		t.Errorf("local_path = %v", resp["local_path"])
	}
	if resp["download_time"] != 2.0 {
		t.Errorf("download_time = %v, want 2.0", resp["download_time"])
	}
	if _, present := resp["error_message"]; present {
		t.Error("error_message should be omitted on success")
	}

	// Explicit zero max_retries passes through, seconds convert to
	// durations.
	if runner.got.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want explicit 0", runner.got.MaxRetries)
	}
	if runner.got.RetryDelay != 500*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 500ms", runner.got.RetryDelay)
	}
	if runner.got.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", runner.got.Timeout)
	}

	if len(store.recorded) != 1 {
		t.Fatalf("recorded = %d entries, want 1", len(store.recorded))
	}
	if store.recorded[0].URL != "https://example.com/paper.pdf" {
		t.Errorf("recorded URL = %q", store.recorded[0].URL)
	}
}

func TestHandleSubmit_DefaultsWhenTuningAbsent(t *testing.T) {
	runner := &stubRunner{result: domain.DownloadResult{Success: true}}
	s := newTestServer(runner, &stubStore{})

	rec := postJSON(t, s, "/v1/downloads",
		`{"url": "https://example.com/a.pdf", "destination_path": "/downloads"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if runner.got.MaxRetries != domain.DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", runner.got.MaxRetries, domain.DefaultMaxRetries)
	}
	// Zero durations are left for request normalization to default.
	if runner.got.RetryDelay != 0 || runner.got.Timeout != 0 {
		t.Errorf("durations = (%v, %v), want zero", runner.got.RetryDelay, runner.got.Timeout)
	}
}

func TestHandleSubmit_ValidationFailures(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantProblem string
	}{
		{
			name:        "missing url",
			body:        `{"destination_path": "/downloads"}`,
			wantProblem: "url is required",
		},
		{
			name:        "missing destination",
			body:        `{"url": "https://example.com/a.pdf"}`,
			wantProblem: "destination_path is required",
		},
		{
			name:        "malformed url",
			body:        `{"url": "not a url", "destination_path": "/downloads"}`,
			wantProblem: "url must be a valid URL",
		},
		{
			name:        "max_retries out of range",
			body:        `{"url": "https://example.com/a.pdf", "destination_path": "/d", "max_retries": 11}`,
			wantProblem: "max_retries",
		},
		{
			name:        "timeout out of range",
			body:        `{"url": "https://example.com/a.pdf", "destination_path": "/d", "timeout": 301}`,
			wantProblem: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			s := newTestServer(runner, &stubStore{})

			rec := postJSON(t, s, "/v1/downloads", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantProblem) {
				t.Errorf("body = %s, want problem %q", rec.Body.String(), tt.wantProblem)
			}
			if runner.got.URL != "" {
				t.Error("runner should not be invoked on validation failure")
			}
		})
	}
}

func TestHandleSubmit_UnknownFieldRejected(t *testing.T) {
	s := newTestServer(&stubRunner{}, &stubStore{})

	rec := postJSON(t, s, "/v1/downloads",
		`{"url": "https://example.com/a.pdf", "destination_path": "/d", "bogus": 1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSubmit_FailureReturnsBadGateway(t *testing.T) {
	runner := &stubRunner{result: domain.DownloadResult{
		Success:      false,
		AttemptsUsed: 4,
		AverageSpeed: "0.00",
		ErrorMessage: "failed after 4 attempts: last error: server error (HTTP 503)",
	}}
	s := newTestServer(runner, &stubStore{})

	rec := postJSON(t, s, "/v1/downloads",
		`{"url": "https://example.com/a.pdf", "destination_path": "/downloads"}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != false {
		t.Error("success = true, want false")
	}
	if resp["attempts_used"] != 4.0 {
		t.Errorf("attempts_used = %v, want 4", resp["attempts_used"])
	}
	if !strings.Contains(resp["error_message"].(string), "4 attempts") {
		t.Errorf("error_message = %v", resp["error_message"])
	}
}

func TestHandleList(t *testing.T) {
	store := &stubStore{recorded: []port.DownloadLogEntry{
		{URL: "https://example.com/a.pdf", Success: true},
		{URL: "https://example.com/b.pdf", Success: false},
	}}
	s := newTestServer(&stubRunner{}, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/downloads?limit=1", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Downloads []map[string]any `json:"downloads"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Downloads) != 1 {
		t.Fatalf("downloads = %d entries, want 1", len(resp.Downloads))
	}
}

func TestHandleList_BadLimit(t *testing.T) {
	s := newTestServer(&stubRunner{}, &stubStore{})

	for _, limit := range []string{"0", "-5", "abc", "5000"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/downloads?limit="+limit, nil)
		rec := httptest.NewRecorder()
		s.server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestHandleStats(t *testing.T) {
	store := &stubStore{recorded: []port.DownloadLogEntry{
		{Success: true}, {Success: true}, {Success: false},
	}}
	s := newTestServer(&stubRunner{}, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["total"] != 3.0 || resp["succeeded"] != 2.0 || resp["failed"] != 1.0 {
		t.Errorf("stats = %v", resp)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(&stubRunner{}, &stubStore{})
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		s.server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("database down", func(t *testing.T) {
		s := newTestServer(&stubRunner{}, &stubStore{pingErr: context.DeadlineExceeded})
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		s.server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}
