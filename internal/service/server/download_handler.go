package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/semaphore"

	"github.com/baldawsari/pdf-downloader-mcp/internal/domain"
	"github.com/baldawsari/pdf-downloader-mcp/internal/port"
	"go.uber.org/zap"
)

// Runner executes one download orchestration run.
type Runner interface {
	Run(ctx context.Context, req domain.DownloadRequest) domain.DownloadResult
}

// downloadRequest is the JSON body accepted by POST /v1/downloads.
// Pointer fields distinguish an absent tuning value from an explicit
// zero.
type downloadRequest struct {
	URL             string   `json:"url" validate:"required,url"`
	DestinationPath string   `json:"destination_path" validate:"required"`
	Filename        string   `json:"filename" validate:"omitempty,max=255"`
	MaxRetries      *int     `json:"max_retries" validate:"omitempty,min=0,max=10"`
	RetryDelay      *float64 `json:"retry_delay" validate:"omitempty,min=0.1,max=60"`
	Timeout         *float64 `json:"timeout" validate:"omitempty,min=5,max=300"`
}

// downloadResponse mirrors domain.DownloadResult with durations in
// seconds.
type downloadResponse struct {
	Success         bool    `json:"success"`
	LocalPath       string  `json:"local_path"`
	FileSize        int64   `json:"file_size"`
	AttemptsUsed    int     `json:"attempts_used"`
	DownloadTime    float64 `json:"download_time"`
	TotalTime       float64 `json:"total_time"`
	AverageSpeed    string  `json:"average_speed"`
	Resumed         bool    `json:"resumed"`
	BytesDownloaded int64   `json:"bytes_downloaded"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// DownloadHandler handles download submission and history requests
type DownloadHandler struct {
	runner   Runner
	store    port.Store
	sem      *semaphore.Weighted
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDownloadHandler creates a new DownloadHandler
func NewDownloadHandler(runner Runner, store port.Store, maxConcurrent int64, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		runner:   runner,
		store:    store,
		sem:      semaphore.NewWeighted(maxConcurrent),
		validate: validator.New(),
		logger:   logger,
	}
}

// HandleDownloads dispatches /v1/downloads by method: POST submits a
// download, GET lists recent history.
func (h *DownloadHandler) HandleDownloads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *DownloadHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body downloadRequest

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid request body",
			Details: []string{err.Error()},
		})
		return
	}

	if err := h.validate.Struct(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "validation failed",
			Details: validationProblems(err),
		})
		return
	}

	// Bound how many orchestration runs execute at once. Waiting in
	// line is cut short if the client goes away.
	if err := h.sem.Acquire(r.Context(), 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "server is shutting down or request was canceled",
		})
		return
	}
	defer h.sem.Release(1)

	req := domain.DownloadRequest{
		URL:            body.URL,
		DestinationDir: body.DestinationPath,
		Filename:       body.Filename,
		MaxRetries:     domain.DefaultMaxRetries,
	}
	if body.MaxRetries != nil {
		req.MaxRetries = *body.MaxRetries
	}
	if body.RetryDelay != nil {
		req.RetryDelay = secondsToDuration(*body.RetryDelay)
	}
	if body.Timeout != nil {
		req.Timeout = secondsToDuration(*body.Timeout)
	}

	result := h.runner.Run(r.Context(), req)

	if err := h.store.Record(body.URL, result); err != nil {
		h.logger.Error("failed to record download result",
			zap.String("url", body.URL), zap.Error(err))
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, downloadResponse{
		Success:         result.Success,
		LocalPath:       result.LocalPath,
		FileSize:        result.FileSize,
		AttemptsUsed:    result.AttemptsUsed,
		DownloadTime:    result.DownloadTime.Seconds(),
		TotalTime:       result.TotalTime.Seconds(),
		AverageSpeed:    result.AverageSpeed,
		Resumed:         result.Resumed,
		BytesDownloaded: result.BytesDownloaded,
		ErrorMessage:    result.ErrorMessage,
	})
}

func (h *DownloadHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "limit must be an integer between 1 and 1000",
			})
			return
		}
		limit = n
	}

	entries, err := h.store.ListRecent(limit)
	if err != nil {
		h.logger.Error("failed to list download history", zap.Error(err))
		http.Error(w, "Failed to list download history", http.StatusInternalServerError)
		return
	}

	downloads := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		downloads = append(downloads, map[string]any{
			"id":               e.ID,
			"url":              e.URL,
			"local_path":       e.LocalPath,
			"success":          e.Success,
			"file_size":        e.FileSize,
			"attempts_used":    e.AttemptsUsed,
			"bytes_downloaded": e.BytesDownloaded,
			"resumed":          e.Resumed,
			"download_time":    e.DownloadTime,
			"total_time":       e.TotalTime,
			"average_speed":    e.AverageSpeed,
			"error_message":    e.ErrorMessage,
			"created_at":       e.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"downloads": downloads})
}

// HandleStats handles aggregate statistics requests
func (h *DownloadHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.store.Stats()
	if err != nil {
		h.logger.Error("failed to get download stats", zap.Error(err))
		http.Error(w, "Failed to get download stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":       stats.Total,
		"succeeded":   stats.Succeeded,
		"failed":      stats.Failed,
		"total_bytes": stats.TotalBytes,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// validationProblems flattens validator errors into readable strings
// keyed by the JSON field name.
func validationProblems(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	fieldNames := map[string]string{
		"URL":             "url",
		"DestinationPath": "destination_path",
		"Filename":        "filename",
		"MaxRetries":      "max_retries",
		"RetryDelay":      "retry_delay",
		"Timeout":         "timeout",
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fieldNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", name))
		case "url":
			problems = append(problems, fmt.Sprintf("%s must be a valid URL", name))
		case "min", "max":
			problems = append(problems, fmt.Sprintf("%s must be between its permitted bounds (got %v)", name, fe.Value()))
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid (%s)", name, fe.Tag()))
		}
	}
	return problems
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
