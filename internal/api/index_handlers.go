package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/agentverse/agentverse/internal/indexer"
)

// IndexTrigger is what the admin indexing endpoints need from the scheduler.
// A zero limit means the platform's configured limit.
type IndexTrigger interface {
	RunOne(ctx context.Context, platform string, limit int) (indexer.RunStats, error)
	RunAll(ctx context.Context, limit int) map[string]indexer.RunResult
	Jobs() []indexer.JobInfo
	Platforms() []string
}

// maxRunLimit bounds the per-run item cap a caller may request.
const maxRunLimit = 200

// parseRunLimit reads the optional limit query parameter. Absent means 0,
// letting the scheduler fall back to the platform's configured limit.
func parseRunLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxRunLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxRunLimit)
	}
	return n, nil
}

// IndexHandler serves the admin indexing endpoints.
type IndexHandler struct {
	trigger IndexTrigger
	logger  *slog.Logger
}

// NewIndexHandler creates a new indexing handler.
func NewIndexHandler(trigger IndexTrigger, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{trigger: trigger, logger: logger}
}

// TriggerPlatform handles POST /api/admin/index/:platform. The run executes
// synchronously and the response carries its stats.
func (h *IndexHandler) TriggerPlatform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	platform := strings.TrimPrefix(r.URL.Path, "/api/admin/index/")
	if platform == "" || strings.Contains(platform, "/") {
		writeError(w, http.StatusBadRequest, "invalid platform")
		return
	}

	limit, err := parseRunLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.trigger.RunOne(r.Context(), platform, limit)
	if errors.Is(err, indexer.ErrUnknownPlatform) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "unknown platform",
			"platforms": h.trigger.Platforms(),
		})
		return
	}
	if err != nil {
		h.logger.Error("manual index run failed", "platform", platform, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": err.Error(),
			"stats": stats,
		})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// TriggerAll handles POST /api/admin/index-all: a full sweep across every
// platform, with per-platform outcomes in the response.
func (h *IndexHandler) TriggerAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseRunLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := h.trigger.RunAll(r.Context(), limit)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Schedule handles GET /api/admin/schedule.
func (h *IndexHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"jobs": h.trigger.Jobs()})
}

// AvailablePlatforms handles GET /api/platforms/available.
func (h *IndexHandler) AvailablePlatforms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"platforms": h.trigger.Platforms()})
}
