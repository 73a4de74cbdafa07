package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/agentverse/agentverse/internal/indexer"
	"github.com/agentverse/agentverse/internal/models"
)

// ContentReader is the catalog read path the public handlers depend on.
type ContentReader interface {
	Search(ctx context.Context, query *models.ContentQuery) (*models.ContentPage, error)
	GetByID(ctx context.Context, id int64) (*models.Content, error)
	Recent(ctx context.Context, limit int) ([]models.Content, error)
	Featured(ctx context.Context, limit int) ([]models.Content, error)
	Tags(ctx context.Context, limit int) ([]models.TagCount, error)
	AgentTypes(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*models.CatalogStats, error)
}

// Handler serves the public catalog endpoints.
type Handler struct {
	contents ContentReader
	catalog  indexer.Catalog
	writer   *indexer.Writer
	logger   *slog.Logger
}

// NewHandler creates a new catalog handler. catalog is used only for manual
// content submissions.
func NewHandler(contents ContentReader, catalog indexer.Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		contents: contents,
		catalog:  catalog,
		writer:   &indexer.Writer{},
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// SearchHandler handles GET /api/search.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query, err := parseContentQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.contents.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ContentByIDHandler handles GET /api/content/:id.
func (h *Handler) ContentByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/content/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid content id")
		return
	}

	content, err := h.contents.GetByID(r.Context(), id)
	if errors.Is(err, indexer.ErrNotFound) {
		writeError(w, http.StatusNotFound, "content not found")
		return
	}
	if err != nil {
		h.logger.Error("content lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// SubmitContentHandler handles POST /api/content: a manual submission that
// goes through the same dedup-by-URL path as the collectors.
func (h *Handler) SubmitContentHandler(w http.ResponseWriter, r *http.Request) {
	var draft models.ContentDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateDraft(&draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if draft.SourcePlatform == "" {
		draft.SourcePlatform = "manual"
	}

	tx, err := h.catalog.Begin(r.Context())
	if err != nil {
		h.logger.Error("failed to open transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	outcome, err := h.writer.Upsert(r.Context(), tx, &draft)
	if err != nil {
		tx.Rollback()
		h.logger.Error("submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}
	if outcome == indexer.OutcomeSkipped {
		tx.Rollback()
		writeError(w, http.StatusConflict, "content with this source URL already exists")
		return
	}
	if err := tx.Commit(); err != nil {
		h.logger.Error("failed to commit submission", "error", err)
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	h.logger.Info("manual content submitted", "title", draft.Title, "agent", draft.ExternalAgentID)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// RecentHandler handles GET /api/recent.
func (h *Handler) RecentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseLimitParam(r, 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contents, err := h.contents.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("recent query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": contents})
}

// FeaturedHandler handles GET /api/featured.
func (h *Handler) FeaturedHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseLimitParam(r, 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contents, err := h.contents.Featured(r.Context(), limit)
	if err != nil {
		h.logger.Error("featured query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": contents})
}

// TagsHandler handles GET /api/tags.
func (h *Handler) TagsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseLimitParam(r, 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tags, err := h.contents.Tags(r.Context(), limit)
	if err != nil {
		h.logger.Error("tags query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// ContentTypesHandler handles GET /api/content-types.
func (h *Handler) ContentTypesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content_types": contentTypeList})
}

// AgentTypesHandler handles GET /api/agent-types.
func (h *Handler) AgentTypesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	types, err := h.contents.AgentTypes(r.Context())
	if err != nil {
		h.logger.Error("agent types query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agent_types": types})
}

// parseLimitParam reads the optional limit query parameter for the list
// endpoints.
func parseLimitParam(r *http.Request, fallback int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 100 {
		return 0, fmt.Errorf("limit must be between 1 and 100")
	}
	return n, nil
}

// StatsHandler handles GET /api/stats.
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.contents.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
