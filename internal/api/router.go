package api

import (
	"log/slog"
	"net/http"

	"github.com/agentverse/agentverse/internal/auth"
	"github.com/agentverse/agentverse/internal/indexer"
)

// SetupRoutes configures all API routes. Catalog reads are public; content
// submission and the indexing controls require a valid admin token.
func SetupRoutes(mux *http.ServeMux, contents ContentReader, catalog indexer.Catalog, trigger IndexTrigger, authConfig auth.Config, logger *slog.Logger) {
	handler := NewHandler(contents, catalog, logger)
	indexHandler := NewIndexHandler(trigger, logger)
	authHandler := NewAuthHandler(authConfig, logger)

	authMiddleware := auth.Middleware(authConfig)
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authMiddleware(h).ServeHTTP(w, r)
		}
	}

	// Authentication (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)

	// Catalog read path (public)
	mux.HandleFunc("/api/search", handler.SearchHandler)
	mux.HandleFunc("/api/recent", handler.RecentHandler)
	mux.HandleFunc("/api/featured", handler.FeaturedHandler)
	mux.HandleFunc("/api/tags", handler.TagsHandler)
	mux.HandleFunc("/api/content-types", handler.ContentTypesHandler)
	mux.HandleFunc("/api/agent-types", handler.AgentTypesHandler)
	mux.HandleFunc("/api/stats", handler.StatsHandler)
	mux.HandleFunc("/api/platforms/available", indexHandler.AvailablePlatforms)
	mux.HandleFunc("/api/content/", handler.ContentByIDHandler)

	// Manual submission (admin only)
	mux.HandleFunc("/api/content", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		protected(handler.SubmitContentHandler)(w, r)
	})

	// Indexing controls (admin only)
	mux.HandleFunc("/api/admin/index-all", protected(indexHandler.TriggerAll))
	mux.HandleFunc("/api/admin/index/", protected(indexHandler.TriggerPlatform))
	mux.HandleFunc("/api/admin/schedule", protected(indexHandler.Schedule))
}
