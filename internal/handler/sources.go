package handler

import (
	"log/slog"
	"net/http"

	"radiodir/internal/httputil"
	"radiodir/internal/sources"
)

// SourcesHandler serves the configured directory roots
type SourcesHandler struct {
	registry *sources.Registry
	logger   *slog.Logger
}

// NewSourcesHandler creates a new sources handler
func NewSourcesHandler(registry *sources.Registry, logger *slog.Logger) *SourcesHandler {
	return &SourcesHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListSources returns the configured roots in configuration order
func (h *SourcesHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sources": h.registry.List(),
	})
}
