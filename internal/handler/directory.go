package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"radiodir/internal/directory"
	"radiodir/internal/domain/models"
	"radiodir/internal/domain/services"
	"radiodir/internal/httputil"
)

// sseKeepaliveInterval is how often keepalive comments are written to idle
// streams so proxies do not cut the connection.
const sseKeepaliveInterval = 15 * time.Second

// DirectoryHandler handles HTTP requests for directory pages
type DirectoryHandler struct {
	syncService services.DirectorySyncService
	logger      *slog.Logger
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(syncService services.DirectorySyncService, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// GetDirectory returns the cached snapshot of a page and triggers a
// background refresh. Stale content is served immediately; the stream
// endpoint picks up the refreshed page.
func (h *DirectoryHandler) GetDirectory(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		httputil.RespondError(w, http.StatusBadRequest, "key is required")
		return
	}

	items, err := h.syncService.Snapshot(r.Context(), key)
	if err != nil {
		handleError(w, err)
		return
	}

	if key != models.FavoritesKey {
		h.syncService.Refresh(key)
	}

	httputil.RespondJSON(w, http.StatusOK, directoryResponse{Key: key, Items: items})
}

// StreamDirectory streams page snapshots via Server-Sent Events. The first
// event carries the current cache; every merge or favorite change affecting
// the page emits a new snapshot. The empty-cache timeout arrives as an
// error event.
func (h *DirectoryHandler) StreamDirectory(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		httputil.RespondError(w, http.StatusBadRequest, "key is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, err := h.syncService.Load(r.Context(), key)
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if key != models.FavoritesKey {
		h.syncService.Refresh(key)
	}

	h.logger.Debug("SSE stream established", "key", key)

	ticker := time.NewTicker(sseKeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case update, open := <-updates:
			if !open {
				h.logger.Debug("SSE stream ended", "key", key)
				return
			}
			if update.Err != nil {
				writeSSE(w, "error", map[string]string{"error": update.Err.Error()})
				flusher.Flush()
				continue
			}
			writeSSE(w, "snapshot", directoryResponse{Key: key, Items: update.Items})
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

// RefreshDirectory triggers a background refresh for a page. The response
// only acknowledges the request; duplicates of an in-flight refresh are
// dropped silently.
func (h *DirectoryHandler) RefreshDirectory(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.syncService.Refresh(req.Key)

	httputil.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// GetSegments returns the page regrouped into header-delimited segments.
// Repeated header query parameters select headers by URL; a selection
// reduces the response to the members of the matched headers.
func (h *DirectoryHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		httputil.RespondError(w, http.StatusBadRequest, "key is required")
		return
	}

	items, err := h.syncService.Snapshot(r.Context(), key)
	if err != nil {
		handleError(w, err)
		return
	}

	headerURLs := dedupe(r.URL.Query()["header"])
	if len(headerURLs) == 0 {
		httputil.RespondJSON(w, http.StatusOK, segmentsResponse{
			Key:      key,
			Segments: directory.Reconstruct(items),
		})
		return
	}

	selected := make([]models.DirectoryItem, len(headerURLs))
	for i, u := range headerURLs {
		selected[i] = models.DirectoryItem{URL: u}
	}

	httputil.RespondJSON(w, http.StatusOK, filteredResponse{
		Key:   key,
		Items: directory.FilterByHeaders(items, selected),
	})
}

// GetMap returns the page's geo-qualified records and their bounding box.
// Bounds is null when nothing on the page carries coordinates.
func (h *DirectoryHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		httputil.RespondError(w, http.StatusBadRequest, "key is required")
		return
	}

	items, err := h.syncService.Snapshot(r.Context(), key)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := mapResponse{Key: key}
	if bounds, located, ok := directory.BoundingBox(items); ok {
		resp.Bounds = &bounds
		resp.Items = located
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

func writeSSE(w http.ResponseWriter, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
