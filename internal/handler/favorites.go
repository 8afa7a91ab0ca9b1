package handler

import (
	"log/slog"
	"net/http"

	"radiodir/internal/domain/models"
	"radiodir/internal/domain/services"
	"radiodir/internal/httputil"
)

// FavoriteHandler handles HTTP requests for favorite mutations
type FavoriteHandler struct {
	favoriteService services.FavoriteService
	logger          *slog.Logger
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favoriteService services.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteService: favoriteService,
		logger:          logger,
	}
}

// ListFavorites returns all favorite-flagged records
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	items, err := h.favoriteService.ListFavorites(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, directoryResponse{Key: models.FavoritesKey, Items: items})
}

// Toggle flips the favorite flag of a single record
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.favoriteService.Toggle(r.Context(), req.ID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, item)
}

// Remove unfavorites a batch of records and fills the undo buffer with the
// set it actually removed
func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := h.favoriteService.RemoveMany(r.Context(), req.IDs)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, removedResponse{Removed: removed})
}

// Undo restores the last removal set. Restored is empty when the undo
// window already elapsed.
func (h *FavoriteHandler) Undo(w http.ResponseWriter, r *http.Request) {
	restored, err := h.favoriteService.Undo(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, restoredResponse{Restored: restored})
}
