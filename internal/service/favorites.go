package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"radiodir/internal/domain"
	"radiodir/internal/domain/models"
	"radiodir/internal/domain/repositories"
	"radiodir/internal/domain/services"
)

type favoriteService struct {
	repo   repositories.DirectoryRepository
	hub    *ChangeHub
	logger *slog.Logger

	undoWindow time.Duration

	// The undo buffer is a single replace-or-clear slot: a new removal
	// replaces it wholesale, it never accumulates across operations.
	mu      sync.Mutex
	pending []models.DirectoryItem
	expiry  *time.Timer
}

// NewFavoriteService creates the favorite coordinator. undoWindow is how
// long a removal stays undoable before the buffer self-clears.
func NewFavoriteService(
	repo repositories.DirectoryRepository,
	hub *ChangeHub,
	undoWindow time.Duration,
	logger *slog.Logger,
) services.FavoriteService {
	return &favoriteService{
		repo:       repo,
		hub:        hub,
		logger:     logger,
		undoWindow: undoWindow,
	}
}

// Toggle flips one record's favorite flag. Flipping off fills the undo
// buffer with that record; flipping on leaves the buffer alone.
func (s *favoriteService) Toggle(ctx context.Context, id string) (*models.DirectoryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target := !item.IsFavorite
	if err := s.repo.SetFavorite(ctx, id, target); err != nil {
		return nil, err
	}
	item.IsFavorite = target

	if !target {
		s.replacePending([]models.DirectoryItem{*item})
	}

	s.publishFor(*item)
	s.logger.Info("favorite toggled", "id", id, "favorite", target)

	return item, nil
}

// RemoveMany unfavorites the given records. Unknown IDs and records that
// were not favorites are skipped; the undo buffer is replaced with exactly
// the set that was actually removed.
func (s *favoriteService) RemoveMany(ctx context.Context, ids []string) ([]models.DirectoryItem, error) {
	var removed []models.DirectoryItem

	for _, id := range ids {
		item, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !item.IsFavorite {
			continue
		}

		if err := s.repo.SetFavorite(ctx, id, false); err != nil {
			return nil, err
		}
		item.IsFavorite = false
		removed = append(removed, *item)
	}

	if len(removed) > 0 {
		s.replacePending(removed)
		for _, item := range removed {
			s.hub.Publish(item.ParentKey)
		}
		s.hub.Publish(models.FavoritesKey)
		s.logger.Info("favorites removed", "count", len(removed))
	}

	return removed, nil
}

// Undo restores everything in the buffer and clears it.
func (s *favoriteService) Undo(ctx context.Context) ([]models.DirectoryItem, error) {
	items := s.takePending()
	if len(items) == 0 {
		return nil, nil
	}

	restored := make([]models.DirectoryItem, 0, len(items))
	for _, item := range items {
		if err := s.repo.SetFavorite(ctx, item.ID, true); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Purged by a sync pass while the undo was pending.
				continue
			}
			return restored, err
		}
		item.IsFavorite = true
		restored = append(restored, item)
	}

	for _, item := range restored {
		s.hub.Publish(item.ParentKey)
	}
	s.hub.Publish(models.FavoritesKey)
	s.logger.Info("favorites restored", "count", len(restored))

	return restored, nil
}

// ListFavorites returns all favorite-flagged records.
func (s *favoriteService) ListFavorites(ctx context.Context) ([]models.DirectoryItem, error) {
	return s.repo.ListFavorites(ctx)
}

// replacePending swaps the buffer for a new removal set and rearms the
// expiry clock.
func (s *favoriteService) replacePending(items []models.DirectoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiry != nil {
		s.expiry.Stop()
	}
	s.pending = items
	s.expiry = time.AfterFunc(s.undoWindow, s.expirePending)
}

// takePending atomically empties the buffer and stops its expiry clock.
func (s *favoriteService) takePending() []models.DirectoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.pending
	s.pending = nil
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
	return items
}

func (s *favoriteService) expirePending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.expiry = nil
}

func (s *favoriteService) publishFor(item models.DirectoryItem) {
	s.hub.Publish(item.ParentKey)
	s.hub.Publish(models.FavoritesKey)
}
