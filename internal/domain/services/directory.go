package services

import (
	"context"

	"radiodir/internal/domain/models"
)

// Update is one emission of a reactive page subscription. Err is non-nil
// only for the escalated empty-cache condition; ordinary fetch failures
// degrade to "no update" and never appear here.
type Update struct {
	Items []models.DirectoryItem
	Err   error
}

// DirectorySyncService keeps the local cache in sync with the remote
// directory and exposes a reactive read view over it.
type DirectorySyncService interface {
	// Load subscribes to a page. The channel carries the current snapshot
	// immediately, then a new snapshot after every merge or favorite change
	// affecting the page. It is closed when ctx is done. Load never fails
	// on missing data; an empty cache yields an empty snapshot.
	Load(ctx context.Context, key string) (<-chan Update, error)

	// Refresh triggers a background fetch-normalize-merge for a page.
	// At most one refresh per key is in flight; duplicates are dropped.
	Refresh(key string)

	// RefreshNow performs a refresh synchronously. Used by the seeder and
	// by tests; the HTTP surface goes through Refresh.
	RefreshNow(ctx context.Context, key string) error

	// Snapshot returns the current cached page without subscribing.
	Snapshot(ctx context.Context, key string) ([]models.DirectoryItem, error)
}

// FavoriteService mutates the favorite flag with snackbar-undo semantics:
// every removal replaces the pending-undo set, and the set self-clears
// after the undo window elapses.
type FavoriteService interface {
	// Toggle flips a single record's favorite flag and returns the updated
	// record. An unfavorite fills the undo buffer with that record.
	Toggle(ctx context.Context, id string) (*models.DirectoryItem, error)

	// RemoveMany unfavorites the given records and replaces the undo buffer
	// with exactly the set it removed.
	RemoveMany(ctx context.Context, ids []string) ([]models.DirectoryItem, error)

	// Undo re-favorites everything in the buffer and clears it. Returns the
	// restored records; empty when no removal is pending.
	Undo(ctx context.Context) ([]models.DirectoryItem, error)

	// ListFavorites returns all favorite-flagged records.
	ListFavorites(ctx context.Context) ([]models.DirectoryItem, error)
}
