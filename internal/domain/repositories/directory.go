package repositories

import (
	"context"

	"radiodir/internal/domain/models"
)

// DirectoryRepository defines data access operations for normalized
// directory records. Upsert must never touch is_favorite on existing rows;
// the flag is user state with its own lifecycle.
type DirectoryRepository interface {
	// Upsert inserts or replaces records by ID, preserving the favorite
	// flag of rows that already exist.
	Upsert(ctx context.Context, items []models.DirectoryItem) error

	// DeleteByIDs removes records by ID.
	DeleteByIDs(ctx context.Context, ids []string) error

	// ListByParent returns a page's records in position order.
	ListByParent(ctx context.Context, parentKey string) ([]models.DirectoryItem, error)

	// ListIDsByParent returns the IDs currently stored under a page.
	ListIDsByParent(ctx context.Context, parentKey string) ([]string, error)

	// CountByParent returns the number of records stored under a page.
	CountByParent(ctx context.Context, parentKey string) (int, error)

	// GetByID retrieves a single record.
	GetByID(ctx context.Context, id string) (*models.DirectoryItem, error)

	// SetFavorite updates the favorite flag of a record.
	SetFavorite(ctx context.Context, id string, favorite bool) error

	// ListFavorites returns all favorite-flagged records in position order.
	ListFavorites(ctx context.Context) ([]models.DirectoryItem, error)
}
