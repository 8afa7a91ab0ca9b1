package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"radiodir/internal/domain"
	"radiodir/internal/domain/models"
	"radiodir/internal/domain/repositories"
)

// PostgresDirectoryRepository implements the DirectoryRepository interface
type PostgresDirectoryRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(config *RepositoryConfig) repositories.DirectoryRepository {
	return &PostgresDirectoryRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const directoryColumns = `id, parent_key, position, kind, url, text, subtitle, child_count, image, latitude, longitude, is_favorite`

// Upsert inserts or replaces records by ID. The favorite flag of existing
// rows is left untouched: it is user state, not a network-derived field.
func (r *PostgresDirectoryRepository) Upsert(ctx context.Context, items []models.DirectoryItem) error {
	if len(items) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, parent_key, position, kind, url, text, subtitle, child_count, image, latitude, longitude, is_favorite, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, $12)
		ON CONFLICT (id) DO UPDATE SET
			parent_key  = EXCLUDED.parent_key,
			position    = EXCLUDED.position,
			kind        = EXCLUDED.kind,
			url         = EXCLUDED.url,
			text        = EXCLUDED.text,
			subtitle    = EXCLUDED.subtitle,
			child_count = EXCLUDED.child_count,
			image       = EXCLUDED.image,
			latitude    = EXCLUDED.latitude,
			longitude   = EXCLUDED.longitude,
			updated_at  = EXCLUDED.updated_at
	`, r.tables.DirectoryItems)

	executor := GetExecutor(ctx, r.pool)
	now := time.Now()

	for i := range items {
		it := &items[i]
		_, err := executor.Exec(ctx, query,
			it.ID,
			it.ParentKey,
			it.Position,
			it.Kind,
			it.URL,
			it.Text,
			it.Subtitle,
			it.ChildCount,
			it.Image,
			it.Latitude,
			it.Longitude,
			now,
		)
		if err != nil {
			return fmt.Errorf("upsert directory item %s: %w", it.ID, err)
		}
	}

	return nil
}

// DeleteByIDs removes records by ID.
func (r *PostgresDirectoryRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = ANY($1)
	`, r.tables.DirectoryItems)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete directory items: %w", err)
	}

	return nil
}

// ListByParent returns a page's records in position order.
func (r *PostgresDirectoryRepository) ListByParent(ctx context.Context, parentKey string) ([]models.DirectoryItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_key = $1
		ORDER BY position ASC
	`, directoryColumns, r.tables.DirectoryItems)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parentKey)
	if err != nil {
		return nil, fmt.Errorf("list directory items: %w", err)
	}
	defer rows.Close()

	return scanDirectoryItems(rows)
}

// ListIDsByParent returns the IDs currently stored under a page.
func (r *PostgresDirectoryRepository) ListIDsByParent(ctx context.Context, parentKey string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE parent_key = $1
	`, r.tables.DirectoryItems)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parentKey)
	if err != nil {
		return nil, fmt.Errorf("list directory item ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan directory item id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directory item ids: %w", err)
	}

	return ids, nil
}

// CountByParent returns the number of records stored under a page.
func (r *PostgresDirectoryRepository) CountByParent(ctx context.Context, parentKey string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE parent_key = $1
	`, r.tables.DirectoryItems)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, parentKey).Scan(&count); err != nil {
		return 0, fmt.Errorf("count directory items: %w", err)
	}

	return count, nil
}

// GetByID retrieves a single record.
func (r *PostgresDirectoryRepository) GetByID(ctx context.Context, id string) (*models.DirectoryItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, directoryColumns, r.tables.DirectoryItems)

	executor := GetExecutor(ctx, r.pool)

	var it models.DirectoryItem
	err := executor.QueryRow(ctx, query, id).Scan(
		&it.ID,
		&it.ParentKey,
		&it.Position,
		&it.Kind,
		&it.URL,
		&it.Text,
		&it.Subtitle,
		&it.ChildCount,
		&it.Image,
		&it.Latitude,
		&it.Longitude,
		&it.IsFavorite,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("directory item %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get directory item: %w", err)
	}

	return &it, nil
}

// SetFavorite updates the favorite flag of a record.
func (r *PostgresDirectoryRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_favorite = $1, updated_at = $2
		WHERE id = $3
	`, r.tables.DirectoryItems)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, favorite, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set favorite: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("directory item %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListFavorites returns all favorite-flagged records in position order.
func (r *PostgresDirectoryRepository) ListFavorites(ctx context.Context) ([]models.DirectoryItem, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE is_favorite
		ORDER BY parent_key ASC, position ASC
	`, directoryColumns, r.tables.DirectoryItems)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	return scanDirectoryItems(rows)
}

func scanDirectoryItems(rows pgx.Rows) ([]models.DirectoryItem, error) {
	var items []models.DirectoryItem
	for rows.Next() {
		var it models.DirectoryItem
		err := rows.Scan(
			&it.ID,
			&it.ParentKey,
			&it.Position,
			&it.Kind,
			&it.URL,
			&it.Text,
			&it.Subtitle,
			&it.ChildCount,
			&it.Image,
			&it.Latitude,
			&it.Longitude,
			&it.IsFavorite,
		)
		if err != nil {
			return nil, fmt.Errorf("scan directory item: %w", err)
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directory items: %w", err)
	}

	return items, nil
}
