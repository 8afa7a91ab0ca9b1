package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"radiodir/internal/domain"
	"radiodir/internal/domain/models"
	"radiodir/internal/domain/repositories"
)

// fakeRepo is an in-memory DirectoryRepository for service tests. It mirrors
// the postgres behavior that matters here: upserts keep the favorite flag of
// existing rows, reads come back in position order.
type fakeRepo struct {
	mu    sync.Mutex
	items map[string]models.DirectoryItem
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]models.DirectoryItem)}
}

func (r *fakeRepo) Upsert(_ context.Context, items []models.DirectoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		if existing, ok := r.items[item.ID]; ok {
			item.IsFavorite = existing.IsFavorite
		}
		r.items[item.ID] = item
	}
	return nil
}

func (r *fakeRepo) DeleteByIDs(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.items, id)
	}
	return nil
}

func (r *fakeRepo) ListByParent(_ context.Context, parentKey string) ([]models.DirectoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DirectoryItem
	for _, item := range r.items {
		if item.ParentKey == parentKey {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeRepo) ListIDsByParent(ctx context.Context, parentKey string) ([]string, error) {
	items, err := r.ListByParent(ctx, parentKey)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

func (r *fakeRepo) CountByParent(ctx context.Context, parentKey string) (int, error) {
	items, err := r.ListByParent(ctx, parentKey)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*models.DirectoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("directory item %s: %w", id, domain.ErrNotFound)
	}
	return &item, nil
}

func (r *fakeRepo) SetFavorite(_ context.Context, id string, favorite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("directory item %s: %w", id, domain.ErrNotFound)
	}
	item.IsFavorite = favorite
	r.items[id] = item
	return nil
}

func (r *fakeRepo) ListFavorites(_ context.Context) ([]models.DirectoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DirectoryItem
	for _, item := range r.items {
		if item.IsFavorite {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentKey != out[j].ParentKey {
			return out[i].ParentKey < out[j].ParentKey
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *fakeRepo) seed(items ...models.DirectoryItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.items[item.ID] = item
	}
}

// fakeFetcher serves canned nested bodies by URL. block, when set, holds
// every fetch until the channel is closed so in-flight behavior can be
// observed.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]models.NestedNode
	err    error
	block  chan struct{}
	calls  int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: make(map[string][]models.NestedNode)}
}

func (f *fakeFetcher) FetchDirectory(ctx context.Context, url string) ([]models.NestedNode, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	err := f.err
	body := f.bodies[url]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeTxManager runs the function directly; the fake repo has no real
// transactions to carry.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
