package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"radiodir/internal/directory"
	"radiodir/internal/domain"
	"radiodir/internal/domain/models"
	"radiodir/internal/domain/repositories"
	"radiodir/internal/domain/services"
	"radiodir/internal/remote"
	"radiodir/internal/sources"
)

// refreshBudget bounds one background fetch-normalize-merge pass.
const refreshBudget = 30 * time.Second

type syncService struct {
	repo       repositories.DirectoryRepository
	txManager  repositories.TransactionManager
	fetcher    remote.Fetcher
	registry   *sources.Registry
	normalizer *directory.Normalizer
	hub        *ChangeHub
	logger     *slog.Logger

	noDataTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
	timers   map[string]*time.Timer
}

// NewSyncService creates the directory sync coordinator. noDataTimeout is
// how long an empty page may stay empty after a refresh is requested before
// subscribers are told there is nothing to show.
func NewSyncService(
	repo repositories.DirectoryRepository,
	txManager repositories.TransactionManager,
	fetcher remote.Fetcher,
	registry *sources.Registry,
	hub *ChangeHub,
	noDataTimeout time.Duration,
	logger *slog.Logger,
) services.DirectorySyncService {
	return &syncService{
		repo:          repo,
		txManager:     txManager,
		fetcher:       fetcher,
		registry:      registry,
		normalizer:    directory.NewNormalizer(append(registry.Keys(), models.FavoritesKey)...),
		hub:           hub,
		logger:        logger,
		noDataTimeout: noDataTimeout,
		inflight:      make(map[string]struct{}),
		timers:        make(map[string]*time.Timer),
	}
}

// Load subscribes to a page. The channel carries the current snapshot first,
// then a fresh snapshot per store change. Fetch state is deliberately not
// part of the stream: cached content is served while refreshes run.
func (s *syncService) Load(ctx context.Context, key string) (<-chan services.Update, error) {
	if err := s.validateLoadKey(key); err != nil {
		return nil, err
	}

	id, events := s.hub.Subscribe(key)
	out := make(chan services.Update, 1)

	go func() {
		defer close(out)
		defer s.hub.Unsubscribe(key, id)

		s.emitSnapshot(ctx, key, out)

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if ev.Err != nil {
					sendLatest(ctx, out, services.Update{Err: ev.Err})
					continue
				}
				s.emitSnapshot(ctx, key, out)
			}
		}
	}()

	return out, nil
}

// Refresh triggers a background refresh. A refresh already in flight for
// the key drops the request; duplicates are not queued.
func (s *syncService) Refresh(key string) {
	if err := s.validateRefreshKey(key); err != nil {
		s.logger.Warn("refresh rejected", "key", key, "error", err)
		return
	}

	if !s.acquire(key) {
		s.logger.Debug("refresh already in flight", "key", key)
		return
	}

	s.armNoDataTimer(key)

	go func() {
		defer s.release(key)

		ctx, cancel := context.WithTimeout(context.Background(), refreshBudget)
		defer cancel()

		if err := s.refresh(ctx, key); err != nil {
			// Swallowed: subscribers keep whatever is cached. Only the
			// no-data timer escalates.
			s.logger.Warn("refresh failed", "key", key, "error", err)
		}
	}()
}

// RefreshNow performs a refresh synchronously and reports its error.
func (s *syncService) RefreshNow(ctx context.Context, key string) error {
	if err := s.validateRefreshKey(key); err != nil {
		return err
	}

	if !s.acquire(key) {
		return nil
	}
	defer s.release(key)

	return s.refresh(ctx, key)
}

// Snapshot returns the current cached page without subscribing.
func (s *syncService) Snapshot(ctx context.Context, key string) ([]models.DirectoryItem, error) {
	if err := s.validateLoadKey(key); err != nil {
		return nil, err
	}
	return s.query(ctx, key)
}

// refresh fetches, normalizes and merges one page. The merge replaces the
// page by diff: new records upsert (keeping favorite flags), records absent
// from the new normalization are deleted, atomically.
func (s *syncService) refresh(ctx context.Context, key string) error {
	fetchURL := key
	if src, ok := s.registry.Get(key); ok {
		fetchURL = src.URL
	}

	body, err := s.fetcher.FetchDirectory(ctx, fetchURL)
	if err != nil {
		return err
	}

	items, err := s.normalizer.Normalize(body, key)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("page %s: empty normalized result: %w", key, domain.ErrFetchFailed)
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.ListIDsByParent(txCtx, key)
		if err != nil {
			return err
		}

		keep := make(map[string]struct{}, len(items))
		for i := range items {
			keep[items[i].ID] = struct{}{}
		}

		var stale []string
		for _, id := range existing {
			if _, ok := keep[id]; !ok {
				stale = append(stale, id)
			}
		}

		if err := s.repo.Upsert(txCtx, items); err != nil {
			return err
		}
		return s.repo.DeleteByIDs(txCtx, stale)
	})
	if err != nil {
		return fmt.Errorf("merge page %s: %w", key, err)
	}

	s.cancelNoDataTimer(key)
	s.hub.Publish(key)
	s.logger.Info("page merged", "key", key, "items", len(items))

	return nil
}

func (s *syncService) query(ctx context.Context, key string) ([]models.DirectoryItem, error) {
	if key == models.FavoritesKey {
		return s.repo.ListFavorites(ctx)
	}
	return s.repo.ListByParent(ctx, key)
}

func (s *syncService) emitSnapshot(ctx context.Context, key string, out chan services.Update) {
	items, err := s.query(ctx, key)
	if err != nil {
		s.logger.Error("snapshot query failed", "key", key, "error", err)
		return
	}
	sendLatest(ctx, out, services.Update{Items: items})
}

// sendLatest delivers u with latest-wins semantics: a slow consumer's
// undelivered update is replaced instead of blocking the publisher.
func sendLatest(ctx context.Context, out chan services.Update, u services.Update) {
	for {
		select {
		case out <- u:
			return
		case <-ctx.Done():
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}

// validateLoadKey accepts canonical URLs, configured source keys and the
// favorites sentinel.
func (s *syncService) validateLoadKey(key string) error {
	if key == models.FavoritesKey {
		return nil
	}
	return s.validateRefreshKey(key)
}

// validateRefreshKey accepts canonical URLs and configured source keys.
// The favorites page is not fetchable.
func (s *syncService) validateRefreshKey(key string) error {
	if _, ok := s.registry.Get(key); ok {
		return nil
	}
	if directory.IsCanonical(key) {
		return nil
	}
	return fmt.Errorf("page key %q: %w", key, domain.ErrValidation)
}

func (s *syncService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *syncService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

// armNoDataTimer starts the empty-cache escalation clock for a key, unless
// cached data exists or a timer is already running. A successful merge
// cancels it; if it fires with the cache still empty, subscribers get the
// no-data signal.
func (s *syncService) armNoDataTimer(key string) {
	count, err := s.repo.CountByParent(context.Background(), key)
	if err != nil || count > 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, armed := s.timers[key]; armed {
		return
	}

	s.timers[key] = time.AfterFunc(s.noDataTimeout, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()

		count, err := s.repo.CountByParent(context.Background(), key)
		if err == nil && count > 0 {
			// Data arrived between the timer firing and this check;
			// stale-but-present beats an error.
			return
		}

		s.logger.Warn("no directory data within timeout", "key", key)
		s.hub.PublishError(key, domain.ErrNoData)
	})
}

func (s *syncService) cancelNoDataTimer(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}
