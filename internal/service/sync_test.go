package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiodir/internal/domain"
	"radiodir/internal/domain/models"
	"radiodir/internal/domain/services"
	"radiodir/internal/sources"
)

const stationsURL = "https://directory.radiodir.dev/v1/stations"

func newTestSync(t *testing.T, repo *fakeRepo, fetcher *fakeFetcher, noDataTimeout time.Duration) services.DirectorySyncService {
	t.Helper()

	registry, err := sources.NewRegistry()
	require.NoError(t, err)

	return NewSyncService(
		repo,
		fakeTxManager{},
		fetcher,
		registry,
		NewChangeHub(),
		noDataTimeout,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func stationsBody(texts ...string) []models.NestedNode {
	nodes := make([]models.NestedNode, len(texts))
	for i, text := range texts {
		nodes[i] = models.NestedNode{
			Text: text,
			URL:  "http://streams.example/" + text,
			Type: "audio",
		}
	}
	return nodes
}

func TestRefreshNowMergesPage(t *testing.T) {
	repo := newFakeRepo()
	fetcher := newFakeFetcher()
	fetcher.bodies[stationsURL] = stationsBody("Alpha", "Beta", "Gamma")
	svc := newTestSync(t, repo, fetcher, time.Minute)

	require.NoError(t, svc.RefreshNow(context.Background(), "stations"))

	items, err := svc.Snapshot(context.Background(), "stations")
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i, item := range items {
		assert.Equal(t, i, item.Position)
		assert.Equal(t, "stations", item.ParentKey)
		assert.Equal(t, models.KindAudio, item.Kind)
		assert.Equal(t, "https", item.URL[:5])
	}
	assert.Equal(t, "Alpha", items[0].Text)
}

func TestRefreshNowPreservesFavorites(t *testing.T) {
	repo := newFakeRepo()
	fetcher := newFakeFetcher()
	fetcher.bodies[stationsURL] = stationsBody("Alpha", "Beta")
	svc := newTestSync(t, repo, fetcher, time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.RefreshNow(ctx, "stations"))

	items, err := svc.Snapshot(ctx, "stations")
	require.NoError(t, err)
	require.NoError(t, repo.SetFavorite(ctx, items[0].ID, true))

	require.NoError(t, svc.RefreshNow(ctx, "stations"))

	after, err := svc.Snapshot(ctx, "stations")
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.True(t, after[0].IsFavorite, "favorite flag must survive re-sync")
	assert.False(t, after[1].IsFavorite)
}

func TestRefreshNowDeletesStaleRecords(t *testing.T) {
	repo := newFakeRepo()
	fetcher := newFakeFetcher()
	fetcher.bodies[stationsURL] = stationsBody("Alpha", "Beta")
	svc := newTestSync(t, repo, fetcher, time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.RefreshNow(ctx, "stations"))

	fetcher.mu.Lock()
	fetcher.bodies[stationsURL] = stationsBody("Alpha", "Gamma")
	fetcher.mu.Unlock()

	require.NoError(t, svc.RefreshNow(ctx, "stations"))

	items, err := svc.Snapshot(ctx, "stations")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Alpha", items[0].Text)
	assert.Equal(t, "Gamma", items[1].Text)
}

func TestRefreshNowRejectsEmptyResult(t *testing.T) {
	repo := newFakeRepo()
	fetcher := newFakeFetcher()
	fetcher.bodies[stationsURL] = stationsBody("Alpha")
	svc := newTestSync(t, repo, fetcher, time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.RefreshNow(ctx, "stations"))

	// Everything in the next body normalizes away. The merge must not run:
	// the cached page stays as is.
	fetcher.mu.Lock()
	fetcher.bodies[stationsURL] = []models.NestedNode{{Text: "", URL: "https://x.example/a"}}
	fetcher.mu.Unlock()

	err := svc.RefreshNow(ctx, "stations")
	require.ErrorIs(t, err, domain.ErrFetchFailed)

	items, err := svc.Snapshot(ctx, "stations")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Alpha", items[0].Text)
}

func TestRefreshDropsDuplicateRequests(t *testing.T) {
	repo := newFakeRepo()
	fetcher := newFakeFetcher()
	fetcher.bodies[stationsURL] = stationsBody("Alpha")
	fetcher.block = make(chan struct{})
	svc := newTestSync(t, repo, fetcher, time.Minute)

	svc.Refresh("stations")
	require.Eventually(t, func() bool { return fetcher.callCount() == 1 },
		time.Second, 5*time.Millisecond)

	// Still in flight; these must be dropped, not queued.
	svc.Refresh("stations")
	svc.Refresh("stations")

	close(fetcher.block)

	require.Eventually(t, func() bool {
		items, err := svc.Snapshot(context.Background(), "stations")
		return err == nil && len(items) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, fetcher.callCount())
}

func TestRefreshRejectsInvalidKeys(t *testing.T) {
	svc := newTestSync(t, newFakeRepo(), newFakeFetcher(), time.Minute)

	err := svc.RefreshNow(context.Background(), "ftp://bad.example")
	require.ErrorIs(t, err, domain.ErrValidation)

	// Favorites is assembled locally and never fetched.
	err = svc.RefreshNow(context.Background(), models.FavoritesKey)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestLoadEmitsSnapshotThenChanges(t *testing.T) {
	repo := newFakeRepo()
	fetcher := newFakeFetcher()
	fetcher.bodies[stationsURL] = stationsBody("Alpha", "Beta")
	svc := newTestSync(t, repo, fetcher, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Load(ctx, "stations")
	require.NoError(t, err)

	first := recvUpdate(t, updates)
	require.NoError(t, first.Err)
	assert.Empty(t, first.Items, "empty cache yields an empty first snapshot")

	require.NoError(t, svc.RefreshNow(context.Background(), "stations"))

	require.Eventually(t, func() bool {
		select {
		case u := <-updates:
			return u.Err == nil && len(u.Items) == 2
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-updates:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel not closed after cancel")
		}
	}
}

func TestLoadRejectsInvalidKey(t *testing.T) {
	svc := newTestSync(t, newFakeRepo(), newFakeFetcher(), time.Minute)

	_, err := svc.Load(context.Background(), "not a url")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestNoDataTimeoutEscalates(t *testing.T) {
	repo := newFakeRepo()
	fetcher := newFakeFetcher()
	fetcher.err = errors.New("upstream down")
	svc := newTestSync(t, repo, fetcher, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Load(ctx, "stations")
	require.NoError(t, err)

	first := recvUpdate(t, updates)
	require.NoError(t, first.Err)

	svc.Refresh("stations")

	u := recvUpdate(t, updates)
	require.ErrorIs(t, u.Err, domain.ErrNoData)
}

func TestNoDataTimeoutSkippedWithCachedData(t *testing.T) {
	repo := newFakeRepo()
	fetcher := newFakeFetcher()
	fetcher.bodies[stationsURL] = stationsBody("Alpha")
	svc := newTestSync(t, repo, fetcher, 30*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, svc.RefreshNow(ctx, "stations"))

	// Upstream goes away; the cached page keeps serving and the timeout
	// never escalates because data exists.
	fetcher.mu.Lock()
	fetcher.err = errors.New("upstream down")
	fetcher.mu.Unlock()

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, err := svc.Load(loadCtx, "stations")
	require.NoError(t, err)

	first := recvUpdate(t, updates)
	require.NoError(t, first.Err)
	require.Len(t, first.Items, 1)

	svc.Refresh("stations")

	select {
	case u := <-updates:
		require.NoError(t, u.Err, "stale data must not be replaced by an error")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSnapshotFavoritesKey(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(
		models.DirectoryItem{ID: "a", ParentKey: "stations", Position: 0, Kind: models.KindAudio, Text: "Alpha", IsFavorite: true},
		models.DirectoryItem{ID: "b", ParentKey: "stations", Position: 1, Kind: models.KindAudio, Text: "Beta"},
	)
	svc := newTestSync(t, repo, newFakeFetcher(), time.Minute)

	items, err := svc.Snapshot(context.Background(), models.FavoritesKey)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Alpha", items[0].Text)
}

func recvUpdate(t *testing.T, ch <-chan services.Update) services.Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return services.Update{}
	}
}
