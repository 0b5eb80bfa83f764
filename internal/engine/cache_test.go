package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealhound/internal/common"
	"dealhound/internal/model"
)

func TestSnapshotCacheHitWithinWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := newMockStorage()
	store.latestSnapshot = &model.Snapshot{
		ID:         7,
		FetchedAt:  now.Add(-23 * time.Hour),
		Successful: true,
		Deals:      namedDeals("A", "B"),
	}

	cache := NewSnapshotCache(store, 24*time.Hour, nil)
	cache.now = func() time.Time { return now }

	snapshot, hit := cache.Lookup(context.Background())
	require.True(t, hit)
	assert.Equal(t, int64(7), snapshot.ID)
	assert.Len(t, snapshot.Deals, 2)
}

func TestSnapshotCacheHitAtExactWindowBoundary(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := newMockStorage()
	store.latestSnapshot = &model.Snapshot{
		FetchedAt:  now.Add(-24 * time.Hour),
		Successful: true,
		Deals:      namedDeals("A"),
	}

	cache := NewSnapshotCache(store, 24*time.Hour, nil)
	cache.now = func() time.Time { return now }

	_, hit := cache.Lookup(context.Background())
	assert.True(t, hit)
}

func TestSnapshotCacheMissWhenStale(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := newMockStorage()
	store.latestSnapshot = &model.Snapshot{
		FetchedAt:  now.Add(-25 * time.Hour),
		Successful: true,
		Deals:      namedDeals("A"),
	}

	cache := NewSnapshotCache(store, 24*time.Hour, nil)
	cache.now = func() time.Time { return now }

	_, hit := cache.Lookup(context.Background())
	assert.False(t, hit)
}

func TestSnapshotCacheMissWhenAbsent(t *testing.T) {
	store := newMockStorage()
	store.snapshotErr = common.ErrNotFound

	cache := NewSnapshotCache(store, 24*time.Hour, nil)
	_, hit := cache.Lookup(context.Background())
	assert.False(t, hit)
}

func TestSnapshotCacheMissOnStoreError(t *testing.T) {
	store := newMockStorage()
	store.snapshotErr = errors.New("connection reset")

	cache := NewSnapshotCache(store, 24*time.Hour, nil)
	_, hit := cache.Lookup(context.Background())
	assert.False(t, hit)
}
