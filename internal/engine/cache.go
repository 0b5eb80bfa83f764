package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dealhound/internal/common"
	"dealhound/internal/model"
	"dealhound/internal/service"
)

// DefaultCacheTTL is the freshness window for reusing an extraction snapshot.
const DefaultCacheTTL = 24 * time.Hour

// SnapshotCache decides whether the most recent successful extraction
// snapshot is fresh enough to reuse. It never mutates or evicts snapshots;
// freshness is purely a read-time computation.
type SnapshotCache struct {
	now    func() time.Time
	store  service.Storage
	logger *slog.Logger
	ttl    time.Duration
}

// NewSnapshotCache creates a cache over the given store with the given TTL.
func NewSnapshotCache(store service.Storage, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotCache{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Lookup returns the most recent successful snapshot when it is within the
// freshness window. Any storage error is treated as a miss: re-extraction is
// preferred over serving stale or uncertain data.
func (c *SnapshotCache) Lookup(ctx context.Context) (*model.Snapshot, bool) {
	snapshot, err := c.store.GetLatestSuccessfulSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			c.logger.Warn("snapshot lookup failed, treating as cache miss", "error", err)
		}
		return nil, false
	}
	if snapshot == nil || !snapshot.Successful {
		return nil, false
	}

	age := snapshot.Age(c.now())
	if age > c.ttl {
		c.logger.Debug("snapshot too old for reuse",
			"snapshot_id", snapshot.ID,
			"age", age,
			"ttl", c.ttl)
		return nil, false
	}

	c.logger.Info("reusing cached snapshot",
		"snapshot_id", snapshot.ID,
		"deals", len(snapshot.Deals),
		"age", age)
	return snapshot, true
}
