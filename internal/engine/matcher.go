// Package engine implements the core matching pipeline: snapshot reuse,
// batch scheduling against the classification oracle, and reconciliation of
// per-batch judgments into one match set per user.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dealhound/internal/common"
	"dealhound/internal/model"
	"dealhound/internal/service"
)

// MatcherConfig wires the matcher's collaborators and tuning.
type MatcherConfig struct {
	Storage     service.Storage
	Extractor   service.Extractor
	Classifier  Classifier
	Notifier    service.Notifier // optional; nil disables digests
	Logger      *slog.Logger
	OnBatchDone func(completed, total int)
	BatchSize   int
	Concurrency int
	CacheTTL    time.Duration
	// DryRun computes matches without writing snapshots or matches and
	// without sending digests.
	DryRun bool
}

// Matcher orchestrates one full matching run: resolve the deal list (cache
// or fresh extraction), compile the user's preferences, schedule batches,
// reconcile, persist, and notify.
type Matcher struct {
	store     service.Storage
	extractor service.Extractor
	notifier  service.Notifier
	scheduler *Scheduler
	cache     *SnapshotCache
	logger    *slog.Logger
	now       func() time.Time
	dryRun    bool
}

// RunSummary reports what one matching run did for one user.
type RunSummary struct {
	UserID      string
	Preferences []string
	Matches     []model.MatchResult
	SnapshotID  int64
	TotalDeals  int
	CacheHit    bool
	Notified    bool
}

// NewMatcher creates a matcher from the given configuration.
func NewMatcher(cfg MatcherConfig) *Matcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		store:     cfg.Storage,
		extractor: cfg.Extractor,
		notifier:  cfg.Notifier,
		scheduler: NewScheduler(cfg.Classifier, SchedulerOptions{
			BatchSize:   cfg.BatchSize,
			Concurrency: cfg.Concurrency,
			OnBatchDone: cfg.OnBatchDone,
		}, logger),
		cache:  NewSnapshotCache(cfg.Storage, cfg.CacheTTL, logger),
		logger: logger,
		now:    time.Now,
		dryRun: cfg.DryRun,
	}
}

// Run performs a matching run for a single user.
func (m *Matcher) Run(ctx context.Context, userID string) (*RunSummary, error) {
	snapshot, cacheHit, err := m.resolveSnapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	return m.matchUser(ctx, userID, snapshot, cacheHit)
}

// RunAll performs a matching run for every user with stored preferences,
// sharing one snapshot resolution across users. A failure for one user is
// logged and does not stop the others.
func (m *Matcher) RunAll(ctx context.Context, forceRefresh bool) ([]*RunSummary, error) {
	users, err := m.store.ListUsersWithPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		m.logger.Info("no users with preferences, nothing to do")
		return nil, nil
	}

	snapshot, cacheHit, err := m.resolveSnapshot(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}

	summaries := make([]*RunSummary, 0, len(users))
	for _, user := range users {
		if ctx.Err() != nil {
			return summaries, ctx.Err()
		}
		summary, err := m.matchUser(ctx, user, snapshot, cacheHit)
		if err != nil {
			common.LogError(err, "matching failed for user", common.Fields{"user": user})
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// RunFresh behaves like Run but bypasses the snapshot cache.
func (m *Matcher) RunFresh(ctx context.Context, userID string) (*RunSummary, error) {
	snapshot, cacheHit, err := m.resolveSnapshot(ctx, true)
	if err != nil {
		return nil, err
	}
	return m.matchUser(ctx, userID, snapshot, cacheHit)
}

// resolveSnapshot returns a usable snapshot: the cached one when fresh, or a
// newly extracted one. Extraction failure is fatal to the run and is recorded
// as a failed snapshot before surfacing.
func (m *Matcher) resolveSnapshot(ctx context.Context, forceRefresh bool) (*model.Snapshot, bool, error) {
	if !forceRefresh {
		if snapshot, hit := m.cache.Lookup(ctx); hit {
			return snapshot, true, nil
		}
	}

	m.logger.Info("extracting fresh deal list")
	deals, err := m.extractor.Extract(ctx)
	if err != nil {
		if !m.dryRun {
			failed := model.NewFailureSnapshot(err, m.now())
			if saveErr := m.store.SaveSnapshot(ctx, failed); saveErr != nil {
				common.LogError(saveErr, "failed to record failed snapshot", nil)
			}
		}
		return nil, false, common.NewUserError("deal extraction failed", err)
	}

	snapshot := model.NewSuccessSnapshot(deals, m.now())
	if m.dryRun {
		return snapshot, false, nil
	}
	if err := m.store.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, false, fmt.Errorf("failed to record snapshot: %w", err)
	}

	m.logger.Info("extraction complete", "snapshot_id", snapshot.ID, "deals", len(deals))
	return snapshot, false, nil
}

// matchUser runs the pipeline for one user against a resolved snapshot.
// Persistence failure for the computed matches is surfaced but does not
// discard the in-memory results or skip notification.
func (m *Matcher) matchUser(ctx context.Context, userID string, snapshot *model.Snapshot, cacheHit bool) (*RunSummary, error) {
	prefs, err := m.store.ListPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	texts := make([]string, len(prefs))
	for i, p := range prefs {
		texts[i] = p.Text
	}
	compiled := model.CompilePreferences(texts)

	summary := &RunSummary{
		UserID:      userID,
		Preferences: texts,
		SnapshotID:  snapshot.ID,
		TotalDeals:  len(snapshot.Deals),
		CacheHit:    cacheHit,
	}

	if compiled.IsEmpty() {
		m.logger.Info("user has no usable preferences, skipping matching", "user", userID)
		return summary, nil
	}

	reconciler, err := m.scheduler.Run(ctx, snapshot.Deals, compiled)
	if err != nil {
		return nil, fmt.Errorf("batch scheduling failed: %w", err)
	}
	summary.Matches = reconciler.Results(snapshot.Deals)

	m.logger.Info("matching complete",
		"user", userID,
		"deals", len(snapshot.Deals),
		"matches", len(summary.Matches))

	if m.dryRun {
		return summary, nil
	}

	var saveErr error
	if len(summary.Matches) > 0 {
		if err := m.store.SaveMatches(ctx, snapshot.ID, userID, summary.Matches); err != nil {
			common.LogError(err, "failed to persist matches", common.Fields{"user": userID})
			saveErr = err
		}
	}

	if m.notifier != nil && len(summary.Matches) > 0 {
		if err := m.notifier.SendDigest(ctx, userID, summary.Matches, texts); err != nil {
			m.logger.Warn("digest delivery failed", "user", userID, "error", err)
		} else {
			summary.Notified = true
		}
	}

	if saveErr != nil {
		return summary, fmt.Errorf("match persistence failed: %w", saveErr)
	}
	return summary, nil
}
