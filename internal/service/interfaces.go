// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"dealhound/internal/model"
)

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Snapshot operations. Snapshots are append-only; SaveSnapshot assigns
	// the ID and never updates existing rows.
	SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error
	GetLatestSuccessfulSnapshot(ctx context.Context) (*model.Snapshot, error)

	// Preference operations
	SavePreference(ctx context.Context, userID, text string) (*model.Preference, error)
	ListPreferences(ctx context.Context, userID string) ([]model.Preference, error)
	DeletePreference(ctx context.Context, userID string, id int64) error
	ListUsersWithPreferences(ctx context.Context) ([]string, error)

	// Match operations
	SaveMatches(ctx context.Context, snapshotID int64, userID string, matches []model.MatchResult) error
	ListMatches(ctx context.Context, userID string, limit int) ([]model.MatchResult, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Extractor produces the ordered deal list for a run. A failure is fatal to
// the run; retry/backoff, if any, lives entirely inside the implementation.
type Extractor interface {
	Extract(ctx context.Context) ([]model.Deal, error)
}

// Notifier delivers a digest of matched deals to a recipient. Delivery
// failure never rolls back the match computation.
type Notifier interface {
	SendDigest(ctx context.Context, recipient string, matches []model.MatchResult, preferences []string) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
