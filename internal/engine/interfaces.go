package engine

import (
	"context"

	"dealhound/internal/llm"
	"dealhound/internal/model"
)

// Classifier is the oracle boundary the engine schedules work against. Both
// methods are fail-soft: oracle trouble yields an empty map, and the only
// error surfaced is context cancellation.
type Classifier interface {
	// CheckExclusions returns batch-local index -> exclusion reason for
	// deals with explicit evidence of containing an excluded item.
	CheckExclusions(ctx context.Context, deals []model.Deal, exclusions []string) (map[int]string, error)

	// FindMatches returns batch-local index -> match for deals that satisfy
	// at least one inclusion preference above the acceptance threshold.
	FindMatches(ctx context.Context, deals []model.Deal, inclusions []string) (map[int]llm.Match, error)
}
