package model

import "time"

// Snapshot is an immutable record of one extraction attempt: either a
// successful run carrying the ordered deal list, or a failure carrying the
// extraction error. Snapshots accumulate as append-only history.
type Snapshot struct {
	FetchedAt    time.Time
	ErrorMessage string
	Deals        []Deal
	ID           int64
	Successful   bool
}

// NewSuccessSnapshot builds a successful snapshot for the given deals.
func NewSuccessSnapshot(deals []Deal, at time.Time) *Snapshot {
	return &Snapshot{
		FetchedAt:  at,
		Successful: true,
		Deals:      deals,
	}
}

// NewFailureSnapshot builds a failed snapshot recording the extraction error.
func NewFailureSnapshot(err error, at time.Time) *Snapshot {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Snapshot{
		FetchedAt:    at,
		ErrorMessage: msg,
	}
}

// Age returns how long ago the snapshot was taken.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
