package engine

import "dealhound/internal/model"

// Reconciler merges per-batch observations into a single judgment per deal,
// keyed by the deal's global index. It is not safe for concurrent use; the
// scheduler feeds it only after all batches have joined.
type Reconciler struct {
	excluded map[int]string
	best     map[int]matchObservation
}

type matchObservation struct {
	reason     string
	confidence int
}

// NewReconciler creates an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{
		excluded: make(map[int]string),
		best:     make(map[int]matchObservation),
	}
}

// RecordExclusion marks a deal as excluded. Exclusion is sticky: once any
// batch reports a deal excluded it stays excluded, and the first reason wins.
func (r *Reconciler) RecordExclusion(index int, reason string) {
	if _, ok := r.excluded[index]; !ok {
		r.excluded[index] = reason
	}
}

// RecordMatch records an inclusion observation for a deal. Only the highest
// confidence survives; exact ties keep the observation recorded first.
func (r *Reconciler) RecordMatch(index, confidence int, reason string) {
	if cur, ok := r.best[index]; ok && cur.confidence >= confidence {
		return
	}
	r.best[index] = matchObservation{confidence: confidence, reason: reason}
}

// Excluded reports whether any batch excluded the deal at index.
func (r *Reconciler) Excluded(index int) bool {
	_, ok := r.excluded[index]
	return ok
}

// ExclusionReason returns the recorded reason for an excluded deal.
func (r *Reconciler) ExclusionReason(index int) (string, bool) {
	reason, ok := r.excluded[index]
	return reason, ok
}

// Results builds the final match set, ordered by position in the original
// deal list. A deal excluded by any batch never appears, regardless of any
// inclusion observation it also received.
func (r *Reconciler) Results(deals []model.Deal) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(r.best))
	for i, deal := range deals {
		if _, ok := r.excluded[i]; ok {
			continue
		}
		obs, ok := r.best[i]
		if !ok {
			continue
		}
		results = append(results, model.MatchResult{
			Deal:        deal,
			DealIndex:   i,
			Confidence:  obs.confidence,
			Explanation: obs.reason,
		})
	}
	return results
}
