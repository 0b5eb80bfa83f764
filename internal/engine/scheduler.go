package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"dealhound/internal/model"
)

// Default tuning for the batch scheduler.
const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 3
)

// SchedulerOptions configures batch partitioning and fan-out.
type SchedulerOptions struct {
	// OnBatchDone, when set, is invoked after each batch finishes both its
	// oracle calls, with the number of completed batches and the total.
	OnBatchDone func(completed, total int)
	BatchSize   int
	Concurrency int
}

// Scheduler partitions the deal list into fixed-size batches and runs them
// against the classifier under a concurrency ceiling. Within one batch the
// exclusion check always completes before the inclusion check is issued for
// the surviving subset; across batches no ordering is guaranteed or needed.
type Scheduler struct {
	classifier  Classifier
	logger      *slog.Logger
	onBatchDone func(completed, total int)
	batchSize   int
	concurrency int
}

// NewScheduler creates a scheduler with the given classifier and options.
func NewScheduler(classifier Classifier, opts SchedulerOptions, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Scheduler{
		classifier:  classifier,
		logger:      logger,
		onBatchDone: opts.OnBatchDone,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// observation is one per-deal judgment produced by a batch, carrying the
// deal's global index so results from different batches merge unambiguously.
type observation struct {
	reason     string
	index      int
	confidence int
	excluded   bool
}

// Run processes all deals and returns the merged reconciler. Batches collect
// observations into private slots while in flight; the shared reconciler is
// written only after every batch has joined, in batch order, so the merge is
// deterministic regardless of the concurrency degree. A batch whose oracle
// calls fail contributes nothing but never drops a sibling's results.
func (s *Scheduler) Run(ctx context.Context, deals []model.Deal, prefs model.PreferenceSet) (*Reconciler, error) {
	rec := NewReconciler()
	if len(deals) == 0 || prefs.IsEmpty() {
		return rec, nil
	}

	numBatches := (len(deals) + s.batchSize - 1) / s.batchSize
	perBatch := make([][]observation, numBatches)

	s.logger.Info("scheduling classification batches",
		"deals", len(deals),
		"batches", numBatches,
		"batch_size", s.batchSize,
		"concurrency", s.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var completed atomic.Int64
	for b := 0; b < numBatches; b++ {
		start := b * s.batchSize
		end := min(start+s.batchSize, len(deals))

		g.Go(func() error {
			obs, err := s.processBatch(gctx, deals[start:end], start, prefs)
			if err != nil {
				return err
			}
			perBatch[b] = obs
			if s.onBatchDone != nil {
				s.onBatchDone(int(completed.Add(1)), numBatches)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Single writer, after the join.
	for _, obs := range perBatch {
		for _, o := range obs {
			if o.excluded {
				rec.RecordExclusion(o.index, o.reason)
			} else {
				rec.RecordMatch(o.index, o.confidence, o.reason)
			}
		}
	}

	return rec, nil
}

// processBatch runs the exclusion check, then the inclusion check on the
// non-excluded remainder, remapping batch-local indices to global positions.
func (s *Scheduler) processBatch(ctx context.Context, batch []model.Deal, offset int, prefs model.PreferenceSet) ([]observation, error) {
	excluded, err := s.classifier.CheckExclusions(ctx, batch, prefs.Exclusions)
	if err != nil {
		return nil, err
	}

	obs := make([]observation, 0, len(batch))
	survivors := make([]model.Deal, 0, len(batch))
	survivorIndex := make([]int, 0, len(batch))

	for i, deal := range batch {
		if reason, ok := excluded[i]; ok {
			obs = append(obs, observation{index: offset + i, excluded: true, reason: reason})
			continue
		}
		survivors = append(survivors, deal)
		survivorIndex = append(survivorIndex, offset+i)
	}

	s.logger.Debug("batch exclusion check complete",
		"offset", offset,
		"batch_size", len(batch),
		"excluded", len(excluded))

	if len(survivors) == 0 || len(prefs.Inclusions) == 0 {
		return obs, nil
	}

	matches, err := s.classifier.FindMatches(ctx, survivors, prefs.Inclusions)
	if err != nil {
		return nil, err
	}

	for local, global := range survivorIndex {
		if m, ok := matches[local]; ok {
			obs = append(obs, observation{index: global, confidence: m.Confidence, reason: m.Reason})
		}
	}

	s.logger.Debug("batch inclusion check complete",
		"offset", offset,
		"survivors", len(survivors),
		"matched", len(matches))

	return obs, nil
}
