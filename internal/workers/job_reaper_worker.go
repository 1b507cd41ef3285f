package workers

import (
	"context"
	"time"

	"meridian/internal/domain/job"
	"meridian/pkg/errors"
)

// EmbeddingPruner removes cached embedding vectors past their retention age.
type EmbeddingPruner interface {
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// JobReaperWorker removes finished analysis jobs and stale embedding
// vectors once they pass their retention age.
type JobReaperWorker struct {
	*BaseWorker
	jobs       job.Store
	embeddings EmbeddingPruner // optional
	maxAge     time.Duration
}

// NewJobReaperWorker creates a new job reaper worker
func NewJobReaperWorker(
	jobs job.Store,
	embeddings EmbeddingPruner,
	maxAge time.Duration,
	interval time.Duration,
	enabled bool,
) *JobReaperWorker {
	return &JobReaperWorker{
		BaseWorker: NewBaseWorker("job_reaper", interval, enabled),
		jobs:       jobs,
		embeddings: embeddings,
		maxAge:     maxAge,
	}
}

// Run executes one reap cycle
func (w *JobReaperWorker) Run(ctx context.Context) error {
	start := time.Now()

	reaped, err := w.jobs.DeleteOlderThan(ctx, w.maxAge)
	if err != nil {
		err = errors.Wrap(err, "reap jobs")
		w.RecordError(err, time.Since(start))
		return err
	}

	var pruned int64
	if w.embeddings != nil {
		// Embedding vectors are kept an order of magnitude longer than
		// jobs, they are expensive to recompute.
		pruned, err = w.embeddings.DeleteOlderThan(ctx, 10*w.maxAge)
		if err != nil {
			w.Log().Warnw("embedding prune failed", "error", err)
		}
	}

	if reaped > 0 || pruned > 0 {
		w.Log().Infow("retention pass finished",
			"jobs_reaped", reaped,
			"embeddings_pruned", pruned,
			"duration", time.Since(start),
		)
	}

	w.RecordRun(time.Since(start))
	return nil
}
