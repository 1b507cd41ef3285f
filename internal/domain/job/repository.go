package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines job status persistence, keyed by job id
type Store interface {
	Save(ctx context.Context, j *AnalysisJob) error
	Get(ctx context.Context, id uuid.UUID) (*AnalysisJob, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, errMsg string) error
	DeleteOlderThan(ctx context.Context, age time.Duration) (int, error)
}
