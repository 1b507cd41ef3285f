package clustering

import (
	"context"

	"meridian/internal/domain/insight"
)

// Service groups review texts into topic clusters.
// Implementations may fail or return nothing on degenerate input (fewer
// texts than k); callers treat that as "no topics", never as an error.
type Service interface {
	Cluster(ctx context.Context, texts []string, k int) ([]insight.TopicCluster, error)

	// Name returns the backend name for logging.
	Name() string
}
