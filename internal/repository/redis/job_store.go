package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"meridian/internal/domain/job"
	"meridian/pkg/errors"
)

// Compile-time check
var _ job.Store = (*JobStore)(nil)

// JobStore implements job.Store using Redis.
// Jobs have no TTL; the reaper worker removes finished jobs past their
// retention age.
type JobStore struct {
	client *redis.Client
}

// NewJobStore creates a new job store
func NewJobStore(client *redis.Client) *JobStore {
	return &JobStore{client: client}
}

// Save stores a job, overwriting any previous state
func (s *JobStore) Save(ctx context.Context, j *job.AnalysisJob) error {
	data, err := json.Marshal(j)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal job: id=%s", j.ID)
	}

	if err := s.client.Set(ctx, s.getKey(j.ID), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to save job to redis: id=%s", j.ID)
	}

	return nil
}

// Get retrieves a job by id
func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*job.AnalysisJob, error) {
	data, err := s.client.Get(ctx, s.getKey(id)).Result()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "job not found: id=%s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get job from redis: id=%s", id)
	}

	var j job.AnalysisJob
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal job: id=%s", id)
	}

	return &j, nil
}

// SetStatus transitions a job and stamps the update time
func (s *JobStore) SetStatus(ctx context.Context, id uuid.UUID, status job.Status, errMsg string) error {
	j, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	j.Status = status
	j.Error = errMsg
	j.UpdatedAt = time.Now().UTC()

	return s.Save(ctx, j)
}

// DeleteOlderThan removes terminal jobs not updated within the given age.
// Running and queued jobs are never reaped.
func (s *JobStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)
	deleted := 0

	iter := s.client.Scan(ctx, 0, "job:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		data, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return deleted, errors.Wrapf(err, "failed to read job during reap: key=%s", key)
		}

		var j job.AnalysisJob
		if err := json.Unmarshal([]byte(data), &j); err != nil {
			// Unparseable entries are stale by definition
			_ = s.client.Del(ctx, key).Err()
			deleted++
			continue
		}

		if !j.Status.Terminal() || j.UpdatedAt.After(cutoff) {
			continue
		}

		if err := s.client.Del(ctx, key).Err(); err != nil {
			return deleted, errors.Wrapf(err, "failed to delete job: key=%s", key)
		}
		deleted++
	}

	if err := iter.Err(); err != nil {
		return deleted, errors.Wrap(err, "job scan failed")
	}

	return deleted, nil
}

func (s *JobStore) getKey(id uuid.UUID) string {
	return fmt.Sprintf("job:%s", id)
}
