package workers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/job"
	"meridian/pkg/errors"
)

type stubJobStore struct {
	deleteCalls int
	gotAge      time.Duration
	deleted     int
	err         error
}

func (s *stubJobStore) Save(_ context.Context, _ *job.AnalysisJob) error { return nil }

func (s *stubJobStore) Get(_ context.Context, _ uuid.UUID) (*job.AnalysisJob, error) {
	return nil, errors.ErrNotFound
}

func (s *stubJobStore) SetStatus(_ context.Context, _ uuid.UUID, _ job.Status, _ string) error {
	return nil
}

func (s *stubJobStore) DeleteOlderThan(_ context.Context, age time.Duration) (int, error) {
	s.deleteCalls++
	s.gotAge = age
	return s.deleted, s.err
}

type stubPruner struct {
	gotAge time.Duration
	pruned int64
	err    error
}

func (s *stubPruner) DeleteOlderThan(_ context.Context, age time.Duration) (int64, error) {
	s.gotAge = age
	return s.pruned, s.err
}

func TestJobReaperWorker_Run(t *testing.T) {
	store := &stubJobStore{deleted: 3}
	pruner := &stubPruner{pruned: 7}

	worker := NewJobReaperWorker(store, pruner, 24*time.Hour, time.Minute, true)
	require.NoError(t, worker.Run(context.Background()))

	assert.Equal(t, 1, store.deleteCalls)
	assert.Equal(t, 24*time.Hour, store.gotAge)
	assert.Equal(t, 240*time.Hour, pruner.gotAge)
}

func TestJobReaperWorker_StoreFailure(t *testing.T) {
	store := &stubJobStore{err: errors.ErrUnavailable}

	worker := NewJobReaperWorker(store, nil, 24*time.Hour, time.Minute, true)
	err := worker.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Equal(t, int64(1), worker.Health().ErrorCount)
}

func TestJobReaperWorker_PrunerFailureIsNotFatal(t *testing.T) {
	store := &stubJobStore{deleted: 1}
	pruner := &stubPruner{err: errors.ErrUnavailable}

	worker := NewJobReaperWorker(store, pruner, 24*time.Hour, time.Minute, true)
	require.NoError(t, worker.Run(context.Background()))
	assert.Equal(t, int64(0), worker.Health().ErrorCount)
}
