package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWorker struct {
	*BaseWorker
	runs    int32
	runFunc func(ctx context.Context) error
}

func newStubWorker(name string, interval time.Duration, enabled bool) *stubWorker {
	return &stubWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
	}
}

func (w *stubWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&w.runs, 1)
	if w.runFunc != nil {
		return w.runFunc(ctx)
	}
	return nil
}

func (w *stubWorker) Runs() int {
	return int(atomic.LoadInt32(&w.runs))
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newStubWorker("scan", 100*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	// Runs immediately on start, then on each tick.
	assert.GreaterOrEqual(t, worker.Runs(), 2)
}

func TestScheduler_DisabledWorkerNeverRuns(t *testing.T) {
	scheduler := NewScheduler()

	enabled := newStubWorker("scan", 100*time.Millisecond, true)
	disabled := newStubWorker("reaper", 100*time.Millisecond, false)
	scheduler.RegisterWorker(enabled)
	scheduler.RegisterWorker(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.Runs(), 0)
	assert.Equal(t, 0, disabled.Runs())
}

func TestScheduler_PanicDoesNotKillLoop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newStubWorker("panicky", 80*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		panic("boom")
	}
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	// The loop survives the panic and keeps scheduling runs.
	assert.GreaterOrEqual(t, worker.Runs(), 2)
}

func TestScheduler_ContextCancellationStopsWorkers(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newStubWorker("scan", 100*time.Millisecond, true))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, scheduler.Start(ctx))

	cancel()
	time.Sleep(200 * time.Millisecond)

	// Stop is still clean after the context is gone.
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_CannotStartTwice(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newStubWorker("scan", 100*time.Millisecond, true))

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))
	assert.Error(t, scheduler.Start(ctx))

	_ = scheduler.Stop()
}

func TestScheduler_GetWorkers(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.RegisterWorker(newStubWorker("scan", time.Minute, true))
	scheduler.RegisterWorker(newStubWorker("reaper", time.Hour, false))

	registered := scheduler.GetWorkers()
	require.Len(t, registered, 2)
	assert.Equal(t, "scan", registered[0].Name())
	assert.Equal(t, "reaper", registered[1].Name())
}
