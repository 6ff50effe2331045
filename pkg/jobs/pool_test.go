package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	var seen atomic.Int64
	pool := NewPool("test", func(ctx context.Context, task Task[int64]) error {
		seen.Add(task.Payload)
		return nil
	}, Options{Workers: 2})
	pool.Start(context.Background())
	defer pool.Shutdown()

	require.NoError(t, pool.Submit(Task[int64]{ID: "a", Payload: 3}))
	require.NoError(t, pool.Submit(Task[int64]{ID: "b", Payload: 4}))

	require.Eventually(t, func() bool {
		return seen.Load() == 7
	}, time.Second, 5*time.Millisecond)
}

func TestPoolRetriesUntilAttemptsSpent(t *testing.T) {
	var calls atomic.Int32
	pool := NewPool("test", func(ctx context.Context, task Task[string]) error {
		calls.Add(1)
		return errors.New("boom")
	}, Options{Workers: 1, Attempts: 3, Backoff: time.Millisecond})
	pool.Start(context.Background())
	defer pool.Shutdown()

	require.NoError(t, pool.Submit(Task[string]{ID: "a", Payload: "x"}))

	require.Eventually(t, func() bool {
		return calls.Load() == 3
	}, time.Second, 5*time.Millisecond)
	// The attempt budget is spent; the task must not come back.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoolSubmitBeforeStart(t *testing.T) {
	pool := NewPool("test", func(ctx context.Context, task Task[string]) error {
		return nil
	}, Options{})

	err := pool.Submit(Task[string]{ID: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not running")
}

func TestPoolSubmitFailsWhenBacklogFull(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool("test", func(ctx context.Context, task Task[string]) error {
		<-release
		return nil
	}, Options{Workers: 1, Backlog: 1})
	pool.Start(context.Background())
	defer func() {
		close(release)
		pool.Shutdown()
	}()

	// First task occupies the worker, second fills the backlog.
	require.NoError(t, pool.Submit(Task[string]{ID: "a"}))
	require.Eventually(t, func() bool {
		return pool.Submit(Task[string]{ID: "b"}) == nil
	}, time.Second, time.Millisecond)

	err := pool.Submit(Task[string]{ID: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backlog is full")
}
