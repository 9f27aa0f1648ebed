package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testWork struct {
	id    int
	delay time.Duration
	fail  bool
}

func TestNewPool(t *testing.T) {
	processor := func(context.Context, testWork) error { return nil }

	pool := NewPool(5, 100, processor)
	assert.Equal(t, 5, pool.workers)
	assert.Equal(t, 100, pool.queueSize)

	pool = NewPool(0, 0, processor)
	assert.Equal(t, defaultWorkers, pool.workers)
	assert.Equal(t, defaultQueueSize, pool.queueSize)
}

func TestNewPool_NilProcessor(t *testing.T) {
	assert.PanicsWithValue(t, ErrNilProcessor, func() {
		NewPool[testWork](1, 1, nil)
	})
}

func TestPool_StartStop(t *testing.T) {
	var processed atomic.Int64
	pool := NewPool(2, 10, func(context.Context, testWork) error {
		processed.Add(1)
		return nil
	})

	require.ErrorIs(t, pool.Submit(testWork{}), ErrPoolNotStarted)

	require.NoError(t, pool.Start(context.Background()))
	require.ErrorIs(t, pool.Start(context.Background()), ErrPoolAlreadyStarted)

	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(testWork{id: i}))
	}

	require.NoError(t, pool.Stop(5*time.Second))
	assert.EqualValues(t, 5, processed.Load())
	assert.ErrorIs(t, pool.Submit(testWork{id: 99}), ErrPoolStopped)

	// stopping twice is harmless
	assert.NoError(t, pool.Stop(time.Second))
}

func TestPool_SingleWorkerPreservesOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	pool := NewPool(1, 100, func(_ context.Context, work testWork) error {
		mu.Lock()
		seen = append(seen, work.id)
		mu.Unlock()
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))

	var want []int
	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(testWork{id: i}))
		want = append(want, i)
	}
	require.NoError(t, pool.Stop(5*time.Second))

	assert.Equal(t, want, seen)
}

func TestPool_QueueFull(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(1, 2, func(context.Context, testWork) error {
		<-release
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))

	// one item is picked up by the worker, two more fill the queue
	require.NoError(t, pool.Submit(testWork{id: 1}))
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 }, time.Second, time.Millisecond)
	require.NoError(t, pool.Submit(testWork{id: 2}))
	require.NoError(t, pool.Submit(testWork{id: 3}))

	assert.ErrorIs(t, pool.Submit(testWork{id: 4}), ErrQueueFull)
	assert.EqualValues(t, 1, pool.Stats().Dropped)

	close(release)
	require.NoError(t, pool.Stop(5*time.Second))
	assert.EqualValues(t, 3, pool.Stats().Processed)
}

func TestPool_ErrorHandler(t *testing.T) {
	var failures atomic.Int64
	pool := NewPool(1, 10,
		func(_ context.Context, work testWork) error {
			if work.fail {
				return errors.New("boom")
			}
			return nil
		},
		WithErrorHandler(func(work testWork, err error) {
			assert.True(t, work.fail)
			assert.EqualError(t, err, "boom")
			failures.Add(1)
		}),
	)
	require.NoError(t, pool.Start(context.Background()))

	require.NoError(t, pool.Submit(testWork{id: 1}))
	require.NoError(t, pool.Submit(testWork{id: 2, fail: true}))
	require.NoError(t, pool.Stop(5*time.Second))

	assert.EqualValues(t, 1, failures.Load())
	assert.EqualValues(t, 1, pool.Stats().Failed)
}

func TestPool_CloseFromProcessor(t *testing.T) {
	var pool *Pool[testWork]
	pool = NewPool(1, 10, func(context.Context, testWork) error {
		pool.Close()
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Submit(testWork{id: 1}))

	require.NoError(t, pool.Stop(5*time.Second))
}

func TestPool_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(3, 10, func(context.Context, testWork) error { return nil })
	require.NoError(t, pool.Start(ctx))

	cancel()
	assert.NoError(t, pool.Stop(5*time.Second))
}

func TestPool_StopTimeout(t *testing.T) {
	release := make(chan struct{})
	pool := NewPool(1, 1, func(context.Context, testWork) error {
		<-release
		return nil
	})
	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Submit(testWork{delay: time.Second}))
	require.Eventually(t, func() bool { return pool.Stats().QueueDepth == 0 }, time.Second, time.Millisecond)

	assert.ErrorIs(t, pool.Stop(10*time.Millisecond), ErrStopTimeout)

	close(release)
	assert.NoError(t, pool.Stop(5*time.Second))
}
