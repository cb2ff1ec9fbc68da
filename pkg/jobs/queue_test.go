package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesAndDrainsOnStop(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	q := New("test", func(_ context.Context, n int) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n)
		return nil
	}, Config{Workers: 2, BufferSize: 16})

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	q.Start(context.Background())
	q.Stop()

	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, seen)
	assert.ErrorIs(t, q.Enqueue(11), ErrQueueClosed)
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	q := New("retry", func(_ context.Context, _ string) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, Config{MaxRetries: 5, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue("entry"))
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	q := New("failing", func(_ context.Context, _ string) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}, Config{MaxRetries: 2, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue("entry"))
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueRejectsWhenFull(t *testing.T) {
	q := New("full", func(context.Context, int) error { return nil }, Config{BufferSize: 1})

	require.NoError(t, q.Enqueue(1))
	assert.ErrorIs(t, q.Enqueue(2), ErrQueueFull)

	q.Stop()
}
