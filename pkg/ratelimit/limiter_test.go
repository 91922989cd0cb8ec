package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FirstAcquireDoesNotWait(t *testing.T) {
	l := NewLimiter(10)
	waited, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.Less(t, waited, 5*time.Millisecond)
}

func TestLimiter_EnforcesMinimumInterval(t *testing.T) {
	l := NewLimiter(20) // 50ms min interval
	ctx := context.Background()

	_, err := l.Acquire(ctx)
	require.NoError(t, err)

	start := time.Now()
	_, err = l.Acquire(ctx)
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

func TestLimiter_FIFOAmongConcurrentWaiters(t *testing.T) {
	l := NewLimiter(50)
	ctx := context.Background()

	_, err := l.Acquire(ctx)
	require.NoError(t, err)

	const n = 5
	order := make([]int, 0, n)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Stagger goroutine start so call order is deterministic;
			// Reserve() inside Wait is computed under the bucket's own
			// lock in the order Wait is invoked.
			time.Sleep(time.Duration(i) * time.Millisecond)
			_, err := l.Acquire(ctx)
			require.NoError(t, err)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, order, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i, order[i])
	}
}

func TestLimiter_RespectsCancellation(t *testing.T) {
	l := NewLimiter(1) // 1s min interval
	ctx := context.Background()
	_, err := l.Acquire(ctx)
	require.NoError(t, err)

	cancelCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = l.Acquire(cancelCtx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}
