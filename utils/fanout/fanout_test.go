package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunKeepsInputOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	results := Run(context.Background(), 3, items, func(_ context.Context, n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("item-%d", n), nil
	})

	require.Len(t, results, len(items))
	for i, n := range items {
		assert.NoError(t, results[i].Err)
		assert.Equal(t, fmt.Sprintf("item-%d", n), results[i].Value)
	}
}

func TestRunCollectsEveryFailure(t *testing.T) {
	errOdd := errors.New("odd")

	results := Run(context.Background(), 2, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, errOdd
		}
		return n * 10, nil
	})

	assert.ErrorIs(t, results[0].Err, errOdd)
	assert.Equal(t, 20, results[1].Value)
	assert.ErrorIs(t, results[2].Err, errOdd)
	assert.Equal(t, 40, results[3].Value)
}

func TestRunRespectsLimit(t *testing.T) {
	var inFlight, peak int32

	Run(context.Background(), 2, make([]struct{}, 10), func(_ context.Context, _ struct{}) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	results := Run(ctx, 1, []int{1}, func(context.Context, int) (int, error) {
		called = true
		return 1, nil
	})

	assert.False(t, called)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	results := Run(context.Background(), 0, []int(nil), func(context.Context, int) (int, error) {
		return 0, nil
	})
	assert.Empty(t, results)
}
