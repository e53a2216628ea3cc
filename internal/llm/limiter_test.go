package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterBoundsInFlight(t *testing.T) {
	l := NewLimiter(2)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	require.Equal(t, 2, l.InFlight())

	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, l.Acquire(blocked), context.DeadlineExceeded)

	l.Release()
	require.NoError(t, l.Acquire(ctx))
	l.Release()
	l.Release()
	require.Equal(t, 0, l.InFlight())
}

func TestLimiterAcquireCanceled(t *testing.T) {
	l := NewLimiter(1)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx) }()
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// The canceled waiter must not have consumed a slot.
	l.Release()
	require.NoError(t, l.Acquire(context.Background()))
	l.Release()
}

func TestLimiterNilIsDisabled(t *testing.T) {
	var l *Limiter
	require.NoError(t, l.Acquire(context.Background()))
	l.Release()
	require.Equal(t, 0, l.Capacity())
}

func TestLimiterUnderContention(t *testing.T) {
	l := NewLimiter(3)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			defer l.Release()
			if got := l.InFlight(); got > 3 {
				t.Errorf("in-flight %d exceeds capacity", got)
			}
			time.Sleep(time.Millisecond)
		}()
	}
	wg.Wait()
	require.Equal(t, 0, l.InFlight())
}
