package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDynamicScheduler_RunsSequentiallyUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs int
	s := NewDynamicScheduler(ctx)
	done := make(chan struct{})
	go func() {
		s.Start(func(context.Context) time.Duration {
			runs++
			if runs == 3 {
				cancel()
			}
			return time.Millisecond
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 3, runs)
}

func TestDynamicScheduler_RunContextSurvivesInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runErr error
	s := NewDynamicScheduler(ctx)
	s.Start(func(runCtx context.Context) time.Duration {
		cancel()
		runErr = runCtx.Err()
		return time.Hour
	})
	assert.NoError(t, runErr)
}

func TestDynamicScheduler_NonPositiveIntervalUsesFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stamps []time.Time
	s := NewDynamicScheduler(ctx)
	s.Fallback = 5 * time.Millisecond
	s.Start(func(context.Context) time.Duration {
		stamps = append(stamps, time.Now())
		if len(stamps) == 2 {
			cancel()
		}
		return 0
	})
	assert.Len(t, stamps, 2)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 5*time.Millisecond)
}

func TestDynamicScheduler_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	NewDynamicScheduler(ctx).Start(func(context.Context) time.Duration {
		called = true
		return time.Second
	})
	assert.False(t, called)
}
