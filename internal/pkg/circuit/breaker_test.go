package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cb := NewCircuitBreaker("oracle", 2, time.Minute)
	cb.SetClock(func() time.Time { return now })

	boom := errors.New("boom")
	assert.ErrorIs(t, cb.Do(func() error { return boom }), boom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Do(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	assert.ErrorIs(t, cb.Do(func() error { called = true; return nil }), ErrOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	assert.NoError(t, cb.Do(func() error { called = true; return nil }))
	assert.True(t, called)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cb := NewCircuitBreaker("oracle", 1, time.Second)
	cb.SetClock(func() time.Time { return now })

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	now = now.Add(2 * time.Second)
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_DisabledThreshold(t *testing.T) {
	cb := NewCircuitBreaker("off", 0, time.Second)
	for i := 0; i < 10; i++ {
		cb.RecordFailure()
	}
	assert.True(t, cb.Allow())
	assert.Equal(t, StateClosed, cb.State())
}
