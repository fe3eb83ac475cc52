package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBackend = errors.New("backend down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(threshold int) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker("test", Config{FailureThreshold: threshold, Cooldown: time.Minute})
	b.now = clock.now
	return b, clock
}

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(2)

	assert.ErrorIs(t, b.Do(fail), errBackend)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(fail), errBackend)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := newTestBreaker(2)

	_ = b.Do(fail)
	_ = b.Do(succeed)
	_ = b.Do(fail)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ProbeAfterCooldown(t *testing.T) {
	b, clock := newTestBreaker(1)
	_ = b.Do(fail)
	assert.Equal(t, StateOpen, b.State())

	clock.t = clock.t.Add(2 * time.Minute)
	assert.NoError(t, b.Do(succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, clock := newTestBreaker(3)
	for i := 0; i < 3; i++ {
		_ = b.Do(fail)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	assert.ErrorIs(t, b.Do(fail), errBackend)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Do(succeed), ErrOpen)
}

func TestBreaker_SingleProbeInFlight(t *testing.T) {
	b, clock := newTestBreaker(1)
	_ = b.Do(fail)
	clock.t = clock.t.Add(2 * time.Minute)

	err := b.Do(func() error {
		// a second caller while the probe runs is turned away
		assert.ErrorIs(t, b.Do(succeed), ErrOpen)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
