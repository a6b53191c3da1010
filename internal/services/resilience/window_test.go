package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindow(t *testing.T) {
	w := newSlidingWindow(3)

	w.recordIn(0, true)
	w.recordIn(0, false)
	calls, faults := w.snapshot()
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, faults)

	w.recordIn(0, true)
	w.recordIn(0, false) // evicts the first fault
	calls, faults = w.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, faults)

	w.recordIn(0, false) // evicts the success
	w.recordIn(0, false) // evicts the second fault
	calls, faults = w.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, faults)

	w.reset()
	calls, faults = w.snapshot()
	assert.Zero(t, calls)
	assert.Zero(t, faults)
}

func TestSlidingWindow_DropsOutcomesFromEarlierEpoch(t *testing.T) {
	w := newSlidingWindow(3)

	admitted := w.current()
	w.reset()

	assert.False(t, w.recordIn(admitted, true))
	calls, faults := w.snapshot()
	assert.Zero(t, calls)
	assert.Zero(t, faults)

	assert.True(t, w.recordIn(w.current(), true))
	calls, faults = w.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, faults)
}

func TestConfig_Normalize(t *testing.T) {
	got := Config{MinimumCalls: 10, SlidingWindowSize: 4, FailureRateThreshold: 150}.normalize()

	assert.Equal(t, DefaultMaxAttempts, got.MaxAttempts)
	assert.Equal(t, time.Duration(0), got.RetryDelay)
	assert.Equal(t, DefaultAttemptTimeout, got.AttemptTimeout)
	assert.Equal(t, 4, got.SlidingWindowSize)
	assert.Equal(t, 4, got.MinimumCalls)
	assert.Equal(t, DefaultFailureRateThreshold, got.FailureRateThreshold)
	assert.Equal(t, DefaultOpenStateCooldown, got.OpenStateCooldown)
	assert.Equal(t, DefaultHalfOpenMaxCalls, got.HalfOpenMaxCalls)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "4")
	t.Setenv("RETRY_DELAY", "200ms")
	t.Setenv("CB_SLIDING_WINDOW_SIZE", "10")
	t.Setenv("CB_MINIMUM_CALLS", "6")
	t.Setenv("CB_FAILURE_RATE_THRESHOLD", "75")
	t.Setenv("CB_OPEN_STATE_COOLDOWN", "30s")
	t.Setenv("RETRY_ATTEMPT_TIMEOUT", "2s")

	got := LoadConfig()

	assert.Equal(t, Config{
		MaxAttempts:          4,
		RetryDelay:           200 * time.Millisecond,
		AttemptTimeout:       2 * time.Second,
		SlidingWindowSize:    10,
		MinimumCalls:         6,
		FailureRateThreshold: 75,
		OpenStateCooldown:    30 * time.Second,
		HalfOpenMaxCalls:     DefaultHalfOpenMaxCalls,
	}, got)
	assert.Equal(t, DefaultConfig().MaxAttempts, 3)
}
