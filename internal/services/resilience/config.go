package resilience

import (
	"time"

	"instantpay/internal/config"
)

// Config parameterizes the retry and circuit breaker policy.
type Config struct {
	// MaxAttempts bounds the calls made for one transfer, first try included.
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
	// AttemptTimeout bounds a single attempt; an attempt that runs out is a
	// fault and is retried.
	AttemptTimeout time.Duration

	// SlidingWindowSize is how many recent call outcomes the breaker looks at.
	SlidingWindowSize int
	// MinimumCalls is how many outcomes the window needs before it can trip.
	MinimumCalls int
	// FailureRateThreshold is the fault percentage (0-100] that opens the breaker.
	FailureRateThreshold float64
	// OpenStateCooldown is how long the breaker rejects calls before a trial.
	OpenStateCooldown time.Duration
	// HalfOpenMaxCalls is how many trial calls run while half-open.
	HalfOpenMaxCalls int
}

// Default configuration values
const (
	DefaultMaxAttempts          = 3
	DefaultRetryDelay           = time.Second
	DefaultAttemptTimeout       = 5 * time.Second
	DefaultSlidingWindowSize    = 5
	DefaultMinimumCalls         = 5
	DefaultFailureRateThreshold = 50.0
	DefaultOpenStateCooldown    = 10 * time.Second
	DefaultHalfOpenMaxCalls     = 1
)

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:          DefaultMaxAttempts,
		RetryDelay:           DefaultRetryDelay,
		AttemptTimeout:       DefaultAttemptTimeout,
		SlidingWindowSize:    DefaultSlidingWindowSize,
		MinimumCalls:         DefaultMinimumCalls,
		FailureRateThreshold: DefaultFailureRateThreshold,
		OpenStateCooldown:    DefaultOpenStateCooldown,
		HalfOpenMaxCalls:     DefaultHalfOpenMaxCalls,
	}
}

// LoadConfig reads the policy from RETRY_* and CB_* environment variables.
func LoadConfig() Config {
	return Config{
		MaxAttempts:          config.GetIntEnv("RETRY_MAX_ATTEMPTS", DefaultMaxAttempts),
		RetryDelay:           config.GetDurationEnv("RETRY_DELAY", DefaultRetryDelay),
		AttemptTimeout:       config.GetDurationEnv("RETRY_ATTEMPT_TIMEOUT", DefaultAttemptTimeout),
		SlidingWindowSize:    config.GetIntEnv("CB_SLIDING_WINDOW_SIZE", DefaultSlidingWindowSize),
		MinimumCalls:         config.GetIntEnv("CB_MINIMUM_CALLS", DefaultMinimumCalls),
		FailureRateThreshold: config.GetFloatEnv("CB_FAILURE_RATE_THRESHOLD", DefaultFailureRateThreshold),
		OpenStateCooldown:    config.GetDurationEnv("CB_OPEN_STATE_COOLDOWN", DefaultOpenStateCooldown),
		HalfOpenMaxCalls:     config.GetIntEnv("CB_HALF_OPEN_MAX_CALLS", DefaultHalfOpenMaxCalls),
	}
}

// normalize replaces out-of-range values with defaults. MinimumCalls is
// capped at the window size, a larger value could never be reached.
func (c Config) normalize() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.SlidingWindowSize < 1 {
		c.SlidingWindowSize = DefaultSlidingWindowSize
	}
	if c.MinimumCalls < 1 {
		c.MinimumCalls = DefaultMinimumCalls
	}
	if c.MinimumCalls > c.SlidingWindowSize {
		c.MinimumCalls = c.SlidingWindowSize
	}
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 100 {
		c.FailureRateThreshold = DefaultFailureRateThreshold
	}
	if c.OpenStateCooldown <= 0 {
		c.OpenStateCooldown = DefaultOpenStateCooldown
	}
	if c.HalfOpenMaxCalls < 1 {
		c.HalfOpenMaxCalls = DefaultHalfOpenMaxCalls
	}
	return c
}
