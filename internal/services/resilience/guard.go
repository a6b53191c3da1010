// Package resilience decorates a transfer.Service with bounded retry and a
// circuit breaker, converting every backend fault into the fallback outcome.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"instantpay/internal/services/transfer"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is reported to the fallback when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Fallback reasons
const (
	ReasonCircuitOpen      = "circuit_open"
	ReasonRetriesExhausted = "retries_exhausted"
	ReasonCancelled        = "cancelled"
)

// MetricsCollector receives resilience instrumentation.
type MetricsCollector interface {
	RecordRetry()
	RecordFallback(reason string)
	RecordBreakerState(state string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRetry()              {}
func (NoopMetricsCollector) RecordFallback(string)     {}
func (NoopMetricsCollector) RecordBreakerState(string) {}

// Guard owns one circuit breaker and the retry policy around it.
type Guard struct {
	config  Config
	breaker *gobreaker.CircuitBreaker
	window  *slidingWindow
	metrics MetricsCollector
	logger  *zap.Logger
}

// New builds a Guard. Out-of-range config values fall back to defaults.
func New(name string, cfg Config, metrics MetricsCollector, logger *zap.Logger) *Guard {
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.normalize()

	g := &Guard{
		config:  cfg,
		window:  newSlidingWindow(cfg.SlidingWindowSize),
		metrics: metrics,
		logger:  logger.With(zap.String("breaker", name)),
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.HalfOpenMaxCalls),
		Timeout:     cfg.OpenStateCooldown,
		// Interval 0: counts are never cleared while closed, the window
		// decides instead.
		Interval:      0,
		IsSuccessful:  g.isSuccessful,
		ReadyToTrip:   g.readyToTrip,
		OnStateChange: g.onStateChange,
	})
	metrics.RecordBreakerState(gobreaker.StateClosed.String())
	return g
}

// State reports "closed", "half-open" or "open".
func (g *Guard) State() string {
	return g.breaker.State().String()
}

// Wrap returns next decorated with the guard's policy. The returned
// service never returns an error.
func (g *Guard) Wrap(next transfer.Service) transfer.Service {
	return &guardedService{guard: g, next: next}
}

// Every engine error is a fault; outcome values, FAILED ones included, are
// successes for the breaker. The window itself is fed by attempt, which
// runs before gobreaker evaluates readyToTrip.
func (g *Guard) isSuccessful(err error) bool {
	return err == nil
}

func (g *Guard) readyToTrip(gobreaker.Counts) bool {
	calls, faults := g.window.snapshot()
	if calls < g.config.MinimumCalls {
		return false
	}
	rate := float64(faults) * 100 / float64(calls)
	return rate >= g.config.FailureRateThreshold
}

func (g *Guard) onStateChange(_ string, from, to gobreaker.State) {
	g.window.reset()
	g.metrics.RecordBreakerState(to.String())
	g.logger.Warn("circuit breaker state changed",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

// attempt runs one bounded call of next and records its outcome in the
// window of the epoch it was admitted in.
func (g *Guard) attempt(ctx context.Context, next transfer.Service, cmd transfer.Command) (transfer.Outcome, error) {
	epoch := g.window.current()

	attemptCtx, cancel := context.WithTimeout(ctx, g.config.AttemptTimeout)
	defer cancel()

	outcome, err := next.Transfer(attemptCtx, cmd)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("attempt exceeded %s: %w", g.config.AttemptTimeout, err)
	}
	if !g.window.recordIn(epoch, err != nil) {
		g.logger.Debug("discarding outcome of a call admitted before the last state change")
	}
	return outcome, err
}

type guardedService struct {
	guard *Guard
	next  transfer.Service
}

func (s *guardedService) Transfer(ctx context.Context, cmd transfer.Command) (transfer.Outcome, error) {
	g := s.guard
	var outcome transfer.Outcome

	attempt := 0
	operation := func() error {
		attempt++
		result, err := g.breaker.Execute(func() (interface{}, error) {
			return g.attempt(ctx, s.next, cmd)
		})
		switch {
		case err == nil:
			outcome = result.(transfer.Outcome)
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		default:
			// Includes an attempt that ran past AttemptTimeout.
			return err
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(g.config.RetryDelay), uint64(g.config.MaxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		g.metrics.RecordRetry()
		g.logger.Warn("transient failure, retrying payment",
			zap.String("idempotencyKey", cmd.IdempotencyKey),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err == nil {
		return outcome, nil
	}

	reason := ReasonRetriesExhausted
	switch {
	case errors.Is(err, ErrCircuitOpen):
		reason = ReasonCircuitOpen
	case ctx.Err() != nil:
		reason = ReasonCancelled
	}
	g.metrics.RecordFallback(reason)
	g.logger.Error("fallback triggered for payment",
		zap.String("senderId", cmd.SenderID),
		zap.String("recipientId", cmd.RecipientID),
		zap.String("amount", cmd.Amount.String()),
		zap.String("idempotencyKey", cmd.IdempotencyKey),
		zap.String("reason", reason),
		zap.Int("attempts", attempt),
		zap.Error(err),
	)
	return transfer.FallbackOutcome(), nil
}
