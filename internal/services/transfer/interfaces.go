package transfer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service executes point-to-point transfers.
//
// Business-rule results (not found, insufficient balance, already processed)
// come back as an Outcome with a nil error. A non-nil error means a backend
// fault; nothing was persisted and the call may be retried with the same
// command.
type Service interface {
	Transfer(ctx context.Context, cmd Command) (Outcome, error)
}

// Notifier tells a recipient that funds arrived. Implementations must not
// block on delivery; the returned error is logged and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, amount decimal.Decimal) error
}

// MetricsCollector receives transfer instrumentation.
type MetricsCollector interface {
	RecordOutcome(code SuccessCode, message string)
	RecordDuration(duration time.Duration)
	RecordNotificationFailure()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOutcome(SuccessCode, string) {}
func (NoopMetricsCollector) RecordDuration(time.Duration)      {}
func (NoopMetricsCollector) RecordNotificationFailure()        {}
