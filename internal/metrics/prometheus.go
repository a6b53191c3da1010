// Package metrics exports payment instrumentation to Prometheus.
package metrics

import (
	"time"

	"instantpay/internal/services/transfer"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var breakerStates = []string{"closed", "half-open", "open"}

// Collector implements transfer.MetricsCollector and
// resilience.MetricsCollector.
type Collector struct {
	outcomes             *prometheus.CounterVec
	duration             prometheus.Histogram
	notificationFailures prometheus.Counter
	retries              prometheus.Counter
	fallbacks            *prometheus.CounterVec
	breakerState         *prometheus.GaugeVec
}

// NewCollector registers the payment metrics with reg. Pass
// prometheus.DefaultRegisterer to serve them from promhttp.Handler.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_transfers_total",
				Help: "Total number of transfers by outcome",
			},
			[]string{"success_code", "message"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "payments_transfer_duration_seconds",
				Help:    "Duration of transfer processing",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
			},
		),
		notificationFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payments_notification_failures_total",
				Help: "Total number of notifications that could not be dispatched",
			},
		),
		retries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payments_retries_total",
				Help: "Total number of transfer retries after a backend fault",
			},
		),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_fallbacks_total",
				Help: "Total number of transfers answered with the fallback outcome",
			},
			[]string{"reason"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "payments_circuit_breaker_state",
				Help: "1 for the current circuit breaker state, 0 otherwise",
			},
			[]string{"state"},
		),
	}
}

func (c *Collector) RecordOutcome(code transfer.SuccessCode, message string) {
	c.outcomes.WithLabelValues(string(code), message).Inc()
}

func (c *Collector) RecordDuration(d time.Duration) {
	c.duration.Observe(d.Seconds())
}

func (c *Collector) RecordNotificationFailure() {
	c.notificationFailures.Inc()
}

func (c *Collector) RecordRetry() {
	c.retries.Inc()
}

func (c *Collector) RecordFallback(reason string) {
	c.fallbacks.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordBreakerState(state string) {
	for _, s := range breakerStates {
		value := 0.0
		if s == state {
			value = 1
		}
		c.breakerState.WithLabelValues(s).Set(value)
	}
}
