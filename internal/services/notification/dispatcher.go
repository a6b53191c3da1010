package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"instantpay/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

// Default configuration values
const (
	DefaultTimeout   = 5 * time.Second
	DefaultWorkers   = 4
	DefaultQueueSize = 1024
)

// DispatcherConfig sizes the dispatcher.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	// Timeout bounds a single Sink.Send call.
	Timeout time.Duration
}

// LoadDispatcherConfig reads NOTIFY_* environment variables.
func LoadDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:   config.GetIntEnv("NOTIFY_WORKERS", DefaultWorkers),
		QueueSize: config.GetIntEnv("NOTIFY_QUEUE_SIZE", DefaultQueueSize),
		Timeout:   config.GetDurationEnv("NOTIFY_TIMEOUT", DefaultTimeout),
	}
}

// FailureRecorder counts deliveries that failed on a worker.
type FailureRecorder interface {
	RecordNotificationFailure()
}

// Dispatcher implements transfer.Notifier. Notify only enqueues.
type Dispatcher struct {
	sink     Sink
	queue    chan Notification
	timeout  time.Duration
	failures FailureRecorder
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts cfg.Workers goroutines delivering to sink.
// failures may be nil.
func NewDispatcher(sink Sink, cfg DispatcherConfig, failures FailureRecorder, logger *zap.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		sink:     sink,
		queue:    make(chan Notification, cfg.QueueSize),
		timeout:  cfg.Timeout,
		failures: failures,
		logger:   logger,
	}
	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.run()
	}
	return d
}

// Notify queues a notification for recipientID. It never blocks: a full
// queue returns ErrQueueFull.
func (d *Dispatcher) Notify(_ context.Context, recipientID string, amount decimal.Decimal) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- Notification{RecipientID: recipientID, Amount: amount}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sink.Send(ctx, n); err != nil {
		if d.failures != nil {
			d.failures.RecordNotificationFailure()
		}
		d.logger.Warn("failed to deliver notification",
			zap.String("recipientId", n.RecipientID),
			zap.String("amount", n.Amount.String()),
			zap.Error(err),
		)
	}
}

// Close stops accepting notifications and waits until the queued ones are
// delivered or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
