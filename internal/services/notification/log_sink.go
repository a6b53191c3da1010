package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSink only logs notifications. It is used when Kafka is disabled.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log-only sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Send logs the notification at debug level.
func (s *LogSink) Send(_ context.Context, n Notification) error {
	s.logger.Debug("notification not sent, kafka disabled",
		zap.String("recipientId", n.RecipientID),
		zap.String("message", n.Text()),
	)
	return nil
}
