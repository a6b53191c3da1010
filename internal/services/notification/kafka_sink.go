package notification

import (
	"context"
	"fmt"
	"time"

	"instantpay/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DefaultTopic is the topic notifications are published to.
const DefaultTopic = "transaction_notifications"

// MessageWriter is the subset of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig holds the producer settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LoadKafkaConfig reads KAFKA_BROKERS and KAFKA_TOPIC.
func LoadKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers: config.GetListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		Topic:   config.GetEnv("KAFKA_TOPIC", DefaultTopic),
	}
}

// NewKafkaWriter builds the producer used by KafkaSink.
func NewKafkaWriter(cfg KafkaConfig, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // same recipient, same partition
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Warn(fmt.Sprintf(msg, args...))
		}),
	}
}

// KafkaSink publishes notifications keyed by recipient id.
type KafkaSink struct {
	writer MessageWriter
	now    func() time.Time
}

// NewKafkaSink creates a sink on top of writer.
func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer, now: time.Now}
}

func (s *KafkaSink) Send(ctx context.Context, n Notification) error {
	err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.RecipientID),
		Value: []byte(n.Text()),
		Time:  s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
