// Package kafka publishes JSON build notifications so downstream consumers
// can reload a freshly built index.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/resilience"
)

// Event is one message. Key picks the partition, Type travels as the
// "event-type" header and Value is JSON-encoded.
type Event struct {
	Key   string
	Type  string
	Value any
}

// Publisher is what the index builder needs from a producer.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	retry  resilience.RetryConfig
	log    *slog.Logger
}

// NewProducer creates a synchronous producer for topic.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            1,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{
		writer: w,
		retry:  resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond},
		log:    logger.WithComponent("kafka-producer").With("topic", topic),
	}
}

// Publish encodes event and writes it, retrying broker failures with
// backoff. Encoding failures are not retried.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return fmt.Errorf("marshaling event value: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if event.Type != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "event-type", Value: []byte(event.Type)})
	}
	err = resilience.Retry(ctx, "kafka-publish", p.retry, func() error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publishing %q to kafka: %w", event.Type, err)
	}
	p.log.Debug("event published", "key", event.Key, "type", event.Type, "bytes", len(value))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
