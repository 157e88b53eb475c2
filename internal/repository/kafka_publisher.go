package repository

import (
	"context"
	"fmt"

	"PulseGate/internal/domain/models"
	pkgkafka "PulseGate/pkg/kafka"
)

// KafkaSignalPublisher emits triggered-candidate events keyed by symbol so
// per-symbol ordering is preserved across partitions.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a publisher over a Kafka producer.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishCandidate(ctx context.Context, c *models.Candidate) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(c.Symbol), c); err != nil {
		return fmt.Errorf("publish candidate %s: %w", c.Symbol, err)
	}
	return nil
}

// PublishMessage implements logger.Publisher so the log collector can ship
// aggregated error batches over the same producer.
func (p *KafkaSignalPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}

// NopSignalPublisher is used when the event bus is disabled.
type NopSignalPublisher struct{}

func (NopSignalPublisher) PublishCandidate(context.Context, *models.Candidate) error { return nil }
func (NopSignalPublisher) Close() error                                              { return nil }
