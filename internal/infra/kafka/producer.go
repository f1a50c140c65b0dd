package kafka

import (
	"context"
	"time"

	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

// Producer publishes outbox events to the substrate. The Hash balancer keyed
// by partition key pins all events for one SKU to one partition, which is what
// gives consumers per-SKU ordering.
type Producer struct {
	writer    *kafka.Writer
	dlqWriter *kafka.Writer
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	return &Producer{
		writer:    newWriter(cfg.Brokers, cfg.InventoryTopic),
		dlqWriter: newWriter(cfg.Brokers, cfg.DeadLetterTopic),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  1, // retries belong to the outbox, not the transport
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Publish returns nil only after the broker has acknowledged the write.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return errs.Wrap(err, "kafka publish failed")
	}
	return nil
}

func (p *Producer) DeadLetter(ctx context.Context, key string, value []byte) error {
	err := p.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return errs.Wrap(err, "kafka dead-letter publish failed")
	}
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return err
	}
	return p.dlqWriter.Close()
}
