package kafka

import (
	"time"

	"inventory-engine/internal/pkg/config"

	"github.com/segmentio/kafka-go"
)

// NewPaymentsReader joins the engine's consumer group on the payments topic.
// Offsets are committed explicitly by the consumer after the guarded
// transaction commits, so CommitInterval stays zero.
func NewPaymentsReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.PaymentsTopic,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
	})
}
