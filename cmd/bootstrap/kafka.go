package bootstrap

import (
	"context"

	"inventory-engine/internal/consumer"
	infrakafka "inventory-engine/internal/infra/kafka"
	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/worker"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
)

var KafkaModule = fx.Module("kafka",
	fx.Provide(
		fx.Annotate(
			NewProducer,
			fx.As(new(worker.EventSink)),
		),
		fx.Annotate(
			NewPaymentsReader,
			fx.As(new(consumer.MessageSource)),
		),
	),
)

func NewProducer(lc fx.Lifecycle, cfg config.Config) *infrakafka.Producer {
	producer := infrakafka.NewProducer(cfg.Kafka)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})
	return producer
}

func NewPaymentsReader(lc fx.Lifecycle, cfg config.Config) *kafka.Reader {
	reader := infrakafka.NewPaymentsReader(cfg.Kafka)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return reader.Close()
		},
	})
	return reader
}
