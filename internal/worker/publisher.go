package worker

import (
	"context"
	"log/slog"
	"time"

	"inventory-engine/internal/domain/event"
	"inventory-engine/internal/infra/db"
	"inventory-engine/internal/pkg/clock"
	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/pkg/metrics"
	"inventory-engine/internal/usecase/shared"
)

// EventSink is the message substrate boundary. Publish must not return nil
// before the substrate has durably acknowledged the message.
type EventSink interface {
	Publish(ctx context.Context, key string, value []byte) error
	DeadLetter(ctx context.Context, key string, value []byte) error
}

// Publisher drains pending outbox rows to the substrate. Delivery is
// at-least-once: a crash between broker ack and the published mark replays the
// event, so consumers run an idempotency guard.
type Publisher struct {
	uow        shared.UnitOfWork
	sink       EventSink
	outboxRepo shared.OutboxRepository
	clock      clock.Clock
	metrics    *metrics.Engine
	liveness   *Liveness
	cfg        config.PublisherConfig
}

func NewPublisher(
	uow shared.UnitOfWork,
	sink EventSink,
	outboxRepo shared.OutboxRepository,
	clk clock.Clock,
	m *metrics.Engine,
	liveness *Liveness,
	cfg config.PublisherConfig,
) *Publisher {
	return &Publisher{
		uow:        uow,
		sink:       sink,
		outboxRepo: outboxRepo,
		clock:      clk,
		metrics:    m,
		liveness:   liveness,
		cfg:        cfg,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	slog.Info("outbox publisher started",
		"poll_interval", p.cfg.PollInterval.String(),
		"batch_size", p.cfg.BatchSize,
		"max_retries", p.cfg.MaxRetries)

	for {
		published, err := p.PublishBatch(ctx)
		if err != nil {
			slog.Error("outbox publish cycle failed", "error", err.Error())
		}
		p.liveness.Beat(NamePublisher, p.clock.Now())

		// Busy backlog drains without waiting for the next poll tick.
		if err == nil && published > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("outbox publisher stopped")
			return
		case <-time.After(p.cfg.PollInterval):
		}
	}
}

// PublishBatch claims one batch of pending events, publishes them in creation
// order and marks the outcomes inside the claim transaction. Rows locked here
// stay invisible to concurrent publisher instances; a crash rolls everything
// back to pending.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	var published int
	err := p.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		events, err := tx.Outbox().ClaimPending(ctx, tx.DB(), p.cfg.BatchSize)
		if err != nil {
			return err
		}

		// A retried event holds back later events with the same partition
		// key, otherwise per-SKU order would invert on the broker.
		blockedKeys := make(map[string]struct{})
		for _, ev := range events {
			if _, blocked := blockedKeys[ev.PartitionKey]; blocked {
				continue
			}
			if err := p.publishOne(ctx, tx, ev); err != nil {
				return err
			}
			switch ev.Status {
			case event.OutboxPublished:
				published++
			case event.OutboxPending:
				blockedKeys[ev.PartitionKey] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if published > 0 {
		p.metrics.OutboxPublished.Add(float64(published))
		slog.Debug("published outbox events", "count", published)
	}
	p.samplePendingGauge(ctx)
	return published, nil
}

func (p *Publisher) publishOne(ctx context.Context, tx shared.Tx, ev *event.OutboxEvent) error {
	value, err := ev.WireValue()
	if err != nil {
		// Unmarshalable rows can never publish; park them immediately.
		p.metrics.OutboxDeadLettered.Inc()
		ev.Status = event.OutboxFailed
		return tx.Outbox().MarkFailed(ctx, tx.DB(), ev.ID, err.Error())
	}

	if pubErr := p.sink.Publish(ctx, ev.PartitionKey, value); pubErr != nil {
		if ev.RetryCount+1 >= p.cfg.MaxRetries {
			slog.Error("outbox event exhausted retries, dead-lettering",
				"event_id", ev.ID.String(),
				"event_type", ev.EventType,
				"error", pubErr.Error())
			p.metrics.OutboxDeadLettered.Inc()
			if dlqErr := p.sink.DeadLetter(ctx, ev.PartitionKey, value); dlqErr != nil {
				// The row keeps the payload either way; failed status is the
				// manual replay queue.
				slog.Error("dead-letter publish failed", "event_id", ev.ID.String(), "error", dlqErr.Error())
			}
			ev.Status = event.OutboxFailed
			return tx.Outbox().MarkFailed(ctx, tx.DB(), ev.ID, pubErr.Error())
		}

		slog.Warn("outbox publish failed, will retry",
			"event_id", ev.ID.String(),
			"event_type", ev.EventType,
			"retry_count", ev.RetryCount+1,
			"error", pubErr.Error())
		p.metrics.OutboxRetried.Inc()
		return tx.Outbox().MarkRetry(ctx, tx.DB(), ev.ID, pubErr.Error())
	}

	if err := tx.Outbox().MarkPublished(ctx, tx.DB(), ev.ID, p.clock.Now()); err != nil {
		return err
	}
	ev.Status = event.OutboxPublished
	return nil
}

func (p *Publisher) samplePendingGauge(ctx context.Context) {
	_ = p.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		count, err := p.outboxRepo.CountPending(ctx, dbtx)
		if err != nil {
			return err
		}
		p.metrics.OutboxPending.Set(float64(count))
		return nil
	})
}
