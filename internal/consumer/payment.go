package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"inventory-engine/internal/domain/event"
	"inventory-engine/internal/pkg/clock"
	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/pkg/metrics"
	"inventory-engine/internal/usecase/commands"
	"inventory-engine/internal/worker"

	"github.com/segmentio/kafka-go"
)

// MessageSource abstracts the broker reader. *kafka.Reader satisfies it;
// tests substitute an in-memory fake.
type MessageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// PaymentConsumer applies payment.completed / payment.failed events to
// reservations. The offset is committed only after the guarded transaction
// commits, so a crash in between replays the event and the processed_events
// guard absorbs the duplicate.
type PaymentConsumer struct {
	source   MessageSource
	engine   commands.ReservationCommands
	sink     worker.EventSink
	clock    clock.Clock
	metrics  *metrics.Engine
	liveness *worker.Liveness
	cfg      config.ConsumerConfig
}

func NewPaymentConsumer(
	source MessageSource,
	engine commands.ReservationCommands,
	sink worker.EventSink,
	clk clock.Clock,
	m *metrics.Engine,
	liveness *worker.Liveness,
	cfg config.ConsumerConfig,
) *PaymentConsumer {
	return &PaymentConsumer{
		source:   source,
		engine:   engine,
		sink:     sink,
		clock:    clk,
		metrics:  m,
		liveness: liveness,
		cfg:      cfg,
	}
}

func (c *PaymentConsumer) Run(ctx context.Context) {
	slog.Info("payment consumer started",
		"max_retries", c.cfg.MaxRetries,
		"retry_backoff", c.cfg.RetryBackoff.String())

	// FetchMessage blocks for as long as the topic is quiet, so liveness
	// ticks on its own schedule; an idle consumer is not a wedged one.
	go c.beatLoop(ctx)

	for {
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("payment consumer stopped")
				return
			}
			slog.Error("payment consumer fetch failed", "error", err)
			continue
		}

		c.liveness.Beat(worker.NameConsumer, c.clock.Now())

		if err := c.ProcessMessage(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			// Offset uncommitted: the event is redelivered after restart.
			slog.Error("payment event not processed, offset held",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
			continue
		}

		if err := c.source.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("payment consumer commit failed", "error", err)
		}
	}
}

func (c *PaymentConsumer) beatLoop(ctx context.Context) {
	c.liveness.Beat(worker.NameConsumer, c.clock.Now())

	ticker := time.NewTicker(c.cfg.LivenessInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.liveness.Beat(worker.NameConsumer, c.clock.Now())
		}
	}
}

// ProcessMessage decodes and applies one payment event. Undecodable or
// unactionable messages go to the dead letter topic; transient failures are
// retried with backoff and the error is returned when retries are exhausted.
func (c *PaymentConsumer) ProcessMessage(ctx context.Context, msg kafka.Message) error {
	env, payload, err := decodePayment(msg.Value)
	if err != nil {
		slog.Warn("payment event malformed, dead lettering", "error", err)
		return c.deadLetter(ctx, msg)
	}

	switch env.EventType {
	case event.TypePaymentCompleted, event.TypePaymentFailed:
	default:
		// The payments topic carries event types this engine does not act
		// on; skip them without a guard row.
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryBackoff):
			}
		}

		fresh, err := c.engine.ApplyPaymentEvent(ctx, env.EventID, env.EventType, payload.ReservationID)
		if err == nil {
			if fresh {
				c.metrics.ConsumerProcessed.WithLabelValues(env.EventType).Inc()
			} else {
				c.metrics.ConsumerDuplicates.Inc()
				slog.Debug("payment event already processed", "event_id", env.EventID)
			}
			return nil
		}
		if errors.Is(err, commands.ErrReservationNotFound) || errors.Is(err, commands.ErrInvalidState) {
			// Retrying cannot make an unknown or terminal reservation
			// actionable.
			slog.Warn("payment event not applicable, dead lettering",
				"event_id", env.EventID, "event_type", env.EventType,
				"reservation_id", payload.ReservationID, "error", err)
			return c.deadLetter(ctx, msg)
		}
		lastErr = err
		slog.Warn("payment event apply failed, retrying",
			"event_id", env.EventID, "attempt", attempt+1, "error", err)
	}
	return lastErr
}

func (c *PaymentConsumer) deadLetter(ctx context.Context, msg kafka.Message) error {
	if err := c.sink.DeadLetter(ctx, string(msg.Key), msg.Value); err != nil {
		return err
	}
	return nil
}

func decodePayment(value []byte) (*event.Envelope, *event.PaymentPayload, error) {
	var env event.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, nil, err
	}
	var payload event.PaymentPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, nil, err
	}
	return &env, &payload, nil
}
