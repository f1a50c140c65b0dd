package repository

import (
	"context"
	"time"

	"inventory-engine/internal/domain/event"
	"inventory-engine/internal/infra"
	"inventory-engine/internal/infra/db"

	"github.com/google/uuid"
)

type OutboxRepository struct{}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

// Insert writes the event row inside the caller's business transaction. That
// is the whole point of the outbox: the event commits with the state change.
func (r *OutboxRepository) Insert(ctx context.Context, tx db.DBTX, ev *event.OutboxEvent) error {
	const query = `
INSERT INTO outbox_events
  (id, aggregate_type, aggregate_id, event_type, payload, partition_key, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		ev.ID,
		ev.AggregateType,
		ev.AggregateID,
		ev.EventType,
		ev.Payload,
		ev.PartitionKey,
		string(ev.Status),
		ev.CreatedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert outbox event", err)
	}
	return nil
}

// ClaimPending picks up to limit pending events in creation order, skipping
// rows held by a concurrent publisher instance.
func (r *OutboxRepository) ClaimPending(ctx context.Context, tx db.DBTX, limit int32) ([]*event.OutboxEvent, error) {
	const query = `
SELECT id, aggregate_type, aggregate_id, event_type, payload, partition_key,
       status, created_at, published_at, retry_count, last_error
FROM outbox_events
WHERE status = 'pending'
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim pending outbox events", err)
	}
	defer rows.Close()

	var events []*event.OutboxEvent
	for rows.Next() {
		var ev event.OutboxEvent
		var status string
		if err := rows.Scan(
			&ev.ID,
			&ev.AggregateType,
			&ev.AggregateID,
			&ev.EventType,
			&ev.Payload,
			&ev.PartitionKey,
			&status,
			&ev.CreatedAt,
			&ev.PublishedAt,
			&ev.RetryCount,
			&ev.LastError,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan outbox event", err)
		}
		ev.Status = event.OutboxStatus(status)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate outbox events", err)
	}
	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, tx db.DBTX, id uuid.UUID, publishedAt time.Time) error {
	const query = `
UPDATE outbox_events
SET status = 'published', published_at = $2
WHERE id = $1`

	if _, err := tx.Exec(ctx, query, id, publishedAt); err != nil {
		return infra.WrapRepoErr("failed to mark outbox event published", err)
	}
	return nil
}

// MarkRetry leaves the row pending so the next cycle picks it up again.
func (r *OutboxRepository) MarkRetry(ctx context.Context, tx db.DBTX, id uuid.UUID, cause string) error {
	const query = `
UPDATE outbox_events
SET retry_count = retry_count + 1, last_error = $2
WHERE id = $1`

	if _, err := tx.Exec(ctx, query, id, cause); err != nil {
		return infra.WrapRepoErr("failed to record outbox retry", err)
	}
	return nil
}

// MarkFailed parks the event for manual replay after the retry cap.
func (r *OutboxRepository) MarkFailed(ctx context.Context, tx db.DBTX, id uuid.UUID, cause string) error {
	const query = `
UPDATE outbox_events
SET status = 'failed', retry_count = retry_count + 1, last_error = $2
WHERE id = $1`

	if _, err := tx.Exec(ctx, query, id, cause); err != nil {
		return infra.WrapRepoErr("failed to mark outbox event failed", err)
	}
	return nil
}

func (r *OutboxRepository) CountPending(ctx context.Context, tx db.DBTX) (int64, error) {
	const query = `SELECT COUNT(*) FROM outbox_events WHERE status = 'pending'`

	var count int64
	if err := tx.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count pending outbox events", err)
	}
	return count, nil
}
