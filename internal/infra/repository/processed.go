package repository

import (
	"context"
	"time"

	"inventory-engine/internal/infra"
	"inventory-engine/internal/infra/db"

	"github.com/google/uuid"
)

// ProcessedEventRepository is the durable idempotency guard for inbound events.
// A row's existence means the event's effect has been applied.
type ProcessedEventRepository struct{}

func NewProcessedEventRepository() *ProcessedEventRepository {
	return &ProcessedEventRepository{}
}

// TryInsert records the event as processed. Returns false when the event was
// already recorded, in which case the caller skips the effect. Inserting the
// guard row and applying the effect belong in the same transaction.
func (r *ProcessedEventRepository) TryInsert(ctx context.Context, tx db.DBTX, eventID uuid.UUID, eventType string, processedAt time.Time) (bool, error) {
	const query = `
INSERT INTO processed_events (event_id, event_type, processed_at)
VALUES ($1, $2, $3)
ON CONFLICT (event_id) DO NOTHING`

	tag, err := tx.Exec(ctx, query, eventID, eventType, processedAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to record processed event", err)
	}
	return tag.RowsAffected() > 0, nil
}
