package shared

import (
	"context"
	"time"

	"inventory-engine/internal/domain/event"
	"inventory-engine/internal/domain/inventory"
	"inventory-engine/internal/domain/reservation"
	"inventory-engine/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
}

// Tx exposes the repositories bound to one transaction. All cross-entity
// mutations (ledger + reservation + outbox) go through a single Tx so no
// partial state is ever observable.
type Tx interface {
	Ledger() LedgerRepository
	Reservations() ReservationRepository
	Outbox() OutboxRepository
	Processed() ProcessedEventRepository
	DB() db.DBTX
}

type LedgerRepository interface {
	Reserve(ctx context.Context, tx db.DBTX, skuID string, quantity int64) (bool, error)
	Confirm(ctx context.Context, tx db.DBTX, skuID string, quantity int64) (bool, error)
	Release(ctx context.Context, tx db.DBTX, skuID string, quantity int64) (bool, error)
	FindBySku(ctx context.Context, tx db.DBTX, skuID string) (*inventory.LedgerEntry, error)
	Upsert(ctx context.Context, tx db.DBTX, skuID string, available int64, now time.Time) error
}

type ReservationRepository interface {
	Create(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error
	FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*reservation.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*reservation.Reservation, error)
	ClaimExpired(ctx context.Context, tx db.DBTX, now time.Time, limit int32) ([]*reservation.Reservation, error)
	UpdateStatus(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error
	CountPending(ctx context.Context, tx db.DBTX) (int64, error)
}

type OutboxRepository interface {
	Insert(ctx context.Context, tx db.DBTX, ev *event.OutboxEvent) error
	ClaimPending(ctx context.Context, tx db.DBTX, limit int32) ([]*event.OutboxEvent, error)
	MarkPublished(ctx context.Context, tx db.DBTX, id uuid.UUID, publishedAt time.Time) error
	MarkRetry(ctx context.Context, tx db.DBTX, id uuid.UUID, cause string) error
	MarkFailed(ctx context.Context, tx db.DBTX, id uuid.UUID, cause string) error
	CountPending(ctx context.Context, tx db.DBTX) (int64, error)
}

type ProcessedEventRepository interface {
	TryInsert(ctx context.Context, tx db.DBTX, eventID uuid.UUID, eventType string, processedAt time.Time) (bool, error)
}
