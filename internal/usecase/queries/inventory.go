package queries

import (
	"context"
	"time"

	"inventory-engine/internal/domain/reservation"
	"inventory-engine/internal/infra"
	"inventory-engine/internal/infra/db"
	"inventory-engine/internal/pkg/errs"
	"inventory-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrReservationNotFound = errs.New("reservation not found")
	ErrSkuNotFound         = errs.New("sku not found")
)

type ReservationView struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	SkuID       string
	Quantity    int64
	Status      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ConfirmedAt *time.Time
	ReleasedAt  *time.Time
}

type SkuView struct {
	SkuID     string
	Available int64
	Reserved  int64
	Sold      int64
	Version   int64
	UpdatedAt time.Time
}

// PendingCounts feeds the health endpoint's backlog figures.
type PendingCounts struct {
	Reservations int64
	OutboxEvents int64
}

type InventoryQueries interface {
	ReservationByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	SkuByID(ctx context.Context, skuID string) (*SkuView, error)
	PendingCounts(ctx context.Context) (*PendingCounts, error)
}

type inventoryQueriesImpl struct {
	uow             shared.UnitOfWork
	ledgerRepo      shared.LedgerRepository
	reservationRepo shared.ReservationRepository
	outboxRepo      shared.OutboxRepository
}

func NewInventoryQueries(
	uow shared.UnitOfWork,
	ledgerRepo shared.LedgerRepository,
	reservationRepo shared.ReservationRepository,
	outboxRepo shared.OutboxRepository,
) InventoryQueries {
	return &inventoryQueriesImpl{
		uow:             uow,
		ledgerRepo:      ledgerRepo,
		reservationRepo: reservationRepo,
		outboxRepo:      outboxRepo,
	}
}

func (q *inventoryQueriesImpl) ReservationByID(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	var view *ReservationView
	err := q.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		res, err := q.reservationRepo.FindByID(ctx, dbtx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		view = toReservationView(res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (q *inventoryQueriesImpl) SkuByID(ctx context.Context, skuID string) (*SkuView, error) {
	var view *SkuView
	err := q.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		entry, err := q.ledgerRepo.FindBySku(ctx, dbtx, skuID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrSkuNotFound
			}
			return err
		}
		view = &SkuView{
			SkuID:     entry.SkuID,
			Available: entry.Available,
			Reserved:  entry.Reserved,
			Sold:      entry.Sold,
			Version:   entry.Version,
			UpdatedAt: entry.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (q *inventoryQueriesImpl) PendingCounts(ctx context.Context) (*PendingCounts, error) {
	var counts PendingCounts
	err := q.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		pendingReservations, err := q.reservationRepo.CountPending(ctx, dbtx)
		if err != nil {
			return err
		}
		pendingOutbox, err := q.outboxRepo.CountPending(ctx, dbtx)
		if err != nil {
			return err
		}
		counts.Reservations = pendingReservations
		counts.OutboxEvents = pendingOutbox
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func toReservationView(res *reservation.Reservation) *ReservationView {
	return &ReservationView{
		ID:          res.ID(),
		OrderID:     res.OrderID(),
		SkuID:       res.SkuID(),
		Quantity:    res.Quantity(),
		Status:      res.Status().String(),
		CreatedAt:   res.CreatedAt(),
		ExpiresAt:   res.ExpiresAt(),
		ConfirmedAt: res.ConfirmedAt(),
		ReleasedAt:  res.ReleasedAt(),
	}
}
