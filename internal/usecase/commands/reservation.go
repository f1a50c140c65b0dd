package commands

import (
	"context"
	"errors"
	"time"

	"inventory-engine/internal/domain/event"
	"inventory-engine/internal/domain/inventory"
	"inventory-engine/internal/domain/reservation"
	"inventory-engine/internal/infra"
	"inventory-engine/internal/pkg/clock"
	"inventory-engine/internal/pkg/errs"
	"inventory-engine/internal/pkg/metrics"
	"inventory-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrSkuNotFound             = errs.New("sku not found")
	ErrInsufficientStock       = errs.New("insufficient stock")
	ErrReservationNotFound     = errs.New("reservation not found")
	ErrReservationExists       = errs.New("reservation exists with different arguments")
	ErrInvalidState            = errs.New("invalid reservation state")
	ErrInvalidQuantity         = errs.New("quantity must be positive")
	ErrDatabaseOperationFailed = errs.New("database operation failed")

	// raised when a concurrent call with the same reservation_id won the insert
	errConcurrentDuplicate = errs.New("concurrent duplicate reservation")
)

type ReserveParams struct {
	ReservationID uuid.UUID
	OrderID       uuid.UUID
	SkuID         string
	Quantity      int64
	TTL           time.Duration
}

type ReserveResult struct {
	Reservation *reservation.Reservation
	IsReplayed  bool
}

type ReservationCommands interface {
	Reserve(ctx context.Context, params ReserveParams) (*ReserveResult, error)
	Confirm(ctx context.Context, reservationID uuid.UUID) error
	Release(ctx context.Context, reservationID uuid.UUID, reason reservation.ReleaseReason) error
	// ApplyPaymentEvent runs the idempotency guard and the resulting state
	// transition in one transaction. It reports false when the event was seen
	// before and the effect was skipped.
	ApplyPaymentEvent(ctx context.Context, eventID uuid.UUID, eventType string, reservationID uuid.UUID) (bool, error)
	// UpsertSku creates the ledger row or resets its available quantity.
	UpsertSku(ctx context.Context, skuID string, available int64) error
}

type reservationUseCaseImpl struct {
	uow        shared.UnitOfWork
	clock      clock.Clock
	metrics    *metrics.Engine
	defaultTTL time.Duration
}

func NewReservationUseCase(uow shared.UnitOfWork, clk clock.Clock, m *metrics.Engine, defaultTTL time.Duration) ReservationCommands {
	return &reservationUseCaseImpl{
		uow:        uow,
		clock:      clk,
		metrics:    m,
		defaultTTL: defaultTTL,
	}
}

// Reserve atomically moves stock from available to reserved, records the
// reservation and writes the reserved event; all three effects commit
// together or not at all. A replay with the same reservation_id returns the
// stored outcome without touching the ledger again.
func (r *reservationUseCaseImpl) Reserve(ctx context.Context, params ReserveParams) (*ReserveResult, error) {
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	var result *ReserveResult
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		existing, err := r.findExisting(ctx, tx, params)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &ReserveResult{Reservation: existing, IsReplayed: true}
			return nil
		}

		created, err := r.reserveNew(ctx, tx, params, ttl)
		if err != nil {
			return err
		}
		result = &ReserveResult{Reservation: created}
		return nil
	})
	if err != nil {
		// A concurrent call with the same id committed first; its outcome is
		// the outcome of this call.
		if errors.Is(err, errConcurrentDuplicate) {
			return r.replayCommitted(ctx, params)
		}
		return nil, err
	}

	if !result.IsReplayed {
		r.metrics.ReservationsCreated.Inc()
	}
	return result, nil
}

func (r *reservationUseCaseImpl) findExisting(ctx context.Context, tx shared.Tx, params ReserveParams) (*reservation.Reservation, error) {
	existing, err := tx.Reservations().FindByID(ctx, tx.DB(), params.ReservationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if existing.OrderID() != params.OrderID ||
		existing.SkuID() != params.SkuID ||
		existing.Quantity() != params.Quantity {
		return nil, ErrReservationExists
	}
	return existing, nil
}

func (r *reservationUseCaseImpl) reserveNew(ctx context.Context, tx shared.Tx, params ReserveParams, ttl time.Duration) (*reservation.Reservation, error) {
	reserved, err := tx.Ledger().Reserve(ctx, tx.DB(), params.SkuID, params.Quantity)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !reserved {
		// Zero rows: either the SKU does not exist or the guard rejected it.
		if _, findErr := tx.Ledger().FindBySku(ctx, tx.DB(), params.SkuID); findErr != nil {
			if infra.IsKind(findErr, infra.KindNotFound) {
				return nil, ErrSkuNotFound
			}
			return nil, errs.Mark(findErr, ErrDatabaseOperationFailed)
		}
		r.metrics.InsufficientStock.Inc()
		return nil, ErrInsufficientStock
	}

	now := r.clock.Now()
	res, err := reservation.New(params.ReservationID, params.OrderID, params.SkuID, params.Quantity, ttl, now)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidQuantity)
	}

	if err := tx.Reservations().Create(ctx, tx.DB(), res); err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return nil, errConcurrentDuplicate
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	ev, err := event.NewOutboxEvent(event.TypeReserved, res.ID(), res.SkuID(), event.ReservedPayload{
		ReservationID: res.ID(),
		OrderID:       res.OrderID(),
		SkuID:         res.SkuID(),
		Quantity:      res.Quantity(),
		ExpiresAt:     res.ExpiresAt(),
	}, now)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := tx.Outbox().Insert(ctx, tx.DB(), ev); err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return res, nil
}

// replayCommitted re-runs the idempotent lookup in a fresh transaction; the
// winner's row is committed by the time the duplicate-key insert is observed.
func (r *reservationUseCaseImpl) replayCommitted(ctx context.Context, params ReserveParams) (*ReserveResult, error) {
	var result *ReserveResult
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		existing, err := r.findExisting(ctx, tx, params)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrReservationNotFound
		}
		result = &ReserveResult{Reservation: existing, IsReplayed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Confirm moves the reservation's quantity from reserved to sold and marks it
// confirmed. Confirming an already confirmed reservation is a no-op success.
func (r *reservationUseCaseImpl) Confirm(ctx context.Context, reservationID uuid.UUID) error {
	var applied bool
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		applied, err = r.confirmInTx(ctx, tx, reservationID)
		return err
	})
	if err != nil {
		return err
	}
	if applied {
		r.metrics.ReservationsConfirmed.Inc()
	}
	return nil
}

func (r *reservationUseCaseImpl) confirmInTx(ctx context.Context, tx shared.Tx, reservationID uuid.UUID) (bool, error) {
	res, err := r.lockReservation(ctx, tx, reservationID)
	if err != nil {
		return false, err
	}

	wasPending := res.Status() == reservation.StatusPending
	if err := res.Confirm(r.clock.Now()); err != nil {
		return false, ErrInvalidState
	}
	if !wasPending {
		return false, nil // already confirmed, idempotent
	}

	moved, err := tx.Ledger().Confirm(ctx, tx.DB(), res.SkuID(), res.Quantity())
	if err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !moved {
		// A pending reservation always has its quantity in the reserved
		// bucket; a rejected guard here means the ledger is inconsistent.
		return false, errs.Mark(errs.New("ledger reserved bucket underflow"), ErrDatabaseOperationFailed)
	}

	if err := tx.Reservations().UpdateStatus(ctx, tx.DB(), res); err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	ev, err := event.NewOutboxEvent(event.TypeConfirmed, res.ID(), res.SkuID(), event.ConfirmedPayload{
		ReservationID: res.ID(),
	}, r.clock.Now())
	if err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := tx.Outbox().Insert(ctx, tx.DB(), ev); err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return true, nil
}

// Release returns the reservation's quantity from reserved to available and
// marks it released or expired. Releasing into the state the reservation is
// already in is a no-op success.
func (r *reservationUseCaseImpl) Release(ctx context.Context, reservationID uuid.UUID, reason reservation.ReleaseReason) error {
	if !reason.IsValid() {
		return ErrInvalidState
	}

	var applied bool
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		applied, err = r.releaseInTx(ctx, tx, reservationID, reason)
		return err
	})
	if err != nil {
		return err
	}
	if applied {
		r.metrics.ReservationsReleased.WithLabelValues(string(reason)).Inc()
	}
	return nil
}

func (r *reservationUseCaseImpl) releaseInTx(ctx context.Context, tx shared.Tx, reservationID uuid.UUID, reason reservation.ReleaseReason) (bool, error) {
	res, err := r.lockReservation(ctx, tx, reservationID)
	if err != nil {
		return false, err
	}

	wasPending := res.Status() == reservation.StatusPending
	if err := res.Release(reason, r.clock.Now()); err != nil {
		return false, ErrInvalidState
	}
	if !wasPending {
		return false, nil // already in the target state, idempotent
	}

	moved, err := tx.Ledger().Release(ctx, tx.DB(), res.SkuID(), res.Quantity())
	if err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !moved {
		return false, errs.Mark(errs.New("ledger reserved bucket underflow"), ErrDatabaseOperationFailed)
	}

	if err := tx.Reservations().UpdateStatus(ctx, tx.DB(), res); err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	ev, err := event.NewOutboxEvent(event.TypeReleased, res.ID(), res.SkuID(), event.ReleasedPayload{
		ReservationID: res.ID(),
		Reason:        string(reason),
	}, r.clock.Now())
	if err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if err := tx.Outbox().Insert(ctx, tx.DB(), ev); err != nil {
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return true, nil
}

// ApplyPaymentEvent inserts the processed-events guard row and applies the
// confirm or release effect in the same transaction, so the guard commits only
// when the effect does. A duplicate event id skips the effect entirely.
func (r *reservationUseCaseImpl) ApplyPaymentEvent(ctx context.Context, eventID uuid.UUID, eventType string, reservationID uuid.UUID) (bool, error) {
	var fresh, applied bool
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		inserted, err := tx.Processed().TryInsert(ctx, tx.DB(), eventID, eventType, r.clock.Now())
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if !inserted {
			return nil
		}
		fresh = true

		switch eventType {
		case event.TypePaymentCompleted:
			applied, err = r.confirmInTx(ctx, tx, reservationID)
		case event.TypePaymentFailed:
			applied, err = r.releaseInTx(ctx, tx, reservationID, reservation.ReasonReleased)
		default:
			return errs.Wrap(ErrInvalidState, "unsupported payment event type")
		}
		return err
	})
	if err != nil {
		return false, err
	}
	if applied {
		switch eventType {
		case event.TypePaymentCompleted:
			r.metrics.ReservationsConfirmed.Inc()
		case event.TypePaymentFailed:
			r.metrics.ReservationsReleased.WithLabelValues(string(reservation.ReasonReleased)).Inc()
		}
	}
	return fresh, nil
}

func (r *reservationUseCaseImpl) UpsertSku(ctx context.Context, skuID string, available int64) error {
	entry, err := inventory.NewLedgerEntry(skuID, available, r.clock.Now())
	if err != nil {
		return ErrInvalidQuantity
	}
	return r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Ledger().Upsert(ctx, tx.DB(), entry.SkuID, entry.Available, entry.UpdatedAt); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
}

func (r *reservationUseCaseImpl) lockReservation(ctx context.Context, tx shared.Tx, id uuid.UUID) (*reservation.Reservation, error) {
	res, err := tx.Reservations().FindByIDForUpdate(ctx, tx.DB(), id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return res, nil
}
