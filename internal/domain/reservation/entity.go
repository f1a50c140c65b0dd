package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidTTL      = errors.New("ttl must be positive")
	ErrInvalidStatus   = errors.New("invalid reservation status")
	ErrInvalidReason   = errors.New("invalid release reason")
	ErrNotPending      = errors.New("reservation is not pending")
)

// Reservation is a time-bounded hold against available stock. The ID is the
// caller-supplied idempotency key; rows are never deleted once written.
type Reservation struct {
	id          uuid.UUID
	orderID     uuid.UUID
	skuID       string
	quantity    int64
	status      Status
	createdAt   time.Time
	expiresAt   time.Time
	confirmedAt *time.Time
	releasedAt  *time.Time
}

func New(id, orderID uuid.UUID, skuID string, quantity int64, ttl time.Duration, now time.Time) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	return &Reservation{
		id:        id,
		orderID:   orderID,
		skuID:     skuID,
		quantity:  quantity,
		status:    StatusPending,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}, nil
}

// Rehydrate rebuilds an entity from a persisted row without validation of the
// creation invariants (the row is trusted).
func Rehydrate(
	id, orderID uuid.UUID,
	skuID string,
	quantity int64,
	status Status,
	createdAt, expiresAt time.Time,
	confirmedAt, releasedAt *time.Time,
) *Reservation {
	return &Reservation{
		id:          id,
		orderID:     orderID,
		skuID:       skuID,
		quantity:    quantity,
		status:      status,
		createdAt:   createdAt,
		expiresAt:   expiresAt,
		confirmedAt: confirmedAt,
		releasedAt:  releasedAt,
	}
}

func (r *Reservation) ID() uuid.UUID           { return r.id }
func (r *Reservation) OrderID() uuid.UUID      { return r.orderID }
func (r *Reservation) SkuID() string           { return r.skuID }
func (r *Reservation) Quantity() int64         { return r.quantity }
func (r *Reservation) Status() Status          { return r.status }
func (r *Reservation) CreatedAt() time.Time    { return r.createdAt }
func (r *Reservation) ExpiresAt() time.Time    { return r.expiresAt }
func (r *Reservation) ConfirmedAt() *time.Time { return r.confirmedAt }
func (r *Reservation) ReleasedAt() *time.Time  { return r.releasedAt }

func (r *Reservation) IsExpiredAt(now time.Time) bool {
	return r.status == StatusPending && now.After(r.expiresAt)
}

// Confirm transitions pending → confirmed. Confirming an already confirmed
// reservation is a no-op; any other terminal state is ErrNotPending.
func (r *Reservation) Confirm(now time.Time) error {
	switch r.status {
	case StatusConfirmed:
		return nil
	case StatusPending:
		r.status = StatusConfirmed
		t := now
		r.confirmedAt = &t
		return nil
	default:
		return ErrNotPending
	}
}

// Release transitions pending → released|expired depending on reason. Releasing
// a reservation already in the reason's target state is a no-op.
func (r *Reservation) Release(reason ReleaseReason, now time.Time) error {
	if !reason.IsValid() {
		return ErrInvalidReason
	}
	target := reason.Status()
	switch r.status {
	case target:
		return nil
	case StatusPending:
		r.status = target
		t := now
		r.releasedAt = &t
		return nil
	default:
		return ErrNotPending
	}
}
