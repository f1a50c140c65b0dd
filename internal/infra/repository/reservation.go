package repository

import (
	"context"
	"time"

	"inventory-engine/internal/domain/reservation"
	"inventory-engine/internal/infra"
	"inventory-engine/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReservationRepository struct{}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{}
}

const reservationColumns = `id, order_id, sku_id, quantity, status, created_at, expires_at, confirmed_at, released_at`

func (r *ReservationRepository) Create(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error {
	const query = `
INSERT INTO reservations (id, order_id, sku_id, quantity, status, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		res.ID(),
		res.OrderID(),
		res.SkuID(),
		res.Quantity(),
		res.Status().String(),
		res.CreatedAt(),
		res.ExpiresAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*reservation.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return r.scanOne(tx.QueryRow(ctx, query, id))
}

// FindByIDForUpdate locks the row for the rest of the transaction. This is the
// serialization point between Confirm, Release and the sweeper.
func (r *ReservationRepository) FindByIDForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*reservation.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return r.scanOne(tx.QueryRow(ctx, query, id))
}

// ClaimExpired selects a bounded batch of timed-out pending reservations,
// skipping rows already locked by a concurrent sweeper instance.
func (r *ReservationRepository) ClaimExpired(ctx context.Context, tx db.DBTX, now time.Time, limit int32) ([]*reservation.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM reservations
WHERE status = 'pending' AND expires_at < $1
ORDER BY expires_at
LIMIT $2
FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim expired reservations", err)
	}
	defer rows.Close()

	var result []*reservation.Reservation
	for rows.Next() {
		res, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate expired reservations", err)
	}
	return result, nil
}

// UpdateStatus persists a state transition computed on the entity.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error {
	const query = `
UPDATE reservations
SET status = $2, confirmed_at = $3, released_at = $4
WHERE id = $1`

	tag, err := tx.Exec(ctx, query, res.ID(), res.Status().String(), res.ConfirmedAt(), res.ReleasedAt())
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation vanished during update", pgx.ErrNoRows)
	}
	return nil
}

func (r *ReservationRepository) CountPending(ctx context.Context, tx db.DBTX) (int64, error) {
	const query = `SELECT COUNT(*) FROM reservations WHERE status = 'pending'`

	var count int64
	if err := tx.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count pending reservations", err)
	}
	return count, nil
}

func (r *ReservationRepository) scanOne(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id, orderID uuid.UUID
		skuID       string
		quantity    int64
		status      string
		createdAt   time.Time
		expiresAt   time.Time
		confirmedAt *time.Time
		releasedAt  *time.Time
	)
	err := row.Scan(&id, &orderID, &skuID, &quantity, &status, &createdAt, &expiresAt, &confirmedAt, &releasedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, infra.WrapRepoErr("reservation not found", err)
		}
		return nil, infra.WrapRepoErr("failed to scan reservation", err)
	}
	return reservation.Rehydrate(id, orderID, skuID, quantity, reservation.Status(status), createdAt, expiresAt, confirmedAt, releasedAt), nil
}
