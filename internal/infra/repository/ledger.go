package repository

import (
	"context"
	"time"

	"inventory-engine/internal/domain/inventory"
	"inventory-engine/internal/infra"
	"inventory-engine/internal/infra/db"

	"github.com/jackc/pgx/v5"
)

// LedgerRepository mutates the per-SKU stock counters. Every mutation is a
// single guarded UPDATE: the "zero rows affected" outcome is the oversell
// guard, never a read-then-write pair.
type LedgerRepository struct{}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

// Reserve moves quantity from available to reserved, guarded by
// available_quantity >= quantity. Returns false when the guard rejected the
// update (insufficient stock or unknown SKU, the caller disambiguates).
func (r *LedgerRepository) Reserve(ctx context.Context, tx db.DBTX, skuID string, quantity int64) (bool, error) {
	const query = `
UPDATE stock_ledger
SET available_quantity = available_quantity - $2,
    reserved_quantity  = reserved_quantity + $2,
    version            = version + 1,
    updated_at         = NOW()
WHERE sku_id = $1
  AND available_quantity >= $2`

	tag, err := tx.Exec(ctx, query, skuID, quantity)
	if err != nil {
		return false, infra.WrapRepoErr("failed to reserve stock", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Confirm moves quantity from reserved to sold.
func (r *LedgerRepository) Confirm(ctx context.Context, tx db.DBTX, skuID string, quantity int64) (bool, error) {
	const query = `
UPDATE stock_ledger
SET reserved_quantity = reserved_quantity - $2,
    sold_quantity     = sold_quantity + $2,
    version           = version + 1,
    updated_at        = NOW()
WHERE sku_id = $1
  AND reserved_quantity >= $2`

	tag, err := tx.Exec(ctx, query, skuID, quantity)
	if err != nil {
		return false, infra.WrapRepoErr("failed to confirm stock", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Release returns quantity from reserved to available.
func (r *LedgerRepository) Release(ctx context.Context, tx db.DBTX, skuID string, quantity int64) (bool, error) {
	const query = `
UPDATE stock_ledger
SET reserved_quantity  = reserved_quantity - $2,
    available_quantity = available_quantity + $2,
    version            = version + 1,
    updated_at         = NOW()
WHERE sku_id = $1
  AND reserved_quantity >= $2`

	tag, err := tx.Exec(ctx, query, skuID, quantity)
	if err != nil {
		return false, infra.WrapRepoErr("failed to release stock", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LedgerRepository) FindBySku(ctx context.Context, tx db.DBTX, skuID string) (*inventory.LedgerEntry, error) {
	const query = `
SELECT sku_id, available_quantity, reserved_quantity, sold_quantity, version, updated_at
FROM stock_ledger
WHERE sku_id = $1`

	var entry inventory.LedgerEntry
	err := tx.QueryRow(ctx, query, skuID).Scan(
		&entry.SkuID,
		&entry.Available,
		&entry.Reserved,
		&entry.Sold,
		&entry.Version,
		&entry.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, infra.WrapRepoErr("sku not found", err)
		}
		return nil, infra.WrapRepoErr("failed to find sku", err)
	}
	return &entry, nil
}

// Upsert seeds or replaces a ledger row. Used by migrations seeding and tests,
// not by the reservation lifecycle.
func (r *LedgerRepository) Upsert(ctx context.Context, tx db.DBTX, skuID string, available int64, now time.Time) error {
	const query = `
INSERT INTO stock_ledger (sku_id, available_quantity, reserved_quantity, sold_quantity, version, updated_at)
VALUES ($1, $2, 0, 0, 1, $3)
ON CONFLICT (sku_id) DO UPDATE
SET available_quantity = EXCLUDED.available_quantity,
    version            = stock_ledger.version + 1,
    updated_at         = EXCLUDED.updated_at`

	if _, err := tx.Exec(ctx, query, skuID, available, now); err != nil {
		return infra.WrapRepoErr("failed to upsert stock ledger", err)
	}
	return nil
}
