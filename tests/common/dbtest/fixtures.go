//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// SeedSku inserts or resets a stock ledger row.
func SeedSku(t *testing.T, db DBLike, skuID string, available int64) {
	t.Helper()

	ctx := context.Background()
	_, err := db.Exec(ctx, `
		INSERT INTO stock_ledger (sku_id, available_quantity, reserved_quantity, sold_quantity, version, updated_at)
		VALUES ($1, $2, 0, 0, 1, NOW())
		ON CONFLICT (sku_id) DO UPDATE
		SET available_quantity = EXCLUDED.available_quantity,
		    reserved_quantity  = 0,
		    sold_quantity      = 0,
		    version            = stock_ledger.version + 1,
		    updated_at         = NOW()`,
		skuID, available)
	require.NoError(t, err)
}

// CreatePendingReservation inserts a pending reservation row directly,
// bypassing the engine. The ledger row must already hold the reserved amount.
func CreatePendingReservation(t *testing.T, db DBLike, skuID string, quantity int64, expiresAt time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	ctx := context.Background()
	_, err := db.Exec(ctx, `
		INSERT INTO reservations (id, order_id, sku_id, quantity, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW(), $5)`,
		id, uuid.New(), skuID, quantity, expiresAt)
	require.NoError(t, err)

	return id
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return nil
}
