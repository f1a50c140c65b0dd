package db

import (
	"context"
	"embed"
	"sort"

	"inventory-engine/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies the embedded DDL in filename order. Every statement is
// written to be re-runnable, so applying on every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return errs.Wrap(err, "failed to read migrations")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return errs.Wrap(err, "failed to read migration "+name)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return errs.Wrap(err, "failed to apply migration "+name)
		}
	}
	return nil
}
