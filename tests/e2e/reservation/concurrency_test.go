//go:build e2e

package reservation_test

import (
	"context"
	"net/http"
	"sync"
	"time"

	"inventory-engine/internal/infra/repository"
	"inventory-engine/internal/infra/uow"
	"inventory-engine/internal/pkg/clock"
	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/pkg/metrics"
	"inventory-engine/internal/usecase/commands"
	"inventory-engine/internal/worker"
	"inventory-engine/tests/common/dbtest"
	"inventory-engine/tests/common/httptest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func (s *ReservationSuite) ledgerBuckets(skuID string) (available, reserved, sold int64) {
	err := s.DB.QueryRow(s.T().Context(),
		"SELECT available_quantity, reserved_quantity, sold_quantity FROM stock_ledger WHERE sku_id = $1",
		skuID).Scan(&available, &reserved, &sold)
	require.NoError(s.T(), err)
	return available, reserved, sold
}

func (s *ReservationSuite) TestConcurrentReservesNeverOversell() {
	s.Run("twenty competitors for ten units", func() {
		t := s.T()
		dbtest.SeedSku(t, s.DB, "SKU-RACE", 10)

		const competitors = 20
		codes := make([]int, competitors)

		var wg sync.WaitGroup
		for i := 0; i < competitors; i++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
					createBody(uuid.New(), uuid.New(), "SKU-RACE", 1))
				codes[slot] = w.Code
			}(i)
		}
		wg.Wait()

		var created, rejected int
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusUnprocessableEntity:
				rejected++
			default:
				t.Fatalf("unexpected status %d", code)
			}
		}

		// The guard grants exactly the available units, never more.
		require.Equal(t, 10, created)
		require.Equal(t, 10, rejected)

		available, reserved, sold := s.ledgerBuckets("SKU-RACE")
		require.Equal(t, int64(0), available)
		require.Equal(t, int64(10), reserved)
		require.Equal(t, int64(0), sold)
	})
}

// buildSweeper assembles a sweeper over the real pool, the same wiring the fx
// app uses minus the loop.
func (s *ReservationSuite) buildSweeper() *worker.Sweeper {
	unit := uow.NewPostgresUoW(s.DB)
	m := metrics.NewEngine(metrics.NewRegistry())
	clk := clock.NewRealClock()
	engine := commands.NewReservationUseCase(unit, clk, m, 10*time.Minute)
	return worker.NewSweeper(
		unit,
		engine,
		repository.NewReservationRepository(),
		clk,
		m,
		worker.NewLiveness(),
		config.SweeperConfig{Interval: time.Second, BatchSize: 100},
	)
}

func (s *ReservationSuite) TestSweeperExpiresOverdueReservations() {
	s.Run("overdue holds return to available, live holds stay", func() {
		t := s.T()
		ctx := context.Background()
		dbtest.SeedSku(t, s.DB, "SKU-SWEEP", 10)

		overdueA := uuid.New()
		overdueB := uuid.New()
		live := uuid.New()
		for _, id := range []uuid.UUID{overdueA, overdueB, live} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
				createBody(id, uuid.New(), "SKU-SWEEP", 2))
			httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)
		}

		_, err := s.DB.Exec(ctx,
			"UPDATE reservations SET expires_at = NOW() - INTERVAL '1 minute' WHERE id = ANY($1)",
			[]uuid.UUID{overdueA, overdueB})
		require.NoError(t, err)

		sweeper := s.buildSweeper()
		require.NoError(t, sweeper.SweepOnce(ctx))

		for _, id := range []uuid.UUID{overdueA, overdueB} {
			var status string
			require.NoError(t, s.DB.QueryRow(ctx,
				"SELECT status FROM reservations WHERE id = $1", id).Scan(&status))
			require.Equal(t, "expired", status)
		}
		var liveStatus string
		require.NoError(t, s.DB.QueryRow(ctx,
			"SELECT status FROM reservations WHERE id = $1", live).Scan(&liveStatus))
		require.Equal(t, "pending", liveStatus)

		available, reserved, _ := s.ledgerBuckets("SKU-SWEEP")
		require.Equal(t, int64(8), available)
		require.Equal(t, int64(2), reserved)

		// A second sweep finds nothing left to claim.
		require.NoError(t, sweeper.SweepOnce(ctx))
		available, reserved, _ = s.ledgerBuckets("SKU-SWEEP")
		require.Equal(t, int64(8), available)
		require.Equal(t, int64(2), reserved)
	})

	s.Run("concurrent sweeps split the batch without double releasing", func() {
		t := s.T()
		ctx := context.Background()
		dbtest.SeedSku(t, s.DB, "SKU-SWEEP", 12)

		ids := make([]uuid.UUID, 6)
		for i := range ids {
			ids[i] = uuid.New()
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
				createBody(ids[i], uuid.New(), "SKU-SWEEP", 2))
			httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)
		}
		_, err := s.DB.Exec(ctx,
			"UPDATE reservations SET expires_at = NOW() - INTERVAL '1 minute' WHERE id = ANY($1)", ids)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errors := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				errors[slot] = s.buildSweeper().SweepOnce(ctx)
			}(i)
		}
		wg.Wait()
		require.NoError(t, errors[0])
		require.NoError(t, errors[1])

		var expired int
		require.NoError(t, s.DB.QueryRow(ctx,
			"SELECT COUNT(*) FROM reservations WHERE status = 'expired'").Scan(&expired))
		require.Equal(t, 6, expired)

		// Every unit went back exactly once.
		available, reserved, sold := s.ledgerBuckets("SKU-SWEEP")
		require.Equal(t, int64(12), available)
		require.Equal(t, int64(0), reserved)
		require.Equal(t, int64(0), sold)
	})
}
