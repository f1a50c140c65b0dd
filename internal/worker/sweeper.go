package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"inventory-engine/internal/domain/reservation"
	"inventory-engine/internal/infra/db"
	"inventory-engine/internal/pkg/clock"
	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/pkg/metrics"
	"inventory-engine/internal/usecase/commands"
	"inventory-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// Sweeper reclaims timed-out pending reservations. Any number of instances is
// safe: the claim uses lock-and-skip, and the release path is idempotent, so a
// reservation expired by a sibling instance degrades to a no-op.
type Sweeper struct {
	uow      shared.UnitOfWork
	engine   commands.ReservationCommands
	resRepo  shared.ReservationRepository
	clock    clock.Clock
	metrics  *metrics.Engine
	liveness *Liveness
	cfg      config.SweeperConfig
}

func NewSweeper(
	uow shared.UnitOfWork,
	engine commands.ReservationCommands,
	resRepo shared.ReservationRepository,
	clk clock.Clock,
	m *metrics.Engine,
	liveness *Liveness,
	cfg config.SweeperConfig,
) *Sweeper {
	return &Sweeper{
		uow:      uow,
		engine:   engine,
		resRepo:  resRepo,
		clock:    clk,
		metrics:  m,
		liveness: liveness,
		cfg:      cfg,
	}
}

// Run loops until ctx is canceled. One cycle failing is logged and retried on
// the next tick; the loop itself never exits on error.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("expiry sweeper started", "interval", s.cfg.Interval.String(), "batch_size", s.cfg.BatchSize)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.metrics.SweeperCycleErrors.Inc()
				slog.Error("sweep cycle failed", "error", err.Error())
			}
			s.liveness.Beat(NameSweeper, s.clock.Now())
		}
	}
}

// SweepOnce claims one batch of expired pending reservations and releases each
// through the same path as a manual release. A failure on one reservation does
// not abort the batch.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	expired, err := s.claimExpiredIDs(ctx)
	if err != nil {
		return err
	}

	for _, id := range expired {
		if err := s.engine.Release(ctx, id, reservation.ReasonExpired); err != nil {
			// Lost races surface as InvalidState after a concurrent
			// confirm/release; those are resolved, not failures.
			if errors.Is(err, commands.ErrInvalidState) || errors.Is(err, commands.ErrReservationNotFound) {
				continue
			}
			slog.Warn("failed to expire reservation, will retry next cycle",
				"reservation_id", id.String(),
				"error", err.Error())
			continue
		}
		s.metrics.SweeperExpired.Inc()
		slog.Info("reservation expired", "reservation_id", id.String())
	}

	s.samplePendingGauge(ctx)
	return nil
}

// claimExpiredIDs runs the lock-and-skip scan in its own short transaction.
// The locks only serve to partition the batch between concurrent sweeper
// instances; the releases re-lock row by row.
func (s *Sweeper) claimExpiredIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		batch, err := tx.Reservations().ClaimExpired(ctx, tx.DB(), s.clock.Now(), s.cfg.BatchSize)
		if err != nil {
			return err
		}
		for _, res := range batch {
			ids = append(ids, res.ID())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Sweeper) samplePendingGauge(ctx context.Context) {
	_ = s.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		count, err := s.resRepo.CountPending(ctx, dbtx)
		if err != nil {
			return err
		}
		s.metrics.ReservationsPending.Set(float64(count))
		return nil
	})
}
