package components

import (
	"inventory-engine/internal/infra/repository"
	"inventory-engine/internal/infra/uow"
	"inventory-engine/internal/usecase/shared"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		// UnitOfWork
		uow.NewPostgresUoW,
		// Stock ledger
		fx.Annotate(
			repository.NewLedgerRepository,
			fx.As(new(shared.LedgerRepository)),
		),
		// Reservation
		fx.Annotate(
			repository.NewReservationRepository,
			fx.As(new(shared.ReservationRepository)),
		),
		// Outbox
		fx.Annotate(
			repository.NewOutboxRepository,
			fx.As(new(shared.OutboxRepository)),
		),
		// Idempotency guard
		fx.Annotate(
			repository.NewProcessedEventRepository,
			fx.As(new(shared.ProcessedEventRepository)),
		),
	),
)
