package components

import (
	"inventory-engine/internal/pkg/clock"
	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/pkg/metrics"
	"inventory-engine/internal/usecase/commands"
	"inventory-engine/internal/usecase/queries"
	"inventory-engine/internal/usecase/shared"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	metrics.NewRegistry,
	func(reg *prometheus.Registry) *metrics.Engine {
		return metrics.NewEngine(reg)
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		func(uow shared.UnitOfWork, clk clock.Clock, m *metrics.Engine, cfg config.Config) commands.ReservationCommands {
			return commands.NewReservationUseCase(uow, clk, m, cfg.Reservation.DefaultTTL)
		},
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewInventoryQueries,
	),
)
