package components

import (
	"inventory-engine/internal/handler"
	"inventory-engine/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewHealthHandler,
		api.NewReservationHandler,
	),
	fx.Invoke(handler.NewRouter),
)
