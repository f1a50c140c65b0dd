package bootstrap

import (
	"context"
	"sync"

	"inventory-engine/internal/consumer"
	"inventory-engine/internal/pkg/config"
	"inventory-engine/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("workers",
	fx.Provide(
		worker.NewLiveness,
		func(cfg config.Config) config.SweeperConfig { return cfg.Sweeper },
		func(cfg config.Config) config.PublisherConfig { return cfg.Publisher },
		func(cfg config.Config) config.ConsumerConfig { return cfg.Consumer },
		worker.NewSweeper,
		worker.NewPublisher,
		consumer.NewPaymentConsumer,
	),
	fx.Invoke(StartWorkers),
)

// StartWorkers launches the background loops and ties their lifetime to the
// fx application. OnStop cancels the shared context and waits for all loops
// to drain, so in-flight transactions finish before the pool closes.
func StartWorkers(
	lc fx.Lifecycle,
	sweeper *worker.Sweeper,
	publisher *worker.Publisher,
	paymentConsumer *consumer.PaymentConsumer,
) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	run := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			run(sweeper.Run)
			run(publisher.Run)
			run(paymentConsumer.Run)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			wg.Wait()
			return nil
		},
	})
}
