package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine holds the prometheus collectors for the reservation engine and its
// background workers. A single instance is shared via fx.
type Engine struct {
	ReservationsCreated   prometheus.Counter
	ReservationsConfirmed prometheus.Counter
	ReservationsReleased  *prometheus.CounterVec
	InsufficientStock     prometheus.Counter

	OutboxPublished    prometheus.Counter
	OutboxRetried      prometheus.Counter
	OutboxDeadLettered prometheus.Counter
	OutboxPending      prometheus.Gauge

	SweeperExpired      prometheus.Counter
	SweeperCycleErrors  prometheus.Counter
	ReservationsPending prometheus.Gauge

	ConsumerProcessed  *prometheus.CounterVec
	ConsumerDuplicates prometheus.Counter
}

func NewEngine(reg prometheus.Registerer) *Engine {
	factory := promauto.With(reg)

	return &Engine{
		ReservationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_reservations_created_total",
			Help: "Number of reservations successfully created.",
		}),
		ReservationsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_reservations_confirmed_total",
			Help: "Number of reservations confirmed.",
		}),
		ReservationsReleased: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_reservations_released_total",
			Help: "Number of reservations released, by reason.",
		}, []string{"reason"}),
		InsufficientStock: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_reserve_insufficient_stock_total",
			Help: "Number of reserve attempts rejected for insufficient stock.",
		}),
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_outbox_published_total",
			Help: "Number of outbox events delivered to the broker.",
		}),
		OutboxRetried: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_outbox_retried_total",
			Help: "Number of outbox publish retries.",
		}),
		OutboxDeadLettered: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_outbox_dead_lettered_total",
			Help: "Number of outbox events routed to the dead letter topic.",
		}),
		OutboxPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_outbox_pending",
			Help: "Outbox events awaiting publication, sampled each publisher cycle.",
		}),
		SweeperExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_sweeper_expired_total",
			Help: "Number of reservations expired by the sweeper.",
		}),
		SweeperCycleErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_sweeper_cycle_errors_total",
			Help: "Number of sweeper cycles that ended with an error.",
		}),
		ReservationsPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_reservations_pending",
			Help: "Pending reservations, sampled each sweeper cycle.",
		}),
		ConsumerProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_consumer_processed_total",
			Help: "Number of inbound events processed, by event type.",
		}, []string{"event_type"}),
		ConsumerDuplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_consumer_duplicates_total",
			Help: "Number of inbound events skipped by the idempotency guard.",
		}),
	}
}

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}
