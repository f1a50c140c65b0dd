//go:build unit || e2e

package builder

import (
	"time"

	"inventory-engine/internal/domain/event"
	"inventory-engine/internal/domain/reservation"

	"github.com/google/uuid"
)

// ReservationBuilder assembles a valid pending reservation; tests mutate only
// the fields they care about.
type ReservationBuilder struct {
	id       uuid.UUID
	orderID  uuid.UUID
	skuID    string
	quantity int64
	ttl      time.Duration
	now      time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		id:       uuid.New(),
		orderID:  uuid.New(),
		skuID:    "SKU-001",
		quantity: 2,
		ttl:      10 * time.Minute,
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *ReservationBuilder) WithID(id uuid.UUID) *ReservationBuilder {
	b.id = id
	return b
}

func (b *ReservationBuilder) WithOrderID(orderID uuid.UUID) *ReservationBuilder {
	b.orderID = orderID
	return b
}

func (b *ReservationBuilder) WithSkuID(skuID string) *ReservationBuilder {
	b.skuID = skuID
	return b
}

func (b *ReservationBuilder) WithQuantity(quantity int64) *ReservationBuilder {
	b.quantity = quantity
	return b
}

func (b *ReservationBuilder) WithTTL(ttl time.Duration) *ReservationBuilder {
	b.ttl = ttl
	return b
}

func (b *ReservationBuilder) WithNow(now time.Time) *ReservationBuilder {
	b.now = now
	return b
}

func (b *ReservationBuilder) BuildDomain() (*reservation.Reservation, error) {
	return reservation.New(b.id, b.orderID, b.skuID, b.quantity, b.ttl, b.now)
}

// BuildWithStatus rehydrates a reservation already in the given state, the way
// a repository read would.
func (b *ReservationBuilder) BuildWithStatus(status reservation.Status) *reservation.Reservation {
	var confirmedAt, releasedAt *time.Time
	switch status {
	case reservation.StatusConfirmed:
		t := b.now.Add(time.Minute)
		confirmedAt = &t
	case reservation.StatusReleased, reservation.StatusExpired:
		t := b.now.Add(time.Minute)
		releasedAt = &t
	}
	return reservation.Rehydrate(b.id, b.orderID, b.skuID, b.quantity, status, b.now, b.now.Add(b.ttl), confirmedAt, releasedAt)
}

// OutboxEventBuilder assembles pending outbox rows for publisher tests.
type OutboxEventBuilder struct {
	eventType    string
	aggregateID  uuid.UUID
	partitionKey string
	retryCount   int32
	createdAt    time.Time
}

func NewOutboxEventBuilder() *OutboxEventBuilder {
	return &OutboxEventBuilder{
		eventType:    event.TypeReserved,
		aggregateID:  uuid.New(),
		partitionKey: "SKU-001",
		createdAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *OutboxEventBuilder) WithEventType(eventType string) *OutboxEventBuilder {
	b.eventType = eventType
	return b
}

func (b *OutboxEventBuilder) WithPartitionKey(key string) *OutboxEventBuilder {
	b.partitionKey = key
	return b
}

func (b *OutboxEventBuilder) WithRetryCount(count int32) *OutboxEventBuilder {
	b.retryCount = count
	return b
}

func (b *OutboxEventBuilder) WithCreatedAt(at time.Time) *OutboxEventBuilder {
	b.createdAt = at
	return b
}

func (b *OutboxEventBuilder) Build() *event.OutboxEvent {
	ev, err := event.NewOutboxEvent(b.eventType, b.aggregateID, b.partitionKey, event.ConfirmedPayload{
		ReservationID: b.aggregateID,
	}, b.createdAt)
	if err != nil {
		panic(err)
	}
	ev.RetryCount = b.retryCount
	return ev
}
