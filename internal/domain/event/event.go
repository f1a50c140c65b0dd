package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published through the outbox, one per ledger transition.
const (
	TypeReserved  = "inventory.reserved"
	TypeConfirmed = "inventory.confirmed"
	TypeReleased  = "inventory.released"
)

// Event types consumed from the payments topic.
const (
	TypePaymentCompleted = "payment.completed"
	TypePaymentFailed    = "payment.failed"
)

const AggregateReservation = "reservation"

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxPublished OutboxStatus = "published"
	OutboxFailed    OutboxStatus = "failed"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and drained asynchronously by the publisher.
type OutboxEvent struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       json.RawMessage
	PartitionKey  string
	Status        OutboxStatus
	CreatedAt     time.Time
	PublishedAt   *time.Time
	RetryCount    int32
	LastError     *string
}

// Envelope is the wire format on the broker. EventID lets consumers run an
// idempotency guard; PartitionKey keys the broker partition so same-SKU events
// stay ordered.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type ReservedPayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	OrderID       uuid.UUID `json:"order_id"`
	SkuID         string    `json:"sku_id"`
	Quantity      int64     `json:"quantity"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type ConfirmedPayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
}

type ReleasedPayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	Reason        string    `json:"reason"`
}

// PaymentPayload is the subset of the payment events this engine acts on.
type PaymentPayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	OrderID       uuid.UUID `json:"order_id"`
}

// NewOutboxEvent marshals payload and builds a pending outbox row. The
// partition key is the SKU so the substrate preserves per-SKU order.
func NewOutboxEvent(eventType string, aggregateID uuid.UUID, partitionKey string, payload any, now time.Time) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.New(),
		AggregateType: AggregateReservation,
		AggregateID:   aggregateID.String(),
		EventType:     eventType,
		Payload:       raw,
		PartitionKey:  partitionKey,
		Status:        OutboxPending,
		CreatedAt:     now,
	}, nil
}

// WireValue renders the envelope published to the broker.
func (e *OutboxEvent) WireValue() ([]byte, error) {
	return json.Marshal(Envelope{
		EventID:    e.ID,
		EventType:  e.EventType,
		OccurredAt: e.CreatedAt,
		Payload:    e.Payload,
	})
}
