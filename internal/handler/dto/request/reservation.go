package request

import (
	"time"

	"inventory-engine/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	ReservationID uuid.UUID `json:"reservation_id" binding:"required"`
	OrderID       uuid.UUID `json:"order_id" binding:"required"`
	SkuID         string    `json:"sku_id" binding:"required"`
	Quantity      int64     `json:"quantity" binding:"required,gt=0"`
	TTLSeconds    int64     `json:"ttl_seconds,omitempty" binding:"omitempty,gt=0"`
}

func (r CreateReservationRequest) ToParams() commands.ReserveParams {
	return commands.ReserveParams{
		ReservationID: r.ReservationID,
		OrderID:       r.OrderID,
		SkuID:         r.SkuID,
		Quantity:      r.Quantity,
		TTL:           time.Duration(r.TTLSeconds) * time.Second,
	}
}

type UpsertSkuRequest struct {
	Available int64 `json:"available" binding:"min=0"`
}
