package response

import (
	"time"

	"inventory-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderID     uuid.UUID  `json:"order_id"`
	SkuID       string     `json:"sku_id"`
	Quantity    int64      `json:"quantity"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	Replayed    bool       `json:"replayed,omitempty"`
}

func FromReservationView(view *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

type SkuResponse struct {
	SkuID     string    `json:"sku_id"`
	Available int64     `json:"available"`
	Reserved  int64     `json:"reserved"`
	Sold      int64     `json:"sold"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromSkuView(view *queries.SkuView) *SkuResponse {
	var resp SkuResponse
	_ = copier.Copy(&resp, view)
	return &resp
}
