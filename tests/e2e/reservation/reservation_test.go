//go:build e2e

package reservation_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"inventory-engine/internal/handler/dto/response"
	"inventory-engine/tests/common/dbtest"
	"inventory-engine/tests/common/httptest"
	"inventory-engine/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	reservationsURL = "/api/reservations"
	skuURL          = "/api/skus/%s"
)

type ReservationSuite struct {
	e2e.SharedSuite
}

func TestReservationSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(ReservationSuite))
}

func createBody(reservationID, orderID uuid.UUID, skuID string, quantity int64) map[string]any {
	return map[string]any{
		"reservation_id": reservationID.String(),
		"order_id":       orderID.String(),
		"sku_id":         skuID,
		"quantity":       quantity,
		"ttl_seconds":    600,
	}
}

func (s *ReservationSuite) getSku(skuID string) response.SkuResponse {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, fmt.Sprintf(skuURL, skuID), nil)
	var sku response.SkuResponse
	httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &sku)
	return sku
}

func (s *ReservationSuite) outboxEventTypes(reservationID uuid.UUID) []string {
	rows, err := s.DB.Query(s.T().Context(),
		"SELECT event_type FROM outbox_events WHERE aggregate_id = $1 ORDER BY created_at", reservationID.String())
	require.NoError(s.T(), err)
	defer rows.Close()

	var types []string
	for rows.Next() {
		var et string
		require.NoError(s.T(), rows.Scan(&et))
		types = append(types, et)
	}
	return types
}

func (s *ReservationSuite) TestReservationLifecycle() {
	s.Run("reserve, confirm and observe ledger buckets", func() {
		t := s.T()
		dbtest.SeedSku(t, s.DB, "SKU-E2E", 10)

		reservationID := uuid.New()
		body := createBody(reservationID, uuid.New(), "SKU-E2E", 4)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, body)
		var created response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &created)
		require.Equal(t, "pending", created.Status)
		require.False(t, created.Replayed)

		sku := s.getSku("SKU-E2E")
		require.Equal(t, int64(6), sku.Available)
		require.Equal(t, int64(4), sku.Reserved)
		require.Equal(t, int64(0), sku.Sold)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL+"/"+reservationID.String()+"/confirm", nil)
		var confirmed response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &confirmed)
		require.Equal(t, "confirmed", confirmed.Status)
		require.NotNil(t, confirmed.ConfirmedAt)

		sku = s.getSku("SKU-E2E")
		require.Equal(t, int64(6), sku.Available)
		require.Equal(t, int64(0), sku.Reserved)
		require.Equal(t, int64(4), sku.Sold)

		require.Equal(t, []string{"inventory.reserved", "inventory.confirmed"}, s.outboxEventTypes(reservationID))
	})

	s.Run("release returns held stock", func() {
		t := s.T()
		dbtest.SeedSku(t, s.DB, "SKU-E2E", 10)

		reservationID := uuid.New()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			createBody(reservationID, uuid.New(), "SKU-E2E", 3))
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL+"/"+reservationID.String()+"/release", nil)
		var released response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &released)
		require.Equal(t, "released", released.Status)

		sku := s.getSku("SKU-E2E")
		require.Equal(t, int64(10), sku.Available)
		require.Equal(t, int64(0), sku.Reserved)

		require.Equal(t, []string{"inventory.reserved", "inventory.released"}, s.outboxEventTypes(reservationID))
	})

	s.Run("oversell is rejected without mutating the ledger", func() {
		t := s.T()
		dbtest.SeedSku(t, s.DB, "SKU-E2E", 5)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			createBody(uuid.New(), uuid.New(), "SKU-E2E", 7))
		httptest.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "Insufficient stock")

		sku := s.getSku("SKU-E2E")
		require.Equal(t, int64(5), sku.Available)
		require.Equal(t, int64(0), sku.Reserved)
	})

	s.Run("retrying the same request replays the stored outcome", func() {
		t := s.T()
		dbtest.SeedSku(t, s.DB, "SKU-E2E", 10)

		body := createBody(uuid.New(), uuid.New(), "SKU-E2E", 2)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, body)
		var first response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, &first)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL, body)
		var replayed response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &replayed)
		require.True(t, replayed.Replayed)
		require.Equal(t, first.ID, replayed.ID)

		// Only one hold was placed.
		sku := s.getSku("SKU-E2E")
		require.Equal(t, int64(8), sku.Available)
		require.Equal(t, int64(2), sku.Reserved)
	})

	s.Run("same reservation id with different arguments conflicts", func() {
		t := s.T()
		dbtest.SeedSku(t, s.DB, "SKU-E2E", 10)

		reservationID := uuid.New()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			createBody(reservationID, uuid.New(), "SKU-E2E", 2))
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			createBody(reservationID, uuid.New(), "SKU-E2E", 3))
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "already used")
	})

	s.Run("confirming a released reservation conflicts", func() {
		t := s.T()
		dbtest.SeedSku(t, s.DB, "SKU-E2E", 10)

		reservationID := uuid.New()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			createBody(reservationID, uuid.New(), "SKU-E2E", 2))
		httptest.AssertSuccessResponse(t, w, http.StatusCreated, nil)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL+"/"+reservationID.String()+"/release", nil)
		httptest.AssertSuccessResponse(t, w, http.StatusOK, nil)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL+"/"+reservationID.String()+"/confirm", nil)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "not in a state")
	})

	s.Run("unknown sku is a 404", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			createBody(uuid.New(), uuid.New(), "SKU-MISSING", 1))
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "SKU not found")
	})

	s.Run("sku provisioning through the API", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPut, fmt.Sprintf(skuURL, "SKU-NEW"),
			map[string]any{"available": 25})
		var sku response.SkuResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &sku)
		require.Equal(t, int64(25), sku.Available)
		require.Equal(t, int64(1), sku.Version)
	})
}

func (s *ReservationSuite) TestExpiredReservationVisibility() {
	s.Run("expired pending reservation still reads as stored", func() {
		t := s.T()
		dbtest.SeedSku(t, s.DB, "SKU-E2E", 10)

		expired := dbtest.CreatePendingReservation(t, s.DB, "SKU-E2E", 2, time.Now().Add(-time.Minute))

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, reservationsURL+"/"+expired.String(), nil)
		var res response.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &res)
		require.Equal(t, "pending", res.Status)
	})
}
