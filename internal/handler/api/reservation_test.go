//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"inventory-engine/internal/domain/reservation"
	"inventory-engine/internal/handler/api"
	resdto "inventory-engine/internal/handler/dto/response"
	"inventory-engine/internal/usecase/commands"
	"inventory-engine/internal/usecase/queries"
	"inventory-engine/tests/common/builder"
	"inventory-engine/tests/common/httptest"
	commandsmock "inventory-engine/tests/mock/commands"
	queriesmock "inventory-engine/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReservationHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockEngine  *commandsmock.MockReservationCommands
	mockQueries *queriesmock.MockInventoryQueries
	handler     *api.ReservationHandler
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockEngine = commandsmock.NewMockReservationCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockInventoryQueries(s.mockCtrl)
	s.handler = api.NewReservationHandler(s.mockEngine, s.mockQueries)

	s.router.POST("/reservations", s.handler.CreateReservation)
	s.router.GET("/reservations/:id", s.handler.GetReservation)
	s.router.POST("/reservations/:id/confirm", s.handler.ConfirmReservation)
	s.router.POST("/reservations/:id/release", s.handler.ReleaseReservation)
	s.router.GET("/skus/:id", s.handler.GetSku)
	s.router.PUT("/skus/:id", s.handler.UpsertSku)
}

func (s *ReservationHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func validCreateBody() map[string]any {
	return map[string]any{
		"reservation_id": uuid.New().String(),
		"order_id":       uuid.New().String(),
		"sku_id":         "SKU-001",
		"quantity":       2,
		"ttl_seconds":    600,
	}
}

func reservationView(id uuid.UUID, status string) *queries.ReservationView {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &queries.ReservationView{
		ID:        id,
		OrderID:   uuid.New(),
		SkuID:     "SKU-001",
		Quantity:  2,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
}

func (s *ReservationHandlerTestSuite) TestCreateReservation() {
	pending := builder.NewReservationBuilder().BuildWithStatus(reservation.StatusPending)

	tests := []struct {
		name         string
		mutate       func(m map[string]any)
		setupMock    func()
		expectCode   int
		expectInBody string
	}{
		{
			name: "created",
			setupMock: func() {
				s.mockEngine.EXPECT().Reserve(gomock.Any(), gomock.Any()).
					Return(&commands.ReserveResult{Reservation: pending}, nil)
			},
			expectCode:   http.StatusCreated,
			expectInBody: `"status":"pending"`,
		},
		{
			name: "replay returns stored outcome",
			setupMock: func() {
				s.mockEngine.EXPECT().Reserve(gomock.Any(), gomock.Any()).
					Return(&commands.ReserveResult{Reservation: pending, IsReplayed: true}, nil)
			},
			expectCode:   http.StatusOK,
			expectInBody: `"replayed":true`,
		},
		{
			name:         "missing sku_id",
			mutate:       func(m map[string]any) { delete(m, "sku_id") },
			expectCode:   http.StatusBadRequest,
			expectInBody: "Invalid request body",
		},
		{
			name:         "zero quantity",
			mutate:       func(m map[string]any) { m["quantity"] = 0 },
			expectCode:   http.StatusBadRequest,
			expectInBody: "Invalid request body",
		},
		{
			name:         "malformed reservation id",
			mutate:       func(m map[string]any) { m["reservation_id"] = "not-a-uuid" },
			expectCode:   http.StatusBadRequest,
			expectInBody: "Invalid request body",
		},
		{
			name: "unknown sku",
			setupMock: func() {
				s.mockEngine.EXPECT().Reserve(gomock.Any(), gomock.Any()).
					Return(nil, commands.ErrSkuNotFound)
			},
			expectCode:   http.StatusNotFound,
			expectInBody: "SKU not found",
		},
		{
			name: "insufficient stock",
			setupMock: func() {
				s.mockEngine.EXPECT().Reserve(gomock.Any(), gomock.Any()).
					Return(nil, commands.ErrInsufficientStock)
			},
			expectCode:   http.StatusUnprocessableEntity,
			expectInBody: "Insufficient stock",
		},
		{
			name: "id reused with different arguments",
			setupMock: func() {
				s.mockEngine.EXPECT().Reserve(gomock.Any(), gomock.Any()).
					Return(nil, commands.ErrReservationExists)
			},
			expectCode:   http.StatusConflict,
			expectInBody: "already used",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			body := validCreateBody()
			if tt.mutate != nil {
				tt.mutate(body)
			}
			if tt.setupMock != nil {
				tt.setupMock()
			}

			w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/reservations", body)

			s.Equal(tt.expectCode, w.Code)
			s.Contains(w.Body.String(), tt.expectInBody)
		})
	}
}

func (s *ReservationHandlerTestSuite) TestConfirmReservation() {
	id := uuid.New()

	s.Run("confirmed", func() {
		s.mockEngine.EXPECT().Confirm(gomock.Any(), id).Return(nil)
		s.mockQueries.EXPECT().ReservationByID(gomock.Any(), id).
			Return(reservationView(id, "confirmed"), nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/reservations/"+id.String()+"/confirm", nil)

		var res resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &res)
		s.Equal("confirmed", res.Status)
	})

	s.Run("terminal state rejected", func() {
		s.mockEngine.EXPECT().Confirm(gomock.Any(), id).Return(commands.ErrInvalidState)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/reservations/"+id.String()+"/confirm", nil)

		httptest.AssertErrorResponse(s.T(), w, http.StatusConflict, "not in a state")
	})

	s.Run("unknown reservation", func() {
		s.mockEngine.EXPECT().Confirm(gomock.Any(), id).Return(commands.ErrReservationNotFound)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/reservations/"+id.String()+"/confirm", nil)

		httptest.AssertErrorResponse(s.T(), w, http.StatusNotFound, "Reservation not found")
	})

	s.Run("malformed id", func() {
		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/reservations/abc/confirm", nil)

		httptest.AssertErrorResponse(s.T(), w, http.StatusBadRequest, "Invalid reservation id")
	})
}

func (s *ReservationHandlerTestSuite) TestReleaseReservation() {
	id := uuid.New()

	s.Run("released", func() {
		s.mockEngine.EXPECT().Release(gomock.Any(), id, reservation.ReasonReleased).Return(nil)
		s.mockQueries.EXPECT().ReservationByID(gomock.Any(), id).
			Return(reservationView(id, "released"), nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/reservations/"+id.String()+"/release", nil)

		var res resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &res)
		s.Equal("released", res.Status)
	})

	s.Run("confirmed reservation rejected", func() {
		s.mockEngine.EXPECT().Release(gomock.Any(), id, reservation.ReasonReleased).
			Return(commands.ErrInvalidState)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/reservations/"+id.String()+"/release", nil)

		httptest.AssertErrorResponse(s.T(), w, http.StatusConflict, "not in a state")
	})
}

func (s *ReservationHandlerTestSuite) TestGetReservation() {
	id := uuid.New()

	s.Run("found", func() {
		s.mockQueries.EXPECT().ReservationByID(gomock.Any(), id).
			Return(reservationView(id, "pending"), nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservations/"+id.String(), nil)

		var res resdto.ReservationResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &res)
		s.Equal(id, res.ID)
	})

	s.Run("not found", func() {
		s.mockQueries.EXPECT().ReservationByID(gomock.Any(), id).
			Return(nil, queries.ErrReservationNotFound)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/reservations/"+id.String(), nil)

		httptest.AssertErrorResponse(s.T(), w, http.StatusNotFound, "Reservation not found")
	})
}

func (s *ReservationHandlerTestSuite) TestGetSku() {
	s.Run("found", func() {
		s.mockQueries.EXPECT().SkuByID(gomock.Any(), "SKU-001").
			Return(&queries.SkuView{SkuID: "SKU-001", Available: 6, Reserved: 4, Version: 2}, nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/skus/SKU-001", nil)

		var res resdto.SkuResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &res)
		s.Equal(int64(6), res.Available)
		s.Equal(int64(4), res.Reserved)
	})

	s.Run("not found", func() {
		s.mockQueries.EXPECT().SkuByID(gomock.Any(), "SKU-404").
			Return(nil, queries.ErrSkuNotFound)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/skus/SKU-404", nil)

		httptest.AssertErrorResponse(s.T(), w, http.StatusNotFound, "SKU not found")
	})
}

func (s *ReservationHandlerTestSuite) TestUpsertSku() {
	s.Run("upserted", func() {
		s.mockEngine.EXPECT().UpsertSku(gomock.Any(), "SKU-001", int64(10)).Return(nil)
		s.mockQueries.EXPECT().SkuByID(gomock.Any(), "SKU-001").
			Return(&queries.SkuView{SkuID: "SKU-001", Available: 10, Version: 1}, nil)

		w := httptest.PerformRequest(s.T(), s.router, http.MethodPut, "/skus/SKU-001", map[string]any{"available": 10})

		var res resdto.SkuResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &res)
		s.Equal(int64(10), res.Available)
	})

	s.Run("negative stock rejected by binding", func() {
		w := httptest.PerformRequest(s.T(), s.router, http.MethodPut, "/skus/SKU-001", map[string]any{"available": -1})

		httptest.AssertErrorResponse(s.T(), w, http.StatusBadRequest, "Invalid request body")
	})
}
