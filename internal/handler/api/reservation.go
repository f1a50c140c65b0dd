package api

import (
	"errors"
	"net/http"

	"inventory-engine/internal/domain/reservation"
	reqdto "inventory-engine/internal/handler/dto/request"
	resdto "inventory-engine/internal/handler/dto/response"
	"inventory-engine/internal/handler/httperr"
	"inventory-engine/internal/usecase/commands"
	"inventory-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	engine  commands.ReservationCommands
	queries queries.InventoryQueries
}

func NewReservationHandler(engine commands.ReservationCommands, q queries.InventoryQueries) *ReservationHandler {
	return &ReservationHandler{
		engine:  engine,
		queries: q,
	}
}

// CreateReservation places a hold on stock. The caller supplies the
// reservation id, so retrying the same request returns the stored outcome
// with 200 instead of creating a second hold.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req reqdto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request body", nil)
		return
	}

	result, err := h.engine.Reserve(c.Request.Context(), req.ToParams())
	if err != nil {
		h.abortWithDomainError(c, err)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, reservationToResponse(result.Reservation, result.IsReplayed))
}

func (h *ReservationHandler) ConfirmReservation(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.engine.Confirm(c.Request.Context(), id); err != nil {
		h.abortWithDomainError(c, err)
		return
	}
	h.respondWithView(c, id)
}

func (h *ReservationHandler) ReleaseReservation(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.engine.Release(c.Request.Context(), id, reservation.ReasonReleased); err != nil {
		h.abortWithDomainError(c, err)
		return
	}
	h.respondWithView(c, id)
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.respondWithView(c, id)
}

func (h *ReservationHandler) GetSku(c *gin.Context) {
	skuID := c.Param("id")
	view, err := h.queries.SkuByID(c.Request.Context(), skuID)
	if err != nil {
		if errors.Is(err, queries.ErrSkuNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "SKU not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSkuView(view))
}

// UpsertSku seeds or resets a ledger row. Intended for provisioning and test
// environments, not the order flow.
func (h *ReservationHandler) UpsertSku(c *gin.Context) {
	skuID := c.Param("id")
	var req reqdto.UpsertSkuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request body", nil)
		return
	}

	if err := h.engine.UpsertSku(c.Request.Context(), skuID, req.Available); err != nil {
		h.abortWithDomainError(c, err)
		return
	}

	view, err := h.queries.SkuByID(c.Request.Context(), skuID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSkuView(view))
}

func (h *ReservationHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReservationHandler) respondWithView(c *gin.Context, id uuid.UUID) {
	view, err := h.queries.ReservationByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrReservationNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

func (h *ReservationHandler) abortWithDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrInvalidQuantity):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Quantity must be positive", nil)
	case errors.Is(err, commands.ErrSkuNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "SKU not found", nil)
	case errors.Is(err, commands.ErrReservationNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
	case errors.Is(err, commands.ErrInsufficientStock):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Insufficient stock", nil)
	case errors.Is(err, commands.ErrReservationExists):
		httperr.AbortWithError(c, http.StatusConflict, err, "Reservation id already used with different arguments", nil)
	case errors.Is(err, commands.ErrInvalidState):
		httperr.AbortWithError(c, http.StatusConflict, err, "Reservation is not in a state that allows this transition", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

func reservationToResponse(res *reservation.Reservation, replayed bool) *resdto.ReservationResponse {
	return &resdto.ReservationResponse{
		ID:          res.ID(),
		OrderID:     res.OrderID(),
		SkuID:       res.SkuID(),
		Quantity:    res.Quantity(),
		Status:      res.Status().String(),
		CreatedAt:   res.CreatedAt(),
		ExpiresAt:   res.ExpiresAt(),
		ConfirmedAt: res.ConfirmedAt(),
		ReleasedAt:  res.ReleasedAt(),
		Replayed:    replayed,
	}
}
