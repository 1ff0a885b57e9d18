package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	experienceapp "github.com/teebalk/marketplace/internal/application/experience"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// BookingService is the part of experienceapp.BookingService the handler
// uses
type BookingService interface {
	ReserveTickets(ctx context.Context, userID, sessionID uuid.UUID, req experienceapp.ReserveTicketsRequest) (*experienceapp.ReservationResponse, error)
	CreatePaymentIntent(ctx context.Context, userID, sessionID uuid.UUID, req experienceapp.BookingPaymentRequest) (*experienceapp.BookingPaymentResponse, error)
	CancelReservation(ctx context.Context, userID, sessionID uuid.UUID) error
	CheckInTicket(ctx context.Context, sellerID uuid.UUID, req experienceapp.CheckInRequest) (*experienceapp.ExperienceOrderResponse, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, f experienceapp.ExperienceOrderListFilter) (*shared.Paginated[experienceapp.ExperienceOrderResponse], error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*experienceapp.ExperienceOrderResponse, error)
}

// BookingHandler handles ticket holds, booking payments and tickets
type BookingHandler struct {
	BaseHandler
	bookings BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Reserve godoc
//
//	@Summary		Hold tickets for a session
//	@Description	Replaces any hold the caller already has on the session.
//	@Description	The hold lapses at expired_at unless paid.
//	@Tags			bookings
//	@Router			/sessions/{id}/reservations [post]
func (h *BookingHandler) Reserve(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req experienceapp.ReserveTicketsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.bookings.ReserveTickets(c.Request.Context(), userID, sessionID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, resp)
}

// CancelReservation releases the caller's hold
func (h *BookingHandler) CancelReservation(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.bookings.CancelReservation(c.Request.Context(), userID, sessionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Pay godoc
//
//	@Summary		Pay for held tickets
//	@Description	Free and coin-only bookings complete immediately and the
//	@Description	response includes the order. Card payments return a client
//	@Description	secret; the webhook issues the tickets.
//	@Tags			bookings
//	@Router			/sessions/{id}/payment [post]
func (h *BookingHandler) Pay(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req experienceapp.BookingPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.bookings.CreatePaymentIntent(c.Request.Context(), userID, sessionID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, resp)
}

// ListOrders lists the caller's bookings
func (h *BookingHandler) ListOrders(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var f experienceapp.ExperienceOrderListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	result, err := h.bookings.ListMyOrders(c.Request.Context(), userID, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	page(c, result)
}

// GetOrder returns a booking with its ticket codes
func (h *BookingHandler) GetOrder(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	o, err := h.bookings.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, o)
}

// CheckIn admits a ticket holder at the caller's shop
func (h *BookingHandler) CheckIn(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req experienceapp.CheckInRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.bookings.CheckInTicket(c.Request.Context(), userID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, o)
}
