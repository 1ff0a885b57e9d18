package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	experienceapp "github.com/teebalk/marketplace/internal/application/experience"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ExperienceService is the part of experienceapp.ExperienceService the
// handler uses
type ExperienceService interface {
	Create(ctx context.Context, sellerID uuid.UUID, req experienceapp.ExperienceRequest) (*experienceapp.ExperienceResponse, error)
	Update(ctx context.Context, sellerID, id uuid.UUID, req experienceapp.ExperienceRequest) (*experienceapp.ExperienceResponse, error)
	Publish(ctx context.Context, sellerID, id uuid.UUID) (*experienceapp.ExperienceResponse, error)
	Unpublish(ctx context.Context, sellerID, id uuid.UUID) (*experienceapp.ExperienceResponse, error)
	AddTicket(ctx context.Context, sellerID, id uuid.UUID, req experienceapp.TicketRequest) (*experienceapp.TicketResponse, error)
	AddSession(ctx context.Context, sellerID, id uuid.UUID, req experienceapp.SessionRequest) (*experienceapp.SessionResponse, error)
	CancelSession(ctx context.Context, sellerID, sessionID uuid.UUID) (*experienceapp.SessionResponse, error)
	Get(ctx context.Context, viewerID *uuid.UUID, id uuid.UUID) (*experienceapp.ExperienceResponse, error)
	List(ctx context.Context, f experienceapp.ExperienceListFilter) (*shared.Paginated[experienceapp.ExperienceResponse], error)
	ListShop(ctx context.Context, sellerID uuid.UUID, f experienceapp.ExperienceListFilter) (*shared.Paginated[experienceapp.ExperienceResponse], error)
}

// ExperienceHandler handles experience listings, their ticket types and
// sessions
type ExperienceHandler struct {
	BaseHandler
	experiences ExperienceService
}

// NewExperienceHandler creates a new ExperienceHandler
func NewExperienceHandler(experiences ExperienceService) *ExperienceHandler {
	return &ExperienceHandler{experiences: experiences}
}

// Create adds a draft experience to the caller's shop
func (h *ExperienceHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req experienceapp.ExperienceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := h.experiences.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, e)
}

// Update edits an experience
func (h *ExperienceHandler) Update(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req experienceapp.ExperienceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	e, err := h.experiences.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, e)
}

// Publish opens the experience for booking
func (h *ExperienceHandler) Publish(c *gin.Context) {
	h.transition(c, h.experiences.Publish)
}

// Unpublish hides the experience
func (h *ExperienceHandler) Unpublish(c *gin.Context) {
	h.transition(c, h.experiences.Unpublish)
}

func (h *ExperienceHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*experienceapp.ExperienceResponse, error)) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	e, err := fn(c.Request.Context(), userID, id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, e)
}

// AddTicket godoc
//
//	@Summary	Add a ticket type
//	@Tags		experiences
//	@Router		/experiences/{id}/tickets [post]
func (h *ExperienceHandler) AddTicket(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req experienceapp.TicketRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.experiences.AddTicket(c.Request.Context(), userID, id, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

// AddSession godoc
//
//	@Summary		Schedule a session
//	@Description	Each ticket type offered in the session gets its own capacity
//	@Tags			experiences
//	@Router			/experiences/{id}/sessions [post]
func (h *ExperienceHandler) AddSession(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req experienceapp.SessionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	s, err := h.experiences.AddSession(c.Request.Context(), userID, id, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

// CancelSession stops further bookings for a session
func (h *ExperienceHandler) CancelSession(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	s, err := h.experiences.CancelSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, s)
}

// Get returns an experience with its upcoming sessions
func (h *ExperienceHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	e, err := h.experiences.Get(c.Request.Context(), viewer(c), id)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, e)
}

// List searches published experiences
func (h *ExperienceHandler) List(c *gin.Context) {
	var f experienceapp.ExperienceListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	shopID, ok := h.QueryID(c, "shop_id")
	if !ok {
		return
	}
	f.ShopID = shopID
	result, err := h.experiences.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	page(c, result)
}

// ListShop lists every experience of the caller's shop, drafts included
func (h *ExperienceHandler) ListShop(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var f experienceapp.ExperienceListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	result, err := h.experiences.ListShop(c.Request.Context(), userID, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	page(c, result)
}
