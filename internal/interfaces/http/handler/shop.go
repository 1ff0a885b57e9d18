package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	shopapp "github.com/teebalk/marketplace/internal/application/shop"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ShopService is the part of shopapp.ShopService the handler uses
type ShopService interface {
	Create(ctx context.Context, userID uuid.UUID, req shopapp.ShopRequest) (*shopapp.ShopResponse, error)
	Update(ctx context.Context, userID, shopID uuid.UUID, req shopapp.ShopRequest) (*shopapp.ShopResponse, error)
	Publish(ctx context.Context, userID, shopID uuid.UUID) (*shopapp.ShopResponse, error)
	Unpublish(ctx context.Context, userID, shopID uuid.UUID) (*shopapp.ShopResponse, error)
	Get(ctx context.Context, viewerID *uuid.UUID, shopID uuid.UUID) (*shopapp.ShopResponse, error)
	GetMine(ctx context.Context, userID uuid.UUID) (*shopapp.ShopResponse, error)
	List(ctx context.Context, f shopapp.ShopListFilter) (*shared.Paginated[shopapp.ShopResponse], error)
}

// ShopHandler handles shop endpoints
type ShopHandler struct {
	BaseHandler
	shops ShopService
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(shops ShopService) *ShopHandler {
	return &ShopHandler{shops: shops}
}

// Create godoc
//
//	@Summary	Open a shop for the caller
//	@Tags		shops
//	@Router		/shops [post]
func (h *ShopHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req shopapp.ShopRequest
	if !h.BindJSON(c, &req) {
		return
	}
	s, err := h.shops.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

// Update godoc
//
//	@Summary	Update the caller's shop profile
//	@Tags		shops
//	@Router		/shops/{id} [put]
func (h *ShopHandler) Update(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req shopapp.ShopRequest
	if !h.BindJSON(c, &req) {
		return
	}
	s, err := h.shops.Update(c.Request.Context(), userID, shopID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, s)
}

// Publish makes the shop visible to buyers
func (h *ShopHandler) Publish(c *gin.Context) {
	h.transition(c, h.shops.Publish)
}

// Unpublish hides the shop
func (h *ShopHandler) Unpublish(c *gin.Context) {
	h.transition(c, h.shops.Unpublish)
}

func (h *ShopHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*shopapp.ShopResponse, error)) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	shopID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	s, err := fn(c.Request.Context(), userID, shopID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, s)
}

// Get returns a shop. Unpublished shops are visible to their owner only.
func (h *ShopHandler) Get(c *gin.Context) {
	shopID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	s, err := h.shops.Get(c.Request.Context(), viewer(c), shopID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, s)
}

// GetMine returns the caller's shop
func (h *ShopHandler) GetMine(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	s, err := h.shops.GetMine(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, s)
}

// List godoc
//
//	@Summary	List published shops
//	@Tags		shops
//	@Param		search		query	string	false	"Name search"
//	@Param		featured	query	bool	false	"Featured shops only"
//	@Router		/shops [get]
func (h *ShopHandler) List(c *gin.Context) {
	var f shopapp.ShopListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	result, err := h.shops.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	page(c, result)
}
