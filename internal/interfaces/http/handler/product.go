package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/teebalk/marketplace/internal/application/catalog"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ProductService is the part of catalogapp.ProductService the handler uses
type ProductService interface {
	Create(ctx context.Context, userID uuid.UUID, req catalogapp.ProductRequest) (*catalogapp.ProductResponse, error)
	Update(ctx context.Context, userID, productID uuid.UUID, req catalogapp.ProductRequest) (*catalogapp.ProductResponse, error)
	Publish(ctx context.Context, userID, productID uuid.UUID) (*catalogapp.ProductResponse, error)
	Unpublish(ctx context.Context, userID, productID uuid.UUID) (*catalogapp.ProductResponse, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	Get(ctx context.Context, viewerID *uuid.UUID, productID uuid.UUID) (*catalogapp.ProductResponse, error)
	List(ctx context.Context, f catalogapp.ProductListFilter) (*shared.Paginated[catalogapp.ProductResponse], error)
	ListShop(ctx context.Context, viewerID *uuid.UUID, shopID uuid.UUID, f catalogapp.ProductListFilter) (*shared.Paginated[catalogapp.ProductResponse], error)
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	BaseHandler
	products ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// Create godoc
//
//	@Summary	Add a draft product to the caller's shop
//	@Tags		products
//	@Router		/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req catalogapp.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.products.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Update replaces a product's listing fields
func (h *ProductHandler) Update(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.products.Update(c.Request.Context(), userID, productID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, p)
}

// Publish lists the product for sale
func (h *ProductHandler) Publish(c *gin.Context) {
	h.transition(c, h.products.Publish)
}

// Unpublish withdraws the product from sale
func (h *ProductHandler) Unpublish(c *gin.Context) {
	h.transition(c, h.products.Unpublish)
}

func (h *ProductHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*catalogapp.ProductResponse, error)) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, err := fn(c.Request.Context(), userID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, p)
}

// Delete removes a product
func (h *ProductHandler) Delete(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), userID, productID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Get returns a product. Drafts are visible to the shop owner only.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), viewer(c), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, p)
}

// List godoc
//
//	@Summary	Search published products
//	@Tags		products
//	@Param		search		query	string	false	"Title search"
//	@Param		shop_id		query	string	false	"Restrict to one shop"	format(uuid)
//	@Param		order_by	query	string	false	"price, created_at or title"
//	@Router		/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var f catalogapp.ProductListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	shopID, ok := h.QueryID(c, "shop_id")
	if !ok {
		return
	}
	f.ShopID = shopID
	result, err := h.products.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	page(c, result)
}

// ListShop lists one shop's products. The owner also sees drafts.
func (h *ProductHandler) ListShop(c *gin.Context) {
	shopID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var f catalogapp.ProductListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	result, err := h.products.ListShop(c.Request.Context(), viewer(c), shopID, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	page(c, result)
}
