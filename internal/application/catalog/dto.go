package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/catalog"
)

// ProductRequest creates or replaces a product
type ProductRequest struct {
	Title       string          `json:"title" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=10000"`
	Price       decimal.Decimal `json:"price"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Stock       int             `json:"stock" binding:"min=0"`
	ImageURL    string          `json:"image_url" binding:"max=500"`
}

func (r ProductRequest) details() catalog.Details {
	return catalog.Details{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		ShippingFee: r.ShippingFee,
		Stock:       r.Stock,
		ImageURL:    r.ImageURL,
	}
}

// ProductListFilter is the query of product listings
type ProductListFilter struct {
	Search   string     `form:"search"`
	ShopID   *uuid.UUID `form:"-"`
	Status   string     `form:"status" binding:"omitempty,oneof=draft published unpublished"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size" binding:"omitempty,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	ShopID      uuid.UUID       `json:"shop_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		ShopID:      p.ShopID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		ShippingFee: p.ShippingFee,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}
