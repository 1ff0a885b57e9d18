package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds quantity units of a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateItemRequest sets the quantity of a cart line. Zero removes it.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

// CartItemResponse is a cart line with a snapshot of its product
type CartItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Title       string          `json:"title"`
	ImageURL    string          `json:"image_url,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Quantity    int             `json:"quantity"`
	Stock       int             `json:"stock"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	// Available is false when the product was unpublished, deleted or
	// no longer has enough stock for the line
	Available bool `json:"available"`
}

// ShopCartResponse groups the lines bought from one shop
type ShopCartResponse struct {
	ShopID      uuid.UUID          `json:"shop_id"`
	ShopName    string             `json:"shop_name"`
	Items       []CartItemResponse `json:"items"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	ShippingFee decimal.Decimal    `json:"shipping_fee"`
	Total       decimal.Decimal    `json:"total"`
}

// CartResponse is the buyer's cart grouped by shop
type CartResponse struct {
	Shops      []ShopCartResponse `json:"shops"`
	ItemCount  int                `json:"item_count"`
	GrandTotal decimal.Decimal    `json:"grand_total"`
}
