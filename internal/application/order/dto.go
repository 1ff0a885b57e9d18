package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	paymentapp "github.com/teebalk/marketplace/internal/application/payment"
	"github.com/teebalk/marketplace/internal/domain/order"
)

// AddressRequest is the delivery address entered at checkout
type AddressRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	Phone      string `json:"phone" binding:"max=30"`
	PostalCode string `json:"postal_code" binding:"required,max=10"`
	Prefecture string `json:"prefecture" binding:"required,max=50"`
	City       string `json:"city" binding:"required,max=100"`
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
}

func (r AddressRequest) toDomain() order.ShippingAddress {
	return order.ShippingAddress{
		Name:       r.Name,
		Phone:      r.Phone,
		PostalCode: r.PostalCode,
		Prefecture: r.Prefecture,
		City:       r.City,
		Line1:      r.Line1,
		Line2:      r.Line2,
	}
}

// CheckoutRequest buys the selected cart lines. UsedCoins is how many
// coins the buyer wants to spend; the rest is charged by card.
type CheckoutRequest struct {
	CartItemIDs     []uuid.UUID     `json:"cart_item_ids" binding:"required,min=1,max=100"`
	ShippingAddress AddressRequest  `json:"shipping_address" binding:"required"`
	UsedCoins       decimal.Decimal `json:"used_coins"`
}

// ShipOrderRequest marks an order as handed to the carrier
type ShipOrderRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"max=100"`
}

// OrderListFilter is the query of order listings
type OrderListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending paid shipped completed cancelled"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size" binding:"omitempty,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse is a purchased product snapshot
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                   uuid.UUID             `json:"id"`
	Code                 string                `json:"code"`
	UserID               uuid.UUID             `json:"user_id"`
	ShopID               uuid.UUID             `json:"shop_id"`
	Status               string                `json:"status"`
	Items                []OrderItemResponse   `json:"items"`
	Subtotal             decimal.Decimal       `json:"subtotal"`
	ShippingFee          decimal.Decimal       `json:"shipping_fee"`
	Total                decimal.Decimal       `json:"total"`
	PlatformFee          decimal.Decimal       `json:"platform_fee"`
	Currency             string                `json:"currency"`
	ShippingAddress      order.ShippingAddress `json:"shipping_address"`
	PaymentTransactionID *uuid.UUID            `json:"payment_transaction_id,omitempty"`
	TrackingNumber       string                `json:"tracking_number,omitempty"`
	PaidAt               *time.Time            `json:"paid_at,omitempty"`
	ShippedAt            *time.Time            `json:"shipped_at,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	Version              int                   `json:"version"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Title:       it.Title,
			Price:       it.Price,
			ShippingFee: it.ShippingFee,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal(),
		}
	}
	return OrderResponse{
		ID:                   o.ID,
		Code:                 o.Code,
		UserID:               o.UserID,
		ShopID:               o.ShopID,
		Status:               string(o.Status),
		Items:                items,
		Subtotal:             o.Subtotal,
		ShippingFee:          o.ShippingFee,
		Total:                o.Total,
		PlatformFee:          o.PlatformFee,
		Currency:             o.Currency.String(),
		ShippingAddress:      o.ShippingAddress,
		PaymentTransactionID: o.PaymentTransactionID,
		TrackingNumber:       o.TrackingNumber,
		PaidAt:               o.PaidAt,
		ShippedAt:            o.ShippedAt,
		CreatedAt:            o.CreatedAt,
		Version:              o.Version,
	}
}

// CheckoutResponse is the outcome of a checkout. When the payment is still
// pending the client confirms it with Payment.ClientSecret.
type CheckoutResponse struct {
	Orders  []OrderResponse                `json:"orders"`
	Payment paymentapp.TransactionResponse `json:"payment"`
}
