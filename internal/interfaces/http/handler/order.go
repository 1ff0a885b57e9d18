package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/teebalk/marketplace/internal/application/order"
	paymentapp "github.com/teebalk/marketplace/internal/application/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// OrderService is the part of orderapp.OrderService the handler uses
type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, req orderapp.CheckoutRequest) (*orderapp.CheckoutResponse, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	ListMine(ctx context.Context, userID uuid.UUID, f orderapp.OrderListFilter) (*shared.Paginated[orderapp.OrderResponse], error)
	ListShop(ctx context.Context, sellerID uuid.UUID, f orderapp.OrderListFilter) (*shared.Paginated[orderapp.OrderResponse], error)
	Ship(ctx context.Context, sellerID, orderID uuid.UUID, req orderapp.ShipOrderRequest) (*orderapp.OrderResponse, error)
	Complete(ctx context.Context, userID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
}

// TransactionReader reads payment transactions for their owner
type TransactionReader interface {
	GetTransaction(ctx context.Context, userID, id uuid.UUID) (*paymentapp.TransactionResponse, error)
}

// OrderHandler handles product order endpoints for buyers and sellers
type OrderHandler struct {
	BaseHandler
	orders       OrderService
	transactions TransactionReader
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderService, transactions TransactionReader) *OrderHandler {
	return &OrderHandler{orders: orders, transactions: transactions}
}

// Checkout godoc
//
//	@Summary		Turn cart lines into orders
//	@Description	Creates one order per shop and a single payment transaction.
//	@Description	The response carries the Stripe client secret when a card
//	@Description	payment is needed; coin-only checkouts are already paid.
//	@Tags			orders
//	@Router			/orders/checkout [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req orderapp.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.orders.Checkout(c.Request.Context(), userID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMine lists the caller's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var f orderapp.OrderListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	result, err := h.orders.ListMine(c.Request.Context(), userID, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	page(c, result)
}

// ListShop lists the orders of the caller's shop
func (h *OrderHandler) ListShop(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var f orderapp.OrderListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	result, err := h.orders.ListShop(c.Request.Context(), userID, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	page(c, result)
}

// Get returns an order to its buyer or seller
func (h *OrderHandler) Get(c *gin.Context) {
	h.byID(c, h.orders.Get)
}

// Cancel cancels an unpaid order and the rest of its checkout
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.byID(c, h.orders.Cancel)
}

// Complete confirms delivery
func (h *OrderHandler) Complete(c *gin.Context) {
	h.byID(c, h.orders.Complete)
}

func (h *OrderHandler) byID(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*orderapp.OrderResponse, error)) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	o, err := fn(c.Request.Context(), userID, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, o)
}

// Ship godoc
//
//	@Summary	Mark a paid order as shipped
//	@Tags		orders
//	@Router		/shop/orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req orderapp.ShipOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orders.Ship(c.Request.Context(), userID, orderID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, o)
}

// GetTransaction returns one of the caller's payment transactions, so the
// client can poll a card payment until the webhook settles it
func (h *OrderHandler) GetTransaction(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	txID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.transactions.GetTransaction(c.Request.Context(), userID, txID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, tx)
}
