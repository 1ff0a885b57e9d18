package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/order"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// OrderPaidHandler emails the buyer a receipt and the shop a new order
// notice
type OrderPaidHandler struct {
	*Notifier
}

// NewOrderPaidHandler creates a new OrderPaidHandler
func NewOrderPaidHandler(n *Notifier) *OrderPaidHandler {
	return &OrderPaidHandler{Notifier: n}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPaidHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPaid}
}

// Handle sends the paid-order emails
func (h *OrderPaidHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*order.OrderPaidEvent)
	if !ok {
		return unexpectedEvent(h.logger, order.EventTypeOrderPaid, event.EventType())
	}

	s, shopAddr := h.shopContact(ctx, paid.ShopID)
	shopName := "the shop"
	if s != nil {
		shopName = s.Name
	}

	var lines strings.Builder
	for _, it := range paid.Items {
		fmt.Fprintf(&lines, "  %s x%d  %s\n", it.Title, it.Quantity, h.yen(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))))
	}
	addr := paid.ShippingAddress

	var buyer strings.Builder
	fmt.Fprintf(&buyer, "Thank you for your order from %s.\n\n", shopName)
	fmt.Fprintf(&buyer, "Order: %s\n\n", paid.Code)
	buyer.WriteString(lines.String())
	fmt.Fprintf(&buyer, "\nTotal: %s\n\n", h.yen(paid.Total))
	fmt.Fprintf(&buyer, "Shipping to:\n  %s\n  〒%s %s%s %s %s\n", addr.Name, addr.PostalCode, addr.Prefecture, addr.City, addr.Line1, addr.Line2)
	h.send(ctx, h.userEmail(ctx, paid.UserID), "Order confirmed: "+paid.Code, &buyer)

	var seller strings.Builder
	fmt.Fprintf(&seller, "You have a new paid order %s.\n\n", paid.Code)
	seller.WriteString(lines.String())
	fmt.Fprintf(&seller, "\nTotal: %s\n\n", h.yen(paid.Total))
	fmt.Fprintf(&seller, "Ship to:\n  %s (%s)\n  〒%s %s%s %s %s\n", addr.Name, addr.Phone, addr.PostalCode, addr.Prefecture, addr.City, addr.Line1, addr.Line2)
	h.send(ctx, shopAddr, "New order: "+paid.Code, &seller)
	return nil
}

// OrderShippedHandler tells the buyer their parcel is on its way
type OrderShippedHandler struct {
	*Notifier
}

// NewOrderShippedHandler creates a new OrderShippedHandler
func NewOrderShippedHandler(n *Notifier) *OrderShippedHandler {
	return &OrderShippedHandler{Notifier: n}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderShippedHandler) EventTypes() []string {
	return []string{order.EventTypeOrderShipped}
}

// Handle sends the shipping notice
func (h *OrderShippedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	shipped, ok := event.(*order.OrderShippedEvent)
	if !ok {
		return unexpectedEvent(h.logger, order.EventTypeOrderShipped, event.EventType())
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Your order %s has shipped.\n", shipped.Code)
	if shipped.TrackingNumber != "" {
		fmt.Fprintf(&body, "\nTracking number: %s\n", shipped.TrackingNumber)
	}
	h.send(ctx, h.userEmail(ctx, shipped.UserID), "Order shipped: "+shipped.Code, &body)
	return nil
}

var (
	_ shared.EventHandler = (*OrderPaidHandler)(nil)
	_ shared.EventHandler = (*OrderShippedHandler)(nil)
)
