// Package order implements checkout and the product order lifecycle.
package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	paymentapp "github.com/teebalk/marketplace/internal/application/payment"
	"github.com/teebalk/marketplace/internal/application/uow"
	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/order"
	"github.com/teebalk/marketplace/internal/domain/payment"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
	"github.com/teebalk/marketplace/internal/infrastructure/telemetry"
)

// OrderService handles checkout and order state changes
type OrderService struct {
	orderRepo      order.Repository
	shopRepo       shop.Repository
	scope          uow.TransactionScope
	payments       *paymentapp.PaymentService
	commissionRate decimal.Decimal
	eventPublisher shared.EventPublisher
	metrics        *telemetry.Metrics
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.Repository,
	shopRepo shop.Repository,
	scope uow.TransactionScope,
	payments *paymentapp.PaymentService,
	commissionRate decimal.Decimal,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		shopRepo:       shopRepo,
		scope:          scope,
		payments:       payments,
		commissionRate: commissionRate,
		logger:         logger,
	}
}

// SetEventPublisher sets the publisher for order events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *OrderService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// Checkout turns the selected cart lines into one pending order per shop
// paid by a single transaction. Stock is deducted in the same database
// transaction. Money moves only after commit; if that fails the orders are
// cancelled again and their stock restored.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "Checkout",
		telemetry.AttrUserID, userID.String(),
		telemetry.AttrQuantity, len(req.CartItemIDs),
	)
	defer span.End()

	address := req.ShippingAddress.toDomain()
	if err := address.Validate(); err != nil {
		return nil, err
	}
	balance, err := s.payments.Balance(ctx, userID, req.UsedCoins)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		orders []*order.Order
		tx     *payment.Transaction
	)
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		orders, err = s.placeOrders(ctx, repos, userID, uniqueIDs(req.CartItemIDs), address)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, o := range orders {
			total = total.Add(o.Total)
		}
		tx, err = payment.NewTransaction(userID, payment.KindProductOrder, total)
		if err != nil {
			return err
		}
		if err := s.payments.Split(tx, req.UsedCoins, balance); err != nil {
			return err
		}
		if err := repos.Transactions().Save(ctx, tx); err != nil {
			return err
		}
		for _, o := range orders {
			o.AttachPayment(tx.ID)
			if err := repos.Orders().Save(ctx, o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.AttrTransactionID, tx.ID.String(), telemetry.AttrAmount, tx.TotalAmount.String())
	s.metrics.OrdersCreated(len(orders))
	for _, o := range orders {
		s.publish(ctx, o)
	}

	if err := s.payments.Settle(ctx, tx, describe(orders)); err != nil {
		telemetry.RecordError(span, err)
		if _, failErr := s.FailOrderPayment(ctx, tx.ID, "payment could not be started: "+err.Error()); failErr != nil {
			s.logger.Error("failed to roll back checkout",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(failErr),
			)
		}
		return nil, err
	}

	if !tx.RequiresStripe() {
		if tx, err = s.CompleteOrderPayment(ctx, tx.ID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		paid, err := s.orderRepo.FindByPaymentTransaction(ctx, tx.ID)
		if err != nil {
			return nil, err
		}
		orders = orders[:0]
		for i := range paid {
			orders = append(orders, &paid[i])
		}
	}

	resp := &CheckoutResponse{
		Orders:  make([]OrderResponse, len(orders)),
		Payment: paymentapp.ToTransactionResponse(tx),
	}
	for i, o := range orders {
		resp.Orders[i] = ToOrderResponse(o)
	}
	return resp, nil
}

// placeOrders deducts stock for the selected lines and builds the orders.
// Orders are created in shop id order so concurrent checkouts lock product
// rows in the same sequence.
func (s *OrderService) placeOrders(ctx context.Context, repos uow.Repositories, userID uuid.UUID, itemIDs []uuid.UUID, address order.ShippingAddress) ([]*order.Order, error) {
	lines, err := repos.Carts().FindByIDsForUser(ctx, userID, itemIDs)
	if err != nil {
		return nil, err
	}
	if len(lines) != len(itemIDs) {
		return nil, shared.NewApiError(shared.CodeNotFound, "Some cart items no longer exist")
	}

	productIDs := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		productIDs[i] = l.ProductID
	}
	products, err := repos.Products().FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	itemsByShop := make(map[uuid.UUID][]order.Item)
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok || !p.IsPurchasable() {
			return nil, shared.NewApiError(shared.CodeInvalidState, "A product in your cart is no longer on sale")
		}
		if err := p.DeductStock(l.Quantity); err != nil {
			return nil, err
		}
		itemsByShop[p.ShopID] = append(itemsByShop[p.ShopID], order.Item{
			ProductID:   p.ID,
			Title:       p.Title,
			Price:       p.Price,
			ShippingFee: p.ShippingFee,
			Quantity:    l.Quantity,
		})
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID.String() < products[j].ID.String() })
	for i := range products {
		if err := repos.Products().SaveWithLock(ctx, &products[i]); err != nil {
			return nil, err
		}
	}

	shopIDs := make([]uuid.UUID, 0, len(itemsByShop))
	for id := range itemsByShop {
		shopIDs = append(shopIDs, id)
	}
	sort.Slice(shopIDs, func(i, j int) bool { return shopIDs[i].String() < shopIDs[j].String() })

	orders := make([]*order.Order, 0, len(shopIDs))
	for _, shopID := range shopIDs {
		o, err := order.NewOrder(userID, shopID, itemsByShop[shopID], address, s.commissionRate)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// CompleteOrderPayment marks the orders of a settled transaction paid and
// removes the purchased lines from the buyer's cart. Calling it again for a
// completed transaction changes nothing.
func (s *OrderService) CompleteOrderPayment(ctx context.Context, transactionID uuid.UUID) (*payment.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "CompleteOrderPayment",
		telemetry.AttrTransactionID, transactionID.String(),
	)
	defer span.End()

	var (
		tx      *payment.Transaction
		orders  []order.Order
		changed bool
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		tx, err = repos.Transactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if changed, err = tx.Complete(); err != nil || !changed {
			return err
		}

		orders, err = repos.Orders().FindByPaymentTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		purchased := make(map[uuid.UUID]bool)
		for i := range orders {
			if err := orders[i].MarkPaid(); err != nil {
				return err
			}
			if err := repos.Orders().SaveWithLock(ctx, &orders[i]); err != nil {
				return err
			}
			for _, it := range orders[i].Items {
				purchased[it.ProductID] = true
			}
		}
		if err := s.removePurchased(ctx, repos, tx.UserID, purchased); err != nil {
			return err
		}
		return repos.Transactions().SaveWithLock(ctx, tx)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !changed {
		return tx, nil
	}

	s.payments.Settled(tx)
	s.publishAll(ctx, tx, orders)
	s.logger.Info("order payment completed",
		zap.String("transaction_id", tx.ID.String()),
		zap.Int("orders", len(orders)),
	)
	return tx, nil
}

// FailOrderPayment cancels the orders of a failed transaction, restores
// their stock and releases any funds taken.
func (s *OrderService) FailOrderPayment(ctx context.Context, transactionID uuid.UUID, reason string) (*payment.Transaction, error) {
	return s.release(ctx, transactionID, func(tx *payment.Transaction) (bool, error) {
		return tx.Fail(reason)
	}, false)
}

// Cancel cancels a pending order on behalf of the buyer. Orders bought in
// one checkout share a payment, so the whole checkout is cancelled. The card
// payment is voided first; if that fails the checkout stays pending.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsBuyer(userID) {
		return nil, shared.NewApiError(shared.CodeNotFound, "Order not found")
	}
	if o.Status != order.StatusPending {
		return nil, shared.NewApiError(shared.CodeInvalidState, "Only unpaid orders can be cancelled")
	}

	if o.PaymentTransactionID == nil {
		if err := s.cancelUnpaid(ctx, o); err != nil {
			return nil, err
		}
	} else {
		if err := s.voidPayment(ctx, *o.PaymentTransactionID); err != nil {
			return nil, err
		}
		if _, err := s.release(ctx, *o.PaymentTransactionID, func(tx *payment.Transaction) (bool, error) {
			return tx.Cancel("cancelled by buyer")
		}, true); err != nil {
			return nil, err
		}
	}

	if o, err = s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// voidPayment cancels the card payment of a pending transaction and returns
// its coins. Nothing is written to the database.
func (s *OrderService) voidPayment(ctx context.Context, transactionID uuid.UUID) error {
	var tx *payment.Transaction
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		tx, err = repos.Transactions().FindByID(ctx, transactionID)
		return err
	})
	if err != nil {
		return err
	}
	if tx.Status != payment.StatusPending {
		return nil
	}
	if err := s.payments.Void(ctx, tx); err != nil {
		return shared.WrapApiError(shared.CodeExternalService, "The payment could not be cancelled. Please try again later.", err)
	}
	return nil
}

// release applies transition to the transaction and, if it changed,
// cancels the pending orders and restores stock in one database
// transaction. Funds are released after commit unless the caller voided
// them already.
func (s *OrderService) release(ctx context.Context, transactionID uuid.UUID, transition func(*payment.Transaction) (bool, error), voided bool) (*payment.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderService", "ReleaseOrderPayment",
		telemetry.AttrTransactionID, transactionID.String(),
	)
	defer span.End()

	var (
		tx      *payment.Transaction
		orders  []order.Order
		changed bool
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		tx, err = repos.Transactions().FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if changed, err = transition(tx); err != nil || !changed {
			return err
		}

		orders, err = repos.Orders().FindByPaymentTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		restock := make(map[uuid.UUID]int)
		for i := range orders {
			if orders[i].Status != order.StatusPending {
				continue
			}
			if err := orders[i].Cancel(); err != nil {
				return err
			}
			if err := repos.Orders().SaveWithLock(ctx, &orders[i]); err != nil {
				return err
			}
			for _, it := range orders[i].Items {
				restock[it.ProductID] += it.Quantity
			}
		}
		if err := restoreStock(ctx, repos, restock); err != nil {
			return err
		}
		return repos.Transactions().SaveWithLock(ctx, tx)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !changed {
		return tx, nil
	}

	if !voided {
		if err := s.payments.ReleaseFunds(ctx, tx); err != nil {
			// the payment is already closed; the refund needs manual follow-up
			telemetry.RecordError(span, err)
		}
	}
	s.payments.Settled(tx)
	s.publishAll(ctx, tx, orders)
	s.logger.Info("order payment released",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("status", string(tx.Status)),
		zap.String("reason", tx.FailureReason),
	)
	return tx, nil
}

func (s *OrderService) cancelUnpaid(ctx context.Context, o *order.Order) error {
	return s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if err := o.Cancel(); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		restock := make(map[uuid.UUID]int)
		for _, it := range o.Items {
			restock[it.ProductID] += it.Quantity
		}
		return restoreStock(ctx, repos, restock)
	})
}

// Get returns an order to its buyer or to the selling shop's owner
func (s *OrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsBuyer(userID) {
		if _, err := s.sellerShop(ctx, userID, o); err != nil {
			return nil, err
		}
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// ListMine lists the buyer's orders
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, f OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	filter := toFilter(f)
	orders, total, err := s.orderRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return paginate(orders, total, filter), nil
}

// ListShop lists the orders received by the seller's shop
func (s *OrderService) ListShop(ctx context.Context, sellerID uuid.UUID, f OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	sh, err := s.shopRepo.FindByUserID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewApiError(shared.CodeForbidden, "Open a shop first")
		}
		return nil, err
	}
	filter := toFilter(f)
	orders, total, err := s.orderRepo.FindByShop(ctx, sh.ID, filter)
	if err != nil {
		return nil, err
	}
	return paginate(orders, total, filter), nil
}

// Ship marks a paid order as shipped by the seller
func (s *OrderService) Ship(ctx context.Context, sellerID, orderID uuid.UUID, req ShipOrderRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sellerShop(ctx, sellerID, o); err != nil {
		return nil, err
	}
	if err := o.Ship(req.TrackingNumber); err != nil {
		return nil, err
	}
	return s.save(ctx, o)
}

// Complete is the buyer confirming delivery
func (s *OrderService) Complete(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsBuyer(userID) {
		return nil, shared.NewApiError(shared.CodeNotFound, "Order not found")
	}
	if err := o.Complete(); err != nil {
		return nil, err
	}
	return s.save(ctx, o)
}

func (s *OrderService) save(ctx context.Context, o *order.Order) (*OrderResponse, error) {
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	s.publish(ctx, o)
	resp := ToOrderResponse(o)
	return &resp, nil
}

// sellerShop returns the user's shop if it sold o. Other users get
// NOT_FOUND so order ids cannot be probed.
func (s *OrderService) sellerShop(ctx context.Context, userID uuid.UUID, o *order.Order) (*shop.Shop, error) {
	sh, err := s.shopRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewApiError(shared.CodeNotFound, "Order not found")
		}
		return nil, err
	}
	if sh.ID != o.ShopID {
		return nil, shared.NewApiError(shared.CodeNotFound, "Order not found")
	}
	return sh, nil
}

func (s *OrderService) removePurchased(ctx context.Context, repos uow.Repositories, userID uuid.UUID, purchased map[uuid.UUID]bool) error {
	lines, err := repos.Carts().FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if purchased[l.ProductID] {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return repos.Carts().DeleteByIDs(ctx, ids)
}

func (s *OrderService) publish(ctx context.Context, o *order.Order) {
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, o.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish order events", zap.String("order_id", o.ID.String()), zap.Error(err))
		}
	}
	o.ClearDomainEvents()
}

func (s *OrderService) publishAll(ctx context.Context, tx *payment.Transaction, orders []order.Order) {
	for i := range orders {
		s.publish(ctx, &orders[i])
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, tx.GetDomainEvents()...)
	}
	tx.ClearDomainEvents()
}

func restoreStock(ctx context.Context, repos uow.Repositories, quantities map[uuid.UUID]int) error {
	if len(quantities) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	products, err := repos.Products().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID.String() < products[j].ID.String() })
	for i := range products {
		if err := products[i].RestoreStock(quantities[products[i].ID]); err != nil {
			return err
		}
		if err := repos.Products().SaveWithLock(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}

func describe(orders []*order.Order) string {
	codes := make([]string, len(orders))
	for i, o := range orders {
		codes[i] = o.Code
	}
	return fmt.Sprintf("Marketplace order %s", strings.Join(codes, ", "))
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func toFilter(f OrderListFilter) shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	if f.Status != "" {
		filter = filter.With("status", f.Status)
	}
	return filter.Normalize()
}

func paginate(orders []order.Order, total int64, filter shared.Filter) *shared.Paginated[OrderResponse] {
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page
}
