// Package cart implements the buyer's shopping cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/cart"
	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
)

// CartService handles cart operations
type CartService struct {
	cartRepo    cart.Repository
	productRepo catalog.ProductRepository
	shopRepo    shop.Repository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo cart.Repository, productRepo catalog.ProductRepository, shopRepo shop.Repository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		shopRepo:    shopRepo,
	}
}

// AddItem puts a product in the cart, merging with an existing line
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartItemResponse, error) {
	product, err := s.purchasable(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.FindByUserAndProduct(ctx, userID, req.ProductID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if err := ensureStock(product, req.Quantity); err != nil {
			return nil, err
		}
		item, err = cart.NewCartItem(userID, req.ProductID, req.Quantity)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		quantity := item.Quantity + req.Quantity
		if err := ensureStock(product, quantity); err != nil {
			return nil, err
		}
		if err := item.SetQuantity(quantity); err != nil {
			return nil, err
		}
	}

	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	resp := toItemResponse(item, product)
	return &resp, nil
}

// UpdateItemQuantity sets a line's quantity. Zero removes the line and
// returns nil.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*CartItemResponse, error) {
	item, err := s.owned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		return nil, s.cartRepo.Delete(ctx, item.ID)
	}

	product, err := s.purchasable(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if err := ensureStock(product, req.Quantity); err != nil {
		return nil, err
	}
	if err := item.SetQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	resp := toItemResponse(item, product)
	return &resp, nil
}

// RemoveItem deletes a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.owned(ctx, userID, itemID)
	if err != nil {
		return err
	}
	return s.cartRepo.Delete(ctx, item.ID)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.DeleteByUser(ctx, userID)
}

// List returns the cart grouped by shop. Lines whose product vanished are
// kept and flagged unavailable so the buyer can remove them.
func (s *CartService) List(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &CartResponse{Shops: []ShopCartResponse{}, GrandTotal: decimal.Zero}
	if len(items) == 0 {
		return resp, nil
	}

	productIDs := make([]uuid.UUID, len(items))
	for i, it := range items {
		productIDs[i] = it.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	shopIDs := make([]uuid.UUID, 0, len(products))
	seenShop := make(map[uuid.UUID]bool)
	for i := range products {
		p := &products[i]
		byID[p.ID] = p
		if !seenShop[p.ShopID] {
			seenShop[p.ShopID] = true
			shopIDs = append(shopIDs, p.ShopID)
		}
	}
	shops, err := s.shopRepo.FindByIDs(ctx, shopIDs)
	if err != nil {
		return nil, err
	}
	shopNames := make(map[uuid.UUID]string, len(shops))
	for _, sh := range shops {
		shopNames[sh.ID] = sh.Name
	}

	groups := make(map[uuid.UUID]*ShopCartResponse)
	for i := range items {
		item := &items[i]
		product := byID[item.ProductID]
		var shopID uuid.UUID
		if product != nil {
			shopID = product.ShopID
		}
		group, ok := groups[shopID]
		if !ok {
			group = &ShopCartResponse{
				ShopID:      shopID,
				ShopName:    shopNames[shopID],
				Items:       []CartItemResponse{},
				Subtotal:    decimal.Zero,
				ShippingFee: decimal.Zero,
			}
			groups[shopID] = group
		}
		line := toItemResponse(item, product)
		group.Items = append(group.Items, line)
		resp.ItemCount += item.Quantity
		if line.Available {
			group.Subtotal = group.Subtotal.Add(line.Subtotal)
			group.ShippingFee = group.ShippingFee.Add(line.ShippingFee)
		}
	}

	for _, group := range groups {
		group.Total = group.Subtotal.Add(group.ShippingFee)
		resp.GrandTotal = resp.GrandTotal.Add(group.Total)
		resp.Shops = append(resp.Shops, *group)
	}
	sort.Slice(resp.Shops, func(i, j int) bool {
		return resp.Shops[i].ShopName < resp.Shops[j].ShopName
	})
	return resp, nil
}

func (s *CartService) purchasable(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, shared.NewApiError(shared.CodeInvalidState, "This product is not on sale")
	}
	return product, nil
}

func (s *CartService) owned(ctx context.Context, userID, itemID uuid.UUID) (*cart.CartItem, error) {
	item, err := s.cartRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.BelongsTo(userID) {
		return nil, shared.NewApiError(shared.CodeNotFound, "Cart item not found")
	}
	return item, nil
}

func ensureStock(p *catalog.Product, quantity int) error {
	if !p.HasStock(quantity) {
		return shared.NewApiError(shared.CodeInsufficientStock,
			fmt.Sprintf("Only %d of %q left in stock", p.Stock, p.Title))
	}
	return nil
}

func toItemResponse(item *cart.CartItem, product *catalog.Product) CartItemResponse {
	resp := CartItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		Price:       decimal.Zero,
		ShippingFee: decimal.Zero,
		Subtotal:    decimal.Zero,
	}
	if product == nil {
		return resp
	}
	resp.Title = product.Title
	resp.ImageURL = product.ImageURL
	resp.Price = product.Price
	resp.ShippingFee = product.ShippingFee
	resp.Stock = product.Stock
	resp.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	resp.Available = product.IsPurchasable() && product.HasStock(item.Quantity)
	return resp
}
