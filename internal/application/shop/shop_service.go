// Package shop implements seller storefront use cases.
package shop

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
)

// ShopService handles shop management
type ShopService struct {
	shopRepo       shop.Repository
	eventPublisher shared.EventPublisher
}

// NewShopService creates a new ShopService
func NewShopService(shopRepo shop.Repository) *ShopService {
	return &ShopService{shopRepo: shopRepo}
}

// SetEventPublisher sets the publisher for shop events
func (s *ShopService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a draft shop. A user owns at most one shop.
func (s *ShopService) Create(ctx context.Context, userID uuid.UUID, req ShopRequest) (*ShopResponse, error) {
	exists, err := s.shopRepo.ExistsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewApiError(shared.CodeAlreadyExists, "You already have a shop")
	}

	sh, err := shop.NewShop(userID, req.profile())
	if err != nil {
		return nil, err
	}
	if err := s.shopRepo.Save(ctx, sh); err != nil {
		return nil, err
	}
	s.publish(ctx, sh)

	resp := ToShopResponse(sh)
	return &resp, nil
}

// Update replaces the profile of the caller's shop
func (s *ShopService) Update(ctx context.Context, userID, shopID uuid.UUID, req ShopRequest) (*ShopResponse, error) {
	sh, err := s.owned(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}
	if err := sh.Update(req.profile()); err != nil {
		return nil, err
	}
	return s.save(ctx, sh)
}

// Publish lists the shop in the marketplace
func (s *ShopService) Publish(ctx context.Context, userID, shopID uuid.UUID) (*ShopResponse, error) {
	sh, err := s.owned(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}
	if err := sh.Publish(); err != nil {
		return nil, err
	}
	return s.save(ctx, sh)
}

// Unpublish hides the shop
func (s *ShopService) Unpublish(ctx context.Context, userID, shopID uuid.UUID) (*ShopResponse, error) {
	sh, err := s.owned(ctx, userID, shopID)
	if err != nil {
		return nil, err
	}
	if err := sh.Unpublish(); err != nil {
		return nil, err
	}
	return s.save(ctx, sh)
}

// Get returns a shop. Unpublished shops are only visible to their owner.
func (s *ShopService) Get(ctx context.Context, viewerID *uuid.UUID, shopID uuid.UUID) (*ShopResponse, error) {
	sh, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if !sh.IsPublished() && (viewerID == nil || !sh.IsOwnedBy(*viewerID)) {
		return nil, shared.NewApiError(shared.CodeNotFound, "Shop not found")
	}
	resp := ToShopResponse(sh)
	return &resp, nil
}

// GetMine returns the caller's shop
func (s *ShopService) GetMine(ctx context.Context, userID uuid.UUID) (*ShopResponse, error) {
	sh, err := s.shopRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToShopResponse(sh)
	return &resp, nil
}

// List returns published shops
func (s *ShopService) List(ctx context.Context, f ShopListFilter) (*shared.Paginated[ShopResponse], error) {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.Featured != nil {
		filter = filter.With("is_featured", *f.Featured)
	}
	filter = filter.Normalize()

	shops, total, err := s.shopRepo.FindPublished(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ShopResponse, len(shops))
	for i := range shops {
		items[i] = ToShopResponse(&shops[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// OwnedShop returns the caller's shop, for services that act on behalf of
// a seller
func (s *ShopService) OwnedShop(ctx context.Context, userID uuid.UUID) (*shop.Shop, error) {
	sh, err := s.shopRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewApiError(shared.CodeForbidden, "Open a shop first")
		}
		return nil, err
	}
	return sh, nil
}

func (s *ShopService) owned(ctx context.Context, userID, shopID uuid.UUID) (*shop.Shop, error) {
	sh, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if err := sh.EnsureOwner(userID); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *ShopService) save(ctx context.Context, sh *shop.Shop) (*ShopResponse, error) {
	if err := s.shopRepo.SaveWithLock(ctx, sh); err != nil {
		return nil, err
	}
	s.publish(ctx, sh)
	resp := ToShopResponse(sh)
	return &resp, nil
}

func (s *ShopService) publish(ctx context.Context, sh *shop.Shop) {
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, sh.GetDomainEvents()...)
	}
	sh.ClearDomainEvents()
}
