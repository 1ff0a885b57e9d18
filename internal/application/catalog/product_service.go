// Package catalog implements product management for sellers and product
// browsing for buyers.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo    catalog.ProductRepository
	shopRepo       shop.Repository
	eventPublisher shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, shopRepo shop.Repository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		shopRepo:    shopRepo,
	}
}

// SetEventPublisher sets the publisher for product events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds a draft product to the caller's shop
func (s *ProductService) Create(ctx context.Context, userID uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	sh, err := s.shopRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewApiError(shared.CodeForbidden, "Open a shop before adding products")
		}
		return nil, err
	}

	product, err := catalog.NewProduct(sh.ID, req.details())
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Update replaces the product details
func (s *ProductService) Update(ctx context.Context, userID, productID uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	product, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := product.Update(req.details()); err != nil {
		return nil, err
	}
	return s.save(ctx, product)
}

// Publish puts the product on sale
func (s *ProductService) Publish(ctx context.Context, userID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := product.Publish(); err != nil {
		return nil, err
	}
	return s.save(ctx, product)
}

// Unpublish takes the product off sale
func (s *ProductService) Unpublish(ctx context.Context, userID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.owned(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	product.Unpublish()
	return s.save(ctx, product)
}

// Delete soft-deletes a product. Existing orders keep their snapshot.
func (s *ProductService) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, productID); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, productID)
}

// Get returns a product. Products not on sale are visible to the seller only.
func (s *ProductService) Get(ctx context.Context, viewerID *uuid.UUID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		if viewerID == nil {
			return nil, shared.NewApiError(shared.CodeNotFound, "Product not found")
		}
		sh, err := s.shopRepo.FindByID(ctx, product.ShopID)
		if err != nil {
			return nil, err
		}
		if !sh.IsOwnedBy(*viewerID) {
			return nil, shared.NewApiError(shared.CodeNotFound, "Product not found")
		}
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns products on sale across the marketplace
func (s *ProductService) List(ctx context.Context, f ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	filter := toFilter(f)
	if f.ShopID != nil {
		filter = filter.With("shop_id", *f.ShopID)
	}
	products, total, err := s.productRepo.FindPublished(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginate(products, total, filter), nil
}

// ListShop returns a shop's products. The owner sees every status, others
// only products on sale.
func (s *ProductService) ListShop(ctx context.Context, viewerID *uuid.UUID, shopID uuid.UUID, f ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	sh, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	filter := toFilter(f)
	if viewerID != nil && sh.IsOwnedBy(*viewerID) {
		if f.Status != "" {
			filter = filter.With("status", f.Status)
		}
	} else {
		filter = filter.With("status", string(catalog.ProductStatusPublished))
	}
	products, total, err := s.productRepo.FindByShop(ctx, shopID, filter)
	if err != nil {
		return nil, err
	}
	return paginate(products, total, filter), nil
}

func (s *ProductService) owned(ctx context.Context, userID, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	sh, err := s.shopRepo.FindByID(ctx, product.ShopID)
	if err != nil {
		return nil, err
	}
	if err := sh.EnsureOwner(userID); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) save(ctx context.Context, product *catalog.Product) (*ProductResponse, error) {
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)
	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, product.GetDomainEvents()...)
	}
	product.ClearDomainEvents()
}

func toFilter(f ProductListFilter) shared.Filter {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	return filter.Normalize()
}

func paginate(products []catalog.Product, total int64, filter shared.Filter) *shared.Paginated[ProductResponse] {
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page
}
