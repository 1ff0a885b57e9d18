package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusDraft       ProductStatus = "draft"
	ProductStatusPublished   ProductStatus = "published"
	ProductStatusUnpublished ProductStatus = "unpublished"
)

// Product is an item a shop sells. Price and shipping fee are in JPY.
// Stock is the number of units that can still be sold.
type Product struct {
	shared.BaseAggregateRoot
	ShopID      uuid.UUID
	Title       string
	Description string
	Price       decimal.Decimal
	ShippingFee decimal.Decimal
	Stock       int
	ImageURL    string
	Status      ProductStatus
}

// Details carries the editable fields of a product
type Details struct {
	Title       string
	Description string
	Price       decimal.Decimal
	ShippingFee decimal.Decimal
	Stock       int
	ImageURL    string
}

// NewProduct creates a draft product for a shop
func NewProduct(shopID uuid.UUID, d Details) (*Product, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewFieldValidationError("shop_id", "shop is required")
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ShopID:            shopID,
		Status:            ProductStatusDraft,
	}
	p.apply(d)
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update replaces the product details
func (p *Product) Update(d Details) error {
	if err := d.validate(); err != nil {
		return err
	}
	p.apply(d)
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Publish makes the product purchasable
func (p *Product) Publish() error {
	if p.Status == ProductStatusPublished {
		return nil
	}
	if p.Price.IsZero() {
		return shared.NewApiError(shared.CodeInvalidState, "Products must have a price before publishing")
	}
	p.Status = ProductStatusPublished
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Unpublish removes the product from sale
func (p *Product) Unpublish() {
	if p.Status == ProductStatusUnpublished {
		return
	}
	p.Status = ProductStatusUnpublished
	p.Touch()
	p.IncrementVersion()
}

// IsPurchasable reports whether buyers can add the product to a cart
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusPublished
}

// HasStock reports whether quantity units are available
func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// DeductStock removes sold units from stock
func (p *Product) DeductStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewFieldValidationError("quantity", "quantity must be positive")
	}
	if p.Stock < quantity {
		return shared.NewApiError(shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for %q: available %d, requested %d", p.Title, p.Stock, quantity))
	}
	p.Stock -= quantity
	p.Touch()
	p.IncrementVersion()
	if p.Stock == 0 {
		p.AddDomainEvent(NewProductSoldOutEvent(p))
	}
	return nil
}

// RestoreStock returns units to stock, e.g. after a cancelled order
func (p *Product) RestoreStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewFieldValidationError("quantity", "quantity must be positive")
	}
	p.Stock += quantity
	p.Touch()
	p.IncrementVersion()
	return nil
}

func (p *Product) apply(d Details) {
	p.Title = strings.TrimSpace(d.Title)
	p.Description = d.Description
	p.Price = d.Price
	p.ShippingFee = d.ShippingFee
	p.Stock = d.Stock
	p.ImageURL = d.ImageURL
}

func (d Details) validate() error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return shared.NewFieldValidationError("title", "product title cannot be empty")
	}
	if utf8.RuneCountInString(title) > 200 {
		return shared.NewFieldValidationError("title", "product title cannot exceed 200 characters")
	}
	if d.Price.IsNegative() {
		return shared.NewFieldValidationError("price", "price cannot be negative")
	}
	if d.ShippingFee.IsNegative() {
		return shared.NewFieldValidationError("shipping_fee", "shipping fee cannot be negative")
	}
	if d.Stock < 0 {
		return shared.NewFieldValidationError("stock", "stock cannot be negative")
	}
	return nil
}
