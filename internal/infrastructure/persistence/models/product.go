package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product aggregate
type ProductModel struct {
	AggregateModel
	ShopID      uuid.UUID             `gorm:"type:char(36);not null;index"`
	Shop        *ShopModel            `gorm:"foreignKey:ShopID;constraint:OnDelete:RESTRICT"`
	Title       string                `gorm:"type:varchar(200);not null"`
	Description string                `gorm:"type:text"`
	Price       decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingFee decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Stock       int                   `gorm:"not null;default:0"`
	ImageURL    string                `gorm:"type:varchar(500)"`
	Status      catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	DeletedAt   gorm.DeletedAt        `gorm:"index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ShopID:            m.ShopID,
		Title:             m.Title,
		Description:       m.Description,
		Price:             m.Price,
		ShippingFee:       m.ShippingFee,
		Stock:             m.Stock,
		ImageURL:          m.ImageURL,
		Status:            m.Status,
	}
}

// FromDomain populates the model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ShopID = p.ShopID
	m.Title = p.Title
	m.Description = p.Description
	m.Price = p.Price
	m.ShippingFee = p.ShippingFee
	m.Stock = p.Stock
	m.ImageURL = p.ImageURL
	m.Status = p.Status
}

// ProductModelFromDomain creates a model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
