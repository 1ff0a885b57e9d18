package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/shop"
)

// ShopModel is the persistence model for the Shop aggregate
type ShopModel struct {
	AggregateModel
	UserID      uuid.UUID      `gorm:"type:char(36);not null;uniqueIndex:idx_shops_user"`
	Name        string         `gorm:"type:varchar(100);not null"`
	Description string         `gorm:"type:text"`
	Email       string         `gorm:"type:varchar(255)"`
	Phone       string         `gorm:"type:varchar(30)"`
	Website     string         `gorm:"type:varchar(255)"`
	ImageURL    string         `gorm:"type:varchar(500)"`
	Status      shop.Status    `gorm:"type:varchar(20);not null;default:'draft';index"`
	IsFeatured  bool           `gorm:"not null;default:false"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the model to a domain Shop
func (m *ShopModel) ToDomain() *shop.Shop {
	return &shop.Shop{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserID:            m.UserID,
		Name:              m.Name,
		Description:       m.Description,
		Email:             m.Email,
		Phone:             m.Phone,
		Website:           m.Website,
		ImageURL:          m.ImageURL,
		Status:            m.Status,
		IsFeatured:        m.IsFeatured,
	}
}

// FromDomain populates the model from a domain Shop
func (m *ShopModel) FromDomain(s *shop.Shop) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.UserID = s.UserID
	m.Name = s.Name
	m.Description = s.Description
	m.Email = s.Email
	m.Phone = s.Phone
	m.Website = s.Website
	m.ImageURL = s.ImageURL
	m.Status = s.Status
	m.IsFeatured = s.IsFeatured
}

// ShopModelFromDomain creates a model from a domain Shop
func ShopModelFromDomain(s *shop.Shop) *ShopModel {
	m := &ShopModel{}
	m.FromDomain(s)
	return m
}
