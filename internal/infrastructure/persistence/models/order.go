package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teebalk/marketplace/internal/domain/order"
	"github.com/teebalk/marketplace/internal/domain/shared"
)

// ShippingAddressModel is embedded into orders with a shipping_ prefix
type ShippingAddressModel struct {
	Name       string `gorm:"type:varchar(100)"`
	Phone      string `gorm:"type:varchar(30)"`
	PostalCode string `gorm:"type:varchar(16)"`
	Prefecture string `gorm:"type:varchar(50)"`
	City       string `gorm:"type:varchar(100)"`
	Line1      string `gorm:"type:varchar(255)"`
	Line2      string `gorm:"type:varchar(255)"`
}

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	Code                 string               `gorm:"type:varchar(32);not null;uniqueIndex"`
	UserID               uuid.UUID            `gorm:"type:char(36);not null;index"`
	ShopID               uuid.UUID            `gorm:"type:char(36);not null;index"`
	Shop                 *ShopModel           `gorm:"foreignKey:ShopID;constraint:OnDelete:RESTRICT"`
	Status               order.Status         `gorm:"type:varchar(20);not null;index"`
	Subtotal             decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ShippingFee          decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Total                decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	PlatformFee          decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency             string               `gorm:"type:varchar(3);not null"`
	ShippingAddress      ShippingAddressModel `gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentTransactionID *uuid.UUID           `gorm:"type:char(36);index"`
	PaidAt               *time.Time
	ShippedAt            *time.Time
	TrackingNumber       string           `gorm:"type:varchar(64)"`
	Items                []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is a purchased product snapshot
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:char(36);primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:char(36);not null;index"`
	ProductID   uuid.UUID       `gorm:"type:char(36);not null;index"`
	Title       string          `gorm:"type:varchar(200);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ShippingFee decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity    int             `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot:    m.ToAggregateRoot(),
		Code:                 m.Code,
		UserID:               m.UserID,
		ShopID:               m.ShopID,
		Status:               m.Status,
		Subtotal:             m.Subtotal,
		ShippingFee:          m.ShippingFee,
		Total:                m.Total,
		PlatformFee:          m.PlatformFee,
		Currency:             shared.Currency(m.Currency),
		ShippingAddress:      order.ShippingAddress(m.ShippingAddress),
		PaymentTransactionID: m.PaymentTransactionID,
		PaidAt:               utcPtr(m.PaidAt),
		ShippedAt:            utcPtr(m.ShippedAt),
		TrackingNumber:       m.TrackingNumber,
		Items:                make([]order.Item, len(m.Items)),
	}
	for i, it := range m.Items {
		o.Items[i] = order.Item{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Title:       it.Title,
			Price:       it.Price,
			ShippingFee: it.ShippingFee,
			Quantity:    it.Quantity,
		}
	}
	return o
}

// OrderModelFromDomain creates a model, items included, from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		Code:                 o.Code,
		UserID:               o.UserID,
		ShopID:               o.ShopID,
		Status:               o.Status,
		Subtotal:             o.Subtotal,
		ShippingFee:          o.ShippingFee,
		Total:                o.Total,
		PlatformFee:          o.PlatformFee,
		Currency:             string(o.Currency),
		ShippingAddress:      ShippingAddressModel(o.ShippingAddress),
		PaymentTransactionID: o.PaymentTransactionID,
		PaidAt:               o.PaidAt,
		ShippedAt:            o.ShippedAt,
		TrackingNumber:       o.TrackingNumber,
		Items:                make([]OrderItemModel, len(o.Items)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i, it := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:          it.ID,
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			Title:       it.Title,
			Price:       it.Price,
			ShippingFee: it.ShippingFee,
			Quantity:    it.Quantity,
			CreatedAt:   o.CreatedAt,
		}
	}
	return m
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
