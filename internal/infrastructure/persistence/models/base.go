package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/teebalk/marketplace/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// UUIDs are stored as char(36) so the same schema works on MySQL,
// PostgreSQL and SQLite.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with the optimistic lock version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToAggregateRoot rebuilds the aggregate base. The loaded version is
// remembered so SaveWithLock can detect concurrent writers.
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	root := shared.BaseAggregateRoot{
		BaseEntity: m.BaseModel.ToDomain(),
		Version:    m.Version,
	}
	root.MarkPersisted()
	return root
}

// All lists every model managed by AutoMigrate, parents before children
func All() []any {
	return []any{
		&ShopModel{},
		&ProductModel{},
		&CartItemModel{},
		&PaymentTransactionModel{},
		&OrderModel{},
		&OrderItemModel{},
		&ExperienceModel{},
		&ExperienceTicketModel{},
		&ExperienceSessionModel{},
		&ExperienceSessionTicketModel{},
		&ReservationModel{},
		&ExperienceOrderModel{},
		&ExperienceOrderDetailModel{},
		&ExperienceOrderTicketModel{},
	}
}
