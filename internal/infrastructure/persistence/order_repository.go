package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teebalk/marketplace/internal/domain/order"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Order")
	}
	return model.ToDomain(), nil
}

// FindByPaymentTransaction returns every order paid by transactionID
func (r *GormOrderRepository) FindByPaymentTransaction(ctx context.Context, transactionID uuid.UUID) ([]order.Order, error) {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// FindByUser lists a buyer's orders
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("user_id = ?", userID), filter)
}

// FindByShop lists a seller's orders
func (r *GormOrderRepository) FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("shop_id = ?", shopID), filter)
}

func (r *GormOrderRepository) list(query *gorm.DB, filter shared.Filter) ([]order.Order, int64, error) {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.OrderModel
	if err := paginate(query, filter, OrderSortFields).Preload("Items").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toOrders(rows), total, nil
}

// Save inserts a new order with its items, or updates the header of an
// existing one. Items never change after checkout.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	var err error
	if o.PersistedVersion() == 0 {
		err = r.db.WithContext(ctx).Omit("Shop").Create(model).Error
	} else {
		err = r.db.WithContext(ctx).Omit(clause.Associations).Save(model).Error
	}
	if err != nil {
		return translate(err, "Order")
	}
	o.MarkPersisted()
	return nil
}

// SaveWithLock updates the order header with an optimistic version check
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	if o.PersistedVersion() == 0 {
		return r.Save(ctx, o)
	}
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.PersistedVersion()).
		Updates(map[string]any{
			"status":                 o.Status,
			"payment_transaction_id": o.PaymentTransactionID,
			"paid_at":                o.PaidAt,
			"shipped_at":             o.ShippedAt,
			"tracking_number":        o.TrackingNumber,
			"version":                o.Version,
			"updated_at":             o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("Order")
	}
	o.MarkPersisted()
	return nil
}

func toOrders(rows []models.OrderModel) []order.Order {
	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

var _ order.Repository = (*GormOrderRepository)(nil)
