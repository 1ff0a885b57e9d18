package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence/models"
)

// GormExperienceOrderRepository implements experience.OrderRepository
type GormExperienceOrderRepository struct {
	db *gorm.DB
}

// NewGormExperienceOrderRepository creates a new repository
func NewGormExperienceOrderRepository(db *gorm.DB) *GormExperienceOrderRepository {
	return &GormExperienceOrderRepository{db: db}
}

func (r *GormExperienceOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Details").Preload("Tickets", preloadTicketCodes)
}

func preloadTicketCodes(db *gorm.DB) *gorm.DB {
	return db.Order("code ASC")
}

// FindByID finds a booking with details and tickets
func (r *GormExperienceOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*experience.Order, error) {
	var model models.ExperienceOrderModel
	if err := r.withChildren(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Experience order")
	}
	return model.ToDomain(), nil
}

// FindByTransaction finds the booking created for a payment
func (r *GormExperienceOrderRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*experience.Order, error) {
	var model models.ExperienceOrderModel
	if err := r.withChildren(ctx).First(&model, "payment_transaction_id = ?", transactionID).Error; err != nil {
		return nil, translate(err, "Experience order")
	}
	return model.ToDomain(), nil
}

// FindByTicketCode finds the booking that issued code
func (r *GormExperienceOrderRepository) FindByTicketCode(ctx context.Context, code string) (*experience.Order, error) {
	var ticket models.ExperienceOrderTicketModel
	if err := r.db.WithContext(ctx).
		First(&ticket, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error; err != nil {
		return nil, translate(err, "Ticket")
	}
	return r.FindByID(ctx, ticket.OrderID)
}

// FindByUser lists a buyer's bookings
func (r *GormExperienceOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]experience.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExperienceOrderModel{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ExperienceOrderModel
	if err := paginate(query, filter, ExperienceOrderSortFields).
		Preload("Details").
		Preload("Tickets", preloadTicketCodes).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]experience.Order, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save inserts a new booking with its children or updates the header
func (r *GormExperienceOrderRepository) Save(ctx context.Context, o *experience.Order) error {
	model := models.ExperienceOrderModelFromDomain(o)
	var err error
	if o.PersistedVersion() == 0 {
		err = r.db.WithContext(ctx).Create(model).Error
	} else {
		err = r.db.WithContext(ctx).Omit(clause.Associations).Save(model).Error
	}
	if err != nil {
		return translate(err, "Experience order")
	}
	o.MarkPersisted()
	return nil
}

// SaveTicket stores the check-in state of a ticket
func (r *GormExperienceOrderRepository) SaveTicket(ctx context.Context, t *experience.OrderTicket) error {
	result := r.db.WithContext(ctx).
		Model(&models.ExperienceOrderTicketModel{}).
		Where("id = ?", t.ID).
		Update("checked_in_at", t.CheckedInAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("Ticket")
	}
	return nil
}

var _ experience.OrderRepository = (*GormExperienceOrderRepository)(nil)
