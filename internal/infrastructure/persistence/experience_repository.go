package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence/models"
)

// GormExperienceRepository implements experience.Repository
type GormExperienceRepository struct {
	db *gorm.DB
}

// NewGormExperienceRepository creates a new GormExperienceRepository
func NewGormExperienceRepository(db *gorm.DB) *GormExperienceRepository {
	return &GormExperienceRepository{db: db}
}

func preloadTickets(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// FindByID finds an experience with its ticket types
func (r *GormExperienceRepository) FindByID(ctx context.Context, id uuid.UUID) (*experience.Experience, error) {
	var model models.ExperienceModel
	if err := r.db.WithContext(ctx).Preload("Tickets", preloadTickets).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Experience")
	}
	return model.ToDomain(), nil
}

// FindPublished lists published experiences, optionally of one shop
func (r *GormExperienceRepository) FindPublished(ctx context.Context, filter shared.Filter) ([]experience.Experience, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExperienceModel{}).Where("status = ?", experience.StatusPublished)
	if filter.Search != "" {
		query = query.Where(likeClause("title"), searchPattern(filter.Search))
	}
	if shopID, ok := filter.Filters["shop_id"]; ok {
		query = query.Where("shop_id = ?", shopID)
	}
	return r.list(query, filter)
}

// FindByShop lists a shop's experiences in any status
func (r *GormExperienceRepository) FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]experience.Experience, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.ExperienceModel{}).Where("shop_id = ?", shopID), filter)
}

func (r *GormExperienceRepository) list(query *gorm.DB, filter shared.Filter) ([]experience.Experience, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ExperienceModel
	if err := paginate(query, filter, ExperienceSortFields).Preload("Tickets", preloadTickets).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]experience.Experience, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates the experience header
func (r *GormExperienceRepository) Save(ctx context.Context, e *experience.Experience) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(models.ExperienceModelFromDomain(e)).Error; err != nil {
		return translate(err, "Experience")
	}
	e.MarkPersisted()
	return nil
}

// SaveTicket creates or updates a ticket type
func (r *GormExperienceRepository) SaveTicket(ctx context.Context, t *experience.Ticket) error {
	err := r.db.WithContext(ctx).Save(models.ExperienceTicketModelFromDomain(t)).Error
	return translate(err, "Ticket")
}

// GormSessionRepository implements experience.SessionRepository
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// FindByID finds a session with its ticket capacities
func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*experience.Session, error) {
	var model models.ExperienceSessionModel
	if err := r.db.WithContext(ctx).Preload("Tickets", preloadTickets).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Session")
	}
	return model.ToDomain(), nil
}

// FindByExperience lists sessions starting at or after from
func (r *GormSessionRepository) FindByExperience(ctx context.Context, experienceID uuid.UUID, from time.Time) ([]experience.Session, error) {
	var rows []models.ExperienceSessionModel
	if err := r.db.WithContext(ctx).
		Preload("Tickets", preloadTickets).
		Where("experience_id = ? AND start_time >= ?", experienceID, from.UTC()).
		Order("start_time ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sessions := make([]experience.Session, len(rows))
	for i := range rows {
		sessions[i] = *rows[i].ToDomain()
	}
	return sessions, nil
}

// FindTicketsForUpdate locks the session's ticket rows. Rows are locked in
// id order so concurrent reservations cannot deadlock each other.
func (r *GormSessionRepository) FindTicketsForUpdate(ctx context.Context, sessionID uuid.UUID) ([]experience.SessionTicket, error) {
	var rows []models.ExperienceSessionTicketModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	tickets := make([]experience.SessionTicket, len(rows))
	for i := range rows {
		tickets[i] = *rows[i].ToDomain()
	}
	return tickets, nil
}

// Save upserts the session header and inserts ticket rows that do not
// exist yet. Sold counts are only changed through SaveTicketWithLock.
func (r *GormSessionRepository) Save(ctx context.Context, s *experience.Session) error {
	model := models.ExperienceSessionModelFromDomain(s)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translate(err, "Session")
		}
		if len(model.Tickets) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Tickets).Error
	})
}

// SaveTicketWithLock stores the sold count if the row version still matches
func (r *GormSessionRepository) SaveTicketWithLock(ctx context.Context, t *experience.SessionTicket) error {
	result := r.db.WithContext(ctx).
		Model(&models.ExperienceSessionTicketModel{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]any{
			"quantity":   t.Quantity,
			"sold":       t.Sold,
			"version":    t.Version + 1,
			"updated_at": t.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("Session ticket")
	}
	t.Version++
	return nil
}

var (
	_ experience.Repository        = (*GormExperienceRepository)(nil)
	_ experience.SessionRepository = (*GormSessionRepository)(nil)
)
