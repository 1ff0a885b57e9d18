package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teebalk/marketplace/internal/domain/experience"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence/models"
)

// GormReservationRepository implements experience.ReservationRepository.
// A hold is active while expired_at > now.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindActiveByUserAndSession returns the user's unexpired holds for a session
func (r *GormReservationRepository) FindActiveByUserAndSession(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) ([]experience.Reservation, error) {
	var rows []models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND expired_at > ?", userID, sessionID, now.UTC()).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReservations(rows), nil
}

// FindByTransaction returns the holds attached to a payment, expired or not
func (r *GormReservationRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]experience.Reservation, error) {
	var rows []models.ReservationModel
	if err := r.db.WithContext(ctx).
		Where("payment_transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReservations(rows), nil
}

// FindExpired returns up to limit lapsed holds, oldest first
func (r *GormReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]experience.Reservation, error) {
	var rows []models.ReservationModel
	query := r.db.WithContext(ctx).
		Where("expired_at <= ?", now.UTC()).
		Order("expired_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReservations(rows), nil
}

type heldSeats struct {
	SessionTicketID uuid.UUID
	Total           int
}

// SumActiveBySessionTicket returns the held seats per session ticket
func (r *GormReservationRepository) SumActiveBySessionTicket(ctx context.Context, sessionID uuid.UUID, now time.Time) (map[uuid.UUID]int, error) {
	var rows []heldSeats
	if err := r.db.WithContext(ctx).
		Model(&models.ReservationModel{}).
		Select("session_ticket_id, SUM(quantity) AS total").
		Where("session_id = ? AND expired_at > ?", sessionID, now.UTC()).
		Group("session_ticket_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	held := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		held[row.SessionTicketID] = row.Total
	}
	return held, nil
}

// SaveBatch upserts holds
func (r *GormReservationRepository) SaveBatch(ctx context.Context, rs []experience.Reservation) error {
	if len(rs) == 0 {
		return nil
	}
	rows := make([]*models.ReservationModel, len(rs))
	for i := range rs {
		rows[i] = models.ReservationModelFromDomain(&rs[i])
	}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "expired_at", "payment_transaction_id", "updated_at"}),
		}).
		Create(&rows).Error
}

// DeleteByUserAndSession drops the user's holds on a session that no
// payment is attached to yet
func (r *GormReservationRepository) DeleteByUserAndSession(ctx context.Context, userID, sessionID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND payment_transaction_id IS NULL", userID, sessionID).
		Delete(&models.ReservationModel{})
	return result.RowsAffected, result.Error
}

// DeleteByTransaction drops the holds paid by transactionID
func (r *GormReservationRepository) DeleteByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("payment_transaction_id = ?", transactionID).
		Delete(&models.ReservationModel{})
	return result.RowsAffected, result.Error
}

// DeleteByIDs drops the given holds
func (r *GormReservationRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ReservationModel{})
	return result.RowsAffected, result.Error
}

func toReservations(rows []models.ReservationModel) []experience.Reservation {
	out := make([]experience.Reservation, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ experience.ReservationRepository = (*GormReservationRepository)(nil)
