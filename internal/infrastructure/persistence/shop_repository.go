package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/domain/shop"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence/models"
)

// GormShopRepository implements shop.Repository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// FindByID finds a shop by ID
func (r *GormShopRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.Shop, error) {
	var model models.ShopModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Shop")
	}
	return model.ToDomain(), nil
}

// FindByUserID finds the shop owned by userID
func (r *GormShopRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*shop.Shop, error) {
	var model models.ShopModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, "Shop")
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the shops that exist among ids
func (r *GormShopRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]shop.Shop, error) {
	if len(ids) == 0 {
		return []shop.Shop{}, nil
	}
	var rows []models.ShopModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toShops(rows), nil
}

// FindPublished lists published shops, featured first when unsorted
func (r *GormShopRepository) FindPublished(ctx context.Context, filter shared.Filter) ([]shop.Shop, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ShopModel{}).Where("status = ?", shop.StatusPublished)
	if filter.Search != "" {
		query = query.Where(likeClause("name"), searchPattern(filter.Search))
	}
	if featured, ok := filter.Filters["is_featured"].(bool); ok {
		query = query.Where("is_featured = ?", featured)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ShopModel
	if err := paginate(query, filter, ShopSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toShops(rows), total, nil
}

// ExistsByUserID reports whether userID already owns a shop
func (r *GormShopRepository) ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ShopModel{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a shop
func (r *GormShopRepository) Save(ctx context.Context, s *shop.Shop) error {
	if err := r.db.WithContext(ctx).Save(models.ShopModelFromDomain(s)).Error; err != nil {
		return translate(err, "Shop")
	}
	s.MarkPersisted()
	return nil
}

// SaveWithLock updates the shop with an optimistic version check
func (r *GormShopRepository) SaveWithLock(ctx context.Context, s *shop.Shop) error {
	if s.PersistedVersion() == 0 {
		return r.Save(ctx, s)
	}
	result := r.db.WithContext(ctx).
		Model(&models.ShopModel{}).
		Where("id = ? AND version = ?", s.ID, s.PersistedVersion()).
		Updates(map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"email":       s.Email,
			"phone":       s.Phone,
			"website":     s.Website,
			"image_url":   s.ImageURL,
			"status":      s.Status,
			"is_featured": s.IsFeatured,
			"version":     s.Version,
			"updated_at":  s.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("Shop")
	}
	s.MarkPersisted()
	return nil
}

func toShops(rows []models.ShopModel) []shop.Shop {
	shops := make([]shop.Shop, len(rows))
	for i := range rows {
		shops[i] = *rows[i].ToDomain()
	}
	return shops
}

var _ shop.Repository = (*GormShopRepository)(nil)
