package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teebalk/marketplace/internal/domain/catalog"
	"github.com/teebalk/marketplace/internal/domain/shared"
	"github.com/teebalk/marketplace/internal/infrastructure/persistence/models"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, "Product")
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple products by their IDs. Missing IDs are skipped.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// FindByShop lists a shop's products in any status
func (r *GormProductRepository) FindByShop(ctx context.Context, shopID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("shop_id = ?", shopID)
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return r.list(query, filter)
}

// FindPublished lists purchasable products
func (r *GormProductRepository) FindPublished(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("status = ?", catalog.ProductStatusPublished)
	if shopID, ok := filter.Filters["shop_id"]; ok {
		query = query.Where("shop_id = ?", shopID)
	}
	return r.list(query, filter)
}

func (r *GormProductRepository) list(query *gorm.DB, filter shared.Filter) ([]catalog.Product, int64, error) {
	if filter.Search != "" {
		query = query.Where(likeClause("title"), searchPattern(filter.Search))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ProductModel
	if err := paginate(query, filter, ProductSortFields).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toProducts(rows), total, nil
}

// Save creates or updates a product without a version check
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(models.ProductModelFromDomain(product)).Error; err != nil {
		return translate(err, "Product")
	}
	product.MarkPersisted()
	return nil
}

// SaveWithLock updates the product only if nobody changed it since it was
// loaded. Stock deductions go through here.
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	if product.PersistedVersion() == 0 {
		return r.Save(ctx, product)
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.PersistedVersion()).
		Updates(map[string]any{
			"title":        product.Title,
			"description":  product.Description,
			"price":        product.Price,
			"shipping_fee": product.ShippingFee,
			"stock":        product.Stock,
			"image_url":    product.ImageURL,
			"status":       product.Status,
			"version":      product.Version,
			"updated_at":   product.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return optimisticLockFailed("Product")
	}
	product.MarkPersisted()
	return nil
}

// Delete soft-deletes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("Product")
	}
	return nil
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
