package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pricing-sync-service/internal/models"
)

// ItemRepository handles catalog item database operations
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new catalog item
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID retrieves an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetByIdentity retrieves an item by its full natural key
func (r *ItemRepository) GetByIdentity(ctx context.Context, platform models.Platform, itemCode, units, sku string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("platform = ? AND item_code = ? AND units = ? AND sku = ?", platform, itemCode, units, sku).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByCodeAndUnits retrieves every variant in a (code, units) group on
// one platform, parents first.
func (r *ItemRepository) FindByCodeAndUnits(ctx context.Context, platform models.Platform, itemCode, units string) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("platform = ? AND item_code = ? AND units = ?", platform, itemCode, units).
		Order("weight_division_factor ASC").
		Find(&items).Error
	return items, err
}

// FindSiblings retrieves the child variants of a (code, units) group on
// one platform. Parents and standalone items are excluded.
func (r *ItemRepository) FindSiblings(ctx context.Context, platform models.Platform, itemCode, units string) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("platform = ? AND item_code = ? AND units = ? AND variant_role = ?",
			platform, itemCode, units, models.VariantRoleChild).
		Order("weight_division_factor ASC").
		Find(&items).Error
	return items, err
}

// List retrieves items for a platform with pagination
func (r *ItemRepository) List(ctx context.Context, platform models.Platform, opts ListOptions) ([]models.Item, int64, error) {
	var items []models.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Item{}).Where("platform = ?", platform)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}

	if err := query.Order("item_code ASC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// Save persists all fields of an item
func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}
