package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pricing-sync-service/internal/models"
)

// OutletRepository handles outlet database operations
type OutletRepository struct {
	db *gorm.DB
}

// NewOutletRepository creates a new outlet repository
func NewOutletRepository(db *gorm.DB) *OutletRepository {
	return &OutletRepository{db: db}
}

// Create creates a new outlet. The store ID is allocated by the model's
// BeforeCreate hook when absent.
func (r *OutletRepository) Create(ctx context.Context, outlet *models.Outlet) error {
	return r.db.WithContext(ctx).Create(outlet).Error
}

// GetByID retrieves an outlet by ID
func (r *OutletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Outlet, error) {
	var outlet models.Outlet
	if err := r.db.WithContext(ctx).First(&outlet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &outlet, nil
}

// GetByStoreID retrieves an outlet by its platform store ID
func (r *OutletRepository) GetByStoreID(ctx context.Context, storeID int) (*models.Outlet, error) {
	var outlet models.Outlet
	if err := r.db.WithContext(ctx).First(&outlet, "store_id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &outlet, nil
}

// ListByPlatform retrieves all active outlets for a platform
func (r *OutletRepository) ListByPlatform(ctx context.Context, platform models.Platform) ([]models.Outlet, error) {
	var outlets []models.Outlet
	err := r.db.WithContext(ctx).
		Where("platform = ? AND is_active = true", platform).
		Order("store_id ASC").
		Find(&outlets).Error
	return outlets, err
}
