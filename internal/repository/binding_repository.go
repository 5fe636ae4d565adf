package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricing-sync-service/internal/models"
)

// BindingRepository handles outlet binding database operations
type BindingRepository struct {
	db *gorm.DB
}

// NewBindingRepository creates a new binding repository
func NewBindingRepository(db *gorm.DB) *BindingRepository {
	return &BindingRepository{db: db}
}

// WithTransaction runs fn against a transaction-scoped repository. Import
// chunks use this so a binding's price/cost/stock/fingerprint and its
// cascade writes commit as one atomic unit.
func (r *BindingRepository) WithTransaction(ctx context.Context, fn func(txRepo BindingRepositoryInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BindingRepository{db: tx})
	})
}

// GetForUpdate retrieves a binding with a row lock held for the enclosing
// transaction.
func (r *BindingRepository) GetForUpdate(ctx context.Context, itemID, outletID uuid.UUID) (*models.OutletBinding, error) {
	var binding models.OutletBinding
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND outlet_id = ?", itemID, outletID).
		First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &binding, nil
}

// Get retrieves a binding without locking
func (r *BindingRepository) Get(ctx context.Context, itemID, outletID uuid.UUID) (*models.OutletBinding, error) {
	var binding models.OutletBinding
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND outlet_id = ?", itemID, outletID).
		First(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &binding, nil
}

// Create creates a new binding
func (r *BindingRepository) Create(ctx context.Context, binding *models.OutletBinding) error {
	return r.db.WithContext(ctx).Create(binding).Error
}

// Save persists all fields of a binding
func (r *BindingRepository) Save(ctx context.Context, binding *models.OutletBinding) error {
	return r.db.WithContext(ctx).Save(binding).Error
}

// BulkUpdate flushes a batch of pending mutations. Each mutation updates
// only the fields its cascade trigger supplied.
func (r *BindingRepository) BulkUpdate(ctx context.Context, mutations []BindingMutation) error {
	if len(mutations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, m := range mutations {
			fields := m.Fields
			fields["updated_at"] = now
			if err := tx.Model(&models.OutletBinding{}).
				Where("id = ?", m.BindingID).
				Updates(fields).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByItem retrieves every outlet binding of one item
func (r *BindingRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.OutletBinding, error) {
	var bindings []models.OutletBinding
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Find(&bindings).Error
	return bindings, err
}

// ListForExport retrieves every binding for an outlet with its item
// preloaded, in one consistent read. Inactive bindings are included; the
// export reports them with a disabled stock state rather than omitting
// them.
func (r *BindingRepository) ListForExport(ctx context.Context, outletID uuid.UUID, platform models.Platform) ([]models.OutletBinding, error) {
	var bindings []models.OutletBinding
	err := r.db.WithContext(ctx).
		Preload("Item").
		Joins("JOIN items ON items.id = outlet_bindings.item_id").
		Where("outlet_bindings.outlet_id = ? AND items.platform = ?", outletID, platform).
		Order("items.item_code ASC").
		Find(&bindings).Error
	return bindings, err
}

// MarkExported records the exported values on each binding, closing the
// delta window. Runs in one transaction so a crash cannot leave half the
// feed marked.
func (r *BindingRepository) MarkExported(ctx context.Context, states []ExportedState) error {
	if len(states) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, s := range states {
			fields := map[string]interface{}{
				"last_exported_stock_state": s.StockState,
				"updated_at":                now,
			}
			if s.Price != nil {
				fields["last_exported_price"] = *s.Price
			}
			if err := tx.Model(&models.OutletBinding{}).
				Where("id = ?", s.BindingID).
				Updates(fields).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListPromotionsToActivate retrieves bindings whose promotion window has
// opened but is not yet live.
func (r *BindingRepository) ListPromotionsToActivate(ctx context.Context, now time.Time) ([]models.OutletBinding, error) {
	var bindings []models.OutletBinding
	err := r.db.WithContext(ctx).
		Where("promotion_live = false AND promotion_price IS NOT NULL").
		Where("promotion_start IS NOT NULL AND promotion_start <= ?", now).
		Where("promotion_end IS NULL OR promotion_end > ?", now).
		Find(&bindings).Error
	return bindings, err
}

// ListPromotionsToExpire retrieves live promotions whose window has closed.
func (r *BindingRepository) ListPromotionsToExpire(ctx context.Context, now time.Time) ([]models.OutletBinding, error) {
	var bindings []models.OutletBinding
	err := r.db.WithContext(ctx).
		Where("promotion_live = true").
		Where("promotion_end IS NOT NULL AND promotion_end <= ?", now).
		Find(&bindings).Error
	return bindings, err
}

// Reset nulls the money fields and disables the binding. The row itself
// survives so export history and fingerprints stay queryable.
func (r *BindingRepository) Reset(ctx context.Context, itemID, outletID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&models.OutletBinding{}).
		Where("item_id = ? AND outlet_id = ?", itemID, outletID).
		Updates(map[string]interface{}{
			"mrp":                nil,
			"cost":               nil,
			"selling_price":      nil,
			"converted_cost":     nil,
			"promotion_price":    nil,
			"regular_price":      nil,
			"promotion_live":     false,
			"is_enabled":         false,
			"change_fingerprint": "",
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
