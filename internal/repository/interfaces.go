package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pricing-sync-service/internal/models"
)

var ErrNotFound = errors.New("not found")

// ListOptions contains pagination options for list queries
type ListOptions struct {
	Limit  int
	Offset int
}

// BindingMutation is one pending write against a binding, keyed by entity
// id. Cascade evaluation collects these and flushes them in one bulk call.
type BindingMutation struct {
	BindingID uuid.UUID
	Fields    map[string]interface{}
}

// ExportedState carries the values recorded on a binding after a
// successful export, closing its delta window.
type ExportedState struct {
	BindingID  uuid.UUID
	Price      *decimal.Decimal
	StockState int
}

// ItemRepositoryInterface defines catalog lookups and rule writes
type ItemRepositoryInterface interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetByIdentity(ctx context.Context, platform models.Platform, itemCode, units, sku string) (*models.Item, error)
	FindByCodeAndUnits(ctx context.Context, platform models.Platform, itemCode, units string) ([]models.Item, error)
	FindSiblings(ctx context.Context, platform models.Platform, itemCode, units string) ([]models.Item, error)
	List(ctx context.Context, platform models.Platform, opts ListOptions) ([]models.Item, int64, error)
	Save(ctx context.Context, item *models.Item) error
}

// BindingRepositoryInterface defines per-outlet binding persistence
type BindingRepositoryInterface interface {
	WithTransaction(ctx context.Context, fn func(txRepo BindingRepositoryInterface) error) error
	GetForUpdate(ctx context.Context, itemID, outletID uuid.UUID) (*models.OutletBinding, error)
	Get(ctx context.Context, itemID, outletID uuid.UUID) (*models.OutletBinding, error)
	Create(ctx context.Context, binding *models.OutletBinding) error
	Save(ctx context.Context, binding *models.OutletBinding) error
	BulkUpdate(ctx context.Context, mutations []BindingMutation) error
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.OutletBinding, error)
	ListForExport(ctx context.Context, outletID uuid.UUID, platform models.Platform) ([]models.OutletBinding, error)
	MarkExported(ctx context.Context, states []ExportedState) error
	ListPromotionsToActivate(ctx context.Context, now time.Time) ([]models.OutletBinding, error)
	ListPromotionsToExpire(ctx context.Context, now time.Time) ([]models.OutletBinding, error)
	Reset(ctx context.Context, itemID, outletID uuid.UUID) error
}

// OutletRepositoryInterface defines outlet lookups
type OutletRepositoryInterface interface {
	Create(ctx context.Context, outlet *models.Outlet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Outlet, error)
	GetByStoreID(ctx context.Context, storeID int) (*models.Outlet, error)
	ListByPlatform(ctx context.Context, platform models.Platform) ([]models.Outlet, error)
}

// ExportRepositoryInterface defines the export audit trail and import
// batch records
type ExportRepositoryInterface interface {
	CreateRecord(ctx context.Context, record *models.ExportRecord) error
	LatestSuccess(ctx context.Context, outletID *uuid.UUID, platform models.Platform, feed models.ExportFeed) (*models.ExportRecord, error)
	ListRecords(ctx context.Context, outletID *uuid.UUID, platform models.Platform, opts ListOptions) ([]models.ExportRecord, int64, error)
	CreateBatch(ctx context.Context, batch *models.ImportBatchRecord) error
	SaveBatch(ctx context.Context, batch *models.ImportBatchRecord) error
	GetBatch(ctx context.Context, id uuid.UUID) (*models.ImportBatchRecord, error)
}
