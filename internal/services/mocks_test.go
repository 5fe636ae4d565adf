package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/repository"
)

// MockItemRepository is a mock implementation of ItemRepositoryInterface
type MockItemRepository struct {
	mock.Mock
}

var _ repository.ItemRepositoryInterface = (*MockItemRepository)(nil)

func (m *MockItemRepository) Create(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) GetByIdentity(ctx context.Context, platform models.Platform, itemCode, units, sku string) (*models.Item, error) {
	args := m.Called(ctx, platform, itemCode, units, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockItemRepository) FindByCodeAndUnits(ctx context.Context, platform models.Platform, itemCode, units string) ([]models.Item, error) {
	args := m.Called(ctx, platform, itemCode, units)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemRepository) FindSiblings(ctx context.Context, platform models.Platform, itemCode, units string) ([]models.Item, error) {
	args := m.Called(ctx, platform, itemCode, units)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Item), args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context, platform models.Platform, opts repository.ListOptions) ([]models.Item, int64, error) {
	args := m.Called(ctx, platform, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Item), args.Get(1).(int64), args.Error(2)
}

func (m *MockItemRepository) Save(ctx context.Context, item *models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// MockBindingRepository is a mock implementation of BindingRepositoryInterface
type MockBindingRepository struct {
	mock.Mock
}

var _ repository.BindingRepositoryInterface = (*MockBindingRepository)(nil)

func (m *MockBindingRepository) WithTransaction(ctx context.Context, fn func(txRepo repository.BindingRepositoryInterface) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m)
}

func (m *MockBindingRepository) GetForUpdate(ctx context.Context, itemID, outletID uuid.UUID) (*models.OutletBinding, error) {
	args := m.Called(ctx, itemID, outletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OutletBinding), args.Error(1)
}

func (m *MockBindingRepository) Get(ctx context.Context, itemID, outletID uuid.UUID) (*models.OutletBinding, error) {
	args := m.Called(ctx, itemID, outletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OutletBinding), args.Error(1)
}

func (m *MockBindingRepository) Create(ctx context.Context, binding *models.OutletBinding) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockBindingRepository) Save(ctx context.Context, binding *models.OutletBinding) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockBindingRepository) BulkUpdate(ctx context.Context, mutations []repository.BindingMutation) error {
	args := m.Called(ctx, mutations)
	return args.Error(0)
}

func (m *MockBindingRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]models.OutletBinding, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OutletBinding), args.Error(1)
}

func (m *MockBindingRepository) ListForExport(ctx context.Context, outletID uuid.UUID, platform models.Platform) ([]models.OutletBinding, error) {
	args := m.Called(ctx, outletID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OutletBinding), args.Error(1)
}

func (m *MockBindingRepository) MarkExported(ctx context.Context, states []repository.ExportedState) error {
	args := m.Called(ctx, states)
	return args.Error(0)
}

func (m *MockBindingRepository) ListPromotionsToActivate(ctx context.Context, now time.Time) ([]models.OutletBinding, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OutletBinding), args.Error(1)
}

func (m *MockBindingRepository) ListPromotionsToExpire(ctx context.Context, now time.Time) ([]models.OutletBinding, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OutletBinding), args.Error(1)
}

func (m *MockBindingRepository) Reset(ctx context.Context, itemID, outletID uuid.UUID) error {
	args := m.Called(ctx, itemID, outletID)
	return args.Error(0)
}

// MockOutletRepository is a mock implementation of OutletRepositoryInterface
type MockOutletRepository struct {
	mock.Mock
}

var _ repository.OutletRepositoryInterface = (*MockOutletRepository)(nil)

func (m *MockOutletRepository) Create(ctx context.Context, outlet *models.Outlet) error {
	args := m.Called(ctx, outlet)
	return args.Error(0)
}

func (m *MockOutletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Outlet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Outlet), args.Error(1)
}

func (m *MockOutletRepository) GetByStoreID(ctx context.Context, storeID int) (*models.Outlet, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Outlet), args.Error(1)
}

func (m *MockOutletRepository) ListByPlatform(ctx context.Context, platform models.Platform) ([]models.Outlet, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Outlet), args.Error(1)
}

// MockExportRepository is a mock implementation of ExportRepositoryInterface
type MockExportRepository struct {
	mock.Mock
}

var _ repository.ExportRepositoryInterface = (*MockExportRepository)(nil)

func (m *MockExportRepository) CreateRecord(ctx context.Context, record *models.ExportRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockExportRepository) LatestSuccess(ctx context.Context, outletID *uuid.UUID, platform models.Platform, feed models.ExportFeed) (*models.ExportRecord, error) {
	args := m.Called(ctx, outletID, platform, feed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExportRecord), args.Error(1)
}

func (m *MockExportRepository) ListRecords(ctx context.Context, outletID *uuid.UUID, platform models.Platform, opts repository.ListOptions) ([]models.ExportRecord, int64, error) {
	args := m.Called(ctx, outletID, platform, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.ExportRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockExportRepository) CreateBatch(ctx context.Context, batch *models.ImportBatchRecord) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockExportRepository) SaveBatch(ctx context.Context, batch *models.ImportBatchRecord) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockExportRepository) GetBatch(ctx context.Context, id uuid.UUID) (*models.ImportBatchRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportBatchRecord), args.Error(1)
}
