package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/pricing"
	"pricing-sync-service/internal/repository"
)

func newTestImportService(itemRepo *MockItemRepository, bindingRepo *MockBindingRepository, exportRepo *MockExportRepository) *ImportService {
	logger := testLogger()
	cascade := NewCascadeService(itemRepo, bindingRepo, logger)
	return NewImportService(
		itemRepo, bindingRepo, exportRepo, cascade,
		NewOutletSemaphore(nil), NewRetrier(nil),
		ImportSettings{ChunkSize: 500, ChunksPerSec: 100, MaxErrors: 50},
		logger,
	)
}

func fixedItem(code, units, sku string) models.Item {
	return models.Item{
		ID:                   uuid.New(),
		Platform:             models.PlatformStorefront,
		ItemCode:             code,
		Units:                units,
		SKU:                  sku,
		WrapClass:            models.WrapClassFixedUnit,
		WeightDivisionFactor: d("1"),
		OuterCaseQuantity:    1,
		VariantRole:          models.VariantRoleStandalone,
		IsActive:             true,
	}
}

func TestParseDecimalValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: "10.50", want: "10.5"},
		{name: "thousands separator", raw: "1,150.00", want: "1150"},
		{name: "surrounding whitespace", raw: " 42 ", want: "42"},
		{name: "negative clamps to zero", raw: "-5.00", want: "0"},
		{name: "garbage", raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDecimalValue(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestSanitizeRowValues(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		mrp, cost, stock, err := sanitizeRowValues(&ProductUpdateRow{
			MRP: strPtr("1,150.00"), Cost: strPtr("900.500"), Stock: strPtr("12"),
		})
		require.NoError(t, err)
		assert.True(t, mrp.Equal(d("1150")))
		assert.True(t, cost.Equal(d("900.5")))
		assert.Equal(t, 12, *stock)
	})

	t.Run("blank strings count as absent", func(t *testing.T) {
		mrp, cost, stock, err := sanitizeRowValues(&ProductUpdateRow{
			MRP: strPtr("  "), Stock: strPtr("3"),
		})
		require.NoError(t, err)
		assert.Nil(t, mrp)
		assert.Nil(t, cost)
		assert.Equal(t, 3, *stock)
	})

	t.Run("fractional stock floors", func(t *testing.T) {
		_, _, stock, err := sanitizeRowValues(&ProductUpdateRow{Stock: strPtr("7.9")})
		require.NoError(t, err)
		assert.Equal(t, 7, *stock)
	})

	t.Run("invalid value fails the row", func(t *testing.T) {
		_, _, _, err := sanitizeRowValues(&ProductUpdateRow{MRP: strPtr("ten")})
		assert.Error(t, err)
	})
}

func TestConvertInboundStock(t *testing.T) {
	weight := weightItem("9900001", "KG", "4", models.VariantRoleChild)
	assert.Equal(t, 28, convertInboundStock(7, &weight), "weight-divided multiplies by factor")

	cased := fixedItem("1234", "PCS", "SKU-1")
	cased.OuterCaseQuantity = 12
	assert.Equal(t, 2, convertInboundStock(30, &cased), "fixed-unit divides by case quantity")

	plain := fixedItem("1234", "PCS", "SKU-2")
	assert.Equal(t, 30, convertInboundStock(30, &plain))
	assert.Equal(t, 0, convertInboundStock(-5, &plain))
}

func TestNormalizeUnits(t *testing.T) {
	assert.Equal(t, "KG", normalizeUnits(" kg "))
	assert.Equal(t, "PCS", normalizeUnits("Pcs"))
}

func TestResolveItemPrefersSKUThenRole(t *testing.T) {
	parent := weightItem("1234", "KG", "1", models.VariantRoleParent)
	child := weightItem("1234", "KG", "4", models.VariantRoleChild)

	itemRepo := new(MockItemRepository)
	itemRepo.On("FindByCodeAndUnits", mock.Anything, models.PlatformStorefront, "1234", "KG").
		Return([]models.Item{child, parent}, nil)

	svc := newTestImportService(itemRepo, new(MockBindingRepository), new(MockExportRepository))

	// No SKU: the non-child variant wins regardless of ordering.
	item, err := svc.resolveItem(context.Background(), models.PlatformStorefront, &ProductUpdateRow{
		ItemCode: "1234", Units: "kg",
	})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, item.ID)

	// SKU matching a child does not override the role preference.
	item, err = svc.resolveItem(context.Background(), models.PlatformStorefront, &ProductUpdateRow{
		ItemCode: "1234", Units: "kg", SKU: child.SKU,
	})
	require.NoError(t, err)
	assert.Equal(t, parent.ID, item.ID)
}

func TestResolveItemChildOnlyGroupUsesFirst(t *testing.T) {
	childA := weightItem("1234", "KG", "2", models.VariantRoleChild)
	childB := weightItem("1234", "KG", "4", models.VariantRoleChild)

	itemRepo := new(MockItemRepository)
	itemRepo.On("FindByCodeAndUnits", mock.Anything, models.PlatformStorefront, "1234", "KG").
		Return([]models.Item{childA, childB}, nil)

	svc := newTestImportService(itemRepo, new(MockBindingRepository), new(MockExportRepository))
	item, err := svc.resolveItem(context.Background(), models.PlatformStorefront, &ProductUpdateRow{
		ItemCode: "1234", Units: "KG",
	})
	require.NoError(t, err)
	assert.Equal(t, childA.ID, item.ID)
}

func TestProcessBatchCreatesBindingOnFirstTouch(t *testing.T) {
	item := fixedItem("1234", "PCS", "SKU-1")
	outletID := uuid.New()

	itemRepo := new(MockItemRepository)
	bindingRepo := new(MockBindingRepository)
	exportRepo := new(MockExportRepository)

	itemRepo.On("FindByCodeAndUnits", mock.Anything, models.PlatformStorefront, "1234", "PCS").
		Return([]models.Item{item}, nil)
	bindingRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	bindingRepo.On("GetForUpdate", mock.Anything, item.ID, outletID).Return(nil, repository.ErrNotFound)
	bindingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *models.OutletBinding) bool {
		return b.ItemID == item.ID &&
			b.MRP.Equal(d("1150")) &&
			b.SellingPrice.Equal(d("1150.00")) &&
			b.StockQuantity == 12 &&
			b.ChangeFingerprint != ""
	})).Return(nil)
	bindingRepo.On("BulkUpdate", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("SaveBatch", mock.Anything, mock.MatchedBy(func(b *models.ImportBatchRecord) bool {
		return b.Status == models.ImportBatchCompleted && b.SucceededRows == 1
	})).Return(nil)

	svc := newTestImportService(itemRepo, bindingRepo, exportRepo)
	result, err := svc.ProcessBatch(context.Background(), ImportRequest{
		OutletID: outletID,
		Platform: models.PlatformStorefront,
		Rows: []ProductUpdateRow{
			{ItemCode: "1234", Units: "PCS", MRP: strPtr("1,150.00"), Stock: strPtr("12")},
		},
		Source:    "upload",
		CreatedBy: "tester",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Failed)
	bindingRepo.AssertExpectations(t)
	exportRepo.AssertExpectations(t)
}

func TestProcessBatchSkipsUnchangedRows(t *testing.T) {
	item := fixedItem("1234", "PCS", "SKU-1")
	outletID := uuid.New()

	existing := &models.OutletBinding{
		ID:                uuid.New(),
		ItemID:            item.ID,
		OutletID:          outletID,
		MRP:               decPtr("10.00"),
		StockQuantity:     5,
		IsEnabled:         true,
		ChangeFingerprint: pricing.Fingerprint(decPtr("10.00"), nil, intPtr(5)),
	}

	itemRepo := new(MockItemRepository)
	bindingRepo := new(MockBindingRepository)
	exportRepo := new(MockExportRepository)

	itemRepo.On("FindByCodeAndUnits", mock.Anything, models.PlatformStorefront, "1234", "PCS").
		Return([]models.Item{item}, nil)
	bindingRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	bindingRepo.On("GetForUpdate", mock.Anything, item.ID, outletID).Return(existing, nil)
	bindingRepo.On("BulkUpdate", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

	svc := newTestImportService(itemRepo, bindingRepo, exportRepo)
	result, err := svc.ProcessBatch(context.Background(), ImportRequest{
		OutletID: outletID,
		Platform: models.PlatformStorefront,
		Rows: []ProductUpdateRow{
			{ItemCode: "1234", Units: "PCS", MRP: strPtr("10.00"), Stock: strPtr("5")},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedUnchanged)
	assert.Zero(t, result.Succeeded)
	bindingRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProcessBatchPriceLockSilentlySurvives(t *testing.T) {
	item := fixedItem("1234", "PCS", "SKU-1")
	item.PriceLocked = true
	outletID := uuid.New()

	existing := &models.OutletBinding{
		ID:                uuid.New(),
		ItemID:            item.ID,
		OutletID:          outletID,
		MRP:               decPtr("10.00"),
		SellingPrice:      decPtr("10.00"),
		StockQuantity:     5,
		IsEnabled:         true,
		ChangeFingerprint: pricing.Fingerprint(decPtr("10.00"), nil, intPtr(5)),
	}

	itemRepo := new(MockItemRepository)
	bindingRepo := new(MockBindingRepository)
	exportRepo := new(MockExportRepository)

	itemRepo.On("FindByCodeAndUnits", mock.Anything, models.PlatformStorefront, "1234", "PCS").
		Return([]models.Item{item}, nil)
	bindingRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	bindingRepo.On("GetForUpdate", mock.Anything, item.ID, outletID).Return(existing, nil)
	bindingRepo.On("Save", mock.Anything, mock.MatchedBy(func(b *models.OutletBinding) bool {
		// The locked price survives; the fingerprint records the applied
		// state so the row re-applies cleanly once the lock lifts.
		return b.MRP.Equal(d("10.00")) && b.SellingPrice.Equal(d("10.00")) &&
			b.ChangeFingerprint == pricing.Fingerprint(decPtr("10.00"), nil, intPtr(5))
	})).Return(nil)
	bindingRepo.On("BulkUpdate", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

	svc := newTestImportService(itemRepo, bindingRepo, exportRepo)
	result, err := svc.ProcessBatch(context.Background(), ImportRequest{
		OutletID: outletID,
		Platform: models.PlatformStorefront,
		Rows: []ProductUpdateRow{
			{ItemCode: "1234", Units: "PCS", MRP: strPtr("25.00")},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded, "a locked row still succeeds, it just keeps its price")
	bindingRepo.AssertExpectations(t)
}

func TestProcessBatchParentUpdateCascadesToChild(t *testing.T) {
	parent := weightItem("1234", "KG", "1", models.VariantRoleParent)
	child := weightItem("1234", "KG", "4", models.VariantRoleChild)
	outletID := uuid.New()

	itemRepo := new(MockItemRepository)
	bindingRepo := new(MockBindingRepository)
	exportRepo := new(MockExportRepository)

	itemRepo.On("FindByCodeAndUnits", mock.Anything, models.PlatformStorefront, "1234", "KG").
		Return([]models.Item{parent, child}, nil)
	itemRepo.On("FindSiblings", mock.Anything, models.PlatformStorefront, "1234", "KG").
		Return([]models.Item{child}, nil)
	bindingRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	bindingRepo.On("GetForUpdate", mock.Anything, parent.ID, outletID).Return(nil, repository.ErrNotFound)
	bindingRepo.On("Get", mock.Anything, child.ID, outletID).Return(nil, repository.ErrNotFound)
	bindingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *models.OutletBinding) bool {
		return b.ItemID == parent.ID && b.SellingPrice.Equal(d("40.00"))
	})).Return(nil).Once()
	bindingRepo.On("Create", mock.Anything, mock.MatchedBy(func(b *models.OutletBinding) bool {
		return b.ItemID == child.ID && b.SellingPrice.Equal(d("10.00"))
	})).Return(nil).Once()
	bindingRepo.On("BulkUpdate", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

	svc := newTestImportService(itemRepo, bindingRepo, exportRepo)
	result, err := svc.ProcessBatch(context.Background(), ImportRequest{
		OutletID: outletID,
		Platform: models.PlatformStorefront,
		Rows: []ProductUpdateRow{
			{ItemCode: "1234", Units: "KG", MRP: strPtr("40.00")},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Cascaded)
	bindingRepo.AssertExpectations(t)
}

func TestProcessBatchRowWithNoValuesFails(t *testing.T) {
	itemRepo := new(MockItemRepository)
	bindingRepo := new(MockBindingRepository)
	exportRepo := new(MockExportRepository)

	bindingRepo.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	bindingRepo.On("BulkUpdate", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)
	exportRepo.On("SaveBatch", mock.Anything, mock.MatchedBy(func(b *models.ImportBatchRecord) bool {
		return b.Status == models.ImportBatchPartial
	})).Return(nil)

	svc := newTestImportService(itemRepo, bindingRepo, exportRepo)
	result, err := svc.ProcessBatch(context.Background(), ImportRequest{
		OutletID: uuid.New(),
		Platform: models.PlatformStorefront,
		Rows: []ProductUpdateRow{
			{ItemCode: "1234", Units: "PCS"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "no value fields present")
}

func TestApplyMarginRulesReconvertsBindings(t *testing.T) {
	item := fixedItem("9900777", "PCS", "SKU-1")
	item.Platform = models.PlatformMarketplace

	binding := models.OutletBinding{
		ID:  uuid.New(),
		MRP: decPtr("100.00"),
	}

	itemRepo := new(MockItemRepository)
	bindingRepo := new(MockBindingRepository)

	itemRepo.On("GetByIdentity", mock.Anything, models.PlatformMarketplace, "9900777", "PCS", "SKU-1").
		Return(&item, nil)
	itemRepo.On("Save", mock.Anything, mock.MatchedBy(func(i *models.Item) bool {
		return i.MarginOverride != nil && i.MarginOverride.Equal(d("10"))
	})).Return(nil)
	bindingRepo.On("ListByItem", mock.Anything, item.ID).Return([]models.OutletBinding{binding}, nil)
	bindingRepo.On("BulkUpdate", mock.Anything, mock.MatchedBy(func(muts []repository.BindingMutation) bool {
		if len(muts) != 1 {
			return false
		}
		// 100 + 10% = 110.00; a whole marketplace price drops to .99.
		price, ok := muts[0].Fields["selling_price"].(decimal.Decimal)
		return ok && price.Equal(d("109.99"))
	})).Return(nil)

	svc := newTestImportService(itemRepo, bindingRepo, new(MockExportRepository))
	result, err := svc.ApplyMarginRules(context.Background(), models.PlatformMarketplace, []MarginRuleRow{
		{ItemCode: "9900777", Units: "PCS", SKU: "SKU-1", Margin: strPtr("10")},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	itemRepo.AssertExpectations(t)
	bindingRepo.AssertExpectations(t)
}

func TestApplyStockRulesRejectsInvalidFactor(t *testing.T) {
	item := fixedItem("1234", "PCS", "SKU-1")

	itemRepo := new(MockItemRepository)
	itemRepo.On("GetByIdentity", mock.Anything, models.PlatformStorefront, "1234", "PCS", "SKU-1").
		Return(&item, nil)

	svc := newTestImportService(itemRepo, new(MockBindingRepository), new(MockExportRepository))
	result, err := svc.ApplyStockRules(context.Background(), models.PlatformStorefront, []StockRuleRow{
		{ItemCode: "1234", Units: "PCS", SKU: "SKU-1", WeightDivisionFactor: strPtr("0")},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "weight division factor must be positive")
}
