package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/repository"
)

// CreateItemRequest registers one catalog entry on one platform
type CreateItemRequest struct {
	Platform             models.Platform  `json:"platform" binding:"required"`
	ItemCode             string           `json:"itemCode" binding:"required"`
	Units                string           `json:"units" binding:"required"`
	SKU                  string           `json:"sku" binding:"required"`
	Name                 string           `json:"name"`
	WrapClass            models.WrapClass `json:"wrapClass"`
	WeightDivisionFactor *string          `json:"weightDivisionFactor,omitempty"`
	OuterCaseQuantity    int              `json:"outerCaseQuantity"`
	MinimumQty           int              `json:"minimumQty"`
}

// CreateOutletRequest registers one outlet on one platform. The store ID
// is allocated from the platform's range when omitted.
type CreateOutletRequest struct {
	Platform models.Platform `json:"platform" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Location string          `json:"location"`
	StoreID  int             `json:"storeId"`
}

// LockRequest toggles the central price/status locks on an item
type LockRequest struct {
	PriceLocked  *bool `json:"priceLocked,omitempty"`
	StatusLocked *bool `json:"statusLocked,omitempty"`
}

// CatalogService manages items, outlets, locks and binding resets
type CatalogService struct {
	itemRepo    repository.ItemRepositoryInterface
	outletRepo  repository.OutletRepositoryInterface
	bindingRepo repository.BindingRepositoryInterface
	logger      *logrus.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	itemRepo repository.ItemRepositoryInterface,
	outletRepo repository.OutletRepositoryInterface,
	bindingRepo repository.BindingRepositoryInterface,
	logger *logrus.Logger,
) *CatalogService {
	return &CatalogService{
		itemRepo:    itemRepo,
		outletRepo:  outletRepo,
		bindingRepo: bindingRepo,
		logger:      logger,
	}
}

// CreateItem registers a catalog entry
func (s *CatalogService) CreateItem(ctx context.Context, req *CreateItemRequest) (*models.Item, error) {
	item := &models.Item{
		Platform:          req.Platform,
		ItemCode:          strings.TrimSpace(req.ItemCode),
		Units:             normalizeUnits(req.Units),
		SKU:               strings.TrimSpace(req.SKU),
		Name:              req.Name,
		WrapClass:         req.WrapClass,
		OuterCaseQuantity: req.OuterCaseQuantity,
		MinimumQty:        req.MinimumQty,
		IsActive:          true,
	}
	if item.WrapClass == "" {
		item.WrapClass = models.WrapClassFixedUnit
	}
	if item.OuterCaseQuantity <= 0 {
		item.OuterCaseQuantity = 1
	}

	item.WeightDivisionFactor = decimal.NewFromInt(1)
	if req.WeightDivisionFactor != nil {
		factor, err := parseDecimalValue(*req.WeightDivisionFactor)
		if err != nil {
			return nil, fmt.Errorf("invalid weight division factor: %w", err)
		}
		if factor.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("weight division factor must be positive")
		}
		item.WeightDivisionFactor = *factor
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

// GetItem loads one item with its variant group
func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, []models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	siblings, err := s.itemRepo.FindSiblings(ctx, item.Platform, item.ItemCode, item.Units)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load variant group: %w", err)
	}
	return item, siblings, nil
}

// ListItems pages through a platform's catalog
func (s *CatalogService) ListItems(ctx context.Context, platform models.Platform, opts repository.ListOptions) ([]models.Item, int64, error) {
	return s.itemRepo.List(ctx, platform, opts)
}

// SetLocks toggles the central locks on an item. A price lock freezes the
// current derived price against imports; a status lock forces bindings
// inactive on every subsequent touch.
func (s *CatalogService) SetLocks(ctx context.Context, id uuid.UUID, req *LockRequest) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.PriceLocked != nil {
		item.PriceLocked = *req.PriceLocked
	}
	if req.StatusLocked != nil {
		item.StatusLocked = *req.StatusLocked
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to save item locks: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"item_code":     item.ItemCode,
		"units":         item.Units,
		"price_locked":  item.PriceLocked,
		"status_locked": item.StatusLocked,
	}).Info("Item locks updated")

	return item, nil
}

// ResetBinding nulls a binding's money fields and disables it, leaving
// the row in place so export deltas can propagate the removal.
func (s *CatalogService) ResetBinding(ctx context.Context, itemID, outletID uuid.UUID) error {
	return s.bindingRepo.Reset(ctx, itemID, outletID)
}

// CreateOutlet registers an outlet, allocating a store ID when absent
func (s *CatalogService) CreateOutlet(ctx context.Context, req *CreateOutletRequest) (*models.Outlet, error) {
	if req.StoreID != 0 {
		start, end, err := models.StoreIDRange(req.Platform)
		if err != nil {
			return nil, err
		}
		if req.StoreID < start || req.StoreID > end {
			return nil, fmt.Errorf("store id %d outside platform range %d-%d", req.StoreID, start, end)
		}
	}

	outlet := &models.Outlet{
		Platform: req.Platform,
		Name:     req.Name,
		Location: req.Location,
		StoreID:  req.StoreID,
		IsActive: true,
	}
	if err := s.outletRepo.Create(ctx, outlet); err != nil {
		return nil, fmt.Errorf("failed to create outlet: %w", err)
	}
	return outlet, nil
}

// GetOutlet loads one outlet
func (s *CatalogService) GetOutlet(ctx context.Context, id uuid.UUID) (*models.Outlet, error) {
	return s.outletRepo.GetByID(ctx, id)
}

// ListOutlets returns a platform's active outlets
func (s *CatalogService) ListOutlets(ctx context.Context, platform models.Platform) ([]models.Outlet, error) {
	return s.outletRepo.ListByPlatform(ctx, platform)
}
