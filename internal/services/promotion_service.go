package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricing-sync-service/internal/repository"
)

// PromotionRequest schedules a promotional price window on one binding.
type PromotionRequest struct {
	ItemID         uuid.UUID       `json:"itemId" binding:"required"`
	OutletID       uuid.UUID       `json:"outletId" binding:"required"`
	PromotionPrice decimal.Decimal `json:"promotionPrice" binding:"required"`
	StartAt        time.Time       `json:"startAt" binding:"required"`
	EndAt          time.Time       `json:"endAt" binding:"required"`
}

// SweepResult reports one sweep pass over due promotion windows.
type SweepResult struct {
	Activated int      `json:"activated"`
	Expired   int      `json:"expired"`
	Errors    []string `json:"errors,omitempty"`
}

// PromotionService manages scheduled price windows on outlet bindings.
// A sweep pass swaps the promotional price in at the window start and
// restores the regular price at the window end.
type PromotionService struct {
	bindingRepo repository.BindingRepositoryInterface
	logger      *logrus.Logger
}

// NewPromotionService creates a new promotion service
func NewPromotionService(bindingRepo repository.BindingRepositoryInterface, logger *logrus.Logger) *PromotionService {
	return &PromotionService{bindingRepo: bindingRepo, logger: logger}
}

// Schedule records a promotion window on a binding. The window must be in
// the future-or-now and the binding must already carry a selling price to
// restore after expiry.
func (s *PromotionService) Schedule(ctx context.Context, req *PromotionRequest) error {
	if !req.EndAt.After(req.StartAt) {
		return fmt.Errorf("promotion end %s must be after start %s", req.EndAt.Format(time.RFC3339), req.StartAt.Format(time.RFC3339))
	}
	if req.PromotionPrice.IsNegative() || req.PromotionPrice.IsZero() {
		return fmt.Errorf("promotion price must be positive, got %s", req.PromotionPrice)
	}

	return s.bindingRepo.WithTransaction(ctx, func(txRepo repository.BindingRepositoryInterface) error {
		binding, err := txRepo.GetForUpdate(ctx, req.ItemID, req.OutletID)
		if err != nil {
			return fmt.Errorf("failed to load binding: %w", err)
		}
		if !binding.HasPrice() {
			return fmt.Errorf("binding %s has no selling price to promote against", binding.ID)
		}
		if binding.PromotionLive {
			return fmt.Errorf("binding %s already has a live promotion", binding.ID)
		}

		price := req.PromotionPrice.Round(2)
		start := req.StartAt
		end := req.EndAt
		binding.PromotionPrice = &price
		binding.PromotionStart = &start
		binding.PromotionEnd = &end
		return txRepo.Save(ctx, binding)
	})
}

// Cancel clears a pending or live promotion, restoring the regular price
// when the window had already activated.
func (s *PromotionService) Cancel(ctx context.Context, itemID, outletID uuid.UUID) error {
	return s.bindingRepo.WithTransaction(ctx, func(txRepo repository.BindingRepositoryInterface) error {
		binding, err := txRepo.GetForUpdate(ctx, itemID, outletID)
		if err != nil {
			return fmt.Errorf("failed to load binding: %w", err)
		}
		if binding.PromotionLive && binding.RegularPrice != nil {
			restored := *binding.RegularPrice
			binding.SellingPrice = &restored
		}
		binding.PromotionPrice = nil
		binding.RegularPrice = nil
		binding.PromotionStart = nil
		binding.PromotionEnd = nil
		binding.PromotionLive = false
		return txRepo.Save(ctx, binding)
	})
}

// Sweep activates promotion windows whose start has passed and expires
// windows whose end has passed. Intended to run on a short ticker.
func (s *PromotionService) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	result := &SweepResult{}

	toActivate, err := s.bindingRepo.ListPromotionsToActivate(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions to activate: %w", err)
	}
	for i := range toActivate {
		if err := s.activate(ctx, toActivate[i].ItemID, toActivate[i].OutletID); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Activated++
	}

	toExpire, err := s.bindingRepo.ListPromotionsToExpire(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions to expire: %w", err)
	}
	for i := range toExpire {
		if err := s.expire(ctx, toExpire[i].ItemID, toExpire[i].OutletID); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Expired++
	}

	if result.Activated > 0 || result.Expired > 0 {
		s.logger.WithFields(logrus.Fields{
			"activated": result.Activated,
			"expired":   result.Expired,
			"errors":    len(result.Errors),
		}).Info("Promotion sweep completed")
	}
	return result, nil
}

func (s *PromotionService) activate(ctx context.Context, itemID, outletID uuid.UUID) error {
	return s.bindingRepo.WithTransaction(ctx, func(txRepo repository.BindingRepositoryInterface) error {
		binding, err := txRepo.GetForUpdate(ctx, itemID, outletID)
		if err != nil {
			return fmt.Errorf("failed to load binding for activation: %w", err)
		}
		if binding.PromotionLive || binding.PromotionPrice == nil {
			return nil
		}
		if binding.SellingPrice != nil {
			regular := *binding.SellingPrice
			binding.RegularPrice = &regular
		}
		promo := *binding.PromotionPrice
		binding.SellingPrice = &promo
		binding.PromotionLive = true
		return txRepo.Save(ctx, binding)
	})
}

func (s *PromotionService) expire(ctx context.Context, itemID, outletID uuid.UUID) error {
	return s.bindingRepo.WithTransaction(ctx, func(txRepo repository.BindingRepositoryInterface) error {
		binding, err := txRepo.GetForUpdate(ctx, itemID, outletID)
		if err != nil {
			return fmt.Errorf("failed to load binding for expiry: %w", err)
		}
		if !binding.PromotionLive {
			return nil
		}
		if binding.RegularPrice != nil {
			restored := *binding.RegularPrice
			binding.SellingPrice = &restored
		}
		binding.PromotionPrice = nil
		binding.RegularPrice = nil
		binding.PromotionStart = nil
		binding.PromotionEnd = nil
		binding.PromotionLive = false
		return txRepo.Save(ctx, binding)
	})
}
