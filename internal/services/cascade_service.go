package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/pricing"
	"pricing-sync-service/internal/repository"
)

// CascadeTrigger describes one parent update that may fan out to child
// variants. Only the fields that actually changed in the triggering row
// are set; a trigger that carried only stock must not cascade price.
type CascadeTrigger struct {
	Parent       *models.Item
	OutletID     uuid.UUID
	NewBasePrice *decimal.Decimal
	NewBaseCost  *decimal.Decimal
	NewBaseStock *int
}

// HasAnyChange reports whether the trigger carries at least one field.
func (t CascadeTrigger) HasAnyChange() bool {
	return t.NewBasePrice != nil || t.NewBaseCost != nil || t.NewBaseStock != nil
}

// CascadeInput is everything the decision phase needs, pre-fetched so the
// decision itself is a pure function.
type CascadeInput struct {
	Trigger  CascadeTrigger
	Siblings []models.Item
	// Bindings maps sibling item ID to its binding at the trigger's
	// outlet; absent entries mean the sibling was never touched there.
	Bindings map[uuid.UUID]*models.OutletBinding
	// Touched holds item IDs the batch updated directly. Their own row
	// values win; the cascade leaves them alone.
	Touched map[uuid.UUID]bool
}

// CascadeOutcome is the pending-write arena produced by one or more
// triggers: mutations for existing bindings, creates for first touches,
// and per-sibling errors that must not abort the batch.
type CascadeOutcome struct {
	Mutations []repository.BindingMutation
	Creates   []*models.OutletBinding
	Errors    []string
}

func (o *CascadeOutcome) merge(other CascadeOutcome) {
	o.Mutations = append(o.Mutations, other.Mutations...)
	o.Creates = append(o.Creates, other.Creates...)
	o.Errors = append(o.Errors, other.Errors...)
}

// Count returns the number of sibling writes in the outcome.
func (o *CascadeOutcome) Count() int {
	return len(o.Mutations) + len(o.Creates)
}

// BuildSiblingMutations computes the cascade writes for one trigger. The
// function never writes; callers flush the outcome through the binding
// repository in one bulk operation.
func BuildSiblingMutations(in CascadeInput) CascadeOutcome {
	var out CascadeOutcome

	parent := in.Trigger.Parent
	if parent == nil || !parent.IsParent() || !in.Trigger.HasAnyChange() {
		return out
	}

	for i := range in.Siblings {
		sibling := &in.Siblings[i]
		if sibling.ID == parent.ID || sibling.VariantRole != models.VariantRoleChild {
			continue
		}
		if in.Touched[sibling.ID] {
			continue
		}

		fields, errs := siblingFields(in.Trigger, sibling, in.Bindings[sibling.ID])
		out.Errors = append(out.Errors, errs...)
		if len(fields) == 0 {
			continue
		}

		if binding := in.Bindings[sibling.ID]; binding != nil {
			out.Mutations = append(out.Mutations, repository.BindingMutation{
				BindingID: binding.ID,
				Fields:    fields,
			})
		} else {
			out.Creates = append(out.Creates, newSiblingBinding(in.Trigger, sibling, fields))
		}
	}

	return out
}

// siblingFields computes the column updates one sibling receives from a
// trigger, restricted to the fields the trigger carried.
func siblingFields(trigger CascadeTrigger, sibling *models.Item, binding *models.OutletBinding) (map[string]interface{}, []string) {
	fields := make(map[string]interface{})
	var errs []string

	// Effective post-cascade values, for the refreshed fingerprint.
	var effMRP, effCost *decimal.Decimal
	var effStock *int
	if binding != nil {
		effMRP, effCost = binding.MRP, binding.Cost
		stock := binding.StockQuantity
		effStock = &stock
	}

	if trigger.NewBasePrice != nil {
		conv := pricing.ConvertPrice(sibling.Platform, sibling.ItemCode, *trigger.NewBasePrice,
			sibling.WrapClass, sibling.WeightDivisionFactor, sibling.MarginOverride)
		if conv.FactorSubstituted {
			errs = append(errs, fmt.Sprintf("item %s/%s: invalid weight division factor %s, substituted 1",
				sibling.ItemCode, sibling.Units, sibling.WeightDivisionFactor))
		}
		fields["mrp"] = *trigger.NewBasePrice
		fields["selling_price"] = conv.FinalPrice
		effMRP = trigger.NewBasePrice
	}

	if trigger.NewBaseCost != nil {
		converted, substituted := pricing.ConvertCost(*trigger.NewBaseCost, sibling.WrapClass, sibling.WeightDivisionFactor)
		if substituted {
			errs = append(errs, fmt.Sprintf("item %s/%s: invalid weight division factor %s for cost conversion",
				sibling.ItemCode, sibling.Units, sibling.WeightDivisionFactor))
		}
		// Raw cost is shared verbatim across the variant group.
		fields["cost"] = *trigger.NewBaseCost
		fields["converted_cost"] = converted
		effCost = trigger.NewBaseCost
	}

	if trigger.NewBaseStock != nil {
		stock := scaleStock(*trigger.NewBaseStock, sibling.WeightDivisionFactor)
		fields["stock_quantity"] = stock
		effStock = &stock
	}

	if len(fields) == 0 {
		return nil, errs
	}

	fields["change_fingerprint"] = pricing.Fingerprint(effMRP, effCost, effStock)
	return fields, errs
}

// scaleStock converts the parent's base-unit stock into sibling units,
// floored and never negative.
func scaleStock(baseStock int, factor decimal.Decimal) int {
	if baseStock < 0 {
		return 0
	}
	scaled := decimal.NewFromInt(int64(baseStock)).Mul(factor).Floor()
	if scaled.IsNegative() {
		return 0
	}
	return int(scaled.IntPart())
}

func newSiblingBinding(trigger CascadeTrigger, sibling *models.Item, fields map[string]interface{}) *models.OutletBinding {
	binding := &models.OutletBinding{
		ItemID:    sibling.ID,
		OutletID:  trigger.OutletID,
		IsEnabled: true,
	}
	if v, ok := fields["mrp"].(decimal.Decimal); ok {
		binding.MRP = &v
	}
	if v, ok := fields["selling_price"].(decimal.Decimal); ok {
		binding.SellingPrice = &v
	}
	if v, ok := fields["cost"].(decimal.Decimal); ok {
		binding.Cost = &v
	}
	if v, ok := fields["converted_cost"].(decimal.Decimal); ok {
		binding.ConvertedCost = &v
	}
	if v, ok := fields["stock_quantity"].(int); ok {
		binding.StockQuantity = v
	}
	if v, ok := fields["change_fingerprint"].(string); ok {
		binding.ChangeFingerprint = v
	}
	if sibling.StatusLocked {
		binding.IsEnabled = false
	}
	return binding
}

// CascadeService resolves parent updates into sibling writes and flushes
// them as one bulk operation.
type CascadeService struct {
	itemRepo    repository.ItemRepositoryInterface
	bindingRepo repository.BindingRepositoryInterface
	logger      *logrus.Logger
}

// NewCascadeService creates a new cascade service
func NewCascadeService(itemRepo repository.ItemRepositoryInterface, bindingRepo repository.BindingRepositoryInterface, logger *logrus.Logger) *CascadeService {
	return &CascadeService{
		itemRepo:    itemRepo,
		bindingRepo: bindingRepo,
		logger:      logger,
	}
}

// Resolve expands a batch's collected triggers into one pending-write
// outcome. Sibling rows written here are never re-evaluated as triggers,
// so a cascade cannot re-trigger itself within a batch.
func (s *CascadeService) Resolve(ctx context.Context, triggers []CascadeTrigger, touched map[uuid.UUID]bool) (CascadeOutcome, error) {
	var out CascadeOutcome

	for _, trigger := range triggers {
		if trigger.Parent == nil || !trigger.Parent.IsParent() || !trigger.HasAnyChange() {
			continue
		}

		siblings, err := s.itemRepo.FindSiblings(ctx, trigger.Parent.Platform, trigger.Parent.ItemCode, trigger.Parent.Units)
		if err != nil {
			return out, fmt.Errorf("failed to locate siblings for %s/%s: %w", trigger.Parent.ItemCode, trigger.Parent.Units, err)
		}

		bindings := make(map[uuid.UUID]*models.OutletBinding, len(siblings))
		for i := range siblings {
			binding, err := s.bindingRepo.Get(ctx, siblings[i].ID, trigger.OutletID)
			if err != nil {
				if err == repository.ErrNotFound {
					continue
				}
				out.Errors = append(out.Errors, fmt.Sprintf("item %s: failed to load binding: %v", siblings[i].ItemCode, err))
				continue
			}
			bindings[siblings[i].ID] = binding
		}

		out.merge(BuildSiblingMutations(CascadeInput{
			Trigger:  trigger,
			Siblings: siblings,
			Bindings: bindings,
			Touched:  touched,
		}))
	}

	return out, nil
}

// Apply flushes the pending-write arena. Creates and mutations failing
// here surface as errors on the batch result, not as an abort.
func (s *CascadeService) Apply(ctx context.Context, outcome CascadeOutcome) (int, []string) {
	applied := 0
	var errs []string

	if err := s.bindingRepo.BulkUpdate(ctx, outcome.Mutations); err != nil {
		errs = append(errs, fmt.Sprintf("cascade bulk update failed: %v", err))
	} else {
		applied += len(outcome.Mutations)
	}

	for _, binding := range outcome.Creates {
		if err := s.bindingRepo.Create(ctx, binding); err != nil {
			errs = append(errs, fmt.Sprintf("cascade create failed for item %s: %v", binding.ItemID, err))
			continue
		}
		applied++
	}

	if len(errs) > 0 {
		s.logger.WithFields(logrus.Fields{
			"applied": applied,
			"errors":  len(errs),
		}).Warn("Cascade apply completed with errors")
	}

	return applied, errs
}
