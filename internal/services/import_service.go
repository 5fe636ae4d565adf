package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/pricing"
	"pricing-sync-service/internal/repository"
)

// ProductUpdateRow is one inbound price/stock row, already CSV-decoded.
// All value fields are optional but at least one must be present. Values
// arrive as strings because upstream feeds carry thousands separators.
type ProductUpdateRow struct {
	ItemCode string  `json:"itemCode" binding:"required"`
	Units    string  `json:"units" binding:"required"`
	SKU      string  `json:"sku"`
	MRP      *string `json:"mrp,omitempty"`
	Cost     *string `json:"cost,omitempty"`
	Stock    *string `json:"stock,omitempty"`
}

// MarginRuleRow sets or clears a per-item margin override
type MarginRuleRow struct {
	ItemCode string  `json:"itemCode" binding:"required"`
	Units    string  `json:"units" binding:"required"`
	SKU      string  `json:"sku" binding:"required"`
	Margin   *string `json:"margin"`
}

// StockRuleRow updates an item's stock configuration
type StockRuleRow struct {
	ItemCode             string  `json:"itemCode" binding:"required"`
	Units                string  `json:"units" binding:"required"`
	SKU                  string  `json:"sku" binding:"required"`
	WeightDivisionFactor *string `json:"weightDivisionFactor,omitempty"`
	OuterCaseQuantity    *int    `json:"outerCaseQuantity,omitempty"`
	MinimumQty           *int    `json:"minimumQty,omitempty"`
}

// ImportRequest is one inbound batch against a single outlet
type ImportRequest struct {
	OutletID  uuid.UUID
	Platform  models.Platform
	Rows      []ProductUpdateRow
	Source    string
	CreatedBy string
}

// BatchResult is the structured outcome every import returns: counts plus
// a bounded list of the first errors.
type BatchResult struct {
	BatchID          uuid.UUID `json:"batchId"`
	Total            int       `json:"total"`
	Succeeded        int       `json:"succeeded"`
	SkippedUnchanged int       `json:"skippedUnchanged"`
	Failed           int       `json:"failed"`
	Cascaded         int       `json:"cascaded"`
	Errors           []string  `json:"errors,omitempty"`
	Duration         string    `json:"duration"`
}

// ImportSettings tunes batch execution
type ImportSettings struct {
	ChunkSize    int
	ChunksPerSec int
	MaxErrors    int
}

// ImportService runs inbound price/stock batches: per-outlet
// serialization, chunked transactions, change-detection gating, lock
// enforcement and cascade collection.
type ImportService struct {
	itemRepo    repository.ItemRepositoryInterface
	bindingRepo repository.BindingRepositoryInterface
	exportRepo  repository.ExportRepositoryInterface
	cascade     *CascadeService
	semaphore   *OutletSemaphore
	retrier     *Retrier
	limiter     *rate.Limiter
	settings    ImportSettings
	logger      *logrus.Logger
}

// NewImportService creates a new import service
func NewImportService(
	itemRepo repository.ItemRepositoryInterface,
	bindingRepo repository.BindingRepositoryInterface,
	exportRepo repository.ExportRepositoryInterface,
	cascade *CascadeService,
	semaphore *OutletSemaphore,
	retrier *Retrier,
	settings ImportSettings,
	logger *logrus.Logger,
) *ImportService {
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = 500
	}
	if settings.ChunksPerSec <= 0 {
		settings.ChunksPerSec = 5
	}
	if settings.MaxErrors <= 0 {
		settings.MaxErrors = 50
	}
	return &ImportService{
		itemRepo:    itemRepo,
		bindingRepo: bindingRepo,
		exportRepo:  exportRepo,
		cascade:     cascade,
		semaphore:   semaphore,
		retrier:     retrier,
		limiter:     rate.NewLimiter(rate.Limit(settings.ChunksPerSec), 1),
		settings:    settings,
		logger:      logger,
	}
}

// ProcessBatch executes one import batch. Chunks commit independently; a
// failed chunk is reported without rolling back committed prior chunks.
func (s *ImportService) ProcessBatch(ctx context.Context, req ImportRequest) (*BatchResult, error) {
	release, err := s.semaphore.Acquire(ctx, req.OutletID.String()+":"+string(req.Platform), string(req.Platform))
	if err != nil {
		return nil, err
	}
	defer release()

	startTime := time.Now()
	outletID := req.OutletID
	batch := &models.ImportBatchRecord{
		OutletID:  &outletID,
		Platform:  req.Platform,
		Source:    req.Source,
		Status:    models.ImportBatchRunning,
		TotalRows: len(req.Rows),
		StartedAt: startTime,
		CreatedBy: req.CreatedBy,
	}
	if err := s.exportRepo.CreateBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to create batch record: %w", err)
	}

	result := &BatchResult{BatchID: batch.ID, Total: len(req.Rows)}
	touched := make(map[uuid.UUID]bool)
	var triggers []CascadeTrigger
	chunkStats := make([]map[string]interface{}, 0)
	failedChunks := 0

	for chunkStart := 0; chunkStart < len(req.Rows); chunkStart += s.settings.ChunkSize {
		chunkEnd := chunkStart + s.settings.ChunkSize
		if chunkEnd > len(req.Rows) {
			chunkEnd = len(req.Rows)
		}
		chunk := req.Rows[chunkStart:chunkEnd]

		if err := s.limiter.Wait(ctx); err != nil {
			s.addError(result, fmt.Sprintf("batch interrupted before chunk %d: %v", len(chunkStats), err))
			failedChunks++
			break
		}

		chunkResult, err := s.processChunk(ctx, req, chunk, touched, &triggers)
		if err != nil {
			// The whole chunk rolled back; prior chunks stay committed.
			failedChunks++
			result.Failed += len(chunk)
			s.addError(result, fmt.Sprintf("chunk %d failed: %v", len(chunkStats), err))
			chunkStats = append(chunkStats, map[string]interface{}{
				"rows": len(chunk), "status": "failed", "error": err.Error(),
			})
			continue
		}

		result.Succeeded += chunkResult.succeeded
		result.SkippedUnchanged += chunkResult.skipped
		result.Failed += chunkResult.failed
		for _, msg := range chunkResult.errors {
			s.addError(result, msg)
		}
		chunkStats = append(chunkStats, map[string]interface{}{
			"rows": len(chunk), "status": "committed",
			"succeeded": chunkResult.succeeded, "skipped": chunkResult.skipped, "failed": chunkResult.failed,
		})
	}

	// Fan out parent updates after the full batch is evaluated, so rows
	// the batch touched directly keep their own values.
	outcome, err := s.cascade.Resolve(ctx, triggers, touched)
	if err != nil {
		s.addError(result, err.Error())
	}
	for _, msg := range outcome.Errors {
		s.addError(result, msg)
	}
	applied, applyErrs := s.cascade.Apply(ctx, outcome)
	result.Cascaded = applied
	for _, msg := range applyErrs {
		s.addError(result, msg)
	}

	result.Duration = time.Since(startTime).String()
	s.closeBatch(ctx, batch, result, failedChunks, chunkStats)

	s.logger.WithFields(logrus.Fields{
		"batch_id":  batch.ID,
		"outlet_id": req.OutletID,
		"platform":  req.Platform,
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"skipped":   result.SkippedUnchanged,
		"failed":    result.Failed,
		"cascaded":  result.Cascaded,
		"duration":  result.Duration,
	}).Info("Import batch completed")

	return result, nil
}

type chunkOutcome struct {
	succeeded int
	skipped   int
	failed    int
	errors    []string
}

// processChunk applies one chunk inside a single transaction, retried on
// transient storage contention.
func (s *ImportService) processChunk(ctx context.Context, req ImportRequest, rows []ProductUpdateRow, touched map[uuid.UUID]bool, triggers *[]CascadeTrigger) (*chunkOutcome, error) {
	var outcome *chunkOutcome
	_, err := s.retrier.Do(ctx, "import chunk", func(ctx context.Context) error {
		// Rebuild per attempt: a retried chunk starts from scratch.
		attempt := &chunkOutcome{}
		attemptTouched := make(map[uuid.UUID]bool)
		var attemptTriggers []CascadeTrigger

		txErr := s.bindingRepo.WithTransaction(ctx, func(txRepo repository.BindingRepositoryInterface) error {
			for i := range rows {
				rowErr := s.processRow(ctx, txRepo, req, &rows[i], attempt, attemptTouched, &attemptTriggers)
				if rowErr != nil {
					attempt.failed++
					attempt.errors = append(attempt.errors, rowErr.Error())
				}
			}
			return nil
		})
		if txErr != nil {
			return txErr
		}

		outcome = attempt
		for id := range attemptTouched {
			touched[id] = true
		}
		*triggers = append(*triggers, attemptTriggers...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// processRow applies a single inbound row: sanitize, gate on the change
// fingerprint, enforce locks, derive prices, persist atomically.
func (s *ImportService) processRow(ctx context.Context, txRepo repository.BindingRepositoryInterface, req ImportRequest, row *ProductUpdateRow, outcome *chunkOutcome, touched map[uuid.UUID]bool, triggers *[]CascadeTrigger) error {
	mrp, cost, stock, err := sanitizeRowValues(row)
	if err != nil {
		return fmt.Errorf("row %s/%s: %w", row.ItemCode, row.Units, err)
	}
	if mrp == nil && cost == nil && stock == nil {
		return fmt.Errorf("row %s/%s: no value fields present", row.ItemCode, row.Units)
	}

	item, err := s.resolveItem(ctx, req.Platform, row)
	if err != nil {
		return err
	}

	// Inbound stock arrives in feed units; convert to variant units.
	var variantStock *int
	if stock != nil {
		converted := convertInboundStock(*stock, item)
		variantStock = &converted
	}

	binding, err := txRepo.GetForUpdate(ctx, item.ID, req.OutletID)
	created := false
	if err != nil {
		if err != repository.ErrNotFound {
			return fmt.Errorf("row %s/%s: failed to load binding: %w", row.ItemCode, row.Units, err)
		}
		binding = &models.OutletBinding{ItemID: item.ID, OutletID: req.OutletID, IsEnabled: true}
		created = true
	}

	// Effective post-apply values; absent row fields keep current state.
	effMRP := binding.MRP
	if mrp != nil {
		effMRP = mrp
	}
	effCost := binding.Cost
	if cost != nil {
		effCost = cost
	}
	effStock := binding.StockQuantity
	if variantStock != nil {
		effStock = *variantStock
	}

	incoming := pricing.Fingerprint(effMRP, effCost, &effStock)
	if !created && !pricing.HasChanged(binding.ChangeFingerprint, incoming) {
		outcome.skipped++
		return nil
	}

	priceApplied := false
	if mrp != nil && !item.PriceLocked {
		conv := pricing.ConvertPrice(item.Platform, item.ItemCode, *mrp, item.WrapClass, item.WeightDivisionFactor, item.MarginOverride)
		if conv.FactorSubstituted {
			outcome.errors = append(outcome.errors, fmt.Sprintf("row %s/%s: invalid weight division factor, substituted 1", row.ItemCode, row.Units))
		}
		binding.MRP = mrp
		final := conv.FinalPrice
		binding.SellingPrice = &final
		priceApplied = true
	}
	costApplied := false
	if cost != nil && !item.PriceLocked {
		converted, _ := pricing.ConvertCost(*cost, item.WrapClass, item.WeightDivisionFactor)
		binding.Cost = cost
		binding.ConvertedCost = &converted
		costApplied = true
	}
	if variantStock != nil {
		binding.StockQuantity = *variantStock
	}
	if item.StatusLocked {
		binding.IsEnabled = false
	}

	// The fingerprint records what was actually applied, so a price row
	// against a price-locked item stays re-evaluable.
	appliedStock := binding.StockQuantity
	binding.ChangeFingerprint = pricing.Fingerprint(binding.MRP, binding.Cost, &appliedStock)

	if created {
		if err := txRepo.Create(ctx, binding); err != nil {
			return fmt.Errorf("row %s/%s: failed to create binding: %w", row.ItemCode, row.Units, err)
		}
	} else {
		if err := txRepo.Save(ctx, binding); err != nil {
			return fmt.Errorf("row %s/%s: failed to save binding: %w", row.ItemCode, row.Units, err)
		}
	}

	outcome.succeeded++
	touched[item.ID] = true

	if item.IsParent() {
		trigger := CascadeTrigger{Parent: item, OutletID: req.OutletID}
		if priceApplied {
			trigger.NewBasePrice = mrp
		}
		if costApplied {
			trigger.NewBaseCost = cost
		}
		if variantStock != nil {
			trigger.NewBaseStock = stock
		}
		if trigger.HasAnyChange() {
			*triggers = append(*triggers, trigger)
		}
	}

	return nil
}

// resolveItem locates the variant a row targets. Rows address a (code,
// units) group; the parent or standalone variant receives the values, and
// an explicit SKU narrows the match when a group carries several.
func (s *ImportService) resolveItem(ctx context.Context, platform models.Platform, row *ProductUpdateRow) (*models.Item, error) {
	items, err := s.itemRepo.FindByCodeAndUnits(ctx, platform, strings.TrimSpace(row.ItemCode), normalizeUnits(row.Units))
	if err != nil {
		return nil, fmt.Errorf("row %s/%s: lookup failed: %w", row.ItemCode, row.Units, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("row %s/%s: no matching item", row.ItemCode, row.Units)
	}

	if sku := strings.TrimSpace(row.SKU); sku != "" {
		for i := range items {
			if items[i].SKU == sku && items[i].VariantRole != models.VariantRoleChild {
				return &items[i], nil
			}
		}
	}
	for i := range items {
		if items[i].VariantRole != models.VariantRoleChild {
			return &items[i], nil
		}
	}
	// A group of only children: apply to the smallest factor variant.
	return &items[0], nil
}

func (s *ImportService) addError(result *BatchResult, msg string) {
	if len(result.Errors) < s.settings.MaxErrors {
		result.Errors = append(result.Errors, msg)
	}
}

func (s *ImportService) closeBatch(ctx context.Context, batch *models.ImportBatchRecord, result *BatchResult, failedChunks int, chunkStats []map[string]interface{}) {
	now := time.Now()
	batch.CompletedAt = &now
	batch.SucceededRows = result.Succeeded
	batch.SkippedUnchanged = result.SkippedUnchanged
	batch.FailedRows = result.Failed
	batch.CascadedRows = result.Cascaded
	batch.Errors = models.StringList(result.Errors)
	batch.Details = models.JSONB{"chunks": chunkStats}

	switch {
	case failedChunks > 0 && result.Succeeded == 0:
		batch.Status = models.ImportBatchFailed
	case failedChunks > 0 || result.Failed > 0:
		batch.Status = models.ImportBatchPartial
	default:
		batch.Status = models.ImportBatchCompleted
	}

	if err := s.exportRepo.SaveBatch(ctx, batch); err != nil {
		s.logger.WithError(err).WithField("batch_id", batch.ID).Error("Failed to close import batch record")
	}
}

// ApplyMarginRules sets or clears per-item margin overrides and
// recomputes the affected selling prices from the stored base MRP.
func (s *ImportService) ApplyMarginRules(ctx context.Context, platform models.Platform, rows []MarginRuleRow) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.New(), Total: len(rows)}
	start := time.Now()

	for i := range rows {
		row := &rows[i]
		if err := s.applyMarginRule(ctx, platform, row); err != nil {
			result.Failed++
			s.addError(result, err.Error())
			continue
		}
		result.Succeeded++
	}

	result.Duration = time.Since(start).String()
	return result, nil
}

func (s *ImportService) applyMarginRule(ctx context.Context, platform models.Platform, row *MarginRuleRow) error {
	item, err := s.itemRepo.GetByIdentity(ctx, platform, strings.TrimSpace(row.ItemCode), normalizeUnits(row.Units), strings.TrimSpace(row.SKU))
	if err != nil {
		return fmt.Errorf("rule %s/%s: %w", row.ItemCode, row.Units, err)
	}

	if row.Margin == nil || strings.TrimSpace(*row.Margin) == "" {
		item.MarginOverride = nil
	} else {
		margin, err := parseDecimalValue(*row.Margin)
		if err != nil {
			return fmt.Errorf("rule %s/%s: invalid margin: %w", row.ItemCode, row.Units, err)
		}
		item.MarginOverride = margin
	}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		return fmt.Errorf("rule %s/%s: save failed: %w", row.ItemCode, row.Units, err)
	}

	return s.reconvertBindings(ctx, item)
}

// ApplyStockRules updates weight/case/minimum configuration per item.
func (s *ImportService) ApplyStockRules(ctx context.Context, platform models.Platform, rows []StockRuleRow) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.New(), Total: len(rows)}
	start := time.Now()

	for i := range rows {
		row := &rows[i]
		if err := s.applyStockRule(ctx, platform, row); err != nil {
			result.Failed++
			s.addError(result, err.Error())
			continue
		}
		result.Succeeded++
	}

	result.Duration = time.Since(start).String()
	return result, nil
}

func (s *ImportService) applyStockRule(ctx context.Context, platform models.Platform, row *StockRuleRow) error {
	item, err := s.itemRepo.GetByIdentity(ctx, platform, strings.TrimSpace(row.ItemCode), normalizeUnits(row.Units), strings.TrimSpace(row.SKU))
	if err != nil {
		return fmt.Errorf("rule %s/%s: %w", row.ItemCode, row.Units, err)
	}

	if row.WeightDivisionFactor != nil {
		factor, err := parseDecimalValue(*row.WeightDivisionFactor)
		if err != nil {
			return fmt.Errorf("rule %s/%s: invalid weight division factor: %w", row.ItemCode, row.Units, err)
		}
		if factor.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("rule %s/%s: weight division factor must be positive", row.ItemCode, row.Units)
		}
		item.WeightDivisionFactor = *factor
	}
	if row.OuterCaseQuantity != nil {
		if *row.OuterCaseQuantity <= 0 {
			return fmt.Errorf("rule %s/%s: outer case quantity must be positive", row.ItemCode, row.Units)
		}
		item.OuterCaseQuantity = *row.OuterCaseQuantity
	}
	if row.MinimumQty != nil {
		if *row.MinimumQty < 0 {
			return fmt.Errorf("rule %s/%s: minimum quantity must not be negative", row.ItemCode, row.Units)
		}
		item.MinimumQty = *row.MinimumQty
	}

	if err := s.itemRepo.Save(ctx, item); err != nil {
		return fmt.Errorf("rule %s/%s: save failed: %w", row.ItemCode, row.Units, err)
	}

	return s.reconvertBindings(ctx, item)
}

// reconvertBindings recomputes derived prices after a rule change. The
// fingerprint stays untouched: the applied (mrp, cost, stock) triple did
// not change, only its derivation.
func (s *ImportService) reconvertBindings(ctx context.Context, item *models.Item) error {
	bindings, err := s.bindingRepo.ListByItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("item %s: failed to list bindings: %w", item.ItemCode, err)
	}

	mutations := make([]repository.BindingMutation, 0, len(bindings))
	for i := range bindings {
		b := &bindings[i]
		fields := make(map[string]interface{})
		if b.MRP != nil {
			conv := pricing.ConvertPrice(item.Platform, item.ItemCode, *b.MRP, item.WrapClass, item.WeightDivisionFactor, item.MarginOverride)
			fields["selling_price"] = conv.FinalPrice
		}
		if b.Cost != nil {
			converted, _ := pricing.ConvertCost(*b.Cost, item.WrapClass, item.WeightDivisionFactor)
			fields["converted_cost"] = converted
		}
		if len(fields) == 0 {
			continue
		}
		mutations = append(mutations, repository.BindingMutation{BindingID: b.ID, Fields: fields})
	}

	return s.bindingRepo.BulkUpdate(ctx, mutations)
}

// sanitizeRowValues parses the optional string fields of a row. Thousands
// separators are stripped and negative values clamp to zero.
func sanitizeRowValues(row *ProductUpdateRow) (mrp, cost *decimal.Decimal, stock *int, err error) {
	if row.MRP != nil && strings.TrimSpace(*row.MRP) != "" {
		mrp, err = parseDecimalValue(*row.MRP)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid mrp %q", *row.MRP)
		}
	}
	if row.Cost != nil && strings.TrimSpace(*row.Cost) != "" {
		cost, err = parseDecimalValue(*row.Cost)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid cost %q", *row.Cost)
		}
	}
	if row.Stock != nil && strings.TrimSpace(*row.Stock) != "" {
		parsed, perr := parseDecimalValue(*row.Stock)
		if perr != nil {
			return nil, nil, nil, fmt.Errorf("invalid stock %q", *row.Stock)
		}
		v := int(parsed.Floor().IntPart())
		if v < 0 {
			v = 0
		}
		stock = &v
	}
	return mrp, cost, stock, nil
}

// parseDecimalValue parses a numeric string, tolerating thousands
// separators and surrounding whitespace. Negative money values clamp to
// zero rather than failing the row.
func parseDecimalValue(raw string) (*decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil, err
	}
	if value.IsNegative() {
		value = decimal.Zero
	}
	return &value, nil
}

// convertInboundStock converts feed-unit stock into variant units:
// weight-divided variants multiply by their factor, fixed-unit items
// arriving in cases divide by the outer case quantity.
func convertInboundStock(feedStock int, item *models.Item) int {
	if feedStock < 0 {
		return 0
	}
	if item.IsWeightDivided() {
		return scaleStock(feedStock, item.WeightDivisionFactor)
	}
	if item.OuterCaseQuantity > 1 {
		return feedStock / item.OuterCaseQuantity
	}
	return feedStock
}

// normalizeUnits canonicalizes a units string for group matching.
func normalizeUnits(units string) string {
	return strings.ToUpper(strings.TrimSpace(units))
}
