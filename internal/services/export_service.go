package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/repository"
)

// ExportRow is one line of the standard platform feed
type ExportRow struct {
	BindingID  uuid.UUID       `json:"-"`
	SKU        string          `json:"sku"`
	Price      decimal.Decimal `json:"sellingPrice"`
	StockState int             `json:"stockState"`
}

// ExportResult is the outcome of one export attempt
type ExportResult struct {
	Record   *models.ExportRecord `json:"record"`
	RowCount int                  `json:"rowCount"`
	FileName string               `json:"fileName,omitempty"`
	Content  []byte               `json:"-"`
	Errors   []string             `json:"errors,omitempty"`
}

// maxExportErrors bounds the error list stored on an audit record.
const maxExportErrors = 50

// ExportService plans and produces the standard platform feed and keeps
// the export audit trail.
type ExportService struct {
	bindingRepo repository.BindingRepositoryInterface
	exportRepo  repository.ExportRepositoryInterface
	outletRepo  repository.OutletRepositoryInterface
	logger      *logrus.Logger
}

// NewExportService creates a new export service
func NewExportService(
	bindingRepo repository.BindingRepositoryInterface,
	exportRepo repository.ExportRepositoryInterface,
	outletRepo repository.OutletRepositoryInterface,
	logger *logrus.Logger,
) *ExportService {
	return &ExportService{
		bindingRepo: bindingRepo,
		exportRepo:  exportRepo,
		outletRepo:  outletRepo,
		logger:      logger,
	}
}

// Export produces the standard feed for one outlet. The first export per
// (outlet, platform) is a full snapshot; afterwards only bindings whose
// computed price or stock state differs from the last successful export
// are included.
func (s *ExportService) Export(ctx context.Context, outletID uuid.UUID, platform models.Platform, createdBy string) (*ExportResult, error) {
	startedAt := time.Now()

	outlet, err := s.outletRepo.GetByID(ctx, outletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outlet: %w", err)
	}
	if outlet.Platform != platform {
		return nil, fmt.Errorf("outlet %d belongs to platform %s", outlet.StoreID, outlet.Platform)
	}

	kind := models.ExportKindFull
	if _, err := s.exportRepo.LatestSuccess(ctx, &outletID, platform, models.ExportFeedStandard); err == nil {
		kind = models.ExportKindPartial
	} else if err != repository.ErrNotFound {
		return nil, fmt.Errorf("failed to query export history: %w", err)
	}

	bindings, err := s.bindingRepo.ListForExport(ctx, outletID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to load bindings: %w", err)
	}

	rows, validationErrs := PlanExport(kind, bindings)

	if len(validationErrs) > 0 {
		record := s.writeRecord(ctx, &outletID, platform, models.ExportFeedStandard, kind,
			models.ExportStatusValidationFailed, 0, "", validationErrs, startedAt, createdBy)
		return &ExportResult{Record: record, Errors: validationErrs}, nil
	}

	content, err := renderStandardCSV(rows)
	if err != nil {
		record := s.writeRecord(ctx, &outletID, platform, models.ExportFeedStandard, kind,
			models.ExportStatusFailed, 0, "", []string{err.Error()}, startedAt, createdBy)
		return &ExportResult{Record: record, Errors: []string{err.Error()}}, nil
	}

	// Close the delta window before recording success: if the record
	// write fails the next export degrades to a full snapshot, which is
	// safe; the reverse order could silently lose a delta.
	states := make([]repository.ExportedState, 0, len(rows))
	for _, row := range rows {
		price := row.Price
		states = append(states, repository.ExportedState{
			BindingID:  row.BindingID,
			Price:      &price,
			StockState: row.StockState,
		})
	}
	if err := s.bindingRepo.MarkExported(ctx, states); err != nil {
		record := s.writeRecord(ctx, &outletID, platform, models.ExportFeedStandard, kind,
			models.ExportStatusFailed, 0, "", []string{fmt.Sprintf("failed to record exported state: %v", err)}, startedAt, createdBy)
		return &ExportResult{Record: record, Errors: record.Errors}, nil
	}

	fileName := fmt.Sprintf("%d_%s_%s.csv", outlet.StoreID, kind, startedAt.Format("20060102_150405"))
	record := s.writeRecord(ctx, &outletID, platform, models.ExportFeedStandard, kind,
		models.ExportStatusSuccess, len(rows), fileName, nil, startedAt, createdBy)

	s.logger.WithFields(logrus.Fields{
		"outlet_id": outletID,
		"platform":  platform,
		"kind":      kind,
		"rows":      len(rows),
	}).Info("Export completed")

	return &ExportResult{
		Record:   record,
		RowCount: len(rows),
		FileName: fileName,
		Content:  content,
	}, nil
}

// PlanExport builds the candidate row set for an export and validates it.
// Any validation error rejects the entire plan; a partially valid feed
// synced downstream is worse than no feed.
func PlanExport(kind models.ExportKind, bindings []models.OutletBinding) ([]ExportRow, []string) {
	var rows []ExportRow
	var errs []string

	for i := range bindings {
		b := &bindings[i]
		// Bindings never price-touched have nothing to feed downstream.
		if !b.HasPrice() {
			continue
		}

		state := b.StockState(b.Item)

		if kind == models.ExportKindPartial && !exportStateDiffers(b, state) {
			continue
		}

		sku := ""
		if b.Item != nil {
			sku = b.Item.SKU
		}
		if sku == "" {
			errs = appendBounded(errs, fmt.Sprintf("binding %s: blank sku", b.ID))
			continue
		}
		if b.SellingPrice.IsNegative() {
			errs = appendBounded(errs, fmt.Sprintf("sku %s: negative price %s", sku, b.SellingPrice))
			continue
		}
		if b.StockQuantity < 0 {
			errs = appendBounded(errs, fmt.Sprintf("sku %s: negative stock %d", sku, b.StockQuantity))
			continue
		}
		if state != 0 && state != 1 {
			errs = appendBounded(errs, fmt.Sprintf("sku %s: invalid stock state %d", sku, state))
			continue
		}

		rows = append(rows, ExportRow{
			BindingID:  b.ID,
			SKU:        sku,
			Price:      b.SellingPrice.Round(2),
			StockState: state,
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rows, nil
}

// exportStateDiffers compares the binding's current computed values
// against the pair recorded at the last successful export. This is a
// value diff: lock toggles and rule changes alter effective state without
// touching any timestamp.
func exportStateDiffers(b *models.OutletBinding, currentState int) bool {
	if b.LastExportedPrice == nil || b.LastExportedStockState == nil {
		return true
	}
	if !b.SellingPrice.Round(2).Equal(b.LastExportedPrice.Round(2)) {
		return true
	}
	return currentState != *b.LastExportedStockState
}

func renderStandardCSV(rows []ExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"sku", "selling_price", "stock_status"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{row.SKU, row.Price.StringFixed(2), fmt.Sprintf("%d", row.StockState)}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ExportService) writeRecord(ctx context.Context, outletID *uuid.UUID, platform models.Platform, feed models.ExportFeed, kind models.ExportKind, status models.ExportStatus, count int, fileName string, errs []string, startedAt time.Time, createdBy string) *models.ExportRecord {
	now := time.Now()
	record := &models.ExportRecord{
		OutletID:    outletID,
		Platform:    platform,
		Feed:        feed,
		Kind:        kind,
		Status:      status,
		ItemCount:   count,
		FileName:    fileName,
		Errors:      models.StringList(errs),
		StartedAt:   startedAt,
		CompletedAt: &now,
		CreatedBy:   createdBy,
	}
	if err := s.exportRepo.CreateRecord(ctx, record); err != nil {
		s.logger.WithError(err).Error("Failed to write export audit record")
	}
	return record
}

func appendBounded(errs []string, msg string) []string {
	if len(errs) < maxExportErrors {
		return append(errs, msg)
	}
	return errs
}

// History returns the export audit trail for reporting.
func (s *ExportService) History(ctx context.Context, outletID *uuid.UUID, platform models.Platform, opts repository.ListOptions) ([]models.ExportRecord, int64, error) {
	return s.exportRepo.ListRecords(ctx, outletID, platform, opts)
}
