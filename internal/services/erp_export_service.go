package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricing-sync-service/internal/models"
	"pricing-sync-service/internal/pricing"
	"pricing-sync-service/internal/repository"
)

// ERPExportRow is one line of the reconciliation feed sent back upstream.
// Prices report in base (per-parent-unit) terms.
type ERPExportRow struct {
	Party    string          `json:"party"`
	ItemCode string          `json:"itemCode"`
	Location string          `json:"location"`
	Unit     string          `json:"unit"`
	Price    decimal.Decimal `json:"price"`
}

// ERPExportService produces the upstream reconciliation feed
type ERPExportService struct {
	bindingRepo repository.BindingRepositoryInterface
	exportRepo  repository.ExportRepositoryInterface
	outletRepo  repository.OutletRepositoryInterface
	partyCode   string
	location    string
	logger      *logrus.Logger
}

// NewERPExportService creates a new ERP export service
func NewERPExportService(
	bindingRepo repository.BindingRepositoryInterface,
	exportRepo repository.ExportRepositoryInterface,
	outletRepo repository.OutletRepositoryInterface,
	partyCode, location string,
	logger *logrus.Logger,
) *ERPExportService {
	return &ERPExportService{
		bindingRepo: bindingRepo,
		exportRepo:  exportRepo,
		outletRepo:  outletRepo,
		partyCode:   partyCode,
		location:    location,
		logger:      logger,
	}
}

// Export produces the reconciliation feed for a platform. The feed is
// always a full snapshot; a partial reconciliation would be meaningless
// upstream. Duplicate (code, unit) pairs collapse to the lowest price.
func (s *ERPExportService) Export(ctx context.Context, platform models.Platform, createdBy string) (*ExportResult, error) {
	startedAt := time.Now()

	outlets, err := s.outletRepo.ListByPlatform(ctx, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to list outlets: %w", err)
	}

	raw := make([]ERPExportRow, 0)
	var errs []string

	for i := range outlets {
		bindings, err := s.bindingRepo.ListForExport(ctx, outlets[i].ID, platform)
		if err != nil {
			errs = appendBounded(errs, fmt.Sprintf("outlet %d: failed to load bindings: %v", outlets[i].StoreID, err))
			continue
		}

		location := outlets[i].Location
		if s.location != "" {
			location = s.location
		}

		for j := range bindings {
			b := &bindings[j]
			if b.Item == nil || !b.HasPrice() || !b.IsEnabled {
				continue
			}
			raw = append(raw, ERPExportRow{
				Party:    s.partyCode,
				ItemCode: b.Item.ItemCode,
				Location: location,
				Unit:     b.Item.Units,
				Price:    pricing.BaseUnitPrice(*b.SellingPrice, b.Item.WrapClass, b.Item.WeightDivisionFactor),
			})
		}
	}

	rows := DeduplicateERPRows(raw)

	content, err := renderERPCSV(rows)
	if err != nil {
		record := s.writeRecord(ctx, platform, models.ExportStatusFailed, 0, "", append(errs, err.Error()), startedAt, createdBy)
		return &ExportResult{Record: record, Errors: record.Errors}, nil
	}

	fileName := fmt.Sprintf("erp_%s_%s.csv", platform, startedAt.Format("20060102_150405"))
	record := s.writeRecord(ctx, platform, models.ExportStatusSuccess, len(rows), fileName, errs, startedAt, createdBy)

	s.logger.WithFields(logrus.Fields{
		"platform": platform,
		"rows":     len(rows),
		"outlets":  len(outlets),
	}).Info("ERP reconciliation export completed")

	return &ExportResult{
		Record:   record,
		RowCount: len(rows),
		FileName: fileName,
		Content:  content,
		Errors:   errs,
	}, nil
}

// DeduplicateERPRows keeps the lowest price per (code, unit) pair,
// preserving first-seen order.
func DeduplicateERPRows(rows []ERPExportRow) []ERPExportRow {
	best := make(map[string]int)
	out := make([]ERPExportRow, 0, len(rows))
	for _, row := range rows {
		key := row.ItemCode + "|" + row.Unit
		if idx, seen := best[key]; seen {
			if row.Price.LessThan(out[idx].Price) {
				out[idx] = row
			}
			continue
		}
		best[key] = len(out)
		out = append(out, row)
	}
	return out
}

func renderERPCSV(rows []ERPExportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Party", "Item Code", "Location", "Unit", "Price"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{row.Party, row.ItemCode, row.Location, row.Unit, row.Price.StringFixed(2)}
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

func (s *ERPExportService) writeRecord(ctx context.Context, platform models.Platform, status models.ExportStatus, count int, fileName string, errs []string, startedAt time.Time, createdBy string) *models.ExportRecord {
	now := time.Now()
	record := &models.ExportRecord{
		Platform:    platform,
		Feed:        models.ExportFeedERP,
		Kind:        models.ExportKindFull,
		Status:      status,
		ItemCount:   count,
		FileName:    fileName,
		Errors:      models.StringList(errs),
		StartedAt:   startedAt,
		CompletedAt: &now,
		CreatedBy:   createdBy,
	}
	if err := s.exportRepo.CreateRecord(ctx, record); err != nil {
		s.logger.WithError(err).Error("Failed to write ERP export audit record")
	}
	return record
}
