package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pricing-sync-service/internal/models"
)

// ExportRepository handles the export audit trail and import batch records
type ExportRepository struct {
	db *gorm.DB
}

// NewExportRepository creates a new export repository
func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// CreateRecord appends an export attempt to the audit trail
func (r *ExportRepository) CreateRecord(ctx context.Context, record *models.ExportRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// LatestSuccess retrieves the most recent successful export for an
// (outlet, platform, feed) triple. The ordering ties on started_at are
// broken by id so the answer is deterministic.
func (r *ExportRepository) LatestSuccess(ctx context.Context, outletID *uuid.UUID, platform models.Platform, feed models.ExportFeed) (*models.ExportRecord, error) {
	var record models.ExportRecord
	query := r.db.WithContext(ctx).
		Where("platform = ? AND feed = ? AND status = ?", platform, feed, models.ExportStatusSuccess)
	if outletID != nil {
		query = query.Where("outlet_id = ?", *outletID)
	} else {
		query = query.Where("outlet_id IS NULL")
	}
	err := query.Order("started_at DESC, id DESC").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListRecords retrieves export history with pagination
func (r *ExportRepository) ListRecords(ctx context.Context, outletID *uuid.UUID, platform models.Platform, opts ListOptions) ([]models.ExportRecord, int64, error) {
	var records []models.ExportRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ExportRecord{})
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if outletID != nil {
		query = query.Where("outlet_id = ?", *outletID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit).Offset(opts.Offset)
	}

	if err := query.Order("started_at DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// CreateBatch creates an import batch record
func (r *ExportRepository) CreateBatch(ctx context.Context, batch *models.ImportBatchRecord) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// SaveBatch persists all fields of an import batch record
func (r *ExportRepository) SaveBatch(ctx context.Context, batch *models.ImportBatchRecord) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// GetBatch retrieves an import batch record by ID
func (r *ExportRepository) GetBatch(ctx context.Context, id uuid.UUID) (*models.ImportBatchRecord, error) {
	var batch models.ImportBatchRecord
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}
