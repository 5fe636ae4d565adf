package models

import (
	"time"

	"github.com/google/uuid"
)

// ExportKind distinguishes full snapshots from delta feeds
type ExportKind string

const (
	ExportKindFull    ExportKind = "FULL"
	ExportKindPartial ExportKind = "PARTIAL"
)

// ExportFeed identifies the outbound feed format
type ExportFeed string

const (
	// ExportFeedStandard is the sku/price/stock-state platform feed.
	ExportFeedStandard ExportFeed = "STANDARD"
	// ExportFeedERP is the base-unit price reconciliation feed.
	ExportFeedERP ExportFeed = "ERP"
)

// ExportStatus represents the outcome of an export attempt
type ExportStatus string

const (
	ExportStatusSuccess          ExportStatus = "SUCCESS"
	ExportStatusFailed           ExportStatus = "FAILED"
	ExportStatusValidationFailed ExportStatus = "VALIDATION_FAILED"
)

// ExportRecord is the append-only audit trail of export attempts. The most
// recent SUCCESS row per (outlet, platform, feed) defines the delta window
// for the next partial export.
type ExportRecord struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OutletID *uuid.UUID `gorm:"type:uuid;index:idx_export_records_outlet" json:"outletId,omitempty"`
	Platform Platform   `gorm:"type:varchar(50);not null;index:idx_export_records_platform" json:"platform"`
	Feed     ExportFeed `gorm:"type:varchar(20);not null;default:'STANDARD';index:idx_export_records_feed" json:"feed"`
	Kind     ExportKind `gorm:"type:varchar(20);not null" json:"kind"`

	Status    ExportStatus `gorm:"type:varchar(30);not null;index:idx_export_records_status" json:"status"`
	ItemCount int          `gorm:"default:0" json:"itemCount"`
	FileName  string       `gorm:"type:varchar(255)" json:"fileName,omitempty"`
	Errors    StringList   `gorm:"type:jsonb;default:'[]'" json:"errors,omitempty"`

	StartedAt   time.Time  `gorm:"not null;index:idx_export_records_started" json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedBy   string     `gorm:"type:varchar(255)" json:"createdBy,omitempty"`
}

// TableName specifies the table name for ExportRecord
func (ExportRecord) TableName() string {
	return "export_records"
}

// ImportBatchStatus represents the lifecycle of an import batch
type ImportBatchStatus string

const (
	ImportBatchRunning   ImportBatchStatus = "RUNNING"
	ImportBatchCompleted ImportBatchStatus = "COMPLETED"
	ImportBatchPartial   ImportBatchStatus = "PARTIAL"
	ImportBatchFailed    ImportBatchStatus = "FAILED"
)

// ImportBatchRecord is the audit row for one inbound batch. Chunk-level
// stats land in Details so partial chunk failures stay diagnosable.
type ImportBatchRecord struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OutletID *uuid.UUID `gorm:"type:uuid;index:idx_import_batches_outlet" json:"outletId,omitempty"`
	Platform Platform   `gorm:"type:varchar(50);not null" json:"platform"`
	Source   string     `gorm:"type:varchar(100)" json:"source,omitempty"`

	Status           ImportBatchStatus `gorm:"type:varchar(20);not null;default:'RUNNING'" json:"status"`
	TotalRows        int               `gorm:"default:0" json:"totalRows"`
	SucceededRows    int               `gorm:"default:0" json:"succeededRows"`
	SkippedUnchanged int               `gorm:"default:0" json:"skippedUnchanged"`
	FailedRows       int               `gorm:"default:0" json:"failedRows"`
	CascadedRows     int               `gorm:"default:0" json:"cascadedRows"`

	Errors  StringList `gorm:"type:jsonb;default:'[]'" json:"errors,omitempty"`
	Details JSONB      `gorm:"type:jsonb;default:'{}'" json:"details,omitempty"`

	StartedAt   time.Time  `gorm:"not null" json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedBy   string     `gorm:"type:varchar(255)" json:"createdBy,omitempty"`
}

// TableName specifies the table name for ImportBatchRecord
func (ImportBatchRecord) TableName() string {
	return "import_batches"
}
