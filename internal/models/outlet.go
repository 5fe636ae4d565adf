package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store ID ranges per platform. IDs are six digits and allocated
// sequentially within the owning platform's range.
const (
	StorefrontStoreIDStart  = 100001
	StorefrontStoreIDEnd    = 699999
	MarketplaceStoreIDStart = 700001
	MarketplaceStoreIDEnd   = 999999
)

// Outlet represents a physical or virtual store on one platform.
type Outlet struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Platform Platform  `gorm:"type:varchar(50);not null;index:idx_outlets_platform" json:"platform"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	StoreID  int       `gorm:"uniqueIndex:idx_outlets_store_id" json:"storeId"`
	Location string    `gorm:"type:varchar(255)" json:"location"`

	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Bindings []OutletBinding `gorm:"foreignKey:OutletID" json:"bindings,omitempty"`
}

// TableName specifies the table name for Outlet
func (Outlet) TableName() string {
	return "outlets"
}

// StoreIDRange returns the inclusive store-ID bounds for a platform.
func StoreIDRange(platform Platform) (int, int, error) {
	switch platform {
	case PlatformStorefront:
		return StorefrontStoreIDStart, StorefrontStoreIDEnd, nil
	case PlatformMarketplace:
		return MarketplaceStoreIDStart, MarketplaceStoreIDEnd, nil
	default:
		return 0, 0, fmt.Errorf("unknown platform %q", platform)
	}
}

// BeforeCreate assigns the next free store ID within the platform's range
// when the caller did not provide one.
func (o *Outlet) BeforeCreate(tx *gorm.DB) error {
	if o.StoreID != 0 {
		return nil
	}
	start, end, err := StoreIDRange(o.Platform)
	if err != nil {
		return err
	}
	var maxID *int
	if err := tx.Model(&Outlet{}).
		Where("store_id BETWEEN ? AND ?", start, end).
		Select("MAX(store_id)").
		Scan(&maxID).Error; err != nil {
		return fmt.Errorf("failed to allocate store id: %w", err)
	}
	next := start
	if maxID != nil {
		next = *maxID + 1
	}
	if next > end {
		return fmt.Errorf("store id range exhausted for platform %s", o.Platform)
	}
	o.StoreID = next
	return nil
}
