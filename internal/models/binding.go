package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutletBinding is the per-(item, outlet) materialized price/stock record.
// It is created on the first price or stock touch, never at catalog time,
// and is never implicitly deleted: reset operations null the money fields
// and mark the binding inactive instead.
type OutletBinding struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ItemID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bindings_item_outlet" json:"itemId"`
	OutletID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bindings_item_outlet;index:idx_bindings_outlet" json:"outletId"`

	// Current computed state
	MRP           *decimal.Decimal `gorm:"type:numeric(12,2)" json:"mrp,omitempty"`
	Cost          *decimal.Decimal `gorm:"type:numeric(12,3)" json:"cost,omitempty"`
	SellingPrice  *decimal.Decimal `gorm:"type:numeric(12,2)" json:"sellingPrice,omitempty"`
	ConvertedCost *decimal.Decimal `gorm:"type:numeric(12,3)" json:"convertedCost,omitempty"`
	StockQuantity int              `gorm:"default:0" json:"stockQuantity"`
	IsEnabled     bool             `gorm:"default:true" json:"isEnabled"`

	// Change-detection digest of the last applied (mrp, cost, stock) triple.
	// Used only to skip unchanged rows, never read by business logic.
	ChangeFingerprint string `gorm:"type:varchar(32);index:idx_bindings_fingerprint" json:"-"`

	// Values recorded at the last successful export; the delta window for
	// the next partial export, distinct from the current computed state.
	LastExportedPrice      *decimal.Decimal `gorm:"type:numeric(12,2)" json:"lastExportedPrice,omitempty"`
	LastExportedStockState *int             `gorm:"type:smallint" json:"lastExportedStockState,omitempty"`

	// Promotion window. While active, SellingPrice carries the promotional
	// value and RegularPrice retains the value to restore on expiry.
	PromotionPrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"promotionPrice,omitempty"`
	RegularPrice   *decimal.Decimal `gorm:"type:numeric(12,2)" json:"regularPrice,omitempty"`
	PromotionStart *time.Time       `json:"promotionStart,omitempty"`
	PromotionEnd   *time.Time       `json:"promotionEnd,omitempty"`
	PromotionLive  bool             `gorm:"default:false;index:idx_bindings_promo_live" json:"promotionLive"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Item   *Item   `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Outlet *Outlet `gorm:"foreignKey:OutletID" json:"outlet,omitempty"`
}

// TableName specifies the table name for OutletBinding
func (OutletBinding) TableName() string {
	return "outlet_bindings"
}

// StockState derives the binary availability flag exported to platforms:
// 0 when the binding is disabled or stock does not clear the item's
// minimum quantity, 1 otherwise. StockQuantity is already stored in
// selling units (imports convert fixed-unit feeds into cases), so no
// unit conversion happens here.
func (b *OutletBinding) StockState(item *Item) int {
	if !b.IsEnabled {
		return 0
	}
	minimum := 0
	if item != nil {
		minimum = item.MinimumQty
	}
	if b.StockQuantity <= minimum {
		return 0
	}
	return 1
}

// HasPrice reports whether the binding carries an exportable price.
func (b *OutletBinding) HasPrice() bool {
	return b.SellingPrice != nil
}
