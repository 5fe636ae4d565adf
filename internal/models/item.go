package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item represents one catalog entry on one platform. The same external code
// listed on both platforms is stored as two independent rows.
type Item struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Platform Platform  `gorm:"type:varchar(50);not null;index:idx_items_platform;uniqueIndex:idx_items_identity" json:"platform"`
	ItemCode string    `gorm:"type:varchar(100);not null;index:idx_items_code;uniqueIndex:idx_items_identity" json:"itemCode"`
	Units    string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_items_identity" json:"units"`
	SKU      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_items_identity" json:"sku"`
	Name     string    `gorm:"type:varchar(500)" json:"name"`

	// Weight-variant configuration
	WrapClass            WrapClass       `gorm:"type:varchar(50);not null;default:'FIXED_UNIT'" json:"wrapClass"`
	WeightDivisionFactor decimal.Decimal `gorm:"type:numeric(10,3);default:1" json:"weightDivisionFactor"`
	OuterCaseQuantity    int             `gorm:"default:1" json:"outerCaseQuantity"`
	VariantRole          VariantRole     `gorm:"type:varchar(20);not null;default:'STANDALONE';index:idx_items_role" json:"variantRole"`

	// Pricing rules
	MarginOverride *decimal.Decimal `gorm:"type:numeric(6,2)" json:"marginOverride,omitempty"`
	MinimumQty     int              `gorm:"default:0" json:"minimumQty"`

	// Central locks. A locked price silently survives imports; a locked
	// status forces the binding inactive on every touch.
	PriceLocked  bool `gorm:"default:false" json:"priceLocked"`
	StatusLocked bool `gorm:"default:false" json:"statusLocked"`

	IsActive  bool      `gorm:"default:true;index:idx_items_active" json:"isActive"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`

	// Relationships
	Bindings []OutletBinding `gorm:"foreignKey:ItemID" json:"bindings,omitempty"`
}

// TableName specifies the table name for Item
func (Item) TableName() string {
	return "items"
}

// BeforeSave caches the variant role so read paths never re-derive it.
func (i *Item) BeforeSave(tx *gorm.DB) error {
	i.VariantRole = DeriveVariantRole(i.WrapClass, i.WeightDivisionFactor)
	return nil
}

// DeriveVariantRole computes the role an item plays in its variant group.
func DeriveVariantRole(class WrapClass, factor decimal.Decimal) VariantRole {
	if class != WrapClassWeightDivided {
		return VariantRoleStandalone
	}
	if factor.GreaterThan(decimal.NewFromInt(1)) {
		return VariantRoleChild
	}
	return VariantRoleParent
}

// IsParent reports whether the item is the canonical 1-unit variant.
func (i *Item) IsParent() bool {
	return i.VariantRole == VariantRoleParent
}

// IsWeightDivided reports whether weight-division logic applies.
func (i *Item) IsWeightDivided() bool {
	return i.WrapClass == WrapClassWeightDivided
}
