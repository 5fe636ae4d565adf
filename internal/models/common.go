package models

import (
	"database/sql/driver"
	"encoding/json"
)

// Platform represents the supported sales channels
type Platform string

const (
	// PlatformStorefront is the first-party channel; prices carry no margin.
	PlatformStorefront Platform = "STOREFRONT"
	// PlatformMarketplace is the third-party channel; prices carry a margin
	// and are rounded upward so the margin survives rounding.
	PlatformMarketplace Platform = "MARKETPLACE"
)

// IsValid reports whether p is a known platform value.
func (p Platform) IsValid() bool {
	return p == PlatformStorefront || p == PlatformMarketplace
}

// WrapClass determines whether weight-division logic applies to an item
type WrapClass string

const (
	WrapClassWeightDivided WrapClass = "WEIGHT_DIVIDED"
	WrapClassFixedUnit     WrapClass = "FIXED_UNIT"
)

// VariantRole tags an item's position in a weight-variant group.
// The role is derived from the weight division factor once, at write time,
// so read paths never compare decimals to 1 to discover parents.
type VariantRole string

const (
	VariantRoleParent     VariantRole = "PARENT"
	VariantRoleChild      VariantRole = "CHILD"
	VariantRoleStandalone VariantRole = "STANDALONE"
)

// JSONB custom type for PostgreSQL JSONB
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(j))
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*j = JSONB(m)
	return nil
}

// StringList custom type for PostgreSQL JSONB arrays of strings
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(s))
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}
