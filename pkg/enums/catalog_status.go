package enums

import "fmt"

// CatalogStatus tracks the lifecycle of a catalog item.
type CatalogStatus string

const (
	CatalogStatusDraft      CatalogStatus = "draft"
	CatalogStatusPublished  CatalogStatus = "published"
	CatalogStatusOutOfStock CatalogStatus = "out_of_stock"
	CatalogStatusRemoved    CatalogStatus = "removed"
)

var validCatalogStatuses = []CatalogStatus{
	CatalogStatusDraft,
	CatalogStatusPublished,
	CatalogStatusOutOfStock,
	CatalogStatusRemoved,
}

// String implements fmt.Stringer.
func (s CatalogStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CatalogStatus.
func (s CatalogStatus) IsValid() bool {
	for _, candidate := range validCatalogStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Purchasable reports whether buyers may add items in this status to a cart.
func (s CatalogStatus) Purchasable() bool {
	return s == CatalogStatusPublished
}

// ParseCatalogStatus converts raw input into a CatalogStatus.
func ParseCatalogStatus(value string) (CatalogStatus, error) {
	for _, candidate := range validCatalogStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog status %q", value)
}
