package enums

import "fmt"

// CatalogItemStatus marks whether a supplier catalog entry can be ordered.
type CatalogItemStatus string

const (
	CatalogItemStatusActive   CatalogItemStatus = "active"
	CatalogItemStatusInactive CatalogItemStatus = "inactive"
)

var validCatalogItemStatuses = []CatalogItemStatus{
	CatalogItemStatusActive,
	CatalogItemStatusInactive,
}

func (s CatalogItemStatus) String() string {
	return string(s)
}

func (s CatalogItemStatus) IsValid() bool {
	for _, candidate := range validCatalogItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseCatalogItemStatus(value string) (CatalogItemStatus, error) {
	for _, candidate := range validCatalogItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog item status %q", value)
}
