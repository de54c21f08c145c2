package item

import "fmt"

// Type distinguishes lost reports from found reports.
type Type string

// Item types.
const (
	TypeLost  Type = "lost"
	TypeFound Type = "found"
)

// Status is the lifecycle state of an item.
type Status string

// Item statuses.
const (
	StatusPending   Status = "pending"
	StatusFound     Status = "found"
	StatusClaimed   Status = "claimed"
	StatusDelivered Status = "delivered"
)

// Category groups items for browsing.
type Category string

// Item categories.
const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryAccessories Category = "accessories"
	CategoryBooks       Category = "books"
	CategoryKeys        Category = "keys"
	CategoryIDCards     Category = "id-cards"
	CategoryOther       Category = "other"
)

var validCategories = map[Category]bool{
	CategoryElectronics: true,
	CategoryClothing:    true,
	CategoryAccessories: true,
	CategoryBooks:       true,
	CategoryKeys:        true,
	CategoryIDCards:     true,
	CategoryOther:       true,
}

// ParseType validates a type string.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeLost, TypeFound:
		return t, nil
	default:
		return "", fmt.Errorf("unknown item type %q (expected lost or found)", s)
	}
}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusFound, StatusClaimed, StatusDelivered:
		return st, nil
	default:
		return "", fmt.Errorf("unknown item status %q", s)
	}
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !validCategories[c] {
		return "", fmt.Errorf("unknown item category %q", s)
	}
	return c, nil
}
