package item

import (
	"fmt"
	"strings"
	"time"
)

// Default and maximum page sizes for listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter selects items for browsing. Zero fields match everything.
type Filter struct {
	Type     Type
	Category Category
	Status   Status
	OwnerID  string
	Keyword  string // matched against title and description
	From     string // inclusive, YYYY-MM-DD
	To       string // inclusive, YYYY-MM-DD
	Cursor   string
	Limit    int
}

// Validate checks enum values and the date range, and normalizes the limit.
func (f *Filter) Validate() error {
	if f.Type != "" {
		if _, err := ParseType(string(f.Type)); err != nil {
			return err
		}
	}
	if f.Category != "" {
		if _, err := ParseCategory(string(f.Category)); err != nil {
			return err
		}
	}
	if f.Status != "" {
		if _, err := ParseStatus(string(f.Status)); err != nil {
			return err
		}
	}

	from, err := parseOptionalDate("from", f.From)
	if err != nil {
		return err
	}
	to, err := parseOptionalDate("to", f.To)
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fmt.Errorf("date range is empty: to %s is before from %s", f.To, f.From)
	}

	f.Keyword = strings.TrimSpace(f.Keyword)

	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	return nil
}

// Matches reports whether it satisfies every set criterion except pagination.
// Stores that cannot push a criterion down use it as a post-filter.
func (f *Filter) Matches(it *Item) bool {
	if f.Type != "" && it.Type() != f.Type {
		return false
	}
	if f.Category != "" && it.Category() != f.Category {
		return false
	}
	if f.Status != "" && it.Status() != f.Status {
		return false
	}
	if f.OwnerID != "" && it.OwnerID() != f.OwnerID {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(it.Title()), kw) &&
			!strings.Contains(strings.ToLower(it.Description()), kw) {
			return false
		}
	}
	if f.From != "" && (it.Date() == "" || it.Date() < f.From) {
		return false
	}
	if f.To != "" && (it.Date() == "" || it.Date() > f.To) {
		return false
	}
	return true
}

// DateToUnixDays converts YYYY-MM-DD to days since the epoch, for numeric range indexes.
func DateToUnixDays(date string) (int64, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", date, err)
	}
	return t.Unix() / 86400, nil
}

func parseOptionalDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", name, v)
	}
	return t, nil
}
