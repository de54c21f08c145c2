package item

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format for the day an item was lost or found.
const DateLayout = "2006-01-02"

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxLocationLen    = 300
)

// Draft is the user-supplied part of a new item report.
type Draft struct {
	Type         string
	Title        string
	Category     string
	Description  string
	Location     string
	Building     string
	Date         string
	ContactName  string
	ContactEmail string
	ImageURL     string
}

// Snapshot is the flat representation used for storage hydration.
type Snapshot struct {
	ID              string
	Type            Type
	Title           string
	Category        Category
	Description     string
	Location        string
	Building        string
	DropoffLocation string
	Date            string
	Status          Status
	ImageURL        string
	OwnerID         string
	ContactName     string
	ContactEmail    string
	CreatedAt       int64 // unix millis
	UpdatedAt       int64 // unix millis
}

// Item is a lost or found report (immutable value object).
type Item struct {
	s Snapshot
}

// New validates a draft and creates a pending Item owned by ownerID.
func New(id, ownerID string, d Draft, now time.Time) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("item ID is required")
	}
	if ownerID == "" {
		return Item{}, fmt.Errorf("owner is required")
	}
	t, err := ParseType(d.Type)
	if err != nil {
		return Item{}, err
	}
	c, err := ParseCategory(d.Category)
	if err != nil {
		return Item{}, err
	}

	s := Snapshot{
		ID:           id,
		Type:         t,
		Title:        strings.TrimSpace(d.Title),
		Category:     c,
		Description:  strings.TrimSpace(d.Description),
		Location:     strings.TrimSpace(d.Location),
		Building:     strings.TrimSpace(d.Building),
		Date:         d.Date,
		Status:       StatusPending,
		ImageURL:     d.ImageURL,
		OwnerID:      ownerID,
		ContactName:  d.ContactName,
		ContactEmail: d.ContactEmail,
		CreatedAt:    now.UnixMilli(),
		UpdatedAt:    now.UnixMilli(),
	}
	if s.Location == "" {
		s.Location = s.Building
	}
	if t == TypeFound {
		s.DropoffLocation = DropoffFor(s.Building)
	}

	if err := validate(&s); err != nil {
		return Item{}, err
	}
	return Item{s: s}, nil
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(s Snapshot) Item {
	return Item{s: s}
}

// Snapshot returns a copy of the item's fields.
func (it *Item) Snapshot() Snapshot { return it.s }

// ID returns the item identifier.
func (it *Item) ID() string { return it.s.ID }

// Type returns whether the item was lost or found.
func (it *Item) Type() Type { return it.s.Type }

// Title returns the short item title.
func (it *Item) Title() string { return it.s.Title }

// Category returns the item category.
func (it *Item) Category() Category { return it.s.Category }

// Description returns the free-text description.
func (it *Item) Description() string { return it.s.Description }

// Location returns where the item was lost or found.
func (it *Item) Location() string { return it.s.Location }

// Building returns the campus building, if any.
func (it *Item) Building() string { return it.s.Building }

// DropoffLocation returns the desk holding a found item.
func (it *Item) DropoffLocation() string { return it.s.DropoffLocation }

// Date returns the calendar date (YYYY-MM-DD).
func (it *Item) Date() string { return it.s.Date }

// Status returns the lifecycle state.
func (it *Item) Status() Status { return it.s.Status }

// ImageURL returns the image reference, or "" if the item has no photo.
func (it *Item) ImageURL() string { return it.s.ImageURL }

// HasImage reports whether the item is a candidate for image search.
func (it *Item) HasImage() bool { return it.s.ImageURL != "" }

// OwnerID returns the reporting user.
func (it *Item) OwnerID() string { return it.s.OwnerID }

// ContactName returns the reporter's display name.
func (it *Item) ContactName() string { return it.s.ContactName }

// ContactEmail returns the reporter's email.
func (it *Item) ContactEmail() string { return it.s.ContactEmail }

// CreatedAt returns the creation timestamp (unix millis).
func (it *Item) CreatedAt() int64 { return it.s.CreatedAt }

// UpdatedAt returns the last modification timestamp (unix millis).
func (it *Item) UpdatedAt() int64 { return it.s.UpdatedAt }

// OwnedBy reports whether userID reported this item.
func (it *Item) OwnedBy(userID string) bool {
	return userID != "" && it.s.OwnerID == userID
}

// WithStatus returns a copy with the given status.
func (it *Item) WithStatus(st Status, now time.Time) Item {
	s := it.s
	s.Status = st
	s.UpdatedAt = now.UnixMilli()
	return Item{s: s}
}

// WithImageURL returns a copy referencing a different image.
func (it *Item) WithImageURL(url string, now time.Time) Item {
	s := it.s
	s.ImageURL = url
	s.UpdatedAt = now.UnixMilli()
	return Item{s: s}
}

// Apply returns a validated copy with the patch applied.
func (it *Item) Apply(p Patch, now time.Time) (Item, error) {
	if p.IsEmpty() {
		return Item{}, fmt.Errorf("patch has no fields")
	}
	s := it.s
	if p.Title != nil {
		s.Title = strings.TrimSpace(*p.Title)
	}
	if p.Category != nil {
		c, err := ParseCategory(*p.Category)
		if err != nil {
			return Item{}, err
		}
		s.Category = c
	}
	if p.Description != nil {
		s.Description = strings.TrimSpace(*p.Description)
	}
	if p.Location != nil {
		s.Location = strings.TrimSpace(*p.Location)
	}
	if p.Building != nil {
		s.Building = strings.TrimSpace(*p.Building)
		if s.Type == TypeFound {
			s.DropoffLocation = DropoffFor(s.Building)
		}
	}
	if p.Date != nil {
		s.Date = *p.Date
	}
	s.UpdatedAt = now.UnixMilli()

	if err := validate(&s); err != nil {
		return Item{}, err
	}
	return Item{s: s}, nil
}

func validate(s *Snapshot) error {
	if s.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(s.Title) > maxTitleLen {
		return fmt.Errorf("title too long (max %d)", maxTitleLen)
	}
	if len(s.Description) > maxDescriptionLen {
		return fmt.Errorf("description too long (max %d)", maxDescriptionLen)
	}
	if len(s.Location) > maxLocationLen {
		return fmt.Errorf("location too long (max %d)", maxLocationLen)
	}
	if s.Date != "" {
		if _, err := time.Parse(DateLayout, s.Date); err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD, got %q", s.Date)
		}
	}
	return nil
}
