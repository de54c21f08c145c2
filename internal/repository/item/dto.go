package item

import (
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
)

// itemDoc is the JSON document stored per item. Derived fields feed the FT index.
type itemDoc struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	Building        string `json:"building"`
	DropoffLocation string `json:"dropoff_location"`
	Date            string `json:"date"`
	Status          string `json:"status"`
	ImageURL        string `json:"image_url"`
	OwnerID         string `json:"owner_id"`
	ContactName     string `json:"contact_name"`
	ContactEmail    string `json:"contact_email"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`

	// index-only
	HasImage string `json:"has_image"`
	DateDays *int64 `json:"date_days,omitempty"`
}

func toDoc(it *domitem.Item) itemDoc {
	s := it.Snapshot()
	doc := itemDoc{
		ID:              s.ID,
		Type:            string(s.Type),
		Title:           s.Title,
		Category:        string(s.Category),
		Description:     s.Description,
		Location:        s.Location,
		Building:        s.Building,
		DropoffLocation: s.DropoffLocation,
		Date:            s.Date,
		Status:          string(s.Status),
		ImageURL:        s.ImageURL,
		OwnerID:         s.OwnerID,
		ContactName:     s.ContactName,
		ContactEmail:    s.ContactEmail,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		HasImage:        "0",
	}
	if s.ImageURL != "" {
		doc.HasImage = "1"
	}
	if s.Date != "" {
		if days, err := domitem.DateToUnixDays(s.Date); err == nil {
			doc.DateDays = &days
		}
	}
	return doc
}

func (d *itemDoc) toDomain() domitem.Item {
	return domitem.Reconstruct(domitem.Snapshot{
		ID:              d.ID,
		Type:            domitem.Type(d.Type),
		Title:           d.Title,
		Category:        domitem.Category(d.Category),
		Description:     d.Description,
		Location:        d.Location,
		Building:        d.Building,
		DropoffLocation: d.DropoffLocation,
		Date:            d.Date,
		Status:          domitem.Status(d.Status),
		ImageURL:        d.ImageURL,
		OwnerID:         d.OwnerID,
		ContactName:     d.ContactName,
		ContactEmail:    d.ContactEmail,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	})
}
