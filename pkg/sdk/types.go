package lostfound

import (
	"time"

	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

// ItemType distinguishes lost reports from found reports.
type ItemType string

// ItemType constants.
const (
	TypeLost  ItemType = "lost"
	TypeFound ItemType = "found"
)

// ItemStatus is the lifecycle state of an item.
type ItemStatus string

// ItemStatus constants.
const (
	StatusPending   ItemStatus = "pending"
	StatusFound     ItemStatus = "found"
	StatusClaimed   ItemStatus = "claimed"
	StatusDelivered ItemStatus = "delivered"
)

// Item is a lost or found report.
type Item struct {
	ID              string
	Type            ItemType
	Title           string
	Category        string
	Description     string
	Location        string
	Building        string
	DropoffLocation string
	Date            string // YYYY-MM-DD
	Status          ItemStatus
	ImageURL        string
	OwnerID         string
	ContactName     string
	ContactEmail    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemDraft is the reporter-supplied part of a new item.
// ContactName and ContactEmail default to the reporter's profile.
type ItemDraft struct {
	Type         ItemType
	Title        string
	Category     string
	Description  string
	Location     string
	Building     string
	Date         string
	ContactName  string
	ContactEmail string
	// ImageURL references an externally hosted photo. Ignored when an image is uploaded.
	ImageURL string
}

// ItemPatch changes descriptive fields of an item. Nil fields stay unchanged.
type ItemPatch struct {
	Title       *string
	Category    *string
	Description *string
	Location    *string
	Building    *string
	Date        *string
}

// ListOptions filters a catalog listing. Zero fields match everything.
type ListOptions struct {
	Type     ItemType
	Category string
	Status   ItemStatus
	OwnerID  string
	Keyword  string
	From     string // inclusive, YYYY-MM-DD
	To       string // inclusive, YYYY-MM-DD
	Cursor   string
	Limit    int
}

// ItemPage is one page of a listing. NextCursor is empty on the last page.
type ItemPage struct {
	Items      []Item
	NextCursor string
}

// User is a registered campus user.
type User struct {
	ID        string
	Email     string
	Username  string
	CreatedAt time.Time
}

// Match is an item whose photo resembles the query image.
type Match struct {
	ItemID     string
	Similarity float64
}

func itemFromDomain(it *domitem.Item) Item {
	return Item{
		ID:              it.ID(),
		Type:            ItemType(it.Type()),
		Title:           it.Title(),
		Category:        string(it.Category()),
		Description:     it.Description(),
		Location:        it.Location(),
		Building:        it.Building(),
		DropoffLocation: it.DropoffLocation(),
		Date:            it.Date(),
		Status:          ItemStatus(it.Status()),
		ImageURL:        it.ImageURL(),
		OwnerID:         it.OwnerID(),
		ContactName:     it.ContactName(),
		ContactEmail:    it.ContactEmail(),
		CreatedAt:       time.UnixMilli(it.CreatedAt()).UTC(),
		UpdatedAt:       time.UnixMilli(it.UpdatedAt()).UTC(),
	}
}

func itemsFromDomain(items []domitem.Item) []Item {
	out := make([]Item, len(items))
	for i := range items {
		out[i] = itemFromDomain(&items[i])
	}
	return out
}

func userFromDomain(u *domuser.User) User {
	return User{
		ID:        u.ID(),
		Email:     u.Email(),
		Username:  u.Username(),
		CreatedAt: time.UnixMilli(u.CreatedAt()).UTC(),
	}
}

func matchesFromDomain(results []similarity.Result) []Match {
	out := make([]Match, len(results))
	for i, r := range results {
		out[i] = Match{ItemID: r.ItemID, Similarity: r.Similarity}
	}
	return out
}

func (d *ItemDraft) toDomain() domitem.Draft {
	return domitem.Draft{
		Type:         string(d.Type),
		Title:        d.Title,
		Category:     d.Category,
		Description:  d.Description,
		Location:     d.Location,
		Building:     d.Building,
		Date:         d.Date,
		ContactName:  d.ContactName,
		ContactEmail: d.ContactEmail,
		ImageURL:     d.ImageURL,
	}
}

func (p *ItemPatch) toDomain() domitem.Patch {
	return domitem.Patch{
		Title:       p.Title,
		Category:    p.Category,
		Description: p.Description,
		Location:    p.Location,
		Building:    p.Building,
		Date:        p.Date,
	}
}

func (o *ListOptions) toDomain() domitem.Filter {
	return domitem.Filter{
		Type:     domitem.Type(o.Type),
		Category: domitem.Category(o.Category),
		Status:   domitem.Status(o.Status),
		OwnerID:  o.OwnerID,
		Keyword:  o.Keyword,
		From:     o.From,
		To:       o.To,
		Cursor:   o.Cursor,
		Limit:    o.Limit,
	}
}
