package item

// Patch is a partial update of an item's descriptive fields. Nil means unchanged.
type Patch struct {
	Title       *string
	Category    *string
	Description *string
	Location    *string
	Building    *string
	Date        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.Description == nil &&
		p.Location == nil && p.Building == nil && p.Date == nil
}
