package db

// TagCondition matches a TAG field exactly.
type TagCondition struct {
	Field string
	Value string
}

// RangeCondition bounds a NUMERIC field inclusively. Nil bounds are open.
type RangeCondition struct {
	Field string
	Min   *float64
	Max   *float64
}

// Filter is a backend-agnostic conjunction of conditions.
// Text is matched against TextFields as a full-text query.
type Filter struct {
	Tags       []TagCondition
	Ranges     []RangeCondition
	Text       string
	TextFields []string
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Ranges) == 0 && f.Text == ""
}

// ListQuery is the input for a paginated, sorted listing.
type ListQuery struct {
	IndexName    string
	Filter       Filter
	Offset       int
	Limit        int
	SortBy       string
	SortDesc     bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
