package chi

import (
	"time"

	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
)

// ErrorResponseCode is the machine-readable error code in every error body.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest         ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed   ErrorResponseCode = "validation_failed"
	ErrorResponseCodeNotFound           ErrorResponseCode = "not_found"
	ErrorResponseCodeForbidden          ErrorResponseCode = "forbidden"
	ErrorResponseCodeConflict           ErrorResponseCode = "conflict"
	ErrorResponseCodeUnauthorized       ErrorResponseCode = "unauthorized"
	ErrorResponseCodeImageUnreadable    ErrorResponseCode = "image_unreadable"
	ErrorResponseCodeCatalogUnavailable ErrorResponseCode = "catalog_unavailable"
	ErrorResponseCodeQuotaExceeded      ErrorResponseCode = "quota_exceeded"
	ErrorResponseCodeInternalError      ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserResponse describes a registered user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportItemRequest is the JSON body of POST /items. Multipart forms use the same field names.
type ReportItemRequest struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Building     string `json:"building"`
	Date         string `json:"date"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ImageURL     string `json:"image_url"`
}

// PatchItemRequest is the body of PATCH /items/{id}. Absent fields are left unchanged.
type PatchItemRequest struct {
	Title       *string `json:"title,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	Building    *string `json:"building,omitempty"`
	Date        *string `json:"date,omitempty"`
}

// SetStatusRequest is the body of PUT /items/{id}/status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// ItemResponse describes an item.
type ItemResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	Building        string    `json:"building,omitempty"`
	DropoffLocation string    `json:"dropoff_location,omitempty"`
	Date            string    `json:"date,omitempty"`
	Status          string    `json:"status"`
	ImageURL        string    `json:"image_url,omitempty"`
	OwnerID         string    `json:"owner_id"`
	ContactName     string    `json:"contact_name,omitempty"`
	ContactEmail    string    `json:"contact_email,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ItemListResponse is one page of GET /items.
type ItemListResponse struct {
	Items      []ItemResponse `json:"items"`
	NextCursor *string        `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// UserItemsResponse splits a user's reports by type.
type UserItemsResponse struct {
	Lost  []ItemResponse `json:"lost"`
	Found []ItemResponse `json:"found"`
}

// ImageMatch is one scored candidate of an image search.
type ImageMatch struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// ImageSearchResponse is the body of POST /search/image.
// Fallback tells the client to use conventional search instead.
type ImageSearchResponse struct {
	Results  []ImageMatch `json:"results"`
	Fallback bool         `json:"fallback"`
}

// UsageMetrics is the consumption part of a usage report.
type UsageMetrics struct {
	Comparisons int64 `json:"comparisons"`
	Tokens      int64 `json:"tokens"`
}

// BudgetStatus is the budget part of a usage report.
type BudgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Usage         UsageMetrics `json:"usage"`
	Budget        BudgetStatus `json:"budget"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ListItemsParams are the query parameters of GET /items.
type ListItemsParams struct {
	Type     *string `form:"type" json:"type,omitempty"`
	Category *string `form:"category" json:"category,omitempty"`
	Status   *string `form:"status" json:"status,omitempty"`
	Q        *string `form:"q" json:"q,omitempty"`
	From     *string `form:"from" json:"from,omitempty"`
	To       *string `form:"to" json:"to,omitempty"`
	Owner    *string `form:"owner" json:"owner,omitempty"`
	Cursor   *string `form:"cursor" json:"cursor,omitempty"`
	Limit    *int    `form:"limit" json:"limit,omitempty"`
}

// GetUsageParams are the query parameters of GET /usage.
type GetUsageParams struct {
	Period *string `form:"period" json:"period,omitempty"`
}

func itemToResponse(it *domitem.Item) ItemResponse {
	return ItemResponse{
		ID:              it.ID(),
		Type:            string(it.Type()),
		Title:           it.Title(),
		Category:        string(it.Category()),
		Description:     it.Description(),
		Location:        it.Location(),
		Building:        it.Building(),
		DropoffLocation: it.DropoffLocation(),
		Date:            it.Date(),
		Status:          string(it.Status()),
		ImageURL:        it.ImageURL(),
		OwnerID:         it.OwnerID(),
		ContactName:     it.ContactName(),
		ContactEmail:    it.ContactEmail(),
		CreatedAt:       time.UnixMilli(it.CreatedAt()).UTC(),
		UpdatedAt:       time.UnixMilli(it.UpdatedAt()).UTC(),
	}
}

func itemsToResponse(items []domitem.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = itemToResponse(&items[i])
	}
	return out
}

func userToResponse(u *domuser.User) UserResponse {
	return UserResponse{
		ID:        u.ID(),
		Email:     u.Email(),
		Username:  u.Username(),
		CreatedAt: time.UnixMilli(u.CreatedAt()).UTC(),
	}
}

func (r *ReportItemRequest) toDraft() domitem.Draft {
	return domitem.Draft{
		Type:         r.Type,
		Title:        r.Title,
		Category:     r.Category,
		Description:  r.Description,
		Location:     r.Location,
		Building:     r.Building,
		Date:         r.Date,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		ImageURL:     r.ImageURL,
	}
}

func (r *PatchItemRequest) toPatch() domitem.Patch {
	return domitem.Patch{
		Title:       r.Title,
		Category:    r.Category,
		Description: r.Description,
		Location:    r.Location,
		Building:    r.Building,
		Date:        r.Date,
	}
}

func (p *ListItemsParams) toFilter() domitem.Filter {
	f := domitem.Filter{
		Type:     domitem.Type(deref(p.Type)),
		Category: domitem.Category(deref(p.Category)),
		Status:   domitem.Status(deref(p.Status)),
		OwnerID:  deref(p.Owner),
		Keyword:  deref(p.Q),
		From:     deref(p.From),
		To:       deref(p.To),
		Cursor:   deref(p.Cursor),
	}
	if p.Limit != nil {
		f.Limit = *p.Limit
	}
	return f
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
