package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrItemNotFound signals a missing item.
	ErrItemNotFound = errors.New("item not found")
	// ErrUserNotFound signals a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrImageNotFound signals a missing stored image.
	ErrImageNotFound = errors.New("image not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput signals a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden signals an operation on an item the caller does not own.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated signals a missing caller identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrImageEncoding signals an unreadable query image.
	ErrImageEncoding = errors.New("image encoding failed")
	// ErrCatalogUnavailable signals that the candidate item list could not be fetched.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrComparisonFailed signals a vision comparator failure or malformed output.
	ErrComparisonFailed = errors.New("image comparison failed")
	// ErrVisionQuotaExceeded signals an exhausted vision token budget.
	ErrVisionQuotaExceeded = errors.New("vision quota exceeded")
)

// EncodingError reports a query image that could not be read or encoded.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %v", ErrImageEncoding.Error(), e.Err)
}

func (e *EncodingError) Unwrap() []error { return []error{ErrImageEncoding, e.Err} }

// CatalogError reports a failure to list candidate items.
type CatalogError struct {
	Err error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCatalogUnavailable.Error(), e.Err)
}

func (e *CatalogError) Unwrap() []error { return []error{ErrCatalogUnavailable, e.Err} }

// ComparisonError reports a failed batch comparison. Batch-scoped: it is
// logged and absorbed by the search orchestrator, never returned to callers.
type ComparisonError struct {
	Batch int
	Err   error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("%s (batch %d): %v", ErrComparisonFailed.Error(), e.Batch, e.Err)
}

func (e *ComparisonError) Unwrap() []error { return []error{ErrComparisonFailed, e.Err} }

// NewEncodingError wraps err as an EncodingError.
func NewEncodingError(err error) error {
	return &EncodingError{Err: err}
}

// NewCatalogError wraps err as a CatalogError.
func NewCatalogError(err error) error {
	return &CatalogError{Err: err}
}
