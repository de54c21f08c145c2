package lostfound

import (
	"errors"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrItemNotFound        = domain.ErrItemNotFound
	ErrUserNotFound        = domain.ErrUserNotFound
	ErrAlreadyExists       = domain.ErrAlreadyExists
	ErrInvalidInput        = domain.ErrInvalidInput
	ErrForbidden           = domain.ErrForbidden
	ErrUnauthenticated     = domain.ErrUnauthenticated
	ErrImageEncoding       = domain.ErrImageEncoding
	ErrCatalogUnavailable  = domain.ErrCatalogUnavailable
	ErrVisionQuotaExceeded = domain.ErrVisionQuotaExceeded
	ErrComparisonFailed    = domain.ErrComparisonFailed
)

// ErrVisionNotConfigured is returned by SearchImage when the client was built without WithOpenAI.
var ErrVisionNotConfigured = errors.New("lostfound: vision provider not configured (use WithOpenAI)")

