package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	domusage "github.com/kailas-cloud/lostfound/internal/domain/usage"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
)

// UserIDHeader carries the caller identity set by the upstream auth proxy.
const UserIDHeader = "X-User-ID"

// DefaultMaxImageBytes caps uploaded photos unless WithMaxImageBytes says otherwise.
const DefaultMaxImageBytes = 10 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	items         ItemService
	users         UserService
	search        ImageSearcher
	images        ImageReader
	usage         UsageReporter
	health        HealthChecker
	logger        *zap.Logger
	maxImageBytes int64
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	items ItemService,
	users UserService,
	search ImageSearcher,
	images ImageReader,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		items:         items,
		users:         users,
		search:        search,
		images:        images,
		usage:         usage,
		health:        health,
		logger:        logger,
		maxImageBytes: DefaultMaxImageBytes,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrImageEncoding, http.StatusBadRequest, ErrorResponseCodeImageUnreadable),
		sentinelHandler(domain.ErrItemNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrUserNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrImageNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, ErrorResponseCodeUnauthorized),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorResponseCodeForbidden),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorResponseCodeConflict),
		sentinelHandler(domain.ErrCatalogUnavailable,
			http.StatusServiceUnavailable, ErrorResponseCodeCatalogUnavailable),
		sentinelHandler(domain.ErrVisionQuotaExceeded,
			http.StatusPaymentRequired, ErrorResponseCodeQuotaExceeded),
	}
	return s
}

// WithMaxImageBytes sets the upload size limit. n <= 0 keeps the current limit.
func (s *Server) WithMaxImageBytes(n int64) *Server {
	if n > 0 {
		s.maxImageBytes = n
	}
	return s
}

// CreateUser handles POST /users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	u, err := s.users.Register(r.Context(), req.Email, req.Username)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userToResponse(&u))
}

// GetUser handles GET /users/{id}.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request, id string) {
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userToResponse(&u))
}

// ListUserItems handles GET /users/{id}/items.
func (s *Server) ListUserItems(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.users.Get(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	items, err := s.items.ListByOwner(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := UserItemsResponse{Lost: []ItemResponse{}, Found: []ItemResponse{}}
	for i := range items {
		if items[i].Type() == domitem.TypeFound {
			resp.Found = append(resp.Found, itemToResponse(&items[i]))
		} else {
			resp.Lost = append(resp.Lost, itemToResponse(&items[i]))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReportItem handles POST /items. Accepts JSON or multipart/form-data with an optional image part.
func (s *Server) ReportItem(w http.ResponseWriter, r *http.Request) {
	var req ReportItemRequest
	upload, err := s.decodeItemBody(w, r, &req, reportFormFields(&req))
	if err != nil {
		s.writeBodyError(w, err)
		return
	}

	it, err := s.items.Report(r.Context(), actorFrom(r), req.toDraft(), upload)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemToResponse(&it))
}

// ListItems handles GET /items.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request, params ListItemsParams) {
	page, err := s.items.List(r.Context(), params.toFilter())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := ItemListResponse{Items: itemsToResponse(page.Items)}
	if page.NextCursor != "" {
		resp.NextCursor = &page.NextCursor
		resp.HasMore = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetItem handles GET /items/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request, id string) {
	it, err := s.items.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(&it))
}

// UpdateItem handles PATCH /items/{id}. Accepts JSON or multipart/form-data with an optional image part.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request, id string) {
	var req PatchItemRequest
	upload, err := s.decodeItemBody(w, r, &req, patchFormFields(&req))
	if err != nil {
		s.writeBodyError(w, err)
		return
	}

	it, err := s.items.Update(r.Context(), actorFrom(r), id, req.toPatch(), upload)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(&it))
}

// SetItemStatus handles PUT /items/{id}/status.
func (s *Server) SetItemStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "status is required")
		return
	}

	it, err := s.items.SetStatus(r.Context(), actorFrom(r), id, req.Status)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(&it))
}

// DeleteItem handles DELETE /items/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.items.Delete(r.Context(), actorFrom(r), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchByImage handles POST /search/image.
// An empty result list sets fallback so clients switch to conventional search.
func (s *Server) SearchByImage(w http.ResponseWriter, r *http.Request) {
	file, err := s.openUpload(w, r)
	if err != nil {
		s.writeBodyError(w, err)
		return
	}
	if file == nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "image file is required")
		return
	}
	defer file.Close()

	ctx, usage := domain.NewContextWithVisionUsage(r.Context())
	results, err := s.search.Search(ctx, file)
	setVisionHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := ImageSearchResponse{Results: make([]ImageMatch, len(results)), Fallback: len(results) == 0}
	for i, res := range results {
		resp.Results[i] = ImageMatch{ID: res.ItemID, Similarity: res.Similarity}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetImage handles GET /images/{id}.
func (s *Server) GetImage(w http.ResponseWriter, r *http.Request, id string) {
	blob, err := s.images.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams) {
	period, err := domusage.ParsePeriod(deref(params.Period))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)

	resp := UsageResponse{
		Period: string(report.Period),
		Usage: UsageMetrics{
			Comparisons: report.Comparisons,
			Tokens:      report.Tokens,
		},
		Budget: BudgetStatus{
			TokensLimit:     report.Budget.Limit,
			TokensRemaining: report.Budget.Remaining,
			IsExhausted:     report.Budget.Exhausted,
		},
	}

	if report.PeriodStart > 0 {
		start := time.UnixMilli(report.PeriodStart).UTC()
		end := time.UnixMilli(report.PeriodEnd).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	if report.Budget.ResetsAt > 0 {
		resetsAt := time.UnixMilli(report.Budget.ResetsAt).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func actorFrom(r *http.Request) string {
	return r.Header.Get(UserIDHeader)
}

func setVisionHeaders(w http.ResponseWriter, usage *domain.VisionUsage) {
	if usage != nil && usage.Batches > 0 {
		w.Header().Set("X-Vision-Tokens", strconv.Itoa(usage.TotalTokens))
		w.Header().Set("X-Vision-Batches", strconv.Itoa(usage.Batches))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrImageEncoding,
		domain.ErrItemNotFound,
		domain.ErrUserNotFound,
		domain.ErrImageNotFound,
		domain.ErrNotFound,
		domain.ErrUnauthenticated,
		domain.ErrForbidden,
		domain.ErrAlreadyExists,
		domain.ErrCatalogUnavailable,
		domain.ErrVisionQuotaExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler handles ErrInvalidInput. Validation messages describe the
// rejected input only, so the full chain is returned to the client.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, validationMessage(err))
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
