package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface lists every API operation.
type ServerInterface interface {
	// (POST /users)
	CreateUser(w http.ResponseWriter, r *http.Request)
	// (GET /users/{id})
	GetUser(w http.ResponseWriter, r *http.Request, id string)
	// (GET /users/{id}/items)
	ListUserItems(w http.ResponseWriter, r *http.Request, id string)
	// (POST /items)
	ReportItem(w http.ResponseWriter, r *http.Request)
	// (GET /items)
	ListItems(w http.ResponseWriter, r *http.Request, params ListItemsParams)
	// (GET /items/{id})
	GetItem(w http.ResponseWriter, r *http.Request, id string)
	// (PATCH /items/{id})
	UpdateItem(w http.ResponseWriter, r *http.Request, id string)
	// (PUT /items/{id}/status)
	SetItemStatus(w http.ResponseWriter, r *http.Request, id string)
	// (DELETE /items/{id})
	DeleteItem(w http.ResponseWriter, r *http.Request, id string)
	// (POST /search/image)
	SearchByImage(w http.ResponseWriter, r *http.Request)
	// (GET /images/{id})
	GetImage(w http.ResponseWriter, r *http.Request, id string)
	// (GET /usage)
	GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a path or query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %v", e.ParamName, e.Err)
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// serverWrapper binds parameters and dispatches to the ServerInterface.
type serverWrapper struct {
	handler          ServerInterface
	middlewares      []func(http.Handler) http.Handler
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts every route onto opts.BaseRouter (a new router if nil).
func HandlerWithOptions(si ServerInterface, opts ChiServerOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	wrapper := &serverWrapper{
		handler:          si,
		middlewares:      opts.Middlewares,
		errorHandlerFunc: opts.ErrorHandlerFunc,
	}

	r.Post("/users", wrapper.CreateUser)
	r.Get("/users/{id}", wrapper.GetUser)
	r.Get("/users/{id}/items", wrapper.ListUserItems)
	r.Post("/items", wrapper.ReportItem)
	r.Get("/items", wrapper.ListItems)
	r.Get("/items/{id}", wrapper.GetItem)
	r.Patch("/items/{id}", wrapper.UpdateItem)
	r.Put("/items/{id}/status", wrapper.SetItemStatus)
	r.Delete("/items/{id}", wrapper.DeleteItem)
	r.Post("/search/image", wrapper.SearchByImage)
	r.Get("/images/{id}", wrapper.GetImage)
	r.Get("/usage", wrapper.GetUsage)
	r.Get("/health", wrapper.HealthCheck)
	r.Get("/metrics", wrapper.Metrics)
	return r
}

func (sw *serverWrapper) serve(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	var handler http.Handler = h
	for _, mw := range sw.middlewares {
		handler = mw(handler)
	}
	handler.ServeHTTP(w, r)
}

func (sw *serverWrapper) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		sw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (sw *serverWrapper) withID(fn func(w http.ResponseWriter, r *http.Request, id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := sw.pathID(w, r)
		if !ok {
			return
		}
		sw.serve(w, r, func(w http.ResponseWriter, r *http.Request) { fn(w, r, id) })
	}
}

// CreateUser operation middleware.
func (sw *serverWrapper) CreateUser(w http.ResponseWriter, r *http.Request) {
	sw.serve(w, r, sw.handler.CreateUser)
}

// GetUser operation middleware.
func (sw *serverWrapper) GetUser(w http.ResponseWriter, r *http.Request) {
	sw.withID(sw.handler.GetUser)(w, r)
}

// ListUserItems operation middleware.
func (sw *serverWrapper) ListUserItems(w http.ResponseWriter, r *http.Request) {
	sw.withID(sw.handler.ListUserItems)(w, r)
}

// ReportItem operation middleware.
func (sw *serverWrapper) ReportItem(w http.ResponseWriter, r *http.Request) {
	sw.serve(w, r, sw.handler.ReportItem)
}

// ListItems operation middleware.
func (sw *serverWrapper) ListItems(w http.ResponseWriter, r *http.Request) {
	var params ListItemsParams
	query := r.URL.Query()

	bindings := []struct {
		name string
		dest any
	}{
		{"type", &params.Type},
		{"category", &params.Category},
		{"status", &params.Status},
		{"q", &params.Q},
		{"from", &params.From},
		{"to", &params.To},
		{"owner", &params.Owner},
		{"cursor", &params.Cursor},
		{"limit", &params.Limit},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			sw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	sw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		sw.handler.ListItems(w, r, params)
	})
}

// GetItem operation middleware.
func (sw *serverWrapper) GetItem(w http.ResponseWriter, r *http.Request) {
	sw.withID(sw.handler.GetItem)(w, r)
}

// UpdateItem operation middleware.
func (sw *serverWrapper) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sw.withID(sw.handler.UpdateItem)(w, r)
}

// SetItemStatus operation middleware.
func (sw *serverWrapper) SetItemStatus(w http.ResponseWriter, r *http.Request) {
	sw.withID(sw.handler.SetItemStatus)(w, r)
}

// DeleteItem operation middleware.
func (sw *serverWrapper) DeleteItem(w http.ResponseWriter, r *http.Request) {
	sw.withID(sw.handler.DeleteItem)(w, r)
}

// SearchByImage operation middleware.
func (sw *serverWrapper) SearchByImage(w http.ResponseWriter, r *http.Request) {
	sw.serve(w, r, sw.handler.SearchByImage)
}

// GetImage operation middleware.
func (sw *serverWrapper) GetImage(w http.ResponseWriter, r *http.Request) {
	sw.withID(sw.handler.GetImage)(w, r)
}

// GetUsage operation middleware.
func (sw *serverWrapper) GetUsage(w http.ResponseWriter, r *http.Request) {
	var params GetUsageParams
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &params.Period); err != nil {
		sw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "period", Err: err})
		return
	}
	sw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		sw.handler.GetUsage(w, r, params)
	})
}

// HealthCheck operation middleware.
func (sw *serverWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sw.serve(w, r, sw.handler.HealthCheck)
}

// Metrics operation middleware.
func (sw *serverWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	sw.serve(w, r, sw.handler.Metrics)
}
