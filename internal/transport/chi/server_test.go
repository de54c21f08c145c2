package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
	domusage "github.com/kailas-cloud/lostfound/internal/domain/usage"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
)

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestCreateUser(t *testing.T) {
	d := newDeps()
	d.users.registerFn = func(_ context.Context, email, username string) (domuser.User, error) {
		if email != "ana@campus.edu" || username != "ana" {
			t.Errorf("register(%q, %q)", email, username)
		}
		return domuser.Reconstruct("u-1", email, username, 1740787200000), nil
	}

	req := httptest.NewRequest(http.MethodPost, "/users",
		strings.NewReader(`{"email":"ana@campus.edu","username":"ana"}`))
	rr := do(t, d.handler(), req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	var resp UserResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "u-1" || resp.Email != "ana@campus.edu" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCreateUser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  ErrorResponseCode
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, ErrorResponseCodeBadRequest},
		{"duplicate", `{"email":"a@b.c"}`, fmt.Errorf("create user: %w", domain.ErrAlreadyExists),
			http.StatusConflict, ErrorResponseCodeConflict},
		{"invalid", `{"email":"nope"}`, fmt.Errorf("%w: email is invalid", domain.ErrInvalidInput),
			http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"internal", `{"email":"a@b.c"}`, errors.New("redis: connection reset"),
			http.StatusInternalServerError, ErrorResponseCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			d.users.registerFn = func(context.Context, string, string) (domuser.User, error) {
				return domuser.User{}, tt.err
			}
			rr := do(t, d.handler(), httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(tt.body)))

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			resp := decodeError(t, rr)
			if resp.Code != tt.wantErr {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantErr)
			}
			if strings.Contains(resp.Message, "redis") {
				t.Errorf("internal cause leaked: %q", resp.Message)
			}
		})
	}
}

func TestListUserItems_SplitsByType(t *testing.T) {
	d := newDeps()
	d.users.getFn = func(_ context.Context, id string) (domuser.User, error) {
		return domuser.Reconstruct(id, "a@b.c", "", 0), nil
	}
	d.items.listByOwnerFn = func(_ context.Context, owner string) ([]domitem.Item, error) {
		return []domitem.Item{
			testItem(t, "i-1", owner, domitem.TypeLost),
			testItem(t, "i-2", owner, domitem.TypeFound),
			testItem(t, "i-3", owner, domitem.TypeLost),
		}, nil
	}

	rr := do(t, d.handler(), httptest.NewRequest(http.MethodGet, "/users/u-1/items", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp UserItemsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Lost) != 2 || len(resp.Found) != 1 || resp.Found[0].ID != "i-2" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestListUserItems_UnknownUser(t *testing.T) {
	d := newDeps()
	d.users.getFn = func(context.Context, string) (domuser.User, error) {
		return domuser.User{}, domain.ErrUserNotFound
	}
	rr := do(t, d.handler(), httptest.NewRequest(http.MethodGet, "/users/ghost/items", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestReportItem_JSON(t *testing.T) {
	d := newDeps()
	d.items.reportFn = func(
		_ context.Context, actor string, dr domitem.Draft, image *imagecodec.Blob,
	) (domitem.Item, error) {
		if actor != "u-1" {
			t.Errorf("actor = %q", actor)
		}
		if dr.Title != "Blue backpack" || dr.Type != "lost" {
			t.Errorf("draft = %+v", dr)
		}
		if image != nil {
			t.Error("JSON body must not carry an image")
		}
		return testItem(t, "i-1", actor, domitem.TypeLost), nil
	}

	req := httptest.NewRequest(http.MethodPost, "/items",
		strings.NewReader(`{"type":"lost","title":"Blue backpack","category":"accessories"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(UserIDHeader, "u-1")
	rr := do(t, d.handler(), req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	var resp ItemResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "i-1" || resp.OwnerID != "u-1" || resp.Status != "pending" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestReportItem_Multipart(t *testing.T) {
	d := newDeps()
	var gotImage *imagecodec.Blob
	d.items.reportFn = func(
		_ context.Context, actor string, dr domitem.Draft, image *imagecodec.Blob,
	) (domitem.Item, error) {
		gotImage = image
		if dr.Building != "Library" || dr.Type != "found" {
			t.Errorf("draft = %+v", dr)
		}
		return testItem(t, "i-1", actor, domitem.TypeFound), nil
	}

	body, ct := multipartBody(t, map[string]string{
		"type": "found", "title": "Keys", "category": "keys", "building": "Library",
	}, pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/items", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set(UserIDHeader, "u-1")
	rr := do(t, d.handler(), req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if gotImage == nil {
		t.Fatal("image part was not passed to the service")
	}
	if !bytes.Equal(gotImage.Data, pngHeader) || gotImage.ContentType != "image/png" {
		t.Errorf("image = %q (%s)", gotImage.Data, gotImage.ContentType)
	}
}

func TestReportItem_ImageTooLarge(t *testing.T) {
	d := newDeps()
	d.items.reportFn = func(context.Context, string, domitem.Draft, *imagecodec.Blob) (domitem.Item, error) {
		t.Fatal("service must not be called")
		return domitem.Item{}, nil
	}

	body, ct := multipartBody(t, map[string]string{"type": "lost", "title": "x"},
		append(append([]byte{}, pngHeader...), make([]byte, 2048)...))
	req := httptest.NewRequest(http.MethodPost, "/items", body)
	req.Header.Set("Content-Type", ct)
	rr := do(t, d.handler(), req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}

func TestReportItem_ServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  ErrorResponseCode
	}{
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, ErrorResponseCodeUnauthorized},
		{"validation", fmt.Errorf("%w: title is required", domain.ErrInvalidInput),
			http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"unreadable image", domain.NewEncodingError(errors.New("not an image")),
			http.StatusBadRequest, ErrorResponseCodeImageUnreadable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			d.items.reportFn = func(context.Context, string, domitem.Draft, *imagecodec.Blob) (domitem.Item, error) {
				return domitem.Item{}, tt.err
			}
			req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"title":""}`))
			rr := do(t, d.handler(), req)
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if got := decodeError(t, rr); got.Code != tt.wantErr {
				t.Errorf("code = %s, want %s", got.Code, tt.wantErr)
			}
		})
	}
}

func TestReportItem_ValidationMessage(t *testing.T) {
	d := newDeps()
	d.items.reportFn = func(context.Context, string, domitem.Draft, *imagecodec.Blob) (domitem.Item, error) {
		return domitem.Item{}, fmt.Errorf("report: %w", fmt.Errorf("%w: title is required", domain.ErrInvalidInput))
	}
	rr := do(t, d.handler(), httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{}`)))
	if got := decodeError(t, rr); got.Message != "invalid input: title is required" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestListItems_BindsQuery(t *testing.T) {
	d := newDeps()
	var got domitem.Filter
	d.items.listFn = func(_ context.Context, f domitem.Filter) (itemuc.Page, error) {
		got = f
		return itemuc.Page{
			Items:      []domitem.Item{testItem(t, "i-1", "u-1", domitem.TypeLost)},
			NextCursor: "20",
		}, nil
	}

	rr := do(t, d.handler(), httptest.NewRequest(http.MethodGet,
		"/items?type=lost&category=keys&status=pending&q=wallet&from=2025-01-01&to=2025-02-01&owner=u-9&cursor=20&limit=5",
		http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	want := domitem.Filter{
		Type: domitem.TypeLost, Category: domitem.CategoryKeys, Status: domitem.StatusPending,
		OwnerID: "u-9", Keyword: "wallet", From: "2025-01-01", To: "2025-02-01", Cursor: "20", Limit: 5,
	}
	if got != want {
		t.Errorf("filter = %+v, want %+v", got, want)
	}

	var resp ItemListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor != "20" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestListItems_BadLimit(t *testing.T) {
	d := newDeps()
	rr := do(t, d.handler(), httptest.NewRequest(http.MethodGet, "/items?limit=abc", http.NoBody))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if got := decodeError(t, rr); got.Code != ErrorResponseCodeBadRequest {
		t.Errorf("code = %s", got.Code)
	}
}

func TestUpdateItem_PatchFields(t *testing.T) {
	d := newDeps()
	d.items.updateFn = func(
		_ context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob,
	) (domitem.Item, error) {
		if actor != "u-1" || id != "i-1" {
			t.Errorf("actor/id = %s/%s", actor, id)
		}
		if p.Title == nil || *p.Title != "Red backpack" || p.Category != nil {
			t.Errorf("patch = %+v", p)
		}
		if image != nil {
			t.Error("unexpected image")
		}
		return testItem(t, id, actor, domitem.TypeLost), nil
	}

	req := httptest.NewRequest(http.MethodPatch, "/items/i-1", strings.NewReader(`{"title":"Red backpack"}`))
	req.Header.Set(UserIDHeader, "u-1")
	rr := do(t, d.handler(), req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
}

func TestUpdateItem_MultipartImageOnly(t *testing.T) {
	d := newDeps()
	d.items.updateFn = func(
		_ context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob,
	) (domitem.Item, error) {
		if !p.IsEmpty() {
			t.Errorf("patch should be empty: %+v", p)
		}
		if image == nil {
			t.Error("image missing")
		}
		return testItem(t, id, actor, domitem.TypeLost), nil
	}

	body, ct := multipartBody(t, nil, pngHeader)
	req := httptest.NewRequest(http.MethodPatch, "/items/i-1", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set(UserIDHeader, "u-1")
	if rr := do(t, d.handler(), req); rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
}

func TestSetItemStatus(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"ok", `{"status":"claimed"}`, nil, http.StatusOK},
		{"missing status", `{}`, nil, http.StatusBadRequest},
		{"not owner", `{"status":"claimed"}`, domain.ErrForbidden, http.StatusForbidden},
		{"missing item", `{"status":"claimed"}`, fmt.Errorf("get item: %w", domain.ErrItemNotFound), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			d.items.setStatusFn = func(_ context.Context, actor, id, status string) (domitem.Item, error) {
				if tt.err != nil {
					return domitem.Item{}, tt.err
				}
				it := testItem(t, id, actor, domitem.TypeLost)
				return it.WithStatus(domitem.Status(status), time.Now()), nil
			}
			req := httptest.NewRequest(http.MethodPut, "/items/i-1/status", strings.NewReader(tt.body))
			req.Header.Set(UserIDHeader, "u-1")
			if rr := do(t, d.handler(), req); rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}

func TestDeleteItem(t *testing.T) {
	d := newDeps()
	var deleted string
	d.items.deleteFn = func(_ context.Context, actor, id string) error {
		if actor != "u-1" {
			return domain.ErrForbidden
		}
		deleted = id
		return nil
	}

	req := httptest.NewRequest(http.MethodDelete, "/items/i-7", http.NoBody)
	req.Header.Set(UserIDHeader, "u-1")
	if rr := do(t, d.handler(), req); rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if deleted != "i-7" {
		t.Errorf("deleted = %q", deleted)
	}

	req = httptest.NewRequest(http.MethodDelete, "/items/i-7", http.NoBody)
	req.Header.Set(UserIDHeader, "u-2")
	if rr := do(t, d.handler(), req); rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func searchRequest(t *testing.T, image []byte) *http.Request {
	t.Helper()
	body, ct := multipartBody(t, nil, image)
	req := httptest.NewRequest(http.MethodPost, "/search/image", body)
	req.Header.Set("Content-Type", ct)
	return req
}

func TestSearchByImage_Results(t *testing.T) {
	d := newDeps()
	d.search.searchFn = func(ctx context.Context, image io.Reader) ([]similarity.Result, error) {
		data, err := io.ReadAll(image)
		if err != nil || !bytes.Equal(data, pngHeader) {
			t.Errorf("image = %q, err = %v", data, err)
		}
		domain.VisionUsageFromContext(ctx).AddBatch(300)
		domain.VisionUsageFromContext(ctx).AddBatch(120)
		return []similarity.Result{
			{ItemID: "i-3", Similarity: 0.91},
			{ItemID: "i-1", Similarity: 0.42},
		}, nil
	}

	rr := do(t, d.handler(), searchRequest(t, pngHeader))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if rr.Header().Get("X-Vision-Tokens") != "420" || rr.Header().Get("X-Vision-Batches") != "2" {
		t.Errorf("vision headers = %v", rr.Header())
	}

	var resp ImageSearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Fallback {
		t.Error("fallback must be false when results exist")
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != "i-3" || resp.Results[1].Similarity != 0.42 {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchByImage_EmptyMeansFallback(t *testing.T) {
	d := newDeps()
	d.search.searchFn = func(context.Context, io.Reader) ([]similarity.Result, error) {
		return []similarity.Result{}, nil
	}

	rr := do(t, d.handler(), searchRequest(t, pngHeader))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["results"]) != "[]" || string(raw["fallback"]) != "true" {
		t.Errorf("body = %s / %s", raw["results"], raw["fallback"])
	}
	if rr.Header().Get("X-Vision-Tokens") != "" {
		t.Error("no vision headers expected without comparator calls")
	}
}

func TestSearchByImage_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  ErrorResponseCode
	}{
		{"unreadable", domain.NewEncodingError(errors.New("read failed")),
			http.StatusBadRequest, ErrorResponseCodeImageUnreadable},
		{"catalog", domain.NewCatalogError(errors.New("redis down")),
			http.StatusServiceUnavailable, ErrorResponseCodeCatalogUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDeps()
			d.search.searchFn = func(context.Context, io.Reader) ([]similarity.Result, error) {
				return nil, tt.err
			}
			rr := do(t, d.handler(), searchRequest(t, pngHeader))
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			got := decodeError(t, rr)
			if got.Code != tt.wantErr {
				t.Errorf("code = %s, want %s", got.Code, tt.wantErr)
			}
			if strings.Contains(got.Message, "redis") {
				t.Errorf("cause leaked: %q", got.Message)
			}
		})
	}
}

func TestSearchByImage_BadRequests(t *testing.T) {
	d := newDeps()
	d.search.searchFn = func(context.Context, io.Reader) ([]similarity.Result, error) {
		t.Fatal("search must not be called")
		return nil, nil
	}
	h := d.handler()

	// no image part
	if rr := do(t, h, searchRequest(t, nil)); rr.Code != http.StatusBadRequest {
		t.Errorf("missing image: status = %d", rr.Code)
	}

	// not multipart
	req := httptest.NewRequest(http.MethodPost, "/search/image", bytes.NewReader(pngHeader))
	req.Header.Set("Content-Type", "image/png")
	if rr := do(t, h, req); rr.Code != http.StatusBadRequest {
		t.Errorf("raw body: status = %d", rr.Code)
	}
}

func TestGetImage(t *testing.T) {
	d := newDeps()
	d.images.blobs["img-1"] = imagecodec.Blob{ContentType: "image/png", Data: pngHeader}
	h := d.handler()

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/images/img-1", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "image/png" {
		t.Errorf("content type = %q", rr.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rr.Body.Bytes(), pngHeader) {
		t.Error("body mismatch")
	}

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/images/missing", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing image: status = %d", rr.Code)
	}
}

func TestGetUsage(t *testing.T) {
	d := newDeps()
	d.usage.report = domusage.Report{
		PeriodStart: 1740787200000,
		PeriodEnd:   1740873600000,
		Comparisons: 3,
		Tokens:      1500,
		Budget:      domusage.Budget{Limit: 10000, Remaining: 8500, ResetsAt: 1740873600000},
	}
	h := d.handler()

	rr := do(t, h, httptest.NewRequest(http.MethodGet, "/usage?period=day", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp UsageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Period != "day" || resp.Usage.Tokens != 1500 || resp.Usage.Comparisons != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Budget.TokensRemaining != 8500 || resp.Budget.ResetsAt == nil || resp.PeriodStartAt == nil {
		t.Errorf("budget = %+v", resp.Budget)
	}

	rr = do(t, h, httptest.NewRequest(http.MethodGet, "/usage?period=week", http.NoBody))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid period: status = %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	d := newDeps()
	d.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "vision": healthuc.CheckError},
	}

	rr := do(t, d.handler(), httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" || resp.Checks["vision"] != "error" {
		t.Errorf("resp = %+v", resp)
	}
}
