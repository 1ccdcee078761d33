package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/expiry-tracker/internal/notify"
	"github.com/rcliao/expiry-tracker/internal/store"
)

type mockChecker struct {
	mock.Mock
}

func (m *mockChecker) CheckAndNotify(ctx context.Context) notify.Report {
	args := m.Called(ctx)
	return args.Get(0).(notify.Report)
}

type testServer struct {
	store   *store.SQLiteStore
	checker *mockChecker
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checker := &mockChecker{}
	h := NewHandler(s, checker, logger)
	h.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local) }

	return &testServer{store: s, checker: checker, handler: NewRouter(h, logger)}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type productResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	ExpirationDate string `json:"expiration_date"`
	PurchaseDate   string `json:"purchase_date"`
	Status         struct {
		Label    string `json:"label"`
		Severity string `json:"severity"`
		DaysLeft int    `json:"days_left"`
	} `json:"status"`
}

func TestCreateAndGetProduct(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/products", map[string]string{
		"name":            "Night Cream",
		"category":        "Skincare",
		"expiration_date": "MHD 01.2025",
		"purchase_date":   "2024-10-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[productResponse](t, rec)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "30 days left", created.Status.Label)
	assert.Equal(t, "info", created.Status.Severity)
	assert.Equal(t, 30, created.Status.DaysLeft)
	assert.Contains(t, created.ExpirationDate, "2025-01-31")

	rec = ts.do(t, http.MethodGet, "/api/v1/products/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[productResponse](t, rec)
	assert.Equal(t, "Night Cream", got.Name)
	assert.Contains(t, got.PurchaseDate, "2024-10-01")
}

func TestCreateProduct_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"missing name", map[string]string{"expiration_date": "01.01.2026"}, "Name"},
		{"unparseable date", map[string]string{"name": "x", "expiration_date": "soon"}, "ExpirationDate"},
		{"impossible date", map[string]string{"name": "x", "expiration_date": "31.02.2025"}, "ExpirationDate"},
		{"bad category", map[string]string{"name": "x", "expiration_date": "01.01.2026", "category": "Food"}, "Category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/products", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decode[struct {
				ValidationErrors map[string]string `json:"validation_errors"`
			}](t, rec)
			assert.Contains(t, resp.ValidationErrors, tt.field)
		})
	}
}

func TestListProducts(t *testing.T) {
	ts := newTestServer(t)
	for _, body := range []map[string]string{
		{"name": "later", "expiration_date": "01.06.2025", "category": "Skincare"},
		{"name": "gone", "expiration_date": "01.12.2024", "category": "Skincare"},
		{"name": "scent", "expiration_date": "01.06.2027", "category": "Fragrance"},
	} {
		require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/v1/products", body).Code)
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]productResponse](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, "gone", list[0].Name)
	assert.Equal(t, "error", list[0].Status.Severity)

	list = decode[[]productResponse](t, ts.do(t, http.MethodGet, "/api/v1/products?category=Skincare&limit=1", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "gone", list[0].Name)

	list = decode[[]productResponse](t, ts.do(t, http.MethodGet, "/api/v1/products?q=scen", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "Fragrance", list[0].Category)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/products?limit=x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/products?order_by=price", nil).Code)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	ts := newTestServer(t)
	created := decode[productResponse](t, ts.do(t, http.MethodPost, "/api/v1/products", map[string]string{
		"name": "Gel", "expiration_date": "01.06.2025", "purchase_date": "01.01.2025",
	}))
	path := "/api/v1/products/" + itoa(created.ID)

	rec := ts.do(t, http.MethodPatch, path, map[string]string{
		"expiration_date": "03.01.2025",
		"purchase_date":   "",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[productResponse](t, rec)
	assert.Equal(t, "Gel", updated.Name)
	assert.Equal(t, 2, updated.Status.DaysLeft)
	assert.Empty(t, updated.PurchaseDate)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPatch, path, map[string]string{"category": "Food"}).Code)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPatch, path, map[string]string{"name": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/products/abc", nil).Code)
}

func TestDates(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/dates/extract", map[string]string{"text": "MHD: 12.06.2025 best before"})
	require.Equal(t, http.StatusOK, rec.Code)
	extracted := decode[struct {
		Candidates []string `json:"candidates"`
	}](t, rec)
	assert.Contains(t, extracted.Candidates, "MHD: 12.06.2025")

	rec = ts.do(t, http.MethodPost, "/api/v1/dates/extract", map[string]string{"text": ""})
	assert.JSONEq(t, `{"candidates":[]}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/v1/dates/normalize", map[string]string{"raw": "02.2024"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2024-02-29"}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/v1/dates/normalize", map[string]string{"raw": "31.02.2025"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"could not parse","raw":"31.02.2025"}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/status?expires=20.01.2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"label":"19 days left","severity":"info","days_left":19}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/status?expires=never", nil).Code)
}

func TestCheckNotifications(t *testing.T) {
	ts := newTestServer(t)
	ts.checker.On("CheckAndNotify", mock.Anything).Return(notify.Report{PassID: "01TEST", Skipped: notify.SkippedPermission}).Once()

	rec := ts.do(t, http.MethodPost, "/api/v1/notifications/check", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "01TEST", resp["pass_id"])
	assert.Equal(t, "permission", resp["skipped"])
	ts.checker.AssertExpectations(t)
}

func TestCheckNotifications_NotConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	router := NewRouter(NewHandler(s, nil, logger), logger)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notifications/check", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
