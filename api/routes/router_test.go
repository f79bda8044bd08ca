package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderdesk-backend/internal/customers"
	"github.com/angelmondragon/orderdesk-backend/internal/orders"
	"github.com/angelmondragon/orderdesk-backend/pkg/config"
	"github.com/angelmondragon/orderdesk-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCustomers struct{}

func (stubCustomers) List(context.Context, string) ([]customers.Customer, error) {
	return []customers.Customer{}, nil
}

type fakeRedis struct {
	stubPinger
	data   map[string]string
	counts map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, counts: map[string]int64{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	switch v := value.(type) {
	case string:
		f.data[key] = v
	case []byte:
		f.data[key] = string(v)
	}
	return true, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeRedis) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		RateLimit: config.RateLimitConfig{
			FBRPreviewWindow:     time.Minute,
			FBRPreviewIPLimit:    100,
			FBRPreviewOrderLimit: 1,
		},
	}
}

func newTestRouter(t *testing.T, store RedisStore, svc orders.Service) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.New(reg).IncPreview("local", "ok")
	return NewRouter(testConfig(), nil, stubPinger{}, store, reg, svc, stubCustomers{})
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	h := newTestRouter(t, newFakeRedis(), nil)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health/ready", "", nil).Code)
}

func TestReadyWithoutRedis(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health/ready", "", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rec := do(h, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orderdesk_fbr_previews_total")
}

func TestTotalsRoute(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rec := do(h, http.MethodPost, "/api/v1/totals", `{"items":[],"shippingAmount":10}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":10`)
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rec := do(h, http.MethodGet, "/api/v1/customers", "", map[string]string{"X-Request-Id": "req-9"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-9", rec.Header().Get("X-Request-Id"))
}

func TestSaveRequiresIdempotencyKey(t *testing.T) {
	h := newTestRouter(t, newFakeRedis(), nil)

	rec := do(h, http.MethodPut, "/api/v1/orders/ord-1", `{"order":{}}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Idempotency-Key")
}

func TestPreviewRateLimitedPerOrder(t *testing.T) {
	h := newTestRouter(t, newFakeRedis(), nil)

	first := do(h, http.MethodPost, "/api/v1/orders/ord-1/fbr/preview", `{"order":{}}`, nil)
	second := do(h, http.MethodPost, "/api/v1/orders/ord-1/fbr/preview", `{"order":{}}`, nil)

	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rec := do(h, http.MethodOptions, "/api/v1/totals", "", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodPost,
	})

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
