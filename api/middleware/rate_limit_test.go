package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func previewRouter(policy RateLimitPolicy, store rateLimiterStore) http.Handler {
	r := chi.NewRouter()
	r.With(RateLimit(policy, store, nil)).Post("/orders/{orderId}/fbr/preview", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	handler := previewRouter(NewRateLimitPolicy("fbr_preview", time.Minute, 2, 2), newFakeRateStore())

	req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/fbr/preview", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRateLimit_OrderLimitTriggersAcrossClients(t *testing.T) {
	handler := previewRouter(NewRateLimitPolicy("fbr_preview", time.Minute, 0, 2), newFakeRateStore())

	addrs := []string{"1.1.1.1:1", "2.2.2.2:2", "3.3.3.3:3"}
	for i, addr := range addrs {
		req := httptest.NewRequest(http.MethodPost, "/orders/ord-7/fbr/preview", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("expected success before limit, got %d", rec.Code)
		case i == 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
				t.Fatalf("unexpected code: %s", payload.Error.Code)
			}
		}
	}
}

func TestRateLimit_IPLimitTriggers(t *testing.T) {
	handler := previewRouter(NewRateLimitPolicy("fbr_preview", time.Minute, 1, 0), newFakeRateStore())

	for i, orderID := range []string{"ord-1", "ord-2"} {
		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/fbr/preview", nil)
		req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("expected success, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	}
}

func TestRateLimit_StoreFailureIsDependencyError(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	handler := previewRouter(NewRateLimitPolicy("fbr_preview", time.Minute, 1, 1), store)

	req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/fbr/preview", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable && rec.Code != http.StatusBadGateway {
		t.Fatalf("expected dependency status, got %d", rec.Code)
	}
}

func TestRateLimit_DisabledPolicyPassesThrough(t *testing.T) {
	handler := previewRouter(NewRateLimitPolicy("fbr_preview", 0, 1, 1), nil)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/fbr/preview", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}
