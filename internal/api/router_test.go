package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/holasaidlola/shop-analytics/internal/storage"
)

type deniedLimiter struct{}

func (deniedLimiter) Allow() bool { return false }

func TestTokenBucketLimiter(t *testing.T) {
	limiter := newTokenBucketLimiter(1, 1)
	if !limiter.Allow() {
		t.Fatalf("expected first request to pass")
	}
	if limiter.Allow() {
		t.Fatalf("expected second request to be limited")
	}

	// Non-positive settings are clamped rather than disabling the limiter.
	clamped := newTokenBucketLimiter(0, 0)
	if !clamped.Allow() {
		t.Fatalf("expected clamped limiter to allow a request")
	}
}

func TestRateLimitMiddlewareNilPassesThrough(t *testing.T) {
	router := setupTestRouter(t, &stubSource{})

	passthrough := rateLimitMiddleware(nil, router)
	rec := doRequest(t, passthrough, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterRejectsWhenLimited(t *testing.T) {
	store := storage.NewMemoryStorage()
	handler := NewHandler(&stubSource{}, store, newTestEngine(t), "fixture")
	router := NewRouter(handler, zaptest.NewLogger(t), WithLogging(false), WithRateLimiter(deniedLimiter{}))

	rec := doRequest(t, router, http.MethodGet, "/api/health")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := setupTestRouter(t, &stubSource{})

	t.Run("generates an ID", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/api/health")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("expected generated request ID header")
		}
	})

	t.Run("echoes a provided ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "trace-me")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "trace-me" {
			t.Fatalf("expected echoed request ID, got %q", got)
		}
	})
}

func TestCORSPreflight(t *testing.T) {
	router := setupTestRouter(t, &stubSource{})

	rec := doRequest(t, router, http.MethodOptions, "/api/refresh")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS headers on preflight")
	}
}

func TestUnknownRoute(t *testing.T) {
	router := setupTestRouter(t, &stubSource{})

	rec := doRequest(t, router, http.MethodGet, "/api/unknown")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
