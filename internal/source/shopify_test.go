package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/holasaidlola/shop-analytics/internal/credentials"
)

func testCredentials() credentials.Credentials {
	return credentials.Credentials{
		APIKey:      "key",
		APIPassword: "secret",
		Hostname:    "example.myshopify.com",
		Version:     "2023-04",
	}
}

func newLiveSource(t *testing.T, server *httptest.Server, opts ...ShopifyOption) *ShopifySource {
	t.Helper()

	opts = append(opts, WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	src, err := NewShopifySource(testCredentials(), zaptest.NewLogger(t), opts...)
	if err != nil {
		t.Fatalf("NewShopifySource returned error: %v", err)
	}
	return src
}

func orderJSON(id int64) map[string]any {
	return map[string]any{
		"id":                  id,
		"order_number":        id,
		"name":                fmt.Sprintf("#%d", id),
		"created_at":          "2023-01-05T09:30:00Z",
		"financial_status":    "paid",
		"current_total_price": "10.00",
		"subtotal_price":      "10.00",
		"total_discounts":     "0.00",
		"billing_address":     map[string]any{"city": "Makati", "province": "Metro Manila", "zip": "1200", "name": "Ana Cruz"},
		"customer":            map[string]any{"id": 500 + id, "first_name": "Ana", "last_name": "Cruz"},
	}
}

func TestShopifyFetchPaginates(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.String())

		if r.URL.Path != "/admin/api/2023-04/orders.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "key" || pass != "secret" {
			t.Errorf("missing or wrong basic auth")
		}

		var orders []map[string]any
		switch r.URL.Query().Get("since_id") {
		case "0":
			orders = []map[string]any{orderJSON(1), orderJSON(2)}
		case "2":
			orders = []map[string]any{orderJSON(3)}
		default:
			t.Errorf("unexpected since_id %s", r.URL.Query().Get("since_id"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"orders": orders})
	}))
	defer server.Close()

	src := newLiveSource(t, server, WithPageSize(2))

	orders, err := src.FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("FetchOrders returned error: %v", err)
	}

	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(requests))
	}
	if orders[2].ID != 3 || orders[2].Customer.ID != 503 {
		t.Fatalf("unexpected last order: %+v", orders[2])
	}
	if got := orders[0].CurrentTotalPrice.StringFixed(2); got != "10.00" {
		t.Fatalf("unexpected price: %s", got)
	}
}

func TestShopifyAuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	src := newLiveSource(t, server)

	_, err := src.FetchOrders(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestShopifyProtocolErrorOnStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := newLiveSource(t, server)

	_, err := src.FetchOrders(context.Background())
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestShopifyProtocolErrorOnBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	src := newLiveSource(t, server)

	_, err := src.FetchOrders(context.Background())
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestShopifyNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	src, err := NewShopifySource(testCredentials(), zaptest.NewLogger(t), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewShopifySource returned error: %v", err)
	}

	_, err = src.FetchOrders(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestShopifyTimeoutBoundsFetch(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	src, err := NewShopifySource(testCredentials(), zaptest.NewLogger(t),
		WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewShopifySource returned error: %v", err)
	}

	start := time.Now()
	_, err = src.FetchOrders(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork from timed-out fetch, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("fetch was not bounded by the timeout, took %s", elapsed)
	}
}

func TestShopifyStuckCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Always a full page with the same IDs.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"orders": []map[string]any{orderJSON(1), orderJSON(2)},
		})
	}))
	defer server.Close()

	src := newLiveSource(t, server, WithPageSize(2))

	_, err := src.FetchOrders(context.Background())
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol for stuck cursor, got %v", err)
	}
}

func TestNewShopifySourceRequiresCompleteCredentials(t *testing.T) {
	creds := testCredentials()
	creds.APIPassword = ""

	if _, err := NewShopifySource(creds, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for incomplete credentials")
	}
}

func TestFactorySelectsVariant(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("fixture ignores credentials", func(t *testing.T) {
		cfg := fixtureConfig(t)
		src, err := New(cfg, credentials.Credentials{}, logger)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if _, ok := src.(*FixtureSource); !ok {
			t.Fatalf("expected fixture source, got %T", src)
		}
	})

	t.Run("live requires credentials", func(t *testing.T) {
		cfg := fixtureConfig(t)
		cfg.Source = "live"
		if _, err := New(cfg, credentials.Credentials{}, logger); err == nil {
			t.Fatalf("expected error for empty credentials")
		}

		src, err := New(cfg, testCredentials(), logger)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		if _, ok := src.(*ShopifySource); !ok {
			t.Fatalf("expected live source, got %T", src)
		}
	})

	t.Run("live applies fetch timeout", func(t *testing.T) {
		cfg := fixtureConfig(t)
		cfg.Source = "live"
		cfg.FetchTimeout = 12 * time.Second

		src, err := New(cfg, testCredentials(), logger)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		live, ok := src.(*ShopifySource)
		if !ok {
			t.Fatalf("expected live source, got %T", src)
		}
		if live.client.Timeout != cfg.FetchTimeout {
			t.Fatalf("expected client timeout %s, got %s", cfg.FetchTimeout, live.client.Timeout)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := fixtureConfig(t)
		cfg.Source = "sometimes"
		if _, err := New(cfg, credentials.Credentials{}, logger); err == nil {
			t.Fatalf("expected error for unknown mode")
		}
	})
}
