package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/holasaidlola/shop-analytics/internal/credentials"
	"github.com/holasaidlola/shop-analytics/internal/domain"
)

const defaultPageSize = 250

// orderFields is the field list requested from the admin API, matching the
// analytical subset carried by domain.Order.
var orderFields = strings.Join([]string{
	"id", "order_number", "name", "email", "created_at",
	"financial_status", "fulfillment_status",
	"current_total_price", "subtotal_price", "total_discounts",
	"referring_site", "source_name", "billing_address", "customer",
}, ",")

// ShopifySource pages through the shop's admin REST API and assembles the
// full order dataset. Authentication uses the private-app key and password as
// Basic auth; the configured API version sits in the request path.
type ShopifySource struct {
	creds    credentials.Credentials
	client   *http.Client
	logger   *zap.Logger
	pageSize int
	baseURL  string
}

// ShopifyOption configures ShopifySource behaviour.
type ShopifyOption func(*ShopifySource)

// WithPageSize overrides the page size used for the paginated fetch.
func WithPageSize(size int) ShopifyOption {
	return func(s *ShopifySource) {
		if size > 0 && size <= defaultPageSize {
			s.pageSize = size
		}
	}
}

// WithTimeout bounds each page request, covering connection setup through
// the full body read. Zero leaves the client unbounded.
func WithTimeout(timeout time.Duration) ShopifyOption {
	return func(s *ShopifySource) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(client *http.Client) ShopifyOption {
	return func(s *ShopifySource) {
		s.client = client
	}
}

// WithBaseURL overrides the scheme and host derived from the credentials,
// primarily for tests against httptest servers.
func WithBaseURL(baseURL string) ShopifyOption {
	return func(s *ShopifySource) {
		s.baseURL = baseURL
	}
}

// NewShopifySource constructs a live source. Credentials must be fully
// populated before any remote read is attempted.
func NewShopifySource(creds credentials.Credentials, logger *zap.Logger, opts ...ShopifyOption) (*ShopifySource, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("live source requires complete credentials: %w", credentials.ErrInvalidCredentials)
	}

	s := &ShopifySource{
		creds:    creds,
		client:   &http.Client{},
		logger:   logger,
		pageSize: defaultPageSize,
		baseURL:  "https://" + creds.Hostname,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FetchOrders pulls every order page until a short page signals the end of
// the dataset, using the last seen order ID as the pagination cursor.
func (s *ShopifySource) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	start := time.Now()

	var orders []domain.Order
	var sinceID int64
	for page := 1; ; page++ {
		batch, err := s.fetchPage(ctx, sinceID)
		if err != nil {
			return nil, fmt.Errorf("fetch orders page %d: %w", page, err)
		}

		orders = append(orders, batch...)
		if len(batch) < s.pageSize {
			break
		}
		next := batch[len(batch)-1].ID
		if next <= sinceID {
			return nil, fmt.Errorf("%w: pagination cursor did not advance past %d", ErrProtocol, sinceID)
		}
		sinceID = next
	}

	s.logger.Info("fetched orders from admin API",
		zap.Int("orders", len(orders)),
		zap.Duration("duration", time.Since(start)),
	)
	return orders, nil
}

func (s *ShopifySource) fetchPage(ctx context.Context, sinceID int64) ([]domain.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(sinceID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(s.creds.APIKey, s.creds.APIPassword)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrAuthentication, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrProtocol, resp.StatusCode)
	}

	var payload struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrProtocol, err)
	}

	return payload.Orders, nil
}

func (s *ShopifySource) pageURL(sinceID int64) string {
	query := url.Values{
		"limit":    {strconv.Itoa(s.pageSize)},
		"status":   {"any"},
		"since_id": {strconv.FormatInt(sinceID, 10)},
		"fields":   {orderFields},
	}
	return fmt.Sprintf("%s/admin/api/%s/orders.json?%s",
		strings.TrimSuffix(s.baseURL, "/"), s.creds.Version, query.Encode())
}
