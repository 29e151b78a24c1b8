package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/holasaidlola/shop-analytics/internal/domain"
)

// fixtureColumns are the flattened CSV columns of the offline dataset.
var fixtureColumns = []string{
	"id", "order_number", "name", "email", "created_at",
	"financial_status", "fulfillment_status",
	"current_total_price", "subtotal_price", "total_discounts",
	"referring_site", "source_name",
	"billing_name", "billing_city", "billing_province", "billing_zip",
	"customer_id", "customer_first_name", "customer_last_name",
}

// FixtureSource serves orders from a static local CSV file. It stands in for
// live data during offline and demo operation and never touches the network.
type FixtureSource struct {
	path string
}

// NewFixtureSource creates a fixture source reading from path. The file is
// re-read on every fetch so edits show up on refresh.
func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{path: path}
}

// FetchOrders returns the fixture rows as orders, in file order.
func (s *FixtureSource) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open fixture file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read fixture header: %w", err)
	}

	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var orders []domain.Order
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read fixture row %d: %w", row, err)
		}

		order, err := parseFixtureRecord(columns, record)
		if err != nil {
			return nil, fmt.Errorf("fixture row %d: %w", row, err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// indexColumns maps required column names to their positions in the header.
func indexColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	for _, name := range fixtureColumns {
		if _, ok := positions[name]; !ok {
			return nil, fmt.Errorf("fixture file is missing column %q", name)
		}
	}
	return positions, nil
}

func parseFixtureRecord(columns map[string]int, record []string) (domain.Order, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[columns[name]])
	}

	id, err := strconv.ParseInt(field("id"), 10, 64)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse id: %w", err)
	}

	orderNumber, err := strconv.Atoi(field("order_number"))
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse order_number: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339, field("created_at"))
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse created_at: %w", err)
	}

	totalPrice, err := parseAmount(field("current_total_price"))
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse current_total_price: %w", err)
	}
	subtotal, err := parseAmount(field("subtotal_price"))
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse subtotal_price: %w", err)
	}
	discounts, err := parseAmount(field("total_discounts"))
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse total_discounts: %w", err)
	}

	var customerID int64
	if raw := field("customer_id"); raw != "" {
		customerID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Order{}, fmt.Errorf("parse customer_id: %w", err)
		}
	}

	return domain.Order{
		ID:                id,
		OrderNumber:       orderNumber,
		Name:              field("name"),
		Email:             field("email"),
		CreatedAt:         createdAt,
		FinancialStatus:   field("financial_status"),
		FulfillmentStatus: field("fulfillment_status"),
		CurrentTotalPrice: totalPrice,
		SubtotalPrice:     subtotal,
		TotalDiscounts:    discounts,
		ReferringSite:     field("referring_site"),
		SourceName:        field("source_name"),
		BillingAddress: domain.Address{
			Name:     field("billing_name"),
			City:     field("billing_city"),
			Province: field("billing_province"),
			Zip:      field("billing_zip"),
		},
		Customer: domain.Customer{
			ID:        customerID,
			FirstName: field("customer_first_name"),
			LastName:  field("customer_last_name"),
		},
	}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
