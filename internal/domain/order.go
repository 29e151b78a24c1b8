// Package domain holds the order dataset value types shared by the data
// sources, the analytics engine, and the HTTP layer.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address is the billing-address subset used for location analytics.
type Address struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
}

// Customer identifies the buyer on an order. A zero ID means the order
// carried no customer record.
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Order is a single sales order. The JSON tags match the admin API field
// names so live responses decode directly into this type; money amounts
// arrive as quoted strings, which decimal handles.
type Order struct {
	ID                int64           `json:"id"`
	OrderNumber       int             `json:"order_number"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	CreatedAt         time.Time       `json:"created_at"`
	FinancialStatus   string          `json:"financial_status"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	CurrentTotalPrice decimal.Decimal `json:"current_total_price"`
	SubtotalPrice     decimal.Decimal `json:"subtotal_price"`
	TotalDiscounts    decimal.Decimal `json:"total_discounts"`
	ReferringSite     string          `json:"referring_site"`
	SourceName        string          `json:"source_name"`
	BillingAddress    Address         `json:"billing_address"`
	Customer          Customer        `json:"customer"`
}
