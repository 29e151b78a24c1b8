// Package analytics computes the dashboard aggregations over an order
// dataset: popular order dates and times, billing-location distribution,
// referring sites, and revenue breakdowns.
package analytics

import (
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/holasaidlola/shop-analytics/internal/domain"
	"github.com/holasaidlola/shop-analytics/internal/geo"
)

// missingData labels buckets whose source field was absent on the order.
const missingData = "Missing Data"

// noReferrer labels orders without a usable referring site.
const noReferrer = "No referring site or no data"

// Bucket is one labelled bar of a distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RevenueNode is one leaf of the revenue breakdown: how much a customer in a
// given location and city spent across the filtered dataset.
type RevenueNode struct {
	Location   string          `json:"location"`
	City       string          `json:"city"`
	Customer   string          `json:"customer"`
	CustomerID int64           `json:"customerId"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Summary aggregates the filtered dataset into headline numbers.
type Summary struct {
	Orders        int             `json:"orders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	AverageTicket decimal.Decimal `json:"averageTicket"`
}

// Report bundles every dashboard aggregation for one filtered dataset.
type Report struct {
	Summary        Summary       `json:"summary"`
	HourOfDay      []Bucket      `json:"hourOfDay"`
	DayOfWeek      []Bucket      `json:"dayOfWeek"`
	DayOfMonth     []Bucket      `json:"dayOfMonth"`
	MonthOfYear    []Bucket      `json:"monthOfYear"`
	WeekOfYear     []Bucket      `json:"weekOfYear"`
	Locations      []Bucket      `json:"locations"`
	ReferringSites []Bucket      `json:"referringSites"`
	Revenue        []RevenueNode `json:"revenue"`
}

// Filter restricts a dataset before aggregation. Zero Start/End leave that
// bound open; End is an inclusive date. An empty or "All" province matches
// every order.
type Filter struct {
	Start    time.Time
	End      time.Time
	Province string
}

func (f Filter) matches(order domain.Order) bool {
	if !f.Start.IsZero() && order.CreatedAt.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !order.CreatedAt.Before(f.End.AddDate(0, 0, 1)) {
		return false
	}
	if f.Province != "" && f.Province != "All" && order.BillingAddress.Province != f.Province {
		return false
	}
	return true
}

// Engine computes reports using a geo resolver for billing locations.
type Engine struct {
	resolver *geo.Resolver
}

// NewEngine constructs an Engine.
func NewEngine(resolver *geo.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// FilterOrders returns the orders matching the filter, preserving order.
func FilterOrders(orders []domain.Order, filter Filter) []domain.Order {
	filtered := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if filter.matches(order) {
			filtered = append(filtered, order)
		}
	}
	return filtered
}

// Report computes every aggregation over the filtered dataset.
func (e *Engine) Report(orders []domain.Order, filter Filter) Report {
	filtered := FilterOrders(orders, filter)

	return Report{
		Summary:        Summarize(filtered),
		HourOfDay:      countByHour(filtered),
		DayOfWeek:      countByWeekday(filtered),
		DayOfMonth:     countByDayOfMonth(filtered),
		MonthOfYear:    countByMonth(filtered),
		WeekOfYear:     countByWeekOfYear(filtered),
		Locations:      e.countByLocation(filtered),
		ReferringSites: countByReferrer(filtered),
		Revenue:        e.revenueBreakdown(filtered),
	}
}

// Provinces lists the distinct billing provinces present in the dataset,
// sorted, for the dashboard's filter dropdown.
func Provinces(orders []domain.Order) []string {
	seen := make(map[string]struct{})
	for _, order := range orders {
		province := order.BillingAddress.Province
		if province == "" {
			continue
		}
		seen[province] = struct{}{}
	}

	provinces := make([]string, 0, len(seen))
	for province := range seen {
		provinces = append(provinces, province)
	}
	sort.Strings(provinces)
	return provinces
}

// Summarize reduces a dataset to its headline numbers.
func Summarize(orders []domain.Order) Summary {
	total := decimal.Zero
	for _, order := range orders {
		total = total.Add(order.CurrentTotalPrice)
	}

	summary := Summary{
		Orders:        len(orders),
		TotalRevenue:  total,
		AverageTicket: decimal.Zero,
	}
	if len(orders) > 0 {
		summary.AverageTicket = total.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}
	return summary
}

func (e *Engine) countByLocation(orders []domain.Order) []Bucket {
	counts := make(map[string]int)
	for _, order := range orders {
		location := e.resolver.Location(order.BillingAddress)
		if location == "" {
			continue
		}
		counts[location]++
	}
	return descendingBuckets(counts)
}

func countByReferrer(orders []domain.Order) []Bucket {
	counts := make(map[string]int)
	for _, order := range orders {
		counts[referrerHost(order.ReferringSite)]++
	}
	return descendingBuckets(counts)
}

// referrerHost isolates the netloc of a referring URL, e.g.
// "https://www.google.com/search?q=x" becomes "www.google.com". An empty or
// hostless value falls into the noReferrer bucket.
func referrerHost(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return noReferrer
	}
	return parsed.Host
}

func (e *Engine) revenueBreakdown(orders []domain.Order) []RevenueNode {
	type key struct {
		location   string
		city       string
		customer   string
		customerID int64
	}

	totals := make(map[key]decimal.Decimal)
	for _, order := range orders {
		k := key{
			location:   e.resolver.Location(order.BillingAddress),
			city:       geo.NormalizeCity(order.BillingAddress.City),
			customer:   customerName(order.Customer),
			customerID: order.Customer.ID,
		}
		if k.location == "" {
			k.location = missingData
		}
		if k.city == "" {
			k.city = missingData
		}
		totals[k] = totals[k].Add(order.CurrentTotalPrice)
	}

	nodes := make([]RevenueNode, 0, len(totals))
	for k, revenue := range totals {
		nodes = append(nodes, RevenueNode{
			Location:   k.location,
			City:       k.city,
			Customer:   k.customer,
			CustomerID: k.customerID,
			Revenue:    revenue,
		})
	}

	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].Revenue.Equal(nodes[j].Revenue) {
			return nodes[i].Revenue.GreaterThan(nodes[j].Revenue)
		}
		return nodes[i].Customer < nodes[j].Customer
	})
	return nodes
}

func customerName(customer domain.Customer) string {
	if customer.ID == 0 {
		return missingData
	}
	return customer.FirstName + " " + customer.LastName
}

// descendingBuckets orders a count map by count, ties broken by label, the
// way the original dashboard sorted its categorical bars.
func descendingBuckets(counts map[string]int) []Bucket {
	buckets := make([]Bucket, 0, len(counts))
	for label, count := range counts {
		buckets = append(buckets, Bucket{Label: label, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}
