package reports

import (
	"context"
	"fmt"
)

// financeInvoicesPath is the finance service's internal invoice listing.
const financeInvoicesPath = "/api/invoices/"

// userAdminListPath is the user service's admin-only user listing.
const userAdminListPath = "/api/admin/users"

// InternalCaller abstracts the internal service client for strategies.
type InternalCaller interface {
	Call(ctx context.Context, baseURL, path, method string, body interface{}) (interface{}, error)
}

// StrategyFunc produces the result payload for one report type from peer
// data. Strategies never touch the record store; the lifecycle controller
// performs the only writes.
type StrategyFunc func(ctx context.Context) (JSONB, error)

// Aggregator fetches remote datasets and reduces them to report payloads.
type Aggregator struct {
	client     InternalCaller
	financeURL string
	userURL    string
}

// NewAggregator creates an aggregator over the configured peer services.
func NewAggregator(client InternalCaller, financeURL, userURL string) *Aggregator {
	return &Aggregator{
		client:     client,
		financeURL: financeURL,
		userURL:    userURL,
	}
}

// Strategies returns the per-type strategy registry. Adding a report type
// means adding an enum value and a registry entry here. inventory_levels has
// no entry yet; dispatching to it fails with an unsupported-type error.
func (a *Aggregator) Strategies() map[ReportType]StrategyFunc {
	return map[ReportType]StrategyFunc{
		ReportTypeSalesSummary: a.salesSummary,
		ReportTypeUserActivity: a.userActivity,
	}
}

// salesSummary aggregates paid invoices from the finance service.
func (a *Aggregator) salesSummary(ctx context.Context) (JSONB, error) {
	payload, err := a.client.Call(ctx, a.financeURL, financeInvoicesPath, "GET", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch finance data: %w", err)
	}

	invoices, err := asRecordList(payload)
	if err != nil {
		return nil, fmt.Errorf("unexpected finance response: %w", err)
	}

	var totalSales float64
	var paidCount int
	for _, inv := range invoices {
		if inv["status"] != "paid" {
			continue
		}
		totalSales += numberField(inv, "totalAmount")
		paidCount++
	}

	average := float64(0)
	if paidCount > 0 {
		average = totalSales / float64(paidCount)
	}

	return JSONB{
		"totalSalesAmount":    totalSales,
		"totalPaidInvoices":   paidCount,
		"averageInvoiceValue": average,
	}, nil
}

// userActivity aggregates account counts from the user service.
func (a *Aggregator) userActivity(ctx context.Context) (JSONB, error) {
	payload, err := a.client.Call(ctx, a.userURL, userAdminListPath, "GET", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user data: %w", err)
	}

	users, err := asRecordList(payload)
	if err != nil {
		return nil, fmt.Errorf("unexpected user response: %w", err)
	}

	total := len(users)
	adminCount := 0
	activeCount := 0
	for _, u := range users {
		if u["role"] == "admin" {
			adminCount++
		}
		if u["status"] == "active" {
			activeCount++
		}
	}

	return JSONB{
		"totalUsers":   total,
		"adminUsers":   adminCount,
		"regularUsers": total - adminCount,
		"activeUsers":  activeCount,
		"lockedUsers":  total - activeCount,
	}, nil
}

// asRecordList converts a decoded JSON payload into a list of objects.
func asRecordList(payload interface{}) ([]map[string]interface{}, error) {
	items, ok := payload.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a JSON array, got %T", payload)
	}

	records := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("expected a JSON object, got %T", item)
		}
		records = append(records, record)
	}
	return records, nil
}

// numberField reads a numeric field, treating absent or non-numeric as zero.
func numberField(record map[string]interface{}, key string) float64 {
	if v, ok := record[key].(float64); ok {
		return v
	}
	return 0
}
