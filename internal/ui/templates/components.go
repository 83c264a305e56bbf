// Package templates holds the server-rendered page components, written in
// components.templ. Handlers render them to a response or to a string for a
// Datastar element patch.
package templates

//go:generate templ generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

// Element IDs patched over SSE.
const (
	SummaryID      = "summary-cards"
	StatusID       = "dashboard-status"
	TimeSeriesID   = "time-series-content"
	ProductsID     = "products-content"
	CustomersID    = "customers-content"
	CountryTableID = "country-content"
)

// Row is one labelled value in a ranked list.
type Row struct {
	Label string
	Value float64
}

// Render writes c into a string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Money formats an already rounded amount.
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := fmt.Sprintf("%.2f", v)
	intPart, frac, _ := strings.Cut(whole, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

// DatasetLink is the view of a stored dataset on the home page.
type DatasetLink struct {
	ID      string
	Name    string
	Records int
	Created string
}

type card struct {
	label string
	value string
}

func summaryCards(s *models.SalesSummary) []card {
	return []card{
		{"Total Revenue", Money(s.TotalRevenue)},
		{"Transactions", fmt.Sprint(s.TotalTransactions)},
		{"Products", fmt.Sprint(s.TotalProducts)},
		{"Customers", fmt.Sprint(s.TotalCustomers)},
		{"Avg. Transaction", Money(s.AvgTransactionValue)},
	}
}

func peakValue(rows []Row) float64 {
	peak := 0.0
	for _, r := range rows {
		peak = max(peak, r.Value)
	}
	return peak
}

// barStyle sizes a bar relative to the largest value in its list.
func barStyle(v, peak float64) templ.Attributes {
	width := 0.0
	if peak > 0 && v > 0 {
		width = v / peak * 100
	}
	return templ.Attributes{"style": fmt.Sprintf("width:%.1f%%", width)}
}

var granularities = []models.Granularity{
	models.GranularityDaily,
	models.GranularityWeekly,
	models.GranularityMonthly,
}

func initialSignals(g models.Granularity) string {
	return fmt.Sprintf(`{"granularity":%q,"countryData":[],"timeSeriesData":[],"topProducts":[],"topCustomers":[],"summary":{}}`, g)
}

// sseGet is the Datastar action that opens a dataset stream.
func sseGet(id, stream string) string {
	return "@get('/sse/datasets/" + id + "/" + stream + "')"
}
