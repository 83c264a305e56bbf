// Package analytics turns a loosely typed sales dataset into the summary
// tables behind the dashboard charts.
//
// Aggregate is a pure function of its inputs: it never mutates the rows,
// keeps no state between calls and never panics on malformed rows.
package analytics

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"

	"sales-dashboard/internal/models"
)

const (
	countryLimit  = 10
	productLimit  = 8
	customerLimit = 6

	unknownLabel   = "Unknown"
	customerPrefix = "Customer "
)

var (
	ErrNoData        = models.ErrNoData
	ErrInvalidFormat = models.ErrInvalidFormat
)

// Aggregate computes the country, time-series, product and customer tables
// and the summary scalars for rows. A nil or empty slice yields StatusNoData;
// a slice with no row carrying Price or Quantity yields StatusInvalidFormat.
func Aggregate(rows []*models.SalesRecord, g models.Granularity) *models.Dashboard {
	g = normalizeGranularity(g)

	if len(rows) == 0 {
		return emptyDashboard(models.StatusNoData, g)
	}

	accepted := acceptRows(rows)
	if len(accepted) == 0 {
		return emptyDashboard(models.StatusInvalidFormat, g)
	}

	countries := newAccumulator()
	buckets := newAccumulator()
	products := newAccumulator()
	customers := newAccumulator()

	transactions := make(map[models.Text]struct{})
	productIDs := make(map[models.Text]struct{})
	customerIDs := make(map[models.Text]struct{})

	var totalRevenue float64
	for _, row := range accepted {
		revenue := row.Revenue()
		totalRevenue += revenue

		countries.add(row.Country.Or(unknownLabel), revenue)
		products.add(row.ProductName.Or(unknownLabel), revenue)
		customers.add(row.CustomerNo.Or(unknownLabel), revenue)

		if t, ok := ParseDate(row.Date.String()); ok {
			buckets.add(BucketKey(t, g), revenue)
		}

		addDistinct(transactions, row.TransactionNo)
		addDistinct(productIDs, row.ProductNo)
		addDistinct(customerIDs, row.CustomerNo)
	}

	summary := &models.SalesSummary{
		TotalRevenue:      Round2(totalRevenue),
		TotalTransactions: len(transactions),
		TotalProducts:     len(productIDs),
		TotalCustomers:    len(customerIDs),
	}
	if summary.TotalTransactions > 0 {
		summary.AvgTransactionValue = Round2(totalRevenue / float64(summary.TotalTransactions))
	}

	dashboard := &models.Dashboard{
		Status:       models.StatusOK,
		Granularity:  g,
		RecordCount:  len(accepted),
		CountryData:  make([]models.CountryRevenue, 0, countryLimit),
		TimeSeries:   make([]models.TimeBucketRevenue, 0, len(buckets.order)),
		TopProducts:  make([]models.ProductRevenue, 0, productLimit),
		TopCustomers: make([]models.CustomerSpend, 0, customerLimit),
		Summary:      summary,
	}

	for _, e := range countries.ranked(countryLimit) {
		dashboard.CountryData = append(dashboard.CountryData, models.CountryRevenue{Name: e.key, Value: e.value})
	}
	for _, e := range buckets.chronological() {
		dashboard.TimeSeries = append(dashboard.TimeSeries, models.TimeBucketRevenue{Name: e.key, Sales: e.value, Date: e.key})
	}
	for _, e := range products.ranked(productLimit) {
		dashboard.TopProducts = append(dashboard.TopProducts, models.ProductRevenue{Name: e.key, Sales: e.value})
	}
	for _, e := range customers.ranked(customerLimit) {
		dashboard.TopCustomers = append(dashboard.TopCustomers, models.CustomerSpend{Name: customerPrefix + e.key, Value: e.value})
	}

	return dashboard
}

// AggregateJSON is Aggregate over an untrusted JSON document. Anything other
// than a non-empty array is StatusNoData; array elements that are not
// objects count as rejected rows.
func AggregateJSON(raw []byte, g models.Granularity) *models.Dashboard {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return emptyDashboard(models.StatusNoData, normalizeGranularity(g))
	}

	rows := make([]*models.SalesRecord, len(elems))
	for i, elem := range elems {
		rows[i] = decodeRow(elem)
	}
	return Aggregate(rows, g)
}

func decodeRow(elem json.RawMessage) *models.SalesRecord {
	elem = bytes.TrimSpace(elem)
	if len(elem) == 0 || elem[0] != '{' {
		return nil
	}
	var rec models.SalesRecord
	if err := json.Unmarshal(elem, &rec); err != nil {
		return nil
	}
	return &rec
}

func acceptRows(rows []*models.SalesRecord) []*models.SalesRecord {
	accepted := make([]*models.SalesRecord, 0, len(rows))
	for _, row := range rows {
		if row.HasAmount() {
			accepted = append(accepted, row)
		}
	}
	return accepted
}

func addDistinct(set map[models.Text]struct{}, id models.Text) {
	if !id.Empty() {
		set[id] = struct{}{}
	}
}

func emptyDashboard(status models.Status, g models.Granularity) *models.Dashboard {
	return &models.Dashboard{
		Status:       status,
		Granularity:  g,
		CountryData:  []models.CountryRevenue{},
		TimeSeries:   []models.TimeBucketRevenue{},
		TopProducts:  []models.ProductRevenue{},
		TopCustomers: []models.CustomerSpend{},
	}
}

type entry struct {
	key   string
	value float64
}

// accumulator sums revenue per key and remembers first-seen key order, which
// is the tie-break for equal totals.
type accumulator struct {
	order []string
	sums  map[string]float64
}

func newAccumulator() *accumulator {
	return &accumulator{sums: make(map[string]float64)}
}

func (a *accumulator) add(key string, v float64) {
	if _, ok := a.sums[key]; !ok {
		a.order = append(a.order, key)
	}
	a.sums[key] += v
}

func (a *accumulator) entries() []entry {
	out := make([]entry, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, entry{key: key, value: Round2(a.sums[key])})
	}
	return out
}

// ranked returns the limit largest totals, descending.
func (a *accumulator) ranked(limit int) []entry {
	out := a.entries()
	slices.SortStableFunc(out, func(x, y entry) int {
		return cmp.Compare(y.value, x.value)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// chronological returns every total ordered by key.
func (a *accumulator) chronological() []entry {
	out := a.entries()
	slices.SortStableFunc(out, func(x, y entry) int {
		return cmp.Compare(x.key, y.key)
	})
	return out
}
