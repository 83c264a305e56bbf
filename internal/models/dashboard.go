package models

import "errors"

type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Status tells a successful aggregation apart from the two empty results.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNoData        Status = "no_data"
	StatusInvalidFormat Status = "invalid_format"
)

var (
	ErrNoData        = errors.New("no data available for dashboard")
	ErrInvalidFormat = errors.New("invalid data format")
)

type CountryRevenue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type TimeBucketRevenue struct {
	Name  string  `json:"name"`
	Sales float64 `json:"sales"`
	Date  string  `json:"date"`
}

type ProductRevenue struct {
	Name  string  `json:"name"`
	Sales float64 `json:"sales"`
}

type CustomerSpend struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type SalesSummary struct {
	TotalRevenue        float64 `json:"totalRevenue"`
	TotalTransactions   int     `json:"totalTransactions"`
	TotalProducts       int     `json:"totalProducts"`
	TotalCustomers      int     `json:"totalCustomers"`
	AvgTransactionValue float64 `json:"avgTransactionValue"`
}

// Dashboard is the derived view of one dataset at one granularity. Summary is
// nil unless Status is StatusOK.
type Dashboard struct {
	Status       Status              `json:"status"`
	Granularity  Granularity         `json:"granularity"`
	RecordCount  int                 `json:"recordCount"`
	CountryData  []CountryRevenue    `json:"countryData"`
	TimeSeries   []TimeBucketRevenue `json:"timeSeriesData"`
	TopProducts  []ProductRevenue    `json:"topProducts"`
	TopCustomers []CustomerSpend     `json:"topCustomers"`
	Summary      *SalesSummary       `json:"summary,omitempty"`
}

// Err maps the empty results to ErrNoData and ErrInvalidFormat.
func (d *Dashboard) Err() error {
	if d == nil {
		return ErrNoData
	}
	switch d.Status {
	case StatusNoData:
		return ErrNoData
	case StatusInvalidFormat:
		return ErrInvalidFormat
	default:
		return nil
	}
}
