package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func sale(country, product, customer, txn, date string, price, qty float64) *models.SalesRecord {
	return &models.SalesRecord{
		TransactionNo: models.Text(txn),
		Date:          models.Text(date),
		ProductNo:     models.Text("P-" + product),
		ProductName:   models.Text(product),
		Price:         models.NewNumber(price),
		Quantity:      models.NewNumber(qty),
		CustomerNo:    models.Text(customer),
		Country:       models.Text(country),
	}
}

func TestAggregate_EmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		rows []*models.SalesRecord
		want models.Status
	}{
		{"nil slice", nil, models.StatusNoData},
		{"empty slice", []*models.SalesRecord{}, models.StatusNoData},
		{"only nil rows", []*models.SalesRecord{nil, nil}, models.StatusInvalidFormat},
		{"rows without amounts", []*models.SalesRecord{{Country: "UK"}, {ProductName: "Mug"}}, models.StatusInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Aggregate(tt.rows, models.GranularityMonthly)

			assert.Equal(t, tt.want, d.Status)
			assert.Nil(t, d.Summary)
			assert.Empty(t, d.CountryData)
			assert.Empty(t, d.TimeSeries)
			assert.Empty(t, d.TopProducts)
			assert.Empty(t, d.TopCustomers)
			assert.Error(t, d.Err())
		})
	}
}

func TestAggregate_StatusErrorsAreDistinct(t *testing.T) {
	noData := Aggregate(nil, models.GranularityMonthly)
	invalid := Aggregate([]*models.SalesRecord{{Country: "UK"}}, models.GranularityMonthly)

	assert.ErrorIs(t, noData.Err(), ErrNoData)
	assert.ErrorIs(t, invalid.Err(), ErrInvalidFormat)
	assert.NotEqual(t, noData.Status, invalid.Status)
}

func TestAggregate_NullAmountStillAccepted(t *testing.T) {
	rows := []*models.SalesRecord{
		{Country: "UK", Price: models.Number{Present: true}},
	}

	d := Aggregate(rows, models.GranularityMonthly)

	require.Equal(t, models.StatusOK, d.Status)
	assert.Equal(t, 1, d.RecordCount)
	assert.Equal(t, []models.CountryRevenue{{Name: "UK", Value: 0}}, d.CountryData)
}

func TestAggregate_RevenueInvariant(t *testing.T) {
	rows := []*models.SalesRecord{
		sale("UK", "Mug", "C1", "T1", "2024-01-05", 2.5, 4),
		sale("UK", "Lamp", "C2", "T2", "not a date", 10, 3),
		{Country: "France", Price: models.NewNumber(7)},
		{Country: "France", Quantity: models.NewNumber(9)},
		nil,
		{Country: "Spain"},
	}

	d := Aggregate(rows, models.GranularityMonthly)

	require.Equal(t, models.StatusOK, d.Status)
	assert.Equal(t, 4, d.RecordCount)
	assert.Equal(t, 40.0, d.Summary.TotalRevenue)
	assert.Equal(t, []models.CountryRevenue{{Name: "UK", Value: 40}, {Name: "France", Value: 0}}, d.CountryData)

	// the undated row is excluded from the series only
	assert.Equal(t, []models.TimeBucketRevenue{{Name: "2024-01", Sales: 10, Date: "2024-01"}}, d.TimeSeries)
}

func TestAggregate_Defaults(t *testing.T) {
	rows := []*models.SalesRecord{
		{Price: models.NewNumber(5), Quantity: models.NewNumber(2)},
	}

	d := Aggregate(rows, models.GranularityMonthly)

	require.Equal(t, models.StatusOK, d.Status)
	assert.Equal(t, "Unknown", d.CountryData[0].Name)
	assert.Equal(t, "Unknown", d.TopProducts[0].Name)
	assert.Equal(t, "Customer Unknown", d.TopCustomers[0].Name)
	assert.Equal(t, 0, d.Summary.TotalCustomers)
	assert.Equal(t, 0, d.Summary.TotalTransactions)
	assert.Equal(t, 0.0, d.Summary.AvgTransactionValue)
}

func TestAggregate_TopNTruncation(t *testing.T) {
	var rows []*models.SalesRecord
	for i := range 200 {
		id := fmt.Sprintf("%03d", i)
		rows = append(rows, sale("Country"+id, "Product"+id, "C"+id, "T"+id, "2024-03-01", float64(i+1), 1))
	}

	d := Aggregate(rows, models.GranularityMonthly)

	require.Equal(t, models.StatusOK, d.Status)
	assert.Len(t, d.CountryData, 10)
	assert.Len(t, d.TopProducts, 8)
	assert.Len(t, d.TopCustomers, 6)

	assert.Equal(t, "Country199", d.CountryData[0].Name)
	assert.Equal(t, 200.0, d.CountryData[0].Value)
	assert.Equal(t, "Customer C199", d.TopCustomers[0].Name)

	for i := 1; i < len(d.CountryData); i++ {
		assert.Greater(t, d.CountryData[i-1].Value, d.CountryData[i].Value)
	}
	for i := 1; i < len(d.TopProducts); i++ {
		assert.Greater(t, d.TopProducts[i-1].Sales, d.TopProducts[i].Sales)
	}
}

func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	rows := []*models.SalesRecord{
		sale("Norway", "A", "C1", "T1", "", 5, 1),
		sale("Chile", "B", "C2", "T2", "", 5, 1),
		sale("Austria", "C", "C3", "T3", "", 5, 1),
		sale("Brazil", "D", "C4", "T4", "", 9, 1),
	}

	d := Aggregate(rows, models.GranularityMonthly)

	names := make([]string, 0, len(d.CountryData))
	for _, c := range d.CountryData {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Brazil", "Norway", "Chile", "Austria"}, names)
}

func TestAggregate_MonthlyBuckets(t *testing.T) {
	rows := []*models.SalesRecord{
		sale("UK", "Mug", "C1", "T3", "2024-02-01", 1, 1),
		sale("UK", "Mug", "C1", "T1", "2024-01-05", 2, 1),
		sale("UK", "Mug", "C1", "T2", "2024-01-20", 3, 1),
	}

	d := Aggregate(rows, models.GranularityMonthly)

	assert.Equal(t, []models.TimeBucketRevenue{
		{Name: "2024-01", Sales: 5, Date: "2024-01"},
		{Name: "2024-02", Sales: 1, Date: "2024-02"},
	}, d.TimeSeries)
}

func TestAggregate_DailyAndWeeklyBuckets(t *testing.T) {
	rows := []*models.SalesRecord{
		sale("UK", "Mug", "C1", "T1", "2024-01-06", 1, 1),
		sale("UK", "Mug", "C1", "T2", "2024-01-07", 2, 1),
		sale("UK", "Mug", "C1", "T3", "2024-01-07T18:30:00Z", 4, 1),
	}

	daily := Aggregate(rows, models.GranularityDaily)
	assert.Equal(t, []models.TimeBucketRevenue{
		{Name: "2024-01-06", Sales: 1, Date: "2024-01-06"},
		{Name: "2024-01-07", Sales: 6, Date: "2024-01-07"},
	}, daily.TimeSeries)

	weekly := Aggregate(rows, models.GranularityWeekly)
	assert.Equal(t, []models.TimeBucketRevenue{
		{Name: "2024-W1", Sales: 1, Date: "2024-W1"},
		{Name: "2024-W2", Sales: 6, Date: "2024-W2"},
	}, weekly.TimeSeries)
}

func TestAggregate_UnknownGranularityFallsBackToMonthly(t *testing.T) {
	rows := []*models.SalesRecord{sale("UK", "Mug", "C1", "T1", "2024-05-17", 1, 1)}

	d := Aggregate(rows, models.Granularity("hourly"))

	assert.Equal(t, models.GranularityMonthly, d.Granularity)
	assert.Equal(t, "2024-05", d.TimeSeries[0].Name)
}

func TestAggregate_DistinctCounts(t *testing.T) {
	var rows []*models.SalesRecord
	for i := range 5 {
		rows = append(rows, sale("UK", "Mug", "C1", fmt.Sprintf("T%d", i), "", 1, 1))
	}
	for i := range 3 {
		rows = append(rows, sale("UK", "Lamp", "C2", fmt.Sprintf("T%d", i), "", 1, 1))
	}
	rows = append(rows, sale("UK", "Lamp", "", "", "", 1, 1))

	d := Aggregate(rows, models.GranularityMonthly)

	assert.Equal(t, 2, d.Summary.TotalCustomers)
	assert.Equal(t, 5, d.Summary.TotalTransactions)
	assert.Equal(t, 2, d.Summary.TotalProducts)
	assert.Equal(t, 1.8, d.Summary.AvgTransactionValue)
}

func TestAggregate_Rounding(t *testing.T) {
	rows := []*models.SalesRecord{
		sale("UK", "Mug", "C1", "T1", "2024-01-01", 19.999, 3),
	}

	d := Aggregate(rows, models.GranularityMonthly)

	assert.Equal(t, 60.0, d.Summary.TotalRevenue)
	assert.Equal(t, 60.0, d.CountryData[0].Value)
	assert.Equal(t, 60.0, d.TimeSeries[0].Sales)
	assert.Equal(t, 60.0, d.TopProducts[0].Sales)
	assert.Equal(t, 60.0, d.TopCustomers[0].Value)
	assert.Equal(t, 60.0, d.Summary.AvgTransactionValue)
}

func TestAggregate_Idempotent(t *testing.T) {
	rows := []*models.SalesRecord{
		sale("UK", "Mug", "C1", "T1", "2024-01-05", 2.5, 4),
		sale("France", "Lamp", "C2", "T2", "2024-02-11", 10.1, 3),
		sale("UK", "Lamp", "C1", "T3", "garbage", 1.25, 7),
	}

	first := Aggregate(rows, models.GranularityWeekly)
	second := Aggregate(rows, models.GranularityWeekly)

	assert.Equal(t, first, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, models.Text("UK"), rows[0].Country)
}

func TestAggregateJSON(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		status models.Status
	}{
		{"not json", `{{{`, models.StatusNoData},
		{"object instead of array", `{"Price": 1}`, models.StatusNoData},
		{"null", `null`, models.StatusNoData},
		{"empty array", `[]`, models.StatusNoData},
		{"scalars only", `[1, "two", null, true]`, models.StatusInvalidFormat},
		{"objects without amounts", `[{"Country": "UK"}]`, models.StatusInvalidFormat},
		{"lowercase amount keys", `[{"price": 5, "quantity": 2}]`, models.StatusInvalidFormat},
		{"upper case amount keys", `[{"PRICE": 5, "QUANTITY": 2}]`, models.StatusInvalidFormat},
		{"mixed", `[3, {"Price": "2.5", "Quantity": 4, "Country": "UK"}]`, models.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := AggregateJSON([]byte(tt.raw), models.GranularityMonthly)
			assert.Equal(t, tt.status, d.Status)
		})
	}
}

func TestAggregateJSON_LooseFields(t *testing.T) {
	raw := `[
		{"Price": 2, "Quantity": 3, "CustomerNo": 12346, "TransactionNo": 581475, "ProductNo": "85123A", "Date": "12/9/2019", "Country": "United Kingdom"},
		{"Price": "abc", "Quantity": 3, "CustomerNo": 0, "TransactionNo": "", "Country": null},
		{"Price": 4, "Quantity": null, "CustomerNo": "12346", "TransactionNo": 581475}
	]`

	d := AggregateJSON([]byte(raw), models.GranularityMonthly)

	require.Equal(t, models.StatusOK, d.Status)
	assert.Equal(t, 3, d.RecordCount)
	assert.Equal(t, 6.0, d.Summary.TotalRevenue)
	assert.Equal(t, 1, d.Summary.TotalCustomers)
	assert.Equal(t, 1, d.Summary.TotalTransactions)
	assert.Equal(t, 1, d.Summary.TotalProducts)
	assert.Equal(t, []models.TimeBucketRevenue{{Name: "2019-12", Sales: 6, Date: "2019-12"}}, d.TimeSeries)
	assert.Equal(t, "Customer 12346", d.TopCustomers[0].Name)
}

func TestAggregateJSON_KeysMatchExactly(t *testing.T) {
	raw := `[
		{"Price": 10, "price": "x", "Quantity": 2, "country": "France", "Country": "UK"},
		{"Price": 1, "Quantity": 1, "country": "France", "productname": "Mug"}
	]`

	d := AggregateJSON([]byte(raw), models.GranularityMonthly)

	require.Equal(t, models.StatusOK, d.Status)
	assert.Equal(t, 21.0, d.Summary.TotalRevenue)
	assert.Equal(t, []models.CountryRevenue{{Name: "UK", Value: 20}, {Name: "Unknown", Value: 1}}, d.CountryData)
	assert.Equal(t, []models.ProductRevenue{{Name: "Unknown", Sales: 21}}, d.TopProducts)
}

func BenchmarkAggregate(b *testing.B) {
	rows := make([]*models.SalesRecord, 10000)
	for i := range rows {
		rows[i] = sale(
			fmt.Sprintf("Country%d", i%40),
			fmt.Sprintf("Product%d", i%500),
			fmt.Sprintf("C%d", i%2000),
			fmt.Sprintf("T%d", i/3),
			fmt.Sprintf("2024-%02d-%02d", i%12+1, i%28+1),
			float64(i%97)+0.99,
			float64(i%5+1),
		)
	}

	for b.Loop() {
		_ = Aggregate(rows, models.GranularityWeekly)
	}
}
