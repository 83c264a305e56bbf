package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Granularity
		wantErr bool
	}{
		{"", models.GranularityMonthly, false},
		{"daily", models.GranularityDaily, false},
		{" Weekly ", models.GranularityWeekly, false},
		{"monthly", models.GranularityMonthly, false},
		{"yearly", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGranularity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekNumber(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		// 2024-01-01 is a Monday
		{"2024-01-01", 1},
		{"2024-01-06", 1},
		{"2024-01-07", 2},
		{"2024-12-31", 53},
		// 2023-01-01 is a Sunday
		{"2023-01-01", 1},
		{"2023-01-07", 1},
		{"2023-01-08", 2},
		// 2022-01-01 is a Saturday
		{"2022-01-01", 1},
		{"2022-01-02", 2},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := time.Parse(time.DateOnly, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, WeekNumber(d))
		})
	}
}

func TestBucketKey(t *testing.T) {
	ts := time.Date(2024, time.March, 9, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-09", BucketKey(ts, models.GranularityDaily))
	assert.Equal(t, "2024-W10", BucketKey(ts, models.GranularityWeekly))
	assert.Equal(t, "2024-03", BucketKey(ts, models.GranularityMonthly))
	assert.Equal(t, "2024-03", BucketKey(ts, ""))
}

func TestBucketKey_UsesUTC(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, time.April, 1, 5, 0, 0, 0, zone)

	assert.Equal(t, "2024-03-31", BucketKey(ts, models.GranularityDaily))
	assert.Equal(t, "2024-03", BucketKey(ts, models.GranularityMonthly))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-05T10:30:00Z", time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), true},
		{"2024-01-05T10:30:00+02:00", time.Date(2024, 1, 5, 8, 30, 0, 0, time.UTC), true},
		{"2024-01-05 10:30:00", time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), true},
		{"12/9/2019", time.Date(2019, 12, 9, 0, 0, 0, 0, time.UTC), true},
		{"12/1/2010 8:26", time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), true},
		{"2024/02/29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"1704067200000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"2024-13-45", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{59.997, 60},
		{19.999 * 3, 60},
		{1.005, 1.01},
		{2.344, 2.34},
		{-2.345, -2.35},
		{0, 0},
		{1234567.891, 1234567.89},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}
