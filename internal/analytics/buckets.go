package analytics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

// ParseGranularity accepts daily, weekly or monthly. An empty selector means
// monthly.
func ParseGranularity(s string) (models.Granularity, error) {
	switch g := models.Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return models.GranularityMonthly, nil
	case models.GranularityDaily, models.GranularityWeekly, models.GranularityMonthly:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

func normalizeGranularity(g models.Granularity) models.Granularity {
	switch g {
	case models.GranularityDaily, models.GranularityWeekly:
		return g
	default:
		return models.GranularityMonthly
	}
}

// BucketKey returns the time-series key of t. Keys are year first so that
// daily and monthly keys sort chronologically as strings; weekly keys carry an
// unpadded week number.
func BucketKey(t time.Time, g models.Granularity) string {
	t = t.UTC()
	switch normalizeGranularity(g) {
	case models.GranularityDaily:
		return t.Format(time.DateOnly)
	case models.GranularityWeekly:
		return strconv.Itoa(t.Year()) + "-W" + strconv.Itoa(WeekNumber(t))
	default:
		return t.Format("2006-01")
	}
}

// WeekNumber counts Sunday-started weeks from January 1st:
// ceil((wholeDaysSinceJan1 + weekday(Jan1) + 1) / 7). Not ISO-8601.
func WeekNumber(t time.Time) int {
	t = t.UTC()
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := t.YearDay() - 1
	return (days + int(jan1.Weekday()) + 1 + 6) / 7
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06 15:04",
	"1/2/06",
	"2006-01",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.UnixDate,
}

// ParseDate reads the date formats spreadsheets and JSON exports commonly
// produce. Bare digit strings are a year when four digits long and epoch
// milliseconds otherwise. Zoneless values are taken as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if isDigits(s) {
		if len(s) == 4 {
			year, _ := strconv.Atoi(s)
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
