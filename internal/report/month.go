package report

import (
	"time"

	"mstore/internal/core"
	"mstore/internal/ledger"
)

// Day is the content of one calendar day of a ledger.
type Day struct {
	DateKey string        `json:"dateKey"`
	Records []core.Record `json:"records"`
	Stats   Stats         `json:"stats"`
}

// MonthDays returns the date key of every day of the given month.
func MonthDays(year int, month time.Month) []string {
	last := time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
	keys := make([]string, last)
	for d := 1; d <= last; d++ {
		keys[d-1] = core.DateKey(time.Date(year, month, d, 12, 0, 0, 0, time.UTC))
	}
	return keys
}

// DayBreakdown lists every day of the month with its records, including
// days that have none.
func DayBreakdown(l *ledger.Ledger, year int, month time.Month) []Day {
	keys := MonthDays(year, month)
	days := make([]Day, len(keys))
	for i, key := range keys {
		records := l.Records(key)
		if records == nil {
			records = []core.Record{}
		}
		days[i] = Day{DateKey: key, Records: records, Stats: Summarize(records)}
	}
	return days
}
