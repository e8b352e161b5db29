package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mstore/internal/core"
	"mstore/internal/ledger"
)

// Period is a named time window used to scope aggregation.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Overall
)

var ErrUnknownPeriod = errors.New("unknown period")

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "overall"
	}
}

// Periods lists the dashboard periods in display order.
func Periods() []Period {
	return []Period{Daily, Weekly, Monthly, Overall}
}

// ParsePeriod maps a period name to a Period. Unknown names resolve to
// Overall and are reported with ErrUnknownPeriod so callers can choose
// between the fallback and a rejection.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "today":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "overall", "all":
		return Overall, nil
	default:
		return Overall, fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// ResolveDateKeys returns the date keys of l that belong to p around ref.
//
// Daily and Weekly return fixed keys that may be absent from l. Monthly and
// Overall return only keys present in l, in the ledger's insertion order.
// A Period outside the known set resolves like Overall.
func ResolveDateKeys(p Period, ref time.Time, l *ledger.Ledger) []string {
	switch p {
	case Daily:
		return []string{core.DateKey(ref)}
	case Weekly:
		return WeekKeys(ref)
	case Monthly:
		prefix := core.MonthPrefix(ref.Year(), ref.Month())
		var keys []string
		for _, k := range l.Keys() {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		return keys
	default:
		return l.Keys()
	}
}

// WeekKeys returns the seven date keys of the Sunday-based week containing ref.
func WeekKeys(ref time.Time) []string {
	// Noon keeps AddDate away from DST transitions around midnight.
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 12, 0, 0, 0, ref.Location())
	start := day.AddDate(0, 0, -int(day.Weekday()))
	keys := make([]string, 7)
	for i := range keys {
		keys[i] = core.DateKey(start.AddDate(0, 0, i))
	}
	return keys
}
