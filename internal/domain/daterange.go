package domain

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the format of date strings used in names and configuration.
const DateLayout = "2006-01-02"

// DateRange is the half-open analysis interval [Start, End), both at UTC
// midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both ends to UTC days and checks start <= end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%s after %s: %w", r.Start.Format(DateLayout), r.End.Format(DateLayout), ErrInvalidDateRange)
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("start date: %w", err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("end date: %w", err)
	}
	return NewDateRange(s, e)
}

// Contains reports whether t falls within [Start, End).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Days returns the number of calendar days covered.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + "/" + r.End.Format(DateLayout)
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ScenesOn returns the scenes acquired within [date, date+24h).
func ScenesOn(date time.Time, scenes []SceneRecord) []SceneRecord {
	day := DateRange{Start: Day(date), End: Day(date).AddDate(0, 0, 1)}
	var out []SceneRecord
	for _, s := range scenes {
		if day.Contains(s.Acquired) {
			out = append(out, s)
		}
	}
	return out
}

// DistinctDates returns the sorted, de-duplicated UTC days on which scenes
// were acquired.
func DistinctDates(scenes []SceneRecord) []time.Time {
	seen := make(map[time.Time]struct{}, len(scenes))
	dates := make([]time.Time, 0, len(scenes))
	for _, s := range scenes {
		d := Day(s.Acquired)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// FormatDates renders dates as YYYY-MM-DD strings.
func FormatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return out
}
