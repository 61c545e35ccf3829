// Package timetable holds the school's fixed daily lesson-period table and
// the pure resolution helpers that map timestamps onto it. The catalog is
// built once at startup from configuration and never mutated afterwards.
package timetable

import (
	"fmt"
	"strings"
	"time"
)

// ClockTime is a time-of-day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(raw string) (ClockTime, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", raw)
	}
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", raw, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", raw)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// Minutes returns the offset from midnight in minutes.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// String renders "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On anchors the clock time onto the given calendar date, keeping the
// date's location.
func (c ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

// Period is one fixed lesson slot in the daily bell schedule.
type Period struct {
	Number int       `json:"number"`
	Start  ClockTime `json:"-"`
	End    ClockTime `json:"-"`
}

// Catalog is the ordered, immutable set of daily lesson periods.
type Catalog struct {
	periods []Period
	byStart map[int]int
}

// DefaultPeriods is the school bell schedule used when configuration does
// not override it.
var DefaultPeriods = []string{
	"08:30-09:10",
	"09:25-10:05",
	"10:20-11:00",
	"11:05-11:45",
	"12:10-12:50",
	"13:15-13:55",
	"14:00-14:40",
	"14:55-15:35",
	"15:50-16:30",
	"16:35-17:15",
}

// NewCatalog parses "HH:MM-HH:MM" specs into a validated catalog. Periods
// must be well-formed, non-overlapping and strictly increasing by start
// time; a violation is a configuration error the caller treats as fatal.
func NewCatalog(specs []string) (*Catalog, error) {
	if len(specs) == 0 {
		specs = DefaultPeriods
	}
	periods := make([]Period, 0, len(specs))
	byStart := make(map[int]int, len(specs))

	prevEnd := -1
	for i, spec := range specs {
		bounds := strings.SplitN(strings.TrimSpace(spec), "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("period %d: invalid spec %q", i+1, spec)
		}
		start, err := ParseClockTime(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", i+1, err)
		}
		end, err := ParseClockTime(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", i+1, err)
		}
		if end.Minutes() <= start.Minutes() {
			return nil, fmt.Errorf("period %d: end %s not after start %s", i+1, end, start)
		}
		if start.Minutes() <= prevEnd {
			return nil, fmt.Errorf("period %d: start %s overlaps previous period", i+1, start)
		}
		prevEnd = end.Minutes()

		number := i + 1
		periods = append(periods, Period{Number: number, Start: start, End: end})
		byStart[start.Minutes()] = number
	}

	return &Catalog{periods: periods, byStart: byStart}, nil
}

// Periods returns a copy of the catalog entries in order.
func (c *Catalog) Periods() []Period {
	out := make([]Period, len(c.periods))
	copy(out, c.periods)
	return out
}

// Len returns the number of configured periods.
func (c *Catalog) Len() int {
	return len(c.periods)
}

// Resolve maps a timestamp onto a period number by exact match of its
// time-of-day against a period's start. The boolean is false for custom
// times that do not align with the bell schedule. Only the start is
// matched; the event's end is free to differ from the period's end.
func (c *Catalog) Resolve(t time.Time) (int, bool) {
	number, ok := c.byStart[t.Hour()*60+t.Minute()]
	return number, ok
}

// Materialize combines the target date with the period's bounds, producing
// concrete start and end timestamps on that date.
func (c *Catalog) Materialize(period int, date time.Time) (time.Time, time.Time, error) {
	if period < 1 || period > len(c.periods) {
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period %d", period)
	}
	p := c.periods[period-1]
	return p.Start.On(date), p.End.On(date), nil
}
