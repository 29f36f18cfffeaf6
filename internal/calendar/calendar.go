// Package calendar counts working days between two dates.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the layout used for configured holiday dates.
const DateLayout = "2006-01-02"

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{y, m, d}
}

// DefaultHolidayDates are the Chilean public holidays of the second half of 2024.
var DefaultHolidayDates = []string{
	"2024-08-15",
	"2024-09-18",
	"2024-09-19",
	"2024-09-20",
	"2024-10-12",
	"2024-10-31",
	"2024-11-01",
	"2024-12-08",
	"2024-12-25",
}

// Default returns a calendar with DefaultHolidayDates.
func Default() Calendar {
	c, _ := Parse(DefaultHolidayDates)
	return c
}

// Calendar is an immutable set of non-working dates on top of the Monday-Friday week.
type Calendar struct {
	holidays map[civilDate]struct{}
}

// New builds a calendar from holiday timestamps. Only the calendar date of each value is kept.
func New(holidays []time.Time) Calendar {
	set := make(map[civilDate]struct{}, len(holidays))
	for _, h := range holidays {
		set[dateOf(h)] = struct{}{}
	}
	return Calendar{holidays: set}
}

// Parse builds a calendar from YYYY-MM-DD strings. Invalid entries are returned separately
// so callers can warn about them without discarding the valid ones.
func Parse(holidays []string) (Calendar, []error) {
	var parsed []time.Time
	var errs []error
	for _, h := range holidays {
		t, err := time.Parse(DateLayout, h)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid holiday date %q: %w", h, err))
			continue
		}
		parsed = append(parsed, t)
	}
	return New(parsed), errs
}

// IsHoliday reports whether the calendar date of t is a configured holiday.
func (c Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[dateOf(t)]
	return ok
}

// IsBusinessDay reports whether t falls on Monday-Friday and is not a holiday.
func (c Calendar) IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(t)
}

// Holidays returns the number of configured holidays.
func (c Calendar) Holidays() int {
	return len(c.holidays)
}

// BusinessDays counts the business days in the inclusive range [start, end] by calendar date.
// It returns nil when either bound is missing and 0 when end precedes start.
func (c Calendar) BusinessDays(start, end *time.Time) *int {
	if start == nil || end == nil {
		return nil
	}

	// Walk calendar dates at noon UTC so DST shifts never skip or repeat a day.
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	cur := time.Date(sy, sm, sd, 12, 0, 0, 0, time.UTC)
	last := time.Date(ey, em, ed, 12, 0, 0, 0, time.UTC)

	count := 0
	for !cur.After(last) {
		if c.IsBusinessDay(cur) {
			count++
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return &count
}
