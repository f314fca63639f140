// Package timeutil holds the calendar arithmetic shared by the snapshot engine,
// the scheduler and the list filters: day bounds, Sunday-based weeks and week
// ids, all evaluated in one configured location.
package timeutil

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for calendar dates and week ids (YYYY-MM-DD).
const DateFormat = "2006-01-02"

// Weekdays lists day names in week order, starting with Sunday.
var Weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Calendar evaluates day and week boundaries in a fixed location.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Calendar in loc backed by the wall clock.
func New(loc *time.Location) *Calendar {
	return NewWithClock(loc, time.Now)
}

// NewWithClock returns a Calendar with an injectable clock, for tests and
// manual job runs pinned to a given instant.
func NewWithClock(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

// Location returns the calendar's location.
func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current instant in the calendar's location.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

// Today returns the start of the current day.
func (c *Calendar) Today() time.Time { return c.StartOfDay(c.Now()) }

// StartOfDay truncates t to midnight of its calendar day.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// DayBounds returns [start, next) for t's calendar day. Queries use the half
// open range so DST days of 23 or 25 hours stay correct.
func (c *Calendar) DayBounds(t time.Time) (time.Time, time.Time) {
	start := c.StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// EndOfDay returns the last millisecond of t's calendar day.
func (c *Calendar) EndOfDay(t time.Time) time.Time {
	_, next := c.DayBounds(t)
	return next.Add(-time.Millisecond)
}

// WeekStart returns midnight of the Sunday on or before t.
func (c *Calendar) WeekStart(t time.Time) time.Time {
	day := c.StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekEnd returns the last millisecond of the Saturday ending t's week.
func (c *Calendar) WeekEnd(t time.Time) time.Time {
	return c.EndOfDay(c.WeekStart(t).AddDate(0, 0, 6))
}

// WeekDays returns the seven day starts of the week containing t.
func (c *Calendar) WeekDays(t time.Time) [7]time.Time {
	var days [7]time.Time
	start := c.WeekStart(t)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// WeekID returns the id of the week containing t.
func (c *Calendar) WeekID(t time.Time) string {
	return c.WeekStart(t).Format(DateFormat)
}

// ParseDate parses YYYY-MM-DD as midnight in the calendar's location.
func (c *Calendar) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseWeekID parses a week id and rejects dates that are not a Sunday.
func (c *Calendar) ParseWeekID(s string) (time.Time, error) {
	t, err := c.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if t.Weekday() != time.Sunday {
		return time.Time{}, fmt.Errorf("invalid week id %q: must be a Sunday", s)
	}
	return t, nil
}

// ParseFlexible accepts RFC3339 timestamps or YYYY-MM-DD dates.
func (c *Calendar) ParseFlexible(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return c.ParseDate(s)
}

// WeekdayName returns the day name used as a workout day key.
func (c *Calendar) WeekdayName(t time.Time) string {
	return Weekdays[t.In(c.loc).Weekday()]
}

// RangeStart returns the inclusive lower bound for a list filter. The second
// result is false for "all" and unknown ranges, meaning no bound.
func (c *Calendar) RangeStart(timeRange string) (time.Time, bool) {
	now := c.Now()
	switch timeRange {
	case "daily":
		return c.StartOfDay(now), true
	case "weekly":
		return c.WeekStart(now), true
	case "monthly":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc), true
	case "annually":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, c.loc), true
	}
	return time.Time{}, false
}
