package streak

import (
	"fmt"
	"time"
)

// Day is a civil calendar date with no time-of-day or zone.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// AddDays returns the day n calendar days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	t := time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC)
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Day) Equal(o Day) bool {
	return d == o
}

// Before reports whether d is an earlier calendar day than o.
func (d Day) Before(o Day) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return Day{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Calendar maps instants to calendar days in the viewer's zone. Two instants
// are on the same day when their local dates match; elapsed time is irrelevant,
// so 23:59 and 00:01 the next morning are consecutive days.
type Calendar struct {
	Location *time.Location
}

// NewCalendar returns a calendar for loc; nil means time.Local.
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{Location: loc}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Day returns the calendar day of t in the calendar's zone.
func (c Calendar) Day(t time.Time) Day {
	lt := t.In(c.loc())
	return Day{Year: lt.Year(), Month: lt.Month(), Day: lt.Day()}
}

func (c Calendar) Today(now time.Time) Day {
	return c.Day(now)
}

func (c Calendar) Yesterday(now time.Time) Day {
	return c.Day(now).AddDays(-1)
}

// SameDay reports whether a and b fall on the same calendar day.
func (c Calendar) SameDay(a, b time.Time) bool {
	return c.Day(a) == c.Day(b)
}
