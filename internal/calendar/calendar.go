// Package calendar holds the one time-zone policy used for every day-based
// computation: streaks, daily study buckets and the weekly dashboard window.
package calendar

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Day is a civil date with no time-of-day component.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// Of returns the calendar day t falls on in loc.
func Of(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// Parse reads a YYYY-MM-DD string.
func Parse(s string) (Day, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return Of(t, time.UTC), nil
}

// FromTime interprets t's UTC date as the day. Stores keep days as UTC midnight.
func FromTime(t time.Time) Day {
	return Of(t, time.UTC)
}

// Time returns midnight UTC of d.
func (d Day) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Day) AddDays(n int) Day {
	return FromTime(d.Time().AddDate(0, 0, n))
}

func (d Day) Before(o Day) bool { return d.Time().Before(o.Time()) }
func (d Day) After(o Day) bool  { return d.Time().After(o.Time()) }
func (d Day) Equal(o Day) bool  { return d == o }

func (d Day) IsZero() bool { return d == Day{} }

func (d Day) String() string {
	return d.Time().Format(layout)
}

// DaysBetween returns b - a in whole calendar days.
func DaysBetween(a, b Day) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("day must be a quoted YYYY-MM-DD string")
	}
	parsed, err := Parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Window is an inclusive range of days.
type Window struct {
	From Day `json:"from"`
	To   Day `json:"to"`
}

// WeekWindow covers the trailing seven days ending with today.
func WeekWindow(today Day) Window {
	return Window{From: today.AddDays(-6), To: today}
}

func (w Window) Contains(d Day) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

// Clock resolves "now" and "today" under a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) Clock {
	return NewClockWithNow(loc, time.Now)
}

// NewClockWithNow is used by tests to pin the current instant.
func NewClockWithNow(loc *time.Location, now func() time.Time) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{loc: loc, now: now}
}

// LoadClock builds a clock for an IANA zone name; empty means UTC.
func LoadClock(zone string) (Clock, error) {
	if zone == "" {
		return NewClock(time.UTC), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Clock{}, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return NewClock(loc), nil
}

func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c Clock) Today() Day {
	return Of(c.Now(), c.Location())
}

func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
