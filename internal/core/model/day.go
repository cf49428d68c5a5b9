package model

import (
	"encoding/json"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date with no time-of-day or zone. It is comparable and
// safe to use as a map key.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar date of t as seen in t's own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// In returns midnight of d in loc.
func (d Day) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Day) Before(o Day) bool {
	return d.In(time.UTC).Before(o.In(time.UTC))
}

func (d Day) After(o Day) bool {
	return o.Before(d)
}

func (d Day) IsZero() bool {
	return d == Day{}
}

// String formats d as YYYY-MM-DD; the zero Day is "".
func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.In(time.UTC).Format(dayLayout)
}

// MarshalJSON encodes the zero Day as null.
func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts null and "" as the zero Day.
func (d *Day) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthRange returns the first and last day of the month containing d.
func MonthRange(d Day) (Day, Day) {
	first := Day{Year: d.Year, Month: d.Month, Day: 1}
	last := DayOf(first.In(time.UTC).AddDate(0, 1, -1))
	return first, last
}
