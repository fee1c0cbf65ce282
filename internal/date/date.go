// Package date provides a Date type that marshals as dd-Mon-yy.
package date

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	// Layout is the canonical text form used in schedule cells.
	Layout = "02-Jan-06"

	isoLayout   = "2006-01-02"
	hoursPerDay = 24

	// MinYear and MaxYear bound the years a two-digit year can express.
	MinYear = 2000
	MaxYear = 2099
)

var monthAbbr = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Date represents a calendar date without time or timezone.
type Date struct {
	time.Time
}

// New creates a Date from year, month, day.
func New(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its calendar date.
func FromTime(t time.Time) Date {
	return New(t.Year(), t.Month(), t.Day())
}

// Today returns today's date.
func Today() Date {
	return FromTime(time.Now())
}

// Parse parses a dd-Mon-yy string into a Date. Month abbreviations are
// matched case-insensitively and two-digit years mean 2000+yy. ISO
// YYYY-MM-DD is accepted as a fallback when its year lies in
// MinYear..MaxYear.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if d, ok := parseShort(s); ok {
		return d, nil
	}
	if t, err := time.Parse(isoLayout, s); err == nil {
		d := Date{t}
		if !d.InRange() {
			return Date{}, fmt.Errorf("invalid date %q: year must be between %d and %d", s, MinYear, MaxYear)
		}
		return d, nil
	}
	return Date{}, fmt.Errorf("invalid date %q: expected dd-Mon-yy", s)
}

// ParseOptional parses s and reports whether it held a usable date.
// Empty and malformed input both return false.
func ParseOptional(s string) (Date, bool) {
	if strings.TrimSpace(s) == "" {
		return Date{}, false
	}
	d, err := Parse(s)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

func parseShort(s string) (Date, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 { //nolint:mnd // day-month-year
		return Date{}, false
	}
	if len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[2]) != 2 {
		return Date{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, false
	}
	month, ok := monthAbbr[strings.ToLower(parts[1])]
	if !ok {
		return Date{}, false
	}
	yy, err := strconv.Atoi(parts[2])
	if err != nil || yy < 0 {
		return Date{}, false
	}
	d := New(2000+yy, month, day)
	// time.Date normalizes 31-Feb into March; reject instead.
	if d.Day() != day || d.Month() != month {
		return Date{}, false
	}
	return d, true
}

// InRange reports whether d survives a dd-Mon-yy round trip.
func (d Date) InRange() bool {
	return d.Year() >= MinYear && d.Year() <= MaxYear
}

// String returns the date as dd-Mon-yy.
func (d Date) String() string {
	return d.Format(Layout)
}

// ISO returns the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format(isoLayout)
}

// AddDays returns the date n whole days later (earlier when n < 0).
func (d Date) AddDays(n int) Date {
	return Date{d.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours()) / hoursPerDay
}

// Equal reports whether d and other are the same calendar date.
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// MarshalYAML implements yaml.Marshaler.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.v3 Unmarshaler.
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := Parse(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
