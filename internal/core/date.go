package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses an ISO-8601 date ("2024-02-29") or timestamp
// ("2024-02-29T10:00:00Z"). For timestamps only the date part is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrInvalidDate
}

// DaysBetween returns the whole number of days from a to b, negative when b is before a.
func DaysBetween(a, b Date) int {
	return int((DateOf(b.Time).Unix() - DateOf(a.Time).Unix()) / secondsPerDay)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is a calendar day before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// Equal reports whether both values represent the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month() && d.Day() == o.Day()
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when empty.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted ISO-8601 date or timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
