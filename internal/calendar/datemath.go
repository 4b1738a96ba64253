// Package calendar builds month grids and resolves and classifies recurring
// payments against them. Every function takes "now" explicitly and performs
// no I/O.
package calendar

import (
	"errors"
	"time"
)

const (
	// GridSize is the number of cells in a month view: six Monday-first weeks.
	GridSize = 42

	MinYear = 1900
	MaxYear = 9999
)

var (
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrInvalidYear  = errors.New("year out of supported range")
	ErrUnresolvable = errors.New("payment date could not be resolved")
)

// IsLeapYear reports whether year has a 29th of February.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days of month in year, or 0 for a month
// outside January..December. Callers check periods with ValidatePeriod.
func DaysInMonth(year int, month time.Month) int {
	if month < time.January || month > time.December {
		return 0
	}
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return monthDays[month-1]
}

// MondayIndex converts a Sunday-first weekday to Monday=0 ... Sunday=6.
func MondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// ValidatePeriod checks that (year, month) can be rendered.
func ValidatePeriod(year int, month time.Month) error {
	if month < time.January || month > time.December {
		return ErrInvalidMonth
	}
	if year < MinYear || year > MaxYear {
		return ErrInvalidYear
	}
	return nil
}

// previousMonth and nextMonth wrap across year boundaries.
func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
