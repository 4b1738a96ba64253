package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestIsLeapYear(t *testing.T) {
	tests := []struct {
		year int
		want bool
	}{
		{1900, false},
		{2000, true},
		{2023, false},
		{2024, true},
		{2100, false},
		{2400, true},
	}
	for _, tt := range tests {
		if got := IsLeapYear(tt.year); got != tt.want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
		{2024, 0, 0},
		{2024, 13, 0},
		{2024, -1, 0},
	}
	for _, tt := range tests {
		if got := DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestDaysInMonthMatchesTimePackage(t *testing.T) {
	for year := 1996; year <= 2104; year++ {
		for m := time.January; m <= time.December; m++ {
			want := time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
			if got := DaysInMonth(year, m); got != want {
				t.Fatalf("DaysInMonth(%d, %s) = %d, want %d", year, m, got, want)
			}
		}
	}
}

func TestMondayIndex(t *testing.T) {
	want := map[time.Weekday]int{
		time.Monday:    0,
		time.Tuesday:   1,
		time.Wednesday: 2,
		time.Thursday:  3,
		time.Friday:    4,
		time.Saturday:  5,
		time.Sunday:    6,
	}
	for w, idx := range want {
		if got := MondayIndex(w); got != idx {
			t.Errorf("MondayIndex(%s) = %d, want %d", w, got, idx)
		}
	}
}

func TestValidatePeriod(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		want  error
	}{
		{"ok", 2024, time.March, nil},
		{"lower bound", MinYear, time.January, nil},
		{"upper bound", MaxYear, time.December, nil},
		{"month zero", 2024, 0, ErrInvalidMonth},
		{"month thirteen", 2024, 13, ErrInvalidMonth},
		{"year too small", MinYear - 1, time.June, ErrInvalidYear},
		{"year too large", MaxYear + 1, time.June, ErrInvalidYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePeriod(tt.year, tt.month); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
