package calendar

import (
	"time"

	"paycal/internal/core"
)

// CalendarDay is one cell of a month grid.
type CalendarDay struct {
	Date           core.Date          `json:"date"`
	DayOfMonth     int                `json:"dayOfMonth"`
	IsCurrentMonth bool               `json:"isCurrentMonth"`
	IsToday        bool               `json:"isToday"`
	Payments       []AnnotatedPayment `json:"payments"`
}

// BuildMonthGrid returns the 42 days shown for (year, month): the tail of the
// previous month up to the first Monday-aligned week, the month itself, and
// the head of the next month.
func BuildMonthGrid(year int, month time.Month, now time.Time) ([]CalendarDay, error) {
	if err := ValidatePeriod(year, month); err != nil {
		return nil, err
	}

	today := core.DateOf(now)
	first := core.NewDate(year, month, 1)
	lead := MondayIndex(first.Weekday())

	grid := make([]CalendarDay, 0, GridSize)
	add := func(y int, m time.Month, d int, current bool) {
		date := core.NewDate(y, m, d)
		grid = append(grid, CalendarDay{
			Date:           date,
			DayOfMonth:     d,
			IsCurrentMonth: current,
			IsToday:        date.Equal(today),
			Payments:       []AnnotatedPayment{},
		})
	}

	py, pm := previousMonth(year, month)
	prevDays := DaysInMonth(py, pm)
	for d := prevDays - lead + 1; d <= prevDays; d++ {
		add(py, pm, d, false)
	}

	for d := 1; d <= DaysInMonth(year, month); d++ {
		add(year, month, d, true)
	}

	ny, nm := nextMonth(year, month)
	for d := 1; len(grid) < GridSize; d++ {
		add(ny, nm, d, false)
	}

	return grid, nil
}
