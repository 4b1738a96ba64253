package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"paycal/internal/core"
)

var march15 = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func TestBuildMonthGridInvariants(t *testing.T) {
	years := []int{MinYear, 1999, 2000, 2023, 2024, 2100, MaxYear}
	for _, year := range years {
		for month := time.January; month <= time.December; month++ {
			grid, err := BuildMonthGrid(year, month, march15)
			if err != nil {
				t.Fatalf("%d-%02d: unexpected error %v", year, month, err)
			}
			if len(grid) != GridSize {
				t.Fatalf("%d-%02d: expected %d cells, got %d", year, month, GridSize, len(grid))
			}
			if idx := MondayIndex(grid[0].Date.Weekday()); idx != 0 {
				t.Fatalf("%d-%02d: grid does not start on Monday (%s)", year, month, grid[0].Date.Weekday())
			}

			current := 0
			for i, cell := range grid {
				if cell.DayOfMonth != cell.Date.Day() {
					t.Fatalf("%d-%02d cell %d: day %d does not match date %s", year, month, i, cell.DayOfMonth, cell.Date)
				}
				if cell.IsCurrentMonth {
					current++
					if cell.Date.Month() != month || cell.Date.Year() != year {
						t.Fatalf("%d-%02d cell %d: %s marked as current month", year, month, i, cell.Date)
					}
				}
				if i > 0 {
					if d := core.DaysBetween(grid[i-1].Date, cell.Date); d != 1 {
						t.Fatalf("%d-%02d cells %d..%d: gap of %d days", year, month, i-1, i, d)
					}
				}
			}
			if current != DaysInMonth(year, month) {
				t.Fatalf("%d-%02d: expected %d current-month cells, got %d", year, month, DaysInMonth(year, month), current)
			}
		}
	}
}

func TestBuildMonthGridLayout(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		first     core.Date
		last      core.Date
		leadCells int
	}{
		{
			name:      "leap february tail in march",
			year:      2024,
			month:     time.March,
			first:     core.NewDate(2024, time.February, 26),
			last:      core.NewDate(2024, time.April, 7),
			leadCells: 4,
		},
		{
			name:      "january wraps to previous december",
			year:      2023,
			month:     time.January,
			first:     core.NewDate(2022, time.December, 26),
			last:      core.NewDate(2023, time.February, 5),
			leadCells: 6,
		},
		{
			name:      "december wraps to next january",
			year:      2024,
			month:     time.December,
			first:     core.NewDate(2024, time.November, 25),
			last:      core.NewDate(2025, time.January, 5),
			leadCells: 6,
		},
		{
			name:      "month starting on monday",
			year:      2024,
			month:     time.April,
			first:     core.NewDate(2024, time.April, 1),
			last:      core.NewDate(2024, time.May, 12),
			leadCells: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := BuildMonthGrid(tt.year, tt.month, march15)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !grid[0].Date.Equal(tt.first) {
				t.Errorf("first cell = %s, want %s", grid[0].Date, tt.first)
			}
			if !grid[GridSize-1].Date.Equal(tt.last) {
				t.Errorf("last cell = %s, want %s", grid[GridSize-1].Date, tt.last)
			}
			if !grid[tt.leadCells].IsCurrentMonth || grid[tt.leadCells].DayOfMonth != 1 {
				t.Errorf("cell %d should be the 1st of the month, got %+v", tt.leadCells, grid[tt.leadCells])
			}
		})
	}
}

func TestBuildMonthGridToday(t *testing.T) {
	grid, err := BuildMonthGrid(2024, time.March, march15)
	if err != nil {
		t.Fatal(err)
	}
	var todays []string
	for _, cell := range grid {
		if cell.IsToday {
			todays = append(todays, cell.Date.String())
		}
	}
	if diff := cmp.Diff(todays, []string{"2024-03-15"}); diff != "" {
		t.Errorf("today cells mismatch (-got +want):\n%s", diff)
	}

	// 23:59 still belongs to the same calendar day.
	late := time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC)
	grid, _ = BuildMonthGrid(2024, time.March, late)
	if !grid[18].IsToday {
		t.Errorf("expected cell 18 (%s) to be today", grid[18].Date)
	}

	grid, _ = BuildMonthGrid(2024, time.June, march15)
	for _, cell := range grid {
		if cell.IsToday {
			t.Fatalf("no cell of June 2024 should be today, got %s", cell.Date)
		}
	}
}

func TestBuildMonthGridRejectsInvalidInput(t *testing.T) {
	if _, err := BuildMonthGrid(2024, 0, march15); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := BuildMonthGrid(2024, 13, march15); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := BuildMonthGrid(20000, time.May, march15); !errors.Is(err, ErrInvalidYear) {
		t.Errorf("expected ErrInvalidYear, got %v", err)
	}
}

func TestBuildMonthGridIsDeterministic(t *testing.T) {
	a, err := BuildMonthGrid(2024, time.February, march15)
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildMonthGrid(2024, time.February, march15)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("grid differs between calls (-first +second):\n%s", diff)
	}
}
