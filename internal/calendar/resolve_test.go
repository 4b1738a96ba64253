package calendar

import (
	"errors"
	"testing"
	"time"

	"paycal/internal/core"
)

func TestResolveFixedDate(t *testing.T) {
	tests := []struct {
		name   string
		dueDay int
		year   int
		month  time.Month
		want   core.Date
	}{
		{"31st in april clamps to 30th", 31, 2024, time.April, core.NewDate(2024, time.April, 30)},
		{"31st in leap february", 31, 2024, time.February, core.NewDate(2024, time.February, 29)},
		{"29th in non-leap february", 29, 2023, time.February, core.NewDate(2023, time.February, 28)},
		{"30th in january unchanged", 30, 2024, time.January, core.NewDate(2024, time.January, 30)},
		{"first of december", 1, 2024, time.December, core.NewDate(2024, time.December, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveFixedDate(tt.dueDay, tt.year, tt.month)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveFixedDateErrors(t *testing.T) {
	if _, err := ResolveFixedDate(0, 2024, time.March); !errors.Is(err, core.ErrInvalidDueDay) {
		t.Errorf("expected ErrInvalidDueDay, got %v", err)
	}
	if _, err := ResolveFixedDate(32, 2024, time.March); !errors.Is(err, core.ErrInvalidDueDay) {
		t.Errorf("expected ErrInvalidDueDay, got %v", err)
	}
	if _, err := ResolveFixedDate(10, 2024, 13); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestResolveInstallmentDate(t *testing.T) {
	tests := []struct {
		name  string
		start core.Date
		paid  int
		next  string
		want  core.Date
	}{
		{
			name:  "jan 31 leap year lands on feb 29",
			start: core.NewDate(2024, time.January, 31),
			want:  core.NewDate(2024, time.February, 29),
		},
		{
			name:  "jan 31 non-leap year lands on feb 28",
			start: core.NewDate(2023, time.January, 31),
			want:  core.NewDate(2023, time.February, 28),
		},
		{
			name:  "day kept when month has it",
			start: core.NewDate(2024, time.January, 31),
			paid:  1,
			want:  core.NewDate(2024, time.March, 31),
		},
		{
			name:  "wraps into next year",
			start: core.NewDate(2024, time.November, 15),
			paid:  1,
			want:  core.NewDate(2025, time.January, 15),
		},
		{
			name:  "wraps and clamps",
			start: core.NewDate(2024, time.December, 31),
			paid:  1,
			want:  core.NewDate(2025, time.February, 28),
		},
		{
			name:  "multi-year span",
			start: core.NewDate(2022, time.June, 10),
			paid:  30,
			want:  core.NewDate(2025, time.January, 10),
		},
		{
			name:  "server date wins",
			start: core.NewDate(2024, time.January, 31),
			next:  "2024-05-05",
			want:  core.NewDate(2024, time.May, 5),
		},
		{
			name:  "server timestamp keeps its date",
			start: core.NewDate(2024, time.January, 31),
			next:  "2024-05-05T00:00:00.000Z",
			want:  core.NewDate(2024, time.May, 5),
		},
		{
			name:  "unparseable server date falls through",
			start: core.NewDate(2024, time.January, 31),
			next:  "not a date",
			want:  core.NewDate(2024, time.February, 29),
		},
		{
			name:  "impossible server date falls through",
			start: core.NewDate(2023, time.January, 31),
			next:  "2023-02-30",
			want:  core.NewDate(2023, time.February, 28),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := core.InstallmentPayment{
				StartDate:         tt.start,
				PaidInstallments:  tt.paid,
				TotalInstallments: 36,
				NextPaymentDate:   tt.next,
			}
			got, err := ResolveInstallmentDate(p, march15)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveInstallmentDateFallback(t *testing.T) {
	tests := []struct {
		name string
		p    core.InstallmentPayment
	}{
		{"zero start date", core.InstallmentPayment{TotalInstallments: 3}},
		{"negative paid count", core.InstallmentPayment{StartDate: core.NewDate(2024, time.January, 1), PaidInstallments: -2, TotalInstallments: 3}},
		{"result beyond supported years", core.InstallmentPayment{StartDate: core.NewDate(MaxYear, time.December, 1), TotalInstallments: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveInstallmentDate(tt.p, march15)
			if !errors.Is(err, ErrUnresolvable) {
				t.Fatalf("expected ErrUnresolvable, got %v", err)
			}
			if !got.Equal(core.DateOf(march15)) {
				t.Fatalf("expected fallback to %s, got %s", core.DateOf(march15), got)
			}
		})
	}
}

func TestResolveDispatch(t *testing.T) {
	fixed := core.FixedPayment{ID: 1, Name: "Rent", DueDay: 31}
	got, err := Resolve(fixed, 2024, time.April, march15)
	if err != nil || !got.Equal(core.NewDate(2024, time.April, 30)) {
		t.Fatalf("fixed: got %s, %v", got, err)
	}

	inst := core.InstallmentPayment{ID: 2, StartDate: core.NewDate(2023, time.January, 31), TotalInstallments: 6}
	// the viewed month does not move installments
	got, err = Resolve(inst, 2030, time.July, march15)
	if err != nil || !got.Equal(core.NewDate(2023, time.February, 28)) {
		t.Fatalf("installment: got %s, %v", got, err)
	}
}
