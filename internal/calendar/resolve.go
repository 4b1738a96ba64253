package calendar

import (
	"fmt"
	"time"

	"paycal/internal/core"
)

// ResolveFixedDate places a nominal due day inside (year, month), clamping
// days that do not exist to the last day of the month.
func ResolveFixedDate(dueDay, year int, month time.Month) (core.Date, error) {
	if dueDay < 1 || dueDay > 31 {
		return core.Date{}, core.ErrInvalidDueDay
	}
	if err := ValidatePeriod(year, month); err != nil {
		return core.Date{}, err
	}
	return core.NewDate(year, month, min(dueDay, DaysInMonth(year, month))), nil
}

// ResolveInstallmentDate returns the date of the next open installment.
//
// A parseable NextPaymentDate wins. Otherwise the next date is the start date
// moved forward by paid+1 months, keeping the start day when that month has
// it and clamping to its last day when it does not.
//
// When neither path yields a usable date the date of now is returned together
// with an error wrapping ErrUnresolvable, so callers can keep rendering.
func ResolveInstallmentDate(p core.InstallmentPayment, now time.Time) (core.Date, error) {
	if p.NextPaymentDate != "" {
		if d, err := core.ParseDate(p.NextPaymentDate); err == nil && validYear(d.Year()) {
			return d, nil
		}
	}

	fallback := core.DateOf(now)
	start := p.StartDate
	if err := start.Validate(); err != nil {
		return fallback, fmt.Errorf("%w: start date: %v", ErrUnresolvable, err)
	}
	if p.PaidInstallments < 0 {
		return fallback, fmt.Errorf("%w: negative paid installments %d", ErrUnresolvable, p.PaidInstallments)
	}

	idx := int(start.Month()-time.January) + p.PaidInstallments + 1
	year := start.Year() + idx/12
	month := time.Month(idx%12) + time.January
	if !validYear(year) {
		return fallback, fmt.Errorf("%w: year %d out of range", ErrUnresolvable, year)
	}

	return core.NewDate(year, month, min(start.Day(), DaysInMonth(year, month))), nil
}

// Resolve dispatches on the payment shape. Fixed payments land inside the
// viewed (year, month); installments resolve independently of the view.
func Resolve(p core.Payment, year int, month time.Month, now time.Time) (core.Date, error) {
	switch v := p.(type) {
	case core.FixedPayment:
		return ResolveFixedDate(v.DueDay, year, month)
	case core.InstallmentPayment:
		return ResolveInstallmentDate(v, now)
	default:
		return core.DateOf(now), fmt.Errorf("%w: %T", core.ErrUnsupportedPaymentKind, p)
	}
}

func validYear(y int) bool {
	return y >= MinYear && y <= MaxYear
}
