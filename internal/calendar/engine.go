package calendar

import (
	"time"

	"paycal/internal/core"
	"paycal/internal/log"
)

// Engine runs the grid, resolve and classify steps for a list of payments
// against an injected clock.
type Engine struct {
	now    func() time.Time
	logger *log.Logger
}

// NewEngine returns an Engine reading the current time from now. A nil now
// uses time.Now.
func NewEngine(logger *log.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Engine{now: now, logger: logger.WithComponent(log.ComponentCalendar)}
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Today returns the engine's current calendar date.
func (e *Engine) Today() core.Date {
	return core.DateOf(e.now())
}

// Calendar builds the grid for (year, month) and places every payment on the
// cell matching its resolved date. Fully paid installments have no next date
// and are left out. Each cell's payments are sorted by urgency.
func (e *Engine) Calendar(year int, month time.Month, payments []core.Payment) ([]CalendarDay, error) {
	now := e.now()
	grid, err := BuildMonthGrid(year, month, now)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(grid))
	for i, cell := range grid {
		index[cell.Date.String()] = i
	}

	for _, ap := range e.annotate(year, month, payments, now) {
		if ip, ok := ap.Payment.(core.InstallmentPayment); ok && ip.IsComplete() {
			continue
		}
		if i, ok := index[ap.ResolvedDate.String()]; ok {
			grid[i].Payments = append(grid[i].Payments, ap)
		}
	}
	for i := range grid {
		SortByUrgency(grid[i].Payments)
	}
	return grid, nil
}

// Annotate resolves and classifies every payment for the (year, month) view
// and returns them most urgent first. Fixed payments resolve inside the view
// month; installments resolve to their next open installment.
func (e *Engine) Annotate(year int, month time.Month, payments []core.Payment) []AnnotatedPayment {
	out := e.annotate(year, month, payments, e.now())
	SortByUrgency(out)
	return out
}

// AnnotateOne resolves and classifies a single payment.
func (e *Engine) AnnotateOne(year int, month time.Month, p core.Payment) AnnotatedPayment {
	return e.annotateOne(year, month, p, e.now())
}

func (e *Engine) annotate(year int, month time.Month, payments []core.Payment, now time.Time) []AnnotatedPayment {
	out := make([]AnnotatedPayment, 0, len(payments))
	for _, p := range payments {
		if p == nil {
			continue
		}
		out = append(out, e.annotateOne(year, month, p, now))
	}
	return out
}

func (e *Engine) annotateOne(year int, month time.Month, p core.Payment, now time.Time) AnnotatedPayment {
	today := core.DateOf(now)

	resolved, err := Resolve(p, year, month, now)
	if err != nil {
		e.logger.Warn("Payment date fallback",
			log.FieldPaymentID, p.PaymentID(),
			log.FieldPaymentKind, string(p.Kind()),
			log.FieldYear, year,
			log.FieldMonth, int(month),
			log.FieldError, err.Error())
		if resolved.IsEmpty() {
			resolved = today
		}
	}

	completion := 0
	var serverOverdue *bool
	switch v := p.(type) {
	case core.FixedPayment:
		if v.IsPaidFor(year, month) {
			completion = 100
		}
	case core.InstallmentPayment:
		completion = v.CompletionPercentage()
		serverOverdue = v.IsOverdue
	}

	return AnnotatedPayment{
		Payment:        p,
		ResolvedDate:   resolved,
		Classification: Classify(resolved, today, completion, serverOverdue),
	}
}
