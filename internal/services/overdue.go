package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"paycal/internal/calendar"
	"paycal/internal/core"
	"paycal/internal/log"
)

// Severity grades how late an overdue payment is.
type Severity string

const (
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// criticalAfterDays is the lateness from which an overdue payment is critical.
const criticalAfterDays = 7

// PaymentLister reads the payments overdue detection runs against.
type PaymentLister interface {
	ListFixedPayments(ctx context.Context, activeOnly bool) ([]core.FixedPayment, error)
	ListInstallmentPayments(ctx context.Context, activeOnly bool) ([]core.InstallmentPayment, error)
}

// OverdueItem is one payment past its due date.
type OverdueItem struct {
	PaymentID   int64            `json:"paymentId"`
	Kind        core.PaymentKind `json:"kind"`
	Title       string           `json:"title"`
	Category    string           `json:"category"`
	Amount      core.Money       `json:"amount"`
	DueDate     core.Date        `json:"dueDate"`
	DaysOverdue int              `json:"daysOverdue"`
	Severity    Severity         `json:"severity"`
}

// OverdueGroup aggregates the overdue payments of one kind.
type OverdueGroup struct {
	Count  int           `json:"count"`
	Amount core.Money    `json:"amount"`
	Items  []OverdueItem `json:"items"`
}

// OverdueSummary is the result of one detection run.
type OverdueSummary struct {
	TotalCount   int          `json:"totalCount"`
	TotalAmount  core.Money   `json:"totalAmount"`
	Fixed        OverdueGroup `json:"fixedPayments"`
	Installments OverdueGroup `json:"installments"`
	MostOverdue  *OverdueItem `json:"mostOverdue"`
}

// OverdueDetector finds payments past their due date.
type OverdueDetector struct {
	store     PaymentLister
	graceDays int
	logger    *log.Logger
}

func NewOverdueDetector(store PaymentLister, graceDays int, logger *log.Logger) *OverdueDetector {
	if logger == nil {
		logger = log.Discard()
	}
	if graceDays < 0 {
		graceDays = 0
	}
	return &OverdueDetector{
		store:     store,
		graceDays: graceDays,
		logger:    logger.WithComponent(log.ComponentOverdue),
	}
}

// Detect lists every active payment overdue as of now. Fixed payments are
// overdue once this month's due date has passed without the month being
// marked paid; installments once their next date is more than the grace
// period in the past.
func (d *OverdueDetector) Detect(ctx context.Context, now time.Time) (OverdueSummary, error) {
	var fixed, installments []OverdueItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		payments, err := d.store.ListFixedPayments(gctx, true)
		if err != nil {
			return fmt.Errorf("list fixed payments: %w", err)
		}
		fixed = d.overdueFixed(payments, now)
		return nil
	})
	g.Go(func() error {
		payments, err := d.store.ListInstallmentPayments(gctx, true)
		if err != nil {
			return fmt.Errorf("list installment payments: %w", err)
		}
		installments = d.overdueInstallments(payments, now)
		return nil
	})
	if err := g.Wait(); err != nil {
		d.logger.ErrorContext(ctx, "Overdue detection failed", log.FieldError, err.Error())
		return OverdueSummary{}, err
	}

	summary := OverdueSummary{
		Fixed:        group(fixed),
		Installments: group(installments),
	}
	summary.TotalCount = summary.Fixed.Count + summary.Installments.Count
	summary.TotalAmount = summary.Fixed.Amount.Add(summary.Installments.Amount)
	summary.MostOverdue = mostOverdue(fixed, installments)

	d.logger.InfoContext(ctx, "Overdue payments detected",
		log.FieldCount, summary.TotalCount,
		"total_amount", summary.TotalAmount.String())
	return summary, nil
}

// IsInstallmentOverdue reports whether p's next installment is more than the
// grace period in the past.
func (d *OverdueDetector) IsInstallmentOverdue(p core.InstallmentPayment, now time.Time) bool {
	_, ok := d.installmentDaysOverdue(p, now)
	return ok
}

// FlagInstallments sets the overdue flag on each installment.
func (d *OverdueDetector) FlagInstallments(ps []core.InstallmentPayment, now time.Time) {
	for i := range ps {
		overdue := d.IsInstallmentOverdue(ps[i], now)
		ps[i].IsOverdue = &overdue
	}
}

func (d *OverdueDetector) overdueFixed(ps []core.FixedPayment, now time.Time) []OverdueItem {
	today := core.DateOf(now)
	var items []OverdueItem
	for _, p := range ps {
		due, err := calendar.ResolveFixedDate(p.DueDay, today.Year(), today.Month())
		if err != nil {
			d.logger.Warn("Skipping fixed payment with invalid due day",
				log.FieldPaymentID, p.ID, log.FieldError, err.Error())
			continue
		}
		if !due.Before(today) || p.IsPaidFor(today.Year(), today.Month()) {
			continue
		}
		items = append(items, newOverdueItem(p, due, core.DaysBetween(due, today)))
	}
	return items
}

func (d *OverdueDetector) overdueInstallments(ps []core.InstallmentPayment, now time.Time) []OverdueItem {
	var items []OverdueItem
	for _, p := range ps {
		days, ok := d.installmentDaysOverdue(p, now)
		if !ok {
			continue
		}
		due, _ := calendar.ResolveInstallmentDate(p, now)
		items = append(items, newOverdueItem(p, due, days))
	}
	return items
}

func (d *OverdueDetector) installmentDaysOverdue(p core.InstallmentPayment, now time.Time) (int, bool) {
	if p.IsComplete() {
		return 0, false
	}
	due, err := calendar.ResolveInstallmentDate(p, now)
	if err != nil {
		d.logger.Warn("Skipping installment with unresolvable date",
			log.FieldPaymentID, p.ID, log.FieldError, err.Error())
		return 0, false
	}
	days := core.DaysBetween(due, core.DateOf(now))
	return days, days > d.graceDays
}

func newOverdueItem(p core.Payment, due core.Date, days int) OverdueItem {
	return OverdueItem{
		PaymentID:   p.PaymentID(),
		Kind:        p.Kind(),
		Title:       p.Title(),
		Category:    p.PaymentCategory(),
		Amount:      p.DueAmount(),
		DueDate:     due,
		DaysOverdue: days,
		Severity:    severityFor(days),
	}
}

func severityFor(daysOverdue int) Severity {
	if daysOverdue >= criticalAfterDays {
		return SeverityCritical
	}
	return SeverityHigh
}

func group(items []OverdueItem) OverdueGroup {
	sort.SliceStable(items, func(i, j int) bool { return items[i].DaysOverdue > items[j].DaysOverdue })
	g := OverdueGroup{Count: len(items), Amount: core.MoneyFromCents(0), Items: items}
	if g.Items == nil {
		g.Items = []OverdueItem{}
	}
	for _, it := range items {
		g.Amount = g.Amount.Add(it.Amount)
	}
	return g
}

func mostOverdue(groups ...[]OverdueItem) *OverdueItem {
	var most *OverdueItem
	for _, items := range groups {
		for i := range items {
			if most == nil || items[i].DaysOverdue > most.DaysOverdue {
				most = &items[i]
			}
		}
	}
	return most
}
