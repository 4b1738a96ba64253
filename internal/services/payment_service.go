// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paycal/internal/calendar"
	"paycal/internal/core"
	"paycal/internal/log"
	"paycal/internal/sheets"
)

// MaxUpcomingDays bounds the look-ahead window of Upcoming.
const MaxUpcomingDays = 366

var ErrInvalidWindow = errors.New("days must be between 0 and 366")

// PaymentRepository is the storage the payment service works against.
type PaymentRepository interface {
	PaymentLister
	CreateFixedPayment(ctx context.Context, p core.FixedPayment) (core.FixedPayment, error)
	GetFixedPayment(ctx context.Context, id int64) (core.FixedPayment, error)
	UpdateFixedPayment(ctx context.Context, p core.FixedPayment) (core.FixedPayment, error)
	DeleteFixedPayment(ctx context.Context, id int64) error
	MarkFixedPaid(ctx context.Context, id int64, year int, month time.Month, paidAt time.Time) (core.FixedPayment, error)
	CreateInstallmentPayment(ctx context.Context, p core.InstallmentPayment, now time.Time) (core.InstallmentPayment, error)
	GetInstallmentPayment(ctx context.Context, id int64) (core.InstallmentPayment, error)
	UpdateInstallmentPayment(ctx context.Context, p core.InstallmentPayment, now time.Time) (core.InstallmentPayment, error)
	DeleteInstallmentPayment(ctx context.Context, id int64) error
	RecordInstallmentPayment(ctx context.Context, id int64, paidAt time.Time) (core.InstallmentPayment, error)
	InstallmentHistory(ctx context.Context, id int64) ([]core.InstallmentRecord, error)
	ListCategories(ctx context.Context, kind core.PaymentKind) ([]string, error)
}

// KindFilter selects which payment kinds a view includes. The zero value selects all.
type KindFilter string

const (
	FilterAll         KindFilter = "all"
	FilterFixed       KindFilter = KindFilter(core.KindFixed)
	FilterInstallment KindFilter = KindFilter(core.KindInstallment)
)

// ParseKindFilter maps a query value to a KindFilter; empty means all.
func ParseKindFilter(s string) (KindFilter, error) {
	switch KindFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterFixed, FilterInstallment:
		return KindFilter(s), nil
	}
	return "", core.ErrUnsupportedPaymentKind
}

func (f KindFilter) includes(k core.PaymentKind) bool {
	return f == "" || f == FilterAll || KindFilter(k) == f
}

// PaymentService runs payment operations against storage and feeds stored
// payments through the calendar engine.
type PaymentService struct {
	repo     PaymentRepository
	engine   *calendar.Engine
	detector *OverdueDetector
	logger   *log.Logger
	audit    *log.StructuredLogger
}

func NewPaymentService(repo PaymentRepository, engine *calendar.Engine, detector *OverdueDetector, logger *log.Logger) *PaymentService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentPayments)
	return &PaymentService{
		repo:     repo,
		engine:   engine,
		detector: detector,
		logger:   logger,
		audit:    log.NewStructuredLogger(logger),
	}
}

// Now returns the service clock.
func (s *PaymentService) Now() time.Time {
	return s.engine.Now()
}

func (s *PaymentService) CreateFixedPayment(ctx context.Context, p core.FixedPayment) (core.FixedPayment, error) {
	created, err := s.repo.CreateFixedPayment(ctx, p)
	if err != nil {
		return core.FixedPayment{}, fmt.Errorf("save fixed payment: %w", err)
	}
	s.audit.LogPaymentCreated(ctx, created.ID, string(core.KindFixed), created.Name, created.Amount.Cents(), created.Category)
	return created, nil
}

func (s *PaymentService) GetFixedPayment(ctx context.Context, id int64) (core.FixedPayment, error) {
	return s.repo.GetFixedPayment(ctx, id)
}

func (s *PaymentService) ListFixedPayments(ctx context.Context) ([]core.FixedPayment, error) {
	return s.repo.ListFixedPayments(ctx, false)
}

// UpdateFixedPayment replaces the editable fields of fixed payment id.
func (s *PaymentService) UpdateFixedPayment(ctx context.Context, id int64, p core.FixedPayment) (core.FixedPayment, error) {
	p.ID = id
	updated, err := s.repo.UpdateFixedPayment(ctx, p)
	if err != nil {
		return core.FixedPayment{}, err
	}
	s.logger.InfoContext(ctx, "Fixed payment updated",
		log.FieldPaymentID, id,
		log.FieldOperation, log.OpUpdate,
		log.FieldAmountCents, updated.Amount.Cents())
	return updated, nil
}

func (s *PaymentService) DeleteFixedPayment(ctx context.Context, id int64) error {
	return s.repo.DeleteFixedPayment(ctx, id)
}

// MarkFixedPaid records the fixed payment as paid for (year, month).
func (s *PaymentService) MarkFixedPaid(ctx context.Context, id int64, year int, month time.Month) (core.FixedPayment, error) {
	p, err := s.repo.MarkFixedPaid(ctx, id, year, month, s.engine.Now())
	if err != nil {
		return core.FixedPayment{}, err
	}
	fields := log.NewFields().WithPeriod(year, int(month)).WithOperation(log.OpPay)
	fields[log.FieldPaymentID] = id
	s.logger.InfoContext(ctx, "Fixed payment paid", fields.ToSlice()...)
	return p, nil
}

func (s *PaymentService) CreateInstallmentPayment(ctx context.Context, p core.InstallmentPayment) (core.InstallmentPayment, error) {
	created, err := s.repo.CreateInstallmentPayment(ctx, p, s.engine.Now())
	if err != nil {
		return core.InstallmentPayment{}, fmt.Errorf("save installment payment: %w", err)
	}
	s.audit.LogPaymentCreated(ctx, created.ID, string(core.KindInstallment), created.ItemName, created.InstallmentAmount.Cents(), created.Category)
	return s.flagOne(created), nil
}

func (s *PaymentService) GetInstallmentPayment(ctx context.Context, id int64) (core.InstallmentPayment, error) {
	p, err := s.repo.GetInstallmentPayment(ctx, id)
	if err != nil {
		return core.InstallmentPayment{}, err
	}
	return s.flagOne(p), nil
}

// ListInstallmentPayments returns every installment plan with its overdue flag set.
func (s *PaymentService) ListInstallmentPayments(ctx context.Context) ([]core.InstallmentPayment, error) {
	ps, err := s.repo.ListInstallmentPayments(ctx, false)
	if err != nil {
		return nil, err
	}
	s.detector.FlagInstallments(ps, s.engine.Now())
	return ps, nil
}

// UpdateInstallmentPayment replaces the editable fields of plan id. The paid
// count is kept and the next payment date recomputed.
func (s *PaymentService) UpdateInstallmentPayment(ctx context.Context, id int64, p core.InstallmentPayment) (core.InstallmentPayment, error) {
	p.ID = id
	updated, err := s.repo.UpdateInstallmentPayment(ctx, p, s.engine.Now())
	if err != nil {
		return core.InstallmentPayment{}, err
	}
	s.logger.InfoContext(ctx, "Installment payment updated",
		log.FieldPaymentID, id,
		log.FieldOperation, log.OpUpdate,
		"paid", updated.PaidInstallments,
		"total", updated.TotalInstallments)
	return s.flagOne(updated), nil
}

// InstallmentHistory returns the recorded installments of plan id.
func (s *PaymentService) InstallmentHistory(ctx context.Context, id int64) ([]core.InstallmentRecord, error) {
	return s.repo.InstallmentHistory(ctx, id)
}

func (s *PaymentService) DeleteInstallmentPayment(ctx context.Context, id int64) error {
	return s.repo.DeleteInstallmentPayment(ctx, id)
}

// RecordInstallmentPayment pays the next open installment of a plan.
func (s *PaymentService) RecordInstallmentPayment(ctx context.Context, id int64) (core.InstallmentPayment, error) {
	p, err := s.repo.RecordInstallmentPayment(ctx, id, s.engine.Now())
	if err != nil {
		return core.InstallmentPayment{}, err
	}
	s.logger.InfoContext(ctx, "Installment paid",
		log.FieldPaymentID, id,
		log.FieldOperation, log.OpPay,
		"paid", p.PaidInstallments,
		"total", p.TotalInstallments)
	return s.flagOne(p), nil
}

func (s *PaymentService) Categories(ctx context.Context, kind core.PaymentKind) ([]string, error) {
	return s.repo.ListCategories(ctx, kind)
}

// ActivePayments loads the active payments selected by filter, with
// installments carrying the overdue flag.
func (s *PaymentService) ActivePayments(ctx context.Context, filter KindFilter) ([]core.Payment, error) {
	var payments []core.Payment
	if filter.includes(core.KindFixed) {
		fixed, err := s.repo.ListFixedPayments(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("list fixed payments: %w", err)
		}
		for _, p := range fixed {
			payments = append(payments, p)
		}
	}
	if filter.includes(core.KindInstallment) {
		inst, err := s.repo.ListInstallmentPayments(ctx, true)
		if err != nil {
			return nil, fmt.Errorf("list installment payments: %w", err)
		}
		s.detector.FlagInstallments(inst, s.engine.Now())
		for _, p := range inst {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

// Calendar returns the 42-day grid of (year, month) with payments placed on their days.
func (s *PaymentService) Calendar(ctx context.Context, filter KindFilter, year int, month time.Month) ([]calendar.CalendarDay, error) {
	if err := calendar.ValidatePeriod(year, month); err != nil {
		return nil, err
	}
	payments, err := s.ActivePayments(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.engine.Calendar(year, month, payments)
}

// Annotated returns the payments of (year, month) most urgent first.
func (s *PaymentService) Annotated(ctx context.Context, filter KindFilter, year int, month time.Month) ([]calendar.AnnotatedPayment, error) {
	if err := calendar.ValidatePeriod(year, month); err != nil {
		return nil, err
	}
	payments, err := s.ActivePayments(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.engine.Annotate(year, month, payments), nil
}

// Upcoming returns unpaid payments falling due between today and today+days,
// across month boundaries, most urgent first.
func (s *PaymentService) Upcoming(ctx context.Context, days int) ([]calendar.AnnotatedPayment, error) {
	if days < 0 || days > MaxUpcomingDays {
		return nil, ErrInvalidWindow
	}
	payments, err := s.ActivePayments(ctx, FilterAll)
	if err != nil {
		return nil, err
	}
	return upcomingWithin(s.engine, payments, days), nil
}

// annotateWindow annotates payments for every month between today and
// today+days. Fixed payments recur monthly and appear once per month touched;
// installments appear once.
func annotateWindow(engine *calendar.Engine, payments []core.Payment, days int) []calendar.AnnotatedPayment {
	today := engine.Today()
	horizon := today.AddDays(days)

	var fixed, installments []core.Payment
	for _, p := range payments {
		if p.Kind() == core.KindFixed {
			fixed = append(fixed, p)
		} else {
			installments = append(installments, p)
		}
	}

	var out []calendar.AnnotatedPayment
	y, m := today.Year(), today.Month()
	for {
		out = append(out, engine.Annotate(y, m, fixed)...)
		if y > horizon.Year() || (y == horizon.Year() && m >= horizon.Month()) {
			break
		}
		if m == time.December {
			y, m = y+1, time.January
		} else {
			m++
		}
	}
	out = append(out, engine.Annotate(today.Year(), today.Month(), installments)...)
	return out
}

func upcomingWithin(engine *calendar.Engine, payments []core.Payment, days int) []calendar.AnnotatedPayment {
	out := []calendar.AnnotatedPayment{}
	for _, ap := range annotateWindow(engine, payments, days) {
		if ap.Status != calendar.StatusCompleted && ap.DaysUntil >= 0 && ap.DaysUntil <= days {
			out = append(out, ap)
		}
	}
	calendar.SortByUrgency(out)
	return out
}

// Overdue runs overdue detection as of the service clock.
func (s *PaymentService) Overdue(ctx context.Context) (OverdueSummary, error) {
	return s.detector.Detect(ctx, s.engine.Now())
}

// ScheduleRows lists the payments due in (year, month) as report rows. Fixed
// payments always fall in the month; installments only when their next date does.
func (s *PaymentService) ScheduleRows(ctx context.Context, year int, month time.Month) ([]sheets.ScheduleRow, error) {
	annotated, err := s.Annotated(ctx, FilterAll, year, month)
	if err != nil {
		return nil, err
	}
	rows := make([]sheets.ScheduleRow, 0, len(annotated))
	for _, ap := range annotated {
		if ap.ResolvedDate.Year() != year || ap.ResolvedDate.Month() != month {
			continue
		}
		rows = append(rows, sheets.ScheduleRow{
			Date:     ap.ResolvedDate,
			Title:    ap.Payment.Title(),
			Kind:     ap.Payment.Kind(),
			Category: ap.Payment.PaymentCategory(),
			Amount:   ap.Payment.DueAmount(),
			Status:   string(ap.Status),
		})
	}
	return rows, nil
}

// ExportMonth writes the schedule of (year, month) through exporter.
func (s *PaymentService) ExportMonth(ctx context.Context, exporter sheets.ScheduleExporter, year int, month time.Month) (string, int, error) {
	rows, err := s.ScheduleRows(ctx, year, month)
	if err != nil {
		return "", 0, err
	}
	period := log.NewFields().WithPeriod(year, int(month)).WithOperation(log.OpExport)
	ref, err := exporter.ExportMonth(ctx, year, month, rows)
	if err != nil {
		s.logger.ErrorContext(ctx, "Schedule export failed", period.WithError(err).ToSlice()...)
		return "", 0, fmt.Errorf("export schedule: %w", err)
	}
	period[log.FieldCount] = len(rows)
	period["ref"] = ref
	s.logger.InfoContext(ctx, "Schedule exported", period.ToSlice()...)
	return ref, len(rows), nil
}

func (s *PaymentService) flagOne(p core.InstallmentPayment) core.InstallmentPayment {
	overdue := s.detector.IsInstallmentOverdue(p, s.engine.Now())
	p.IsOverdue = &overdue
	return p
}
