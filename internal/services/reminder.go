// This file implements the Strategy Pattern for reminder selection. Each
// payment status has its own policy that decides whether a payment in that
// status is worth a reminder.

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paycal/internal/calendar"
	"paycal/internal/core"
	"paycal/internal/log"
)

// ReminderPolicy is the strategy interface for deciding whether an annotated
// payment should produce a reminder.
type ReminderPolicy interface {
	// ShouldRemind reports whether p needs a reminder given a look-ahead of leadDays.
	ShouldRemind(p calendar.AnnotatedPayment, leadDays int) bool
}

// AlwaysPolicy reminds for every payment in its status.
type AlwaysPolicy struct{}

func (AlwaysPolicy) ShouldRemind(calendar.AnnotatedPayment, int) bool {
	return true
}

// LeadTimePolicy reminds once the due date is no more than leadDays away.
type LeadTimePolicy struct{}

func (LeadTimePolicy) ShouldRemind(p calendar.AnnotatedPayment, leadDays int) bool {
	return p.DaysUntil >= 0 && p.DaysUntil <= leadDays
}

var (
	policiesMu sync.RWMutex
	// reminderPolicies maps statuses to their policy. Statuses without a
	// policy never produce reminders.
	reminderPolicies = map[calendar.Status]ReminderPolicy{
		calendar.StatusOverdue:  AlwaysPolicy{},
		calendar.StatusToday:    AlwaysPolicy{},
		calendar.StatusUpcoming: LeadTimePolicy{},
		calendar.StatusPending:  LeadTimePolicy{},
	}
)

// GetReminderPolicy returns the policy registered for status.
func GetReminderPolicy(status calendar.Status) (ReminderPolicy, error) {
	policiesMu.RLock()
	defer policiesMu.RUnlock()
	p, ok := reminderPolicies[status]
	if !ok {
		return nil, fmt.Errorf("no reminder policy for status: %s", status)
	}
	return p, nil
}

// RegisterReminderPolicy sets the policy for status, replacing any existing one.
// A nil policy removes it.
func RegisterReminderPolicy(status calendar.Status, policy ReminderPolicy) {
	policiesMu.Lock()
	defer policiesMu.Unlock()
	if policy == nil {
		delete(reminderPolicies, status)
		return
	}
	reminderPolicies[status] = policy
}

// ReminderPublisher delivers reminders to whoever sends the notifications.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, r core.Reminder) error
}

// ReminderProcessor selects payments needing attention and publishes one
// reminder per payment per day.
type ReminderProcessor struct {
	store     PaymentLister
	detector  *OverdueDetector
	publisher ReminderPublisher
	leadDays  int
	logger    *log.Logger

	mu   sync.Mutex
	day  core.Date
	sent map[string]bool
}

func NewReminderProcessor(store PaymentLister, detector *OverdueDetector, publisher ReminderPublisher, leadDays int, logger *log.Logger) *ReminderProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	if leadDays < 0 {
		leadDays = 0
	}
	return &ReminderProcessor{
		store:     store,
		detector:  detector,
		publisher: publisher,
		leadDays:  leadDays,
		logger:    logger.WithComponent(log.ComponentReminder),
		sent:      make(map[string]bool),
	}
}

// Process publishes reminders for the payments that need one as of now and
// returns how many were published. Publish failures are logged and skipped;
// the reminder is retried on the next run.
func (p *ReminderProcessor) Process(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	reminders, err := p.Select(ctx, now)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	today := core.DateOf(now)
	if !p.day.Equal(today) {
		p.day = today
		p.sent = make(map[string]bool)
	}

	published := 0
	for _, r := range reminders {
		key := reminderKey(r)
		if p.sent[key] {
			continue
		}
		if err := p.publisher.PublishReminder(ctx, r); err != nil {
			p.logger.ErrorContext(ctx, "Failed to publish reminder",
				log.FieldPaymentID, r.PaymentID,
				log.FieldPaymentKind, string(r.Kind),
				log.FieldError, err.Error())
			continue
		}
		p.sent[key] = true
		published++
		p.logger.InfoContext(ctx, "Reminder published",
			log.FieldOperation, log.OpPublish,
			log.FieldPaymentID, r.PaymentID,
			log.FieldPaymentKind, string(r.Kind),
			log.FieldStatus, r.Status,
			log.FieldDaysUntil, r.DaysUntil)
	}

	p.logger.InfoContext(ctx, "Reminder processing complete",
		"selected", len(reminders),
		"published", published)
	return published, nil
}

// Select returns the reminders due as of now without publishing them.
func (p *ReminderProcessor) Select(ctx context.Context, now time.Time) ([]core.Reminder, error) {
	fixed, err := p.store.ListFixedPayments(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list fixed payments: %w", err)
	}
	installments, err := p.store.ListInstallmentPayments(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list installment payments: %w", err)
	}
	if p.detector != nil {
		p.detector.FlagInstallments(installments, now)
	}

	payments := make([]core.Payment, 0, len(fixed)+len(installments))
	for _, f := range fixed {
		payments = append(payments, f)
	}
	for _, i := range installments {
		payments = append(payments, i)
	}

	engine := calendar.NewEngine(p.logger, func() time.Time { return now })
	annotated := annotateWindow(engine, payments, p.leadDays)
	calendar.SortByUrgency(annotated)

	var reminders []core.Reminder
	for _, ap := range annotated {
		policy, err := GetReminderPolicy(ap.Status)
		if err != nil || !policy.ShouldRemind(ap, p.leadDays) {
			continue
		}
		reminders = append(reminders, core.Reminder{
			PaymentID: ap.Payment.PaymentID(),
			Kind:      ap.Payment.Kind(),
			Title:     ap.Payment.Title(),
			Category:  ap.Payment.PaymentCategory(),
			Amount:    ap.Payment.DueAmount(),
			DueDate:   ap.ResolvedDate,
			Status:    string(ap.Status),
			DaysUntil: ap.DaysUntil,
		})
	}
	return reminders, nil
}

func reminderKey(r core.Reminder) string {
	return fmt.Sprintf("%s:%d:%s", r.Kind, r.PaymentID, r.DueDate)
}
