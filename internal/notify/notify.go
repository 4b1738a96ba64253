// Package notify delivers payment reminders to people.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"paycal/internal/core"
	"paycal/internal/log"
)

var ErrNoRecipient = errors.New("no notification recipient configured")

// Notifier delivers a single reminder.
type Notifier interface {
	Notify(ctx context.Context, r core.Reminder) error
}

// SMTPConfig holds the mail server and addressing for EmailNotifier.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
}

// EmailNotifier sends reminders as plain-text email over SMTP.
type EmailNotifier struct {
	cfg    SMTPConfig
	logger *log.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewEmailNotifier(cfg SMTPConfig, logger *log.Logger) (*EmailNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("sender address is required")
	}
	if len(cfg.To) == 0 {
		return nil, ErrNoRecipient
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentNotify),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}, nil
}

// Notify emails r to the configured recipients.
func (n *EmailNotifier) Notify(ctx context.Context, r core.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := BuildEmail(n.cfg.From, n.cfg.To, r)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)
	if err := n.send(e, addr, auth); err != nil {
		n.logger.ErrorContext(ctx, "Failed to send reminder email",
			log.FieldPaymentID, r.PaymentID,
			log.FieldError, err.Error())
		return fmt.Errorf("send reminder email: %w", err)
	}

	n.logger.InfoContext(ctx, "Reminder email sent",
		log.FieldOperation, log.OpNotify,
		log.FieldPaymentID, r.PaymentID,
		"subject", e.Subject,
		"recipients", len(e.To))
	return nil
}

// Subject returns the email subject for r.
func Subject(r core.Reminder) string {
	if r.IsOverdue() {
		return "Overdue payment"
	}
	return "Upcoming payment"
}

// BuildEmail renders r as a plain-text message.
func BuildEmail(from string, to []string, r core.Reminder) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = append([]string(nil), to...)
	e.Subject = fmt.Sprintf("%s: %s", Subject(r), r.Title)
	e.Text = []byte(Body(r))
	return e
}

// Body returns the plain-text description of r.
func Body(r core.Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)\n\n", r.Title, r.Kind, r.Category)
	switch {
	case r.IsOverdue():
		fmt.Fprintf(&b, "The payment of %s was due on %s and is %s late.\n", r.Amount, r.DueDate, days(-r.DaysUntil))
	case r.DaysUntil == 0:
		fmt.Fprintf(&b, "The payment of %s is due today (%s).\n", r.Amount, r.DueDate)
	default:
		fmt.Fprintf(&b, "The payment of %s is due on %s, in %s.\n", r.Amount, r.DueDate, days(r.DaysUntil))
	}
	return b.String()
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// LogNotifier writes reminders to the log. It is used when no mail server is configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotify)}
}

func (n *LogNotifier) Notify(ctx context.Context, r core.Reminder) error {
	n.logger.InfoContext(ctx, Subject(r),
		log.FieldOperation, log.OpNotify,
		log.FieldPaymentID, r.PaymentID,
		log.FieldPaymentKind, string(r.Kind),
		log.FieldPaymentTitle, r.Title,
		log.FieldAmountCents, r.Amount.Cents(),
		log.FieldDueDate, r.DueDate.String(),
		log.FieldStatus, r.Status,
		log.FieldDaysUntil, r.DaysUntil)
	return nil
}
