package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jordan-wright/email"

	"paycal/internal/core"
	"paycal/internal/log"
)

func reminder(status string, daysUntil int) core.Reminder {
	return core.Reminder{
		PaymentID: 3,
		Kind:      core.KindFixed,
		Title:     "Internet",
		Category:  "Utilities",
		Amount:    core.NewMoney(25),
		DueDate:   core.NewDate(2024, time.March, 15),
		Status:    status,
		DaysUntil: daysUntil,
	}
}

func TestSubjectAndBody(t *testing.T) {
	tests := []struct {
		name        string
		r           core.Reminder
		wantSubject string
		wantBody    string
	}{
		{
			name:        "overdue",
			r:           reminder("overdue", -3),
			wantSubject: "Overdue payment",
			wantBody:    "The payment of 25.00 was due on 2024-03-15 and is 3 days late.",
		},
		{
			name:        "overdue by one day",
			r:           reminder("overdue", -1),
			wantSubject: "Overdue payment",
			wantBody:    "is 1 day late.",
		},
		{
			name:        "today",
			r:           reminder("today", 0),
			wantSubject: "Upcoming payment",
			wantBody:    "The payment of 25.00 is due today (2024-03-15).",
		},
		{
			name:        "upcoming",
			r:           reminder("upcoming", 5),
			wantSubject: "Upcoming payment",
			wantBody:    "is due on 2024-03-15, in 5 days.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Subject(tt.r); got != tt.wantSubject {
				t.Errorf("Subject() = %q, want %q", got, tt.wantSubject)
			}
			body := Body(tt.r)
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("Body() = %q, want it to contain %q", body, tt.wantBody)
			}
			if !strings.HasPrefix(body, "Internet (fixed, Utilities)") {
				t.Errorf("Body() = %q, want payment header first", body)
			}
		})
	}
}

func TestNewEmailNotifierValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SMTPConfig
		wantErr error
	}{
		{name: "missing host", cfg: SMTPConfig{From: "a@b.c", To: []string{"d@e.f"}}},
		{name: "missing sender", cfg: SMTPConfig{Host: "smtp.local", To: []string{"d@e.f"}}},
		{name: "missing recipient", cfg: SMTPConfig{Host: "smtp.local", From: "a@b.c"}, wantErr: ErrNoRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEmailNotifier(tt.cfg, nil)
			if err == nil {
				t.Fatal("NewEmailNotifier() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmailNotifierNotify(t *testing.T) {
	n, err := NewEmailNotifier(SMTPConfig{
		Host:     "smtp.local",
		Username: "mailer",
		Password: "secret",
		From:     "paycal@example.com",
		To:       []string{"me@example.com"},
	}, nil)
	if err != nil {
		t.Fatalf("NewEmailNotifier() error = %v", err)
	}

	var (
		sent    *email.Email
		gotAddr string
		gotAuth smtp.Auth
	)
	n.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		sent, gotAddr, gotAuth = e, addr, auth
		return nil
	}

	if err := n.Notify(context.Background(), reminder("overdue", -2)); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if gotAddr != "smtp.local:587" {
		t.Errorf("addr = %q, want smtp.local:587", gotAddr)
	}
	if gotAuth == nil {
		t.Error("expected SMTP auth when a username is configured")
	}
	if sent.Subject != "Overdue payment: Internet" {
		t.Errorf("Subject = %q", sent.Subject)
	}
	if diff := cmp.Diff([]string{"me@example.com"}, sent.To); diff != "" {
		t.Errorf("To mismatch (-want +got):\n%s", diff)
	}
	if sent.From != "paycal@example.com" {
		t.Errorf("From = %q", sent.From)
	}
}

func TestEmailNotifierSendError(t *testing.T) {
	n, err := NewEmailNotifier(SMTPConfig{Host: "smtp.local", Port: "25", From: "a@b.c", To: []string{"d@e.f"}}, nil)
	if err != nil {
		t.Fatalf("NewEmailNotifier() error = %v", err)
	}
	sendErr := errors.New("connection refused")
	var gotAuth smtp.Auth
	n.send = func(_ *email.Email, _ string, auth smtp.Auth) error {
		gotAuth = auth
		return sendErr
	}

	if err := n.Notify(context.Background(), reminder("upcoming", 2)); !errors.Is(err, sendErr) {
		t.Errorf("Notify() error = %v, want wrapped %v", err, sendErr)
	}
	if gotAuth != nil {
		t.Error("no auth expected without a username")
	}
}

func TestEmailNotifierCanceledContext(t *testing.T) {
	n, err := NewEmailNotifier(SMTPConfig{Host: "smtp.local", From: "a@b.c", To: []string{"d@e.f"}}, nil)
	if err != nil {
		t.Fatalf("NewEmailNotifier() error = %v", err)
	}
	n.send = func(*email.Email, string, smtp.Auth) error {
		t.Error("send called with a canceled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Notify(ctx, reminder("today", 0)); !errors.Is(err, context.Canceled) {
		t.Errorf("Notify() error = %v, want context.Canceled", err)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Component: "test", Handler: slog.NewTextHandler(&buf, nil)})

	if err := NewLogNotifier(logger).Notify(context.Background(), reminder("overdue", -4)); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{`msg="Overdue payment"`, "payment_id=3", "component=notify", "days_until=-4", "due_date=2024-03-15"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
