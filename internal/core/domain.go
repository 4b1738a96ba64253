package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindFixed       PaymentKind = "fixed"
	KindInstallment PaymentKind = "installment"
)

type (
	PaymentKind string

	Date struct {
		time.Time
	}

	FixedPayment struct {
		ID       int64
		Name     string
		Amount   Money
		Category string
		DueDay   int // nominal day of month, 1-31
		IsActive bool
		// PaidMonths holds "YYYY-MM" keys of months recorded as paid.
		PaidMonths map[string]bool
	}

	InstallmentPayment struct {
		ID                int64
		ItemName          string
		Category          string
		TotalAmount       Money
		InstallmentAmount Money
		TotalInstallments int
		PaidInstallments  int
		StartDate         Date
		// NextPaymentDate is the server-supplied ISO-8601 value, possibly empty or malformed.
		NextPaymentDate string
		// IsOverdue is the server-side overdue determination; nil when unknown.
		IsOverdue *bool
		Vendor    string
		Notes     string
		IsActive  bool
	}

	// InstallmentRecord is one recorded installment of a plan.
	InstallmentRecord struct {
		Number int
		Amount Money
		PaidAt time.Time
	}
)

var (
	ErrInvalidDay              = errors.New("invalid day")
	ErrInvalidMonth            = errors.New("invalid month")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrEmptyName               = errors.New("empty name")
	ErrEmptyCategory           = errors.New("empty category")
	ErrInvalidDueDay           = errors.New("due day must be between 1 and 31")
	ErrInvalidInstallmentCount = errors.New("total installments must be positive")
	ErrPaidExceedsTotal        = errors.New("paid installments out of range")
	ErrInstallmentsComplete    = errors.New("all installments already paid")
	ErrUnsupportedPaymentKind  = errors.New("unsupported payment kind")
	ErrNameTooLong             = errors.New("name too long (max 200 characters)")
	ErrInvalidStartDate        = errors.New("invalid start date")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() time.Month {
	return d.Time.Month()
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// NewDate creates a new Date from year, month, day at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping t's own wall-clock date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// MonthKey returns the "YYYY-MM" key used to record paid months.
func MonthKey(year int, month time.Month) string {
	return NewDate(year, month, 1).Format("2006-01")
}

func (p FixedPayment) Validate() error {
	if err := validateTitle(p.Name); err != nil {
		return err
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if p.DueDay < 1 || p.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

// IsPaidFor reports whether the given month has been recorded as paid.
func (p FixedPayment) IsPaidFor(year int, month time.Month) bool {
	return p.PaidMonths[MonthKey(year, month)]
}

func (p InstallmentPayment) Validate() error {
	if err := validateTitle(p.ItemName); err != nil {
		return err
	}
	if strings.TrimSpace(p.Category) == "" {
		return ErrEmptyCategory
	}
	if err := p.TotalAmount.Validate(); err != nil {
		return err
	}
	if err := p.InstallmentAmount.Validate(); err != nil {
		return err
	}
	if p.TotalInstallments < 1 {
		return ErrInvalidInstallmentCount
	}
	if p.PaidInstallments < 0 || p.PaidInstallments > p.TotalInstallments {
		return ErrPaidExceedsTotal
	}
	if err := p.StartDate.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStartDate, err)
	}
	return nil
}

// CompletionPercentage returns paid/total as a rounded percentage.
func (p InstallmentPayment) CompletionPercentage() int {
	if p.TotalInstallments <= 0 {
		return 0
	}
	return (p.PaidInstallments*200 + p.TotalInstallments) / (2 * p.TotalInstallments)
}

// RemainingInstallments returns how many installments are still open.
func (p InstallmentPayment) RemainingInstallments() int {
	if r := p.TotalInstallments - p.PaidInstallments; r > 0 {
		return r
	}
	return 0
}

// IsComplete reports whether every installment has been paid.
func (p InstallmentPayment) IsComplete() bool {
	return p.TotalInstallments > 0 && p.PaidInstallments >= p.TotalInstallments
}

func validateTitle(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyName
	}
	if len(s) > 200 {
		return ErrNameTooLong
	}
	return nil
}
