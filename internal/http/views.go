package http

import (
	"sort"
	"time"

	"paycal/internal/calendar"
	"paycal/internal/core"
	"paycal/internal/services"
)

type fixedPaymentRequest struct {
	Name     string     `json:"name"`
	Amount   core.Money `json:"amount"`
	Category string     `json:"category"`
	DueDay   int        `json:"dueDay"`
	IsActive *bool      `json:"isActive"`
}

func (req fixedPaymentRequest) toDomain() core.FixedPayment {
	return core.FixedPayment{
		Name:     sanitizeInput(req.Name),
		Amount:   req.Amount,
		Category: sanitizeInput(req.Category),
		DueDay:   req.DueDay,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
}

type fixedPaymentView struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Amount     core.Money `json:"amount"`
	Category   string     `json:"category"`
	DueDay     int        `json:"dueDay"`
	IsActive   bool       `json:"isActive"`
	PaidMonths []string   `json:"paidMonths"`
}

func newFixedPaymentView(p core.FixedPayment) fixedPaymentView {
	months := make([]string, 0, len(p.PaidMonths))
	for k, paid := range p.PaidMonths {
		if paid {
			months = append(months, k)
		}
	}
	sort.Strings(months)
	return fixedPaymentView{
		ID:         p.ID,
		Name:       p.Name,
		Amount:     p.Amount,
		Category:   p.Category,
		DueDay:     p.DueDay,
		IsActive:   p.IsActive,
		PaidMonths: months,
	}
}

type installmentPaymentRequest struct {
	ItemName          string     `json:"itemName"`
	Category          string     `json:"category"`
	TotalAmount       core.Money `json:"totalAmount"`
	InstallmentAmount core.Money `json:"installmentAmount"`
	TotalInstallments int        `json:"totalInstallments"`
	PaidInstallments  int        `json:"paidInstallments"`
	StartDate         core.Date  `json:"startDate"`
	Vendor            string     `json:"vendor"`
	Notes             string     `json:"notes"`
	IsActive          *bool      `json:"isActive"`
}

func (req installmentPaymentRequest) toDomain() core.InstallmentPayment {
	return core.InstallmentPayment{
		ItemName:          sanitizeInput(req.ItemName),
		Category:          sanitizeInput(req.Category),
		TotalAmount:       req.TotalAmount,
		InstallmentAmount: req.InstallmentAmount,
		TotalInstallments: req.TotalInstallments,
		PaidInstallments:  req.PaidInstallments,
		StartDate:         req.StartDate,
		Vendor:            sanitizeInput(req.Vendor),
		Notes:             sanitizeInput(req.Notes),
		IsActive:          req.IsActive == nil || *req.IsActive,
	}
}

type installmentPaymentView struct {
	ID                    int64      `json:"id"`
	ItemName              string     `json:"itemName"`
	Category              string     `json:"category"`
	TotalAmount           core.Money `json:"totalAmount"`
	InstallmentAmount     core.Money `json:"installmentAmount"`
	TotalInstallments     int        `json:"totalInstallments"`
	PaidInstallments      int        `json:"paidInstallments"`
	RemainingInstallments int        `json:"remainingInstallments"`
	CompletionPercentage  int        `json:"completionPercentage"`
	StartDate             core.Date  `json:"startDate"`
	NextPaymentDate       string     `json:"nextPaymentDate,omitempty"`
	IsOverdue             *bool      `json:"isOverdue"`
	Vendor                string     `json:"vendor,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	IsActive              bool       `json:"isActive"`
}

func newInstallmentPaymentView(p core.InstallmentPayment) installmentPaymentView {
	return installmentPaymentView{
		ID:                    p.ID,
		ItemName:              p.ItemName,
		Category:              p.Category,
		TotalAmount:           p.TotalAmount,
		InstallmentAmount:     p.InstallmentAmount,
		TotalInstallments:     p.TotalInstallments,
		PaidInstallments:      p.PaidInstallments,
		RemainingInstallments: p.RemainingInstallments(),
		CompletionPercentage:  p.CompletionPercentage(),
		StartDate:             p.StartDate,
		NextPaymentDate:       p.NextPaymentDate,
		IsOverdue:             p.IsOverdue,
		Vendor:                p.Vendor,
		Notes:                 p.Notes,
		IsActive:              p.IsActive,
	}
}

type installmentRecordView struct {
	InstallmentNumber int        `json:"installmentNumber"`
	Amount            core.Money `json:"amount"`
	PaidAt            string     `json:"paidAt"`
}

func newInstallmentRecordViews(records []core.InstallmentRecord) []installmentRecordView {
	out := make([]installmentRecordView, 0, len(records))
	for _, rec := range records {
		out = append(out, installmentRecordView{
			InstallmentNumber: rec.Number,
			Amount:            rec.Amount,
			PaidAt:            rec.PaidAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

type installmentSummaryView struct {
	TotalInstallments    int        `json:"totalInstallments"`
	ActiveInstallments   int        `json:"activeInstallments"`
	TotalDebt            core.Money `json:"totalDebt"`
	TotalPaid            core.Money `json:"totalPaid"`
	TotalRemaining       core.Money `json:"totalRemaining"`
	MonthlyTotal         core.Money `json:"monthlyTotal"`
	CompletionPercentage int        `json:"completionPercentage"`
}

func newInstallmentSummaryView(sum services.InstallmentSummary) installmentSummaryView {
	return installmentSummaryView{
		TotalInstallments:    sum.TotalPlans,
		ActiveInstallments:   sum.ActivePlans,
		TotalDebt:            sum.TotalDebt,
		TotalPaid:            sum.TotalPaid,
		TotalRemaining:       sum.TotalRemaining,
		MonthlyTotal:         sum.MonthlyTotal,
		CompletionPercentage: sum.CompletionPercentage,
	}
}

type fixedTotalView struct {
	TotalAmount core.Money `json:"totalAmount"`
	Count       int        `json:"count"`
}

// paymentView is an annotated payment of either kind with its identity.
type paymentView struct {
	ID       int64            `json:"id"`
	Kind     core.PaymentKind `json:"kind"`
	Title    string           `json:"title"`
	Category string           `json:"category"`
	Amount   core.Money       `json:"amount"`
	calendar.AnnotatedPayment
}

func newPaymentView(ap calendar.AnnotatedPayment) paymentView {
	return paymentView{
		ID:               ap.Payment.PaymentID(),
		Kind:             ap.Payment.Kind(),
		Title:            ap.Payment.Title(),
		Category:         ap.Payment.PaymentCategory(),
		Amount:           ap.Payment.DueAmount(),
		AnnotatedPayment: ap,
	}
}

func newPaymentViews(aps []calendar.AnnotatedPayment) []paymentView {
	out := make([]paymentView, 0, len(aps))
	for _, ap := range aps {
		out = append(out, newPaymentView(ap))
	}
	return out
}

type calendarDayView struct {
	Date           core.Date     `json:"date"`
	DayOfMonth     int           `json:"dayOfMonth"`
	IsCurrentMonth bool          `json:"isCurrentMonth"`
	IsToday        bool          `json:"isToday"`
	Payments       []paymentView `json:"payments"`
}

func newCalendarViews(days []calendar.CalendarDay) []calendarDayView {
	out := make([]calendarDayView, 0, len(days))
	for _, d := range days {
		out = append(out, calendarDayView{
			Date:           d.Date,
			DayOfMonth:     d.DayOfMonth,
			IsCurrentMonth: d.IsCurrentMonth,
			IsToday:        d.IsToday,
			Payments:       newPaymentViews(d.Payments),
		})
	}
	return out
}

type calendarResponse struct {
	Year  int               `json:"year"`
	Month int               `json:"month"`
	Kind  string            `json:"kind"`
	Days  []calendarDayView `json:"days"`
}

type paymentsPage struct {
	Items []paymentView `json:"items"`
	Pagination
}

type exportResponse struct {
	Ref  string `json:"ref"`
	Rows int    `json:"rows"`
}
