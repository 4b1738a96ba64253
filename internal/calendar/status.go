package calendar

import (
	"fmt"
	"sort"

	"paycal/internal/core"
)

// Status is the urgency class of a resolved payment.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusToday     Status = "today"
	StatusUpcoming  Status = "upcoming"
	StatusPending   Status = "pending"
	StatusFuture    Status = "future"
)

// Priorities order statuses for display; higher is more urgent.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
	PriorityUrgent = 4
)

const (
	upcomingWindowDays = 7
	pendingWindowDays  = 30
)

// Classification is the result of classifying one resolved date.
type Classification struct {
	Status    Status `json:"status"`
	Label     string `json:"label"`
	Priority  int    `json:"priority"`
	DaysUntil int    `json:"daysUntil"`
}

// Classify assigns a status to a payment resolved on resolved, as seen on
// today. Rules are evaluated in order and the first match wins; a server-side
// overdue flag overrides the local day count.
func Classify(resolved, today core.Date, completionPercentage int, serverIsOverdue *bool) Classification {
	days := core.DaysBetween(today, resolved)

	switch {
	case completionPercentage == 100:
		return Classification{Status: StatusCompleted, Label: "Completed", Priority: PriorityLow, DaysUntil: days}
	case serverIsOverdue != nil && *serverIsOverdue:
		return Classification{Status: StatusOverdue, Label: "Overdue", Priority: PriorityUrgent, DaysUntil: days}
	case days == 0:
		return Classification{Status: StatusToday, Label: "Today", Priority: PriorityHigh, DaysUntil: 0}
	case days < 0:
		return Classification{Status: StatusOverdue, Label: "Overdue", Priority: PriorityUrgent, DaysUntil: days}
	case days <= upcomingWindowDays:
		return Classification{Status: StatusUpcoming, Label: daysLeft(days), Priority: PriorityHigh, DaysUntil: days}
	case days <= pendingWindowDays:
		return Classification{Status: StatusPending, Label: daysLeft(days), Priority: PriorityMedium, DaysUntil: days}
	default:
		return Classification{Status: StatusFuture, Label: daysLeft(days), Priority: PriorityLow, DaysUntil: days}
	}
}

func daysLeft(n int) string {
	if n == 1 {
		return "1 day left"
	}
	return fmt.Sprintf("%d days left", n)
}

// AnnotatedPayment is a payment together with its resolved date and status.
type AnnotatedPayment struct {
	Payment      core.Payment `json:"-"`
	ResolvedDate core.Date    `json:"resolvedDate"`
	Classification
}

// SortByUrgency orders payments most urgent first: by priority descending,
// with payments due today ahead of upcoming ones at equal priority, then by
// resolved date. Equal elements keep their input order.
func SortByUrgency(ps []AnnotatedPayment) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Status != b.Status && (a.Status == StatusToday || b.Status == StatusToday) {
			return a.Status == StatusToday
		}
		if !a.ResolvedDate.Equal(b.ResolvedDate) {
			return a.ResolvedDate.Before(b.ResolvedDate)
		}
		return false
	})
}
