package core

// Reminder asks for a payment to be brought to the user's attention.
type Reminder struct {
	PaymentID int64
	Kind      PaymentKind
	Title     string
	Category  string
	Amount    Money
	DueDate   Date
	Status    string
	DaysUntil int
}

// IsOverdue reports whether the reminder is for a payment already late.
func (r Reminder) IsOverdue() bool {
	return r.Status == "overdue"
}
