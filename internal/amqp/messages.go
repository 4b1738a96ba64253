package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"paycal/internal/core"
)

var ErrMalformedMessage = errors.New("malformed reminder message")

// ReminderMessage carries one payment reminder from the scheduler to the notifier.
// ID is unique per published reminder and lets consumers drop redeliveries.
type ReminderMessage struct {
	ID        string           `json:"id"`
	PaymentID int64            `json:"paymentId"`
	Kind      core.PaymentKind `json:"kind"`
	Title     string           `json:"title"`
	Category  string           `json:"category"`
	Amount    core.Money       `json:"amount"`
	DueDate   core.Date        `json:"dueDate"`
	Status    string           `json:"status"`
	DaysUntil int              `json:"daysUntil"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewReminderMessage wraps r in a message with a fresh id.
func NewReminderMessage(r core.Reminder, now time.Time) *ReminderMessage {
	return &ReminderMessage{
		ID:        uuid.NewString(),
		PaymentID: r.PaymentID,
		Kind:      r.Kind,
		Title:     r.Title,
		Category:  r.Category,
		Amount:    r.Amount,
		DueDate:   r.DueDate,
		Status:    r.Status,
		DaysUntil: r.DaysUntil,
		Timestamp: now,
	}
}

// Reminder returns the reminder the message carries.
func (m *ReminderMessage) Reminder() core.Reminder {
	return core.Reminder{
		PaymentID: m.PaymentID,
		Kind:      m.Kind,
		Title:     m.Title,
		Category:  m.Category,
		Amount:    m.Amount,
		DueDate:   m.DueDate,
		Status:    m.Status,
		DaysUntil: m.DaysUntil,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON decodes and checks a message body.
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Join(ErrMalformedMessage, err)
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, errors.Join(ErrMalformedMessage, err)
	}
	if msg.PaymentID <= 0 || msg.Title == "" {
		return nil, ErrMalformedMessage
	}
	if _, err := core.ParseKind(string(msg.Kind)); err != nil {
		return nil, errors.Join(ErrMalformedMessage, err)
	}
	return &msg, nil
}
