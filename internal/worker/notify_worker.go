package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"paycal/internal/amqp"
	"paycal/internal/cache"
	"paycal/internal/log"
	"paycal/internal/notify"
)

const (
	// seenWindow bounds how long a delivered message id is remembered.
	seenWindow = 48 * time.Hour
	seenSize   = 1024
)

// NotifyWorker turns consumed reminder messages into notifications.
type NotifyWorker struct {
	notifier notify.Notifier
	seen     *cache.LRUCache[struct{}]
	logger   *log.Logger

	delivered  atomic.Int64
	duplicates atomic.Int64
}

func NewNotifyWorker(notifier notify.Notifier, logger *log.Logger) *NotifyWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &NotifyWorker{
		notifier: notifier,
		seen:     cache.NewLRUCache[struct{}](seenSize, seenWindow),
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleReminderMessage notifies once per message id. A failed notification
// is returned to the consumer so the message is requeued.
func (w *NotifyWorker) HandleReminderMessage(ctx context.Context, msg *amqp.ReminderMessage) error {
	if _, ok := w.seen.Get(msg.ID); ok {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Skipping redelivered reminder",
			log.FieldMessageID, msg.ID,
			log.FieldPaymentID, msg.PaymentID)
		return nil
	}

	if err := w.notifier.Notify(ctx, msg.Reminder()); err != nil {
		return fmt.Errorf("notify payment %d: %w", msg.PaymentID, err)
	}

	w.seen.Set(msg.ID, struct{}{})
	w.delivered.Add(1)
	return nil
}

// SeenCache exposes the redelivery cache so its expired ids can be swept.
func (w *NotifyWorker) SeenCache() cache.Cleaner {
	return w.seen
}

// Stats returns how many reminders were delivered and how many redeliveries were dropped.
func (w *NotifyWorker) Stats() (delivered, duplicates int64) {
	return w.delivered.Load(), w.duplicates.Load()
}
