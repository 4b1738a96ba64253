package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"paycal/internal/log"
)

// ReminderRunner publishes the reminders due as of now.
type ReminderRunner interface {
	Process(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs a ReminderRunner on a cron schedule.
type Scheduler struct {
	schedule   string
	runner     ReminderRunner
	cron       *cron.Cron
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time

	mu      sync.Mutex
	entryID cron.EntryID
}

// NewScheduler validates schedule as a standard five-field cron expression
// (descriptors such as @daily and @every are accepted too).
func NewScheduler(schedule string, runner ReminderRunner, logger *log.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("reminder runner is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &Scheduler{
		schedule:   schedule,
		runner:     runner,
		cron:       cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		now:        time.Now,
	}, nil
}

// RunOnce processes reminders immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	start := s.now()
	count, err := s.runner.Process(ctx, start)
	if err != nil {
		s.structured.LogError(ctx, "Reminder run failed", err, log.ComponentReminder, log.OpPublish, nil)
		return 0, err
	}
	s.logger.InfoContext(ctx, "Reminder run complete",
		log.FieldCount, count,
		log.FieldDuration, s.now().Sub(start).Milliseconds())
	return count, nil
}

// Run processes reminders once at startup, then on every schedule tick until
// ctx is done. It returns after any in-flight run has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	// RunOnce logs its own failures; the next tick retries.
	_, _ = s.RunOnce(ctx)

	id, err := s.cron.AddFunc(s.schedule, func() {
		_, _ = s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	s.mu.Lock()
	s.entryID = id
	s.mu.Unlock()

	s.cron.Start()
	s.logger.InfoContext(ctx, "Reminder schedule started",
		"schedule", s.schedule,
		"next_run", s.Next().Format(time.RFC3339))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Reminder schedule stopped")
	return nil
}

// Next returns when the scheduled job fires next, or the zero time before Run.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	id := s.entryID
	s.mu.Unlock()
	if id == 0 {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}
