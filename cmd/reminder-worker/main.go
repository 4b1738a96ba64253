package main

import (
	"paycal/internal/amqp"
	"paycal/internal/cli"
	"paycal/internal/log"
	"paycal/internal/services"
	"paycal/internal/worker"
)

func main() {
	cfg, logger := cli.MustBootstrap(log.ComponentReminder)

	logger.Info("Starting reminder-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Reminders only make sense with a broker; the notify-worker consumes them.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	detector := services.NewOverdueDetector(repo, cfg.OverdueGraceDays, logger)
	processor := services.NewReminderProcessor(repo, detector, amqpClient, cfg.ReminderLeadDays, logger)

	scheduler, err := worker.NewScheduler(cfg.ReminderSchedule, processor, logger)
	if err != nil {
		cli.Fatal(logger, "Invalid reminder schedule", err, "schedule", cfg.ReminderSchedule)
	}

	logger.Info("Reminder processor configured",
		"schedule", cfg.ReminderSchedule,
		"lead_days", cfg.ReminderLeadDays,
		"grace_days", cfg.OverdueGraceDays,
		"sqlite_db", cfg.SQLiteDBPath)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	if err := scheduler.Run(ctx); err != nil {
		cli.Fatal(logger, "Reminder scheduler failed", err)
	}

	logger.Info("reminder-worker stopped")
}
