package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"paycal/internal/amqp"
	"paycal/internal/cache"
	"paycal/internal/cli"
	"paycal/internal/log"
	"paycal/internal/notify"
	"paycal/internal/worker"
)

func main() {
	cfg, logger := cli.MustBootstrap(log.ComponentNotify)

	logger.Info("Starting notify-worker")

	var notifier notify.Notifier
	if cfg.EmailEnabled() {
		emailNotifier, err := notify.NewEmailNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
			To:       cfg.NotifyEmail,
		}, logger)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize email notifier", err)
		}
		notifier = emailNotifier
		logger.Info("Email notifications enabled", "smtp_host", cfg.SMTPHost, "recipients", len(cfg.NotifyEmail))
	} else {
		notifier = notify.NewLogNotifier(logger)
		logger.Info("Email disabled - no SMTP_HOST provided, reminders will be logged")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	notifyWorker := worker.NewNotifyWorker(notifier, logger)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(notifyWorker.SeenCache())
	cacheManager.StartCleanup(time.Hour)
	defer cacheManager.Stop()

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeReminders(gctx, notifyWorker.HandleReminderMessage)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "Message consumption failed", err)
	}

	delivered, duplicates := notifyWorker.Stats()
	logger.Info("notify-worker stopped", "delivered", delivered, "duplicates", duplicates)
}
