package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"paycal/internal/calendar"
	"paycal/internal/cli"
	apphttp "paycal/internal/http"
	"paycal/internal/log"
	"paycal/internal/services"
	ports "paycal/internal/sheets"
	gsheet "paycal/internal/sheets/google"
	mem "paycal/internal/sheets/memory"
)

func main() {
	cfg, logger := cli.MustBootstrap(log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	engine := calendar.NewEngine(logger, time.Now)
	detector := services.NewOverdueDetector(repo, cfg.OverdueGraceDays, logger)
	payments := services.NewPaymentService(repo, engine, detector, logger)

	// Reports go to Google Sheets when configured, otherwise stay in memory.
	var exporter ports.ScheduleExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleReportSheet)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = mem.New()
		logger.Info("Google Sheets disabled - exports kept in memory")
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		CacheSize:          cfg.CacheSize,
	}, payments, exporter, repo, logger)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting paycal server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	<-stopped
	logger.Info("Server stopped gracefully")
}
