package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"appointment-checker/checker"
	"appointment-checker/config"
	"appointment-checker/services"
	"appointment-checker/storage"
	"appointment-checker/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	logger.Info("=== Appointment Availability Checker starting ===")
	logger.Info("Config — target: %s | type id: %q | type text: %q | response window: %dms | headless: %t",
		cfg.TargetURL, cfg.AppointmentTypeID, cfg.AppointmentTypeText, cfg.ResponseTimeoutMs, cfg.Headless)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writers := openWriters(cfg, logger)
	closeWriters := func() {
		for _, w := range writers {
			w.Close()
		}
	}

	if cfg.CheckIntervalMinutes <= 0 {
		code := runOnce(ctx, cfg, logger, writers)
		closeWriters()
		os.Exit(code)
	}

	logger.Info("Periodic mode — checking every %d minutes", cfg.CheckIntervalMinutes)
	runOnce(ctx, cfg, logger, writers)

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %dm", cfg.CheckIntervalMinutes), func() {
		runOnce(ctx, cfg, logger, writers)
	})
	if err != nil {
		logger.Error("Failed to schedule periodic checks: %v", err)
		os.Exit(1)
	}

	c.Start()
	<-ctx.Done()
	logger.Info("Interrupt received — shutting down")
	<-c.Stop().Done()
	closeWriters()
}

// runOnce performs one full sweep over the location listing and persists the
// outcome. Returns a process exit code: 0 for a complete run, 2 for a
// degraded one, 1 for a run that never got going.
func runOnce(ctx context.Context, cfg *config.Config, logger *utils.Logger, writers []storage.ResultWriter) int {
	session, err := checker.NewSession(ctx, cfg, logger)
	if err != nil {
		logger.Error("Browser session failed to start: %v", err)
		return 1
	}
	defer session.Close()

	chk := checker.New(session, cfg, logger)
	if err := chk.Start(); err != nil {
		logger.Error("Booking flow failed to open: %v", err)
		return 1
	}

	runner := services.NewRunner(chk, utils.NewPacer(cfg.RateLimitMs), logger)
	results, summary := runner.Run(ctx)

	services.NewReportService(logger).Print(results, summary)

	for _, w := range writers {
		if err := w.WriteRun(results, summary); err != nil {
			logger.Error("Persisting run failed: %v", err)
		}
	}

	if summary.Degraded {
		return 2
	}
	return 0
}

// openWriters sets up the CSV writer and, when reachable, the Postgres run
// history. The database is an enrichment — an unreachable one downgrades to
// a warning instead of blocking checks.
func openWriters(cfg *config.Config, logger *utils.Logger) []storage.ResultWriter {
	var writers []storage.ResultWriter

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	writers = append(writers, csvWriter)
	logger.Info("Results CSV → %s", cfg.CSVOutputPath)

	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Warn("PostgreSQL unavailable, run history disabled: %v", err)
		return writers
	}
	writers = append(writers, pgWriter)
	logger.Info("Run history → PostgreSQL (table: availability_checks)")

	return writers
}
