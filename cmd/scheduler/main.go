package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/segyhp/pawn-ledger/internal/app"
	"github.com/segyhp/pawn-ledger/internal/config"
	"github.com/segyhp/pawn-ledger/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("init app", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close app", slog.Any("error", err))
		}
	}()

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithParser(config.CronParser()),
		cron.WithLocation(cfg.GetLocation()),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := c.AddFunc(cfg.Scheduler.SweepCron, func() {
		runSweep(ctx, application.Service, logger)
	}); err != nil {
		logger.Error("schedule overdue sweep", slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()
	logger.Info("scheduler started",
		slog.String("sweep_cron", cfg.Scheduler.SweepCron),
		slog.String("timezone", cfg.Scheduler.Timezone),
	)

	<-ctx.Done()
	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}

func runSweep(ctx context.Context, svc *service.LedgerService, logger *slog.Logger) {
	reports, err := svc.SweepAll(ctx, svc.Now())
	if err != nil {
		logger.Error("overdue sweep", slog.Any("error", err))
	}

	var processed, changed, failed, skipped int
	for _, r := range reports {
		processed += r.LoansProcessed
		changed += r.LoansChanged
		failed += r.LoansFailed
		if r.Skipped {
			skipped++
		}
	}
	logger.Info("overdue sweep finished",
		slog.Int("owners", len(reports)),
		slog.Int("owners_skipped", skipped),
		slog.Int("loans_processed", processed),
		slog.Int("loans_changed", changed),
		slog.Int("loans_failed", failed),
	)
}
