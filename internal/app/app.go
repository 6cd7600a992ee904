// Package app wires configuration, storage, redis and the ledger service into a runnable
// process. The server, the scheduler and ledgerctl all start from New.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/pawn-ledger/internal/cache"
	"github.com/segyhp/pawn-ledger/internal/config"
	"github.com/segyhp/pawn-ledger/internal/handler"
	"github.com/segyhp/pawn-ledger/internal/observability"
	"github.com/segyhp/pawn-ledger/internal/repository"
	"github.com/segyhp/pawn-ledger/internal/repository/memstore"
	"github.com/segyhp/pawn-ledger/internal/service"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Service *service.LedgerService

	db      *sqlx.DB
	redis   *redis.Client
	locker  *cache.Locker
	closers []func() error
}

// New connects the configured storage driver and redis, then builds the ledger service.
// Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(nil),
	}

	loanRepo, ledgerRepo, err := a.initStorage(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.initRedis(ctx)

	a.Service = service.NewLedgerService(loanRepo, ledgerRepo, a.locker, a.Metrics, cfg, logger)
	return a, nil
}

func (a *App) initStorage(ctx context.Context) (repository.LoanRepository, repository.LedgerRepository, error) {
	if a.Config.Database.Driver == config.DriverMemory {
		a.Logger.Warn("using in-memory storage, data is lost on exit")
		return memstore.NewLoanStore(), memstore.NewLedgerStore(), nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", a.Config.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(a.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(a.Config.Database.MaxIdleConns)

	a.db = db
	a.closers = append(a.closers, db.Close)
	return repository.NewLoanRepository(db), repository.NewLedgerRepository(db), nil
}

// initRedis never fails startup. Without redis the sweep lock degrades to the in-process
// singleflight guard.
func (a *App) initRedis(ctx context.Context) {
	if !a.Config.Redis.Enabled {
		a.Logger.Info("redis disabled, sweeps are only coalesced in-process")
		return
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr(),
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	a.closers = append(a.closers, a.redis.Close)
	a.locker = cache.NewLocker(a.redis, a.Config.GetLockTTL())

	if err := a.locker.Ping(ctx); err != nil {
		a.Logger.Warn("redis ping", slog.Any("error", err))
	}
}

// HealthChecks returns the dependencies the readiness probe should reach.
func (a *App) HealthChecks() map[string]handler.Pinger {
	checks := make(map[string]handler.Pinger)
	if a.db != nil {
		checks["database"] = a.db
	}
	if a.locker != nil {
		checks["redis"] = handler.PingFunc(a.locker.Ping)
	}
	return checks
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
