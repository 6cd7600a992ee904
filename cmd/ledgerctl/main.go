// Command ledgerctl runs ledger maintenance against the configured storage: overdue sweeps,
// balance reconciliation, consistency checks and status overrides.
package main

import (
	"context"
	"os"

	"github.com/segyhp/pawn-ledger/internal/app"
	"github.com/segyhp/pawn-ledger/internal/config"
)

func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		os.Exit(1)
	}
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// stdout carries command output
	logger := config.NewLoggerTo(cfg.Logging, os.Stderr)
	return app.New(ctx, cfg, logger)
}
