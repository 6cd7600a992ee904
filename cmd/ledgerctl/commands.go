package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/segyhp/pawn-ledger/internal/app"
	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/pkg/utils"
)

type appOpener func(ctx context.Context) (*app.App, error)

func newRootCmd(open appOpener) *cobra.Command {
	root := &cobra.Command{
		Use:          "ledgerctl",
		Short:        "Pawn ledger maintenance",
		Long:         "Run overdue sweeps, reconcile investor balances and inspect ledgers outside the HTTP API.",
		SilenceUsage: true,
	}

	root.AddCommand(
		newSweepCmd(open),
		newReconcileCmd(open),
		newVerifyCmd(open),
		newStatusCmd(open),
	)
	return root
}

// withApp opens the app for the duration of one command.
func withApp(cmd *cobra.Command, open appOpener, fn func(ctx context.Context, a *app.App) (interface{}, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := fn(ctx, a)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newSweepCmd(open appOpener) *cobra.Command {
	var owner, now string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Promote elapsed periods and loans to overdue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				at := a.Service.Now()
				if now != "" {
					parsed, err := utils.ParseDate(now, a.Config.GetLocation())
					if err != nil {
						return nil, fmt.Errorf("--now: %w", err)
					}
					at = parsed
				}

				if owner == "" {
					return a.Service.SweepAll(ctx, at)
				}
				ownerID, err := uuid.Parse(owner)
				if err != nil {
					return nil, fmt.Errorf("--owner: %w", err)
				}
				return a.Service.SweepOverdue(ctx, ownerID, at)
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Sweep a single owner (default: every owner)")
	cmd.Flags().StringVar(&now, "now", "", "Evaluate as of this date, YYYY-MM-DD (default: now)")
	return cmd
}

func newReconcileCmd(open appOpener) *cobra.Command {
	var investors []string
	var from string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute running balances for investors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ids, err := parseIDs(investors)
			if err != nil {
				return fmt.Errorf("--investor: %w", err)
			}

			return withApp(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				var cutover *time.Time
				if from != "" {
					parsed, err := utils.ParseDate(from, a.Config.GetLocation())
					if err != nil {
						return nil, fmt.Errorf("--from: %w", err)
					}
					cutover = &parsed
				}

				updated, err := a.Service.ReconcileBalances(ctx, ids, cutover)
				if err != nil {
					return nil, err
				}
				return map[string]int{"balances_updated": updated}, nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&investors, "investor", nil, "Investor ID (repeatable)")
	cmd.Flags().StringVar(&from, "from", "", "Only rewrite balances dated on or after YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("investor")
	return cmd
}

func newVerifyCmd(open appOpener) *cobra.Command {
	var investor string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that stored balances match a recomputation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			investorID, err := uuid.Parse(investor)
			if err != nil {
				return fmt.Errorf("--investor: %w", err)
			}

			return withApp(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				if err := a.Service.VerifyInvestorLedger(ctx, investorID); err != nil {
					return nil, err
				}
				return map[string]string{"investor_id": investorID.String(), "status": "consistent"}, nil
			})
		},
	}

	cmd.Flags().StringVar(&investor, "investor", "", "Investor ID")
	_ = cmd.MarkFlagRequired("investor")
	return cmd
}

func newStatusCmd(open appOpener) *cobra.Command {
	var loan, status string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Override a loan status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loanID, err := uuid.Parse(loan)
			if err != nil {
				return fmt.Errorf("--loan: %w", err)
			}

			return withApp(cmd, open, func(ctx context.Context, a *app.App) (interface{}, error) {
				return a.Service.OverrideLoanStatus(ctx, loanID, domain.LoanStatus(status))
			})
		},
	}

	cmd.Flags().StringVar(&loan, "loan", "", "Loan ID")
	cmd.Flags().StringVar(&status, "set", "", "New status: partially_funded, fully_funded, overdue or completed")
	_ = cmd.MarkFlagRequired("loan")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func parseIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
