package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/pawn-ledger/internal/cache"
	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/ledger"
	customError "github.com/segyhp/pawn-ledger/pkg/errors"
)

// SweepReport is the partial-success summary of one owner's overdue sweep.
type SweepReport struct {
	OwnerID        uuid.UUID      `json:"owner_id"`
	Now            time.Time      `json:"now"`
	LoansProcessed int            `json:"loans_processed"`
	LoansFailed    int            `json:"loans_failed"`
	LoansChanged   int            `json:"loans_changed"`
	PeriodsChanged int            `json:"periods_changed"`
	Failures       []SweepFailure `json:"failures,omitempty"`
	Skipped        bool           `json:"skipped"`
}

type SweepFailure struct {
	LoanID uuid.UUID `json:"loan_id"`
	Error  string    `json:"error"`
}

// SweepOverdue advances time-based statuses for every loan of an owner. Concurrent calls
// for the same owner and instant share one run, its result and the first caller's context.
// A run held by another process is reported as skipped. A failing loan never stops the rest.
func (s *LedgerService) SweepOverdue(ctx context.Context, ownerID uuid.UUID, now time.Time) (*SweepReport, error) {
	v, err, _ := s.sweeps.Do(sweepKey(ownerID, now), func() (interface{}, error) {
		return s.sweepOwner(ctx, ownerID, now)
	})
	if err != nil {
		return nil, err
	}
	return v.(*SweepReport), nil
}

func sweepKey(ownerID uuid.UUID, now time.Time) string {
	return ownerID.String() + "@" + now.UTC().Format(time.RFC3339Nano)
}

func (s *LedgerService) sweepOwner(ctx context.Context, ownerID uuid.UUID, now time.Time) (*SweepReport, error) {
	tracker := s.metrics.Track("sweep_overdue")
	report := &SweepReport{OwnerID: ownerID, Now: now}

	release, err := s.locker.Acquire(ctx, cache.SweepLockKey(ownerID))
	if errors.Is(err, cache.ErrLockHeld) {
		report.Skipped = true
		s.metrics.SweepSkipped()
		s.logger.InfoContext(ctx, "sweep already running", slog.String("owner_id", ownerID.String()))
		return report, tracker.End(nil)
	}
	if err != nil {
		return nil, tracker.End(customError.WrapCacheError(err))
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "sweep lock release failed",
				slog.String("owner_id", ownerID.String()),
				slog.String("error", err.Error()),
			)
		}
	}()

	loans, err := s.LoanRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, tracker.End(customError.WrapDatabaseError(err))
	}

	for _, loan := range loans {
		report.LoansProcessed++
		periods, changed, err := s.sweepLoan(ctx, loan, now)
		report.PeriodsChanged += periods
		if changed {
			report.LoansChanged++
		}
		if err != nil {
			report.LoansFailed++
			report.Failures = append(report.Failures, SweepFailure{LoanID: loan.ID, Error: err.Error()})
			s.logger.ErrorContext(ctx, "overdue sweep failed for loan",
				slog.String("owner_id", ownerID.String()),
				slog.String("loan_id", loan.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "overdue sweep finished",
		slog.String("owner_id", ownerID.String()),
		slog.Int("processed", report.LoansProcessed),
		slog.Int("failed", report.LoansFailed),
		slog.Int("loans_changed", report.LoansChanged),
		slog.Int("periods_changed", report.PeriodsChanged),
	)
	return report, tracker.End(nil)
}

func (s *LedgerService) sweepLoan(ctx context.Context, loan *domain.Loan, now time.Time) (int, bool, error) {
	allocations, err := s.LoanRepo.GetAllocations(ctx, loan.ID)
	if err != nil {
		return 0, false, customError.WrapDatabaseError(err)
	}

	outcome := ledger.EvaluateOverdue(loan, allocations, now)

	written := 0
	for _, p := range outcome.OverduePeriods {
		if err = s.LoanRepo.UpdatePeriodStatus(ctx, p.ID, domain.PeriodStatusOverdue); err != nil {
			return written, false, s.periodError(err, p.ID)
		}
		written++
	}

	if !outcome.StatusChanged {
		return written, false, nil
	}
	if err = s.LoanRepo.UpdateStatus(ctx, loan.ID, outcome.Status); err != nil {
		return written, false, s.loanError(err, loan.ID)
	}
	s.recordStatusChange(loan.Status, outcome.Status)
	return written, true, nil
}

// SweepAll sweeps every owner. Owners are independent; the first error is returned after
// all of them ran.
func (s *LedgerService) SweepAll(ctx context.Context, now time.Time) ([]*SweepReport, error) {
	owners, err := s.LoanRepo.ListOwners(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	var (
		reports  []*SweepReport
		firstErr error
	)
	for _, ownerID := range owners {
		report, err := s.SweepOverdue(ctx, ownerID, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "overdue sweep failed",
				slog.String("owner_id", ownerID.String()),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		reports = append(reports, report)
	}
	return reports, firstErr
}

// Now returns the service clock in the scheduler time zone.
func (s *LedgerService) Now() time.Time {
	now := s.clock()
	if s.config != nil {
		now = now.In(s.config.GetLocation())
	}
	return now
}
