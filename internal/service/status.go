package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/ledger"
	customError "github.com/segyhp/pawn-ledger/pkg/errors"
)

// OverrideLoanStatus persists an explicit status, bypassing derivation. It is the only way
// to reopen a Completed loan.
func (s *LedgerService) OverrideLoanStatus(ctx context.Context, loanID uuid.UUID, status domain.LoanStatus) (*domain.Loan, error) {
	if !status.IsValid() {
		return nil, customError.WrapValidation("Unknown loan status "+string(status), nil)
	}

	loan, err := s.LoanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, s.loanError(err, loanID)
	}
	if err = s.LoanRepo.UpdateStatus(ctx, loanID, status); err != nil {
		return nil, s.loanError(err, loanID)
	}
	s.recordStatusChange(loan.Status, status)

	s.logger.InfoContext(ctx, "loan status overridden",
		slog.String("loan_id", loanID.String()),
		slog.String("from", string(loan.Status)),
		slog.String("to", string(status)),
	)
	loan.Status = status
	return loan, nil
}

// SetPeriodStatus records a manual period status and re-derives the loan status
func (s *LedgerService) SetPeriodStatus(ctx context.Context, periodID uuid.UUID, status domain.PeriodStatus) (*domain.Loan, error) {
	if !status.IsValid() {
		return nil, customError.WrapValidation("Unknown period status "+string(status), nil)
	}

	period, err := s.LoanRepo.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, s.periodError(err, periodID)
	}
	allocation, err := s.LoanRepo.GetAllocation(ctx, period.AllocationID)
	if err != nil {
		return nil, s.allocationError(err, period.AllocationID)
	}
	if err = s.LoanRepo.UpdatePeriodStatus(ctx, periodID, status); err != nil {
		return nil, s.periodError(err, periodID)
	}

	return s.refreshLoanStatus(ctx, allocation.LoanID, false)
}

// SetAllocationPaid records an allocation's paid flag and re-derives the loan status,
// including the funding state
func (s *LedgerService) SetAllocationPaid(ctx context.Context, allocationID uuid.UUID, paid bool) (*domain.Loan, error) {
	allocation, err := s.LoanRepo.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, s.allocationError(err, allocationID)
	}
	if err = s.LoanRepo.UpdateAllocationPaid(ctx, allocationID, paid); err != nil {
		return nil, s.allocationError(err, allocationID)
	}

	return s.refreshLoanStatus(ctx, allocation.LoanID, true)
}

func (s *LedgerService) refreshLoanStatus(ctx context.Context, loanID uuid.UUID, funding bool) (*domain.Loan, error) {
	loan, allocations, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	next := loan.Status
	if funding {
		next = ledger.FundingStatus(next, allocations)
	}
	next = ledger.DeriveLoanStatus(next, allocations)
	if next == loan.Status {
		return loan, nil
	}

	if err = s.LoanRepo.UpdateStatus(ctx, loanID, next); err != nil {
		return nil, s.loanError(err, loanID)
	}
	s.recordStatusChange(loan.Status, next)
	s.logger.InfoContext(ctx, "loan status derived",
		slog.String("loan_id", loanID.String()),
		slog.String("from", string(loan.Status)),
		slog.String("to", string(next)),
	)
	loan.Status = next
	return loan, nil
}
