package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/ledger"
	customError "github.com/segyhp/pawn-ledger/pkg/errors"
	"github.com/segyhp/pawn-ledger/pkg/utils"
)

// RegenerateLedger replaces a loan's generated entries and reconciles every investor
// touched by either the old or the new set. It never fails the caller; problems are
// reported in the result.
func (s *LedgerService) RegenerateLedger(ctx context.Context, loan *domain.Loan, allocations []*domain.InvestorAllocation) *LedgerResult {
	result := &LedgerResult{}
	tracker := s.metrics.Track("regenerate_ledger")

	deleted, err := s.LedgerRepo.DeleteGeneratedByLoanID(ctx, loan.ID)
	if err != nil {
		result.Err = customError.WrapLedgerGeneration(loan.ID.String(), err)
		s.logLedgerFailure(ctx, loan.ID, result.Err)
		_ = tracker.End(result.Err)
		return result
	}
	result.EntriesDeleted = len(deleted)

	entries := ledger.GenerateEntries(loan, allocations)
	if err = s.LedgerRepo.InsertEntries(ctx, entries); err != nil {
		result.Err = customError.WrapLedgerGeneration(loan.ID.String(), err)
		s.logLedgerFailure(ctx, loan.ID, result.Err)
		// the old entries are gone; their investors still need fresh balances
		entries = nil
	} else {
		result.EntriesCreated = len(entries)
		s.metrics.EntriesGenerated(len(entries))
	}

	investors, from := reconcileScope(deleted, entries)
	if len(investors) == 0 {
		_ = tracker.End(result.Err)
		return result
	}

	updated, err := s.ReconcileBalances(ctx, investors, &from)
	result.BalancesUpdated = updated
	if err != nil && result.Err == nil {
		result.Err = err
	}
	_ = tracker.End(result.Err)
	return result
}

// reconcileScope returns the investors of both entry sets in first-seen order and the
// earliest date among them.
func reconcileScope(sets ...[]*domain.LedgerEntry) ([]uuid.UUID, time.Time) {
	var (
		investors []uuid.UUID
		dates     []time.Time
	)
	seen := make(map[uuid.UUID]bool)
	for _, set := range sets {
		for _, e := range set {
			dates = append(dates, e.Date)
			if !seen[e.InvestorID] {
				seen[e.InvestorID] = true
				investors = append(investors, e.InvestorID)
			}
		}
	}
	return investors, utils.EarliestDate(dates...)
}

// ReconcileBalances recomputes running balances for each investor. Summation always starts
// at the investor's first entry; cutover only limits which rows are written. Every investor
// is attempted; the first failure is returned.
func (s *LedgerService) ReconcileBalances(ctx context.Context, investorIDs []uuid.UUID, cutover *time.Time) (int, error) {
	tracker := s.metrics.Track("reconcile_balances")

	var (
		total    int
		firstErr error
	)
	for _, investorID := range investorIDs {
		n, err := s.reconcileInvestor(ctx, investorID, cutover)
		total += n
		if err != nil {
			s.logger.ErrorContext(ctx, "balance reconciliation failed",
				slog.String("investor_id", investorID.String()),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	s.metrics.BalancesUpdated(total)
	return total, tracker.End(firstErr)
}

func (s *LedgerService) reconcileInvestor(ctx context.Context, investorID uuid.UUID, cutover *time.Time) (int, error) {
	entries, err := s.LedgerRepo.GetByInvestorID(ctx, investorID)
	if err != nil {
		return 0, customError.WrapReconciliation(investorID.String(), err)
	}

	updates := ledger.ComputeBalances(entries, cutover)
	if len(updates) == 0 {
		return 0, nil
	}
	if err = s.LedgerRepo.UpdateBalances(ctx, updates); err != nil {
		return 0, customError.WrapReconciliation(investorID.String(), err)
	}
	return len(updates), nil
}

// RenameLedger rewrites the display names of a loan's generated entries after a rename.
// Amounts, dates and balances are untouched.
func (s *LedgerService) RenameLedger(ctx context.Context, loan *domain.Loan) (int, error) {
	entries, err := s.LedgerRepo.GetByLoanID(ctx, loan.ID)
	if err != nil {
		return 0, customError.WrapLedgerGeneration(loan.ID.String(), err)
	}
	ledger.SortEntries(entries)

	updates := ledger.RenameEntries(loan.Name, entries)
	if len(updates) == 0 {
		return 0, nil
	}
	if err = s.LedgerRepo.UpdateNames(ctx, updates); err != nil {
		return 0, customError.WrapLedgerGeneration(loan.ID.String(), err)
	}
	return len(updates), nil
}

// EntryResult is the outcome of a manual entry write.
type EntryResult struct {
	Entry  *domain.LedgerEntry `json:"entry,omitempty"`
	Ledger *LedgerResult       `json:"ledger"`
}

// CreateEntry records a manual ledger entry and reconciles the investor from its date
func (s *LedgerService) CreateEntry(ctx context.Context, request *domain.EntryRequest) (*EntryResult, error) {
	if err := s.validate.Struct(request); err != nil {
		return nil, customError.WrapValidation("Invalid ledger entry", err)
	}

	entry := &domain.LedgerEntry{
		ID:         uuid.New(),
		InvestorID: request.InvestorID,
		Date:       request.Date,
		Category:   domain.EntryCategoryOther,
		Direction:  request.Direction,
		Name:       request.Name,
		Amount:     request.Amount,
		Notes:      request.Notes,
		CreatedAt:  s.clock(),
	}
	if err := s.LedgerRepo.InsertEntries(ctx, []*domain.LedgerEntry{entry}); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	result := &EntryResult{Entry: entry, Ledger: &LedgerResult{EntriesCreated: 1}}
	s.reconcileAfterEntry(ctx, result.Ledger, entry.InvestorID, entry.Date)
	if refreshed, err := s.LedgerRepo.GetByID(ctx, entry.ID); err == nil {
		result.Entry = refreshed
	}
	return result, nil
}

// UpdateEntry edits a manual entry. Generated entries are rejected.
func (s *LedgerService) UpdateEntry(ctx context.Context, entryID uuid.UUID, request *domain.EntryRequest) (*EntryResult, error) {
	if err := s.validate.Struct(request); err != nil {
		return nil, customError.WrapValidation("Invalid ledger entry", err)
	}

	entry, err := s.manualEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.InvestorID != request.InvestorID {
		return nil, customError.WrapValidation("Ledger entries cannot move between investors", nil)
	}

	previousDate := entry.Date
	entry.Date = request.Date
	entry.Direction = request.Direction
	entry.Name = request.Name
	entry.Amount = request.Amount
	entry.Notes = request.Notes
	if err = s.LedgerRepo.Update(ctx, entry); err != nil {
		return nil, s.entryError(err, entryID)
	}

	result := &EntryResult{Entry: entry, Ledger: &LedgerResult{}}
	s.reconcileAfterEntry(ctx, result.Ledger, entry.InvestorID, utils.EarliestDate(previousDate, entry.Date))
	if refreshed, err := s.LedgerRepo.GetByID(ctx, entry.ID); err == nil {
		result.Entry = refreshed
	}
	return result, nil
}

// DeleteEntry removes a manual entry. Generated entries are rejected.
func (s *LedgerService) DeleteEntry(ctx context.Context, entryID uuid.UUID) (*EntryResult, error) {
	entry, err := s.manualEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if err = s.LedgerRepo.Delete(ctx, entryID); err != nil {
		return nil, s.entryError(err, entryID)
	}

	result := &EntryResult{Ledger: &LedgerResult{EntriesDeleted: 1}}
	s.reconcileAfterEntry(ctx, result.Ledger, entry.InvestorID, entry.Date)
	return result, nil
}

func (s *LedgerService) manualEntry(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	entry, err := s.LedgerRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, s.entryError(err, entryID)
	}
	if entry.IsGenerated() {
		return nil, customError.WrapEntryImmutable(entryID.String())
	}
	return entry, nil
}

func (s *LedgerService) reconcileAfterEntry(ctx context.Context, result *LedgerResult, investorID uuid.UUID, from time.Time) {
	updated, err := s.ReconcileBalances(ctx, []uuid.UUID{investorID}, &from)
	result.BalancesUpdated = updated
	result.Err = err
}

// InvestorLedger returns an investor's entries in ledger order
func (s *LedgerService) InvestorLedger(ctx context.Context, investorID uuid.UUID) ([]*domain.LedgerEntry, error) {
	entries, err := s.LedgerRepo.GetByInvestorID(ctx, investorID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	ledger.SortEntries(entries)
	return entries, nil
}

// VerifyInvestorLedger checks that every stored balance equals the running sum
func (s *LedgerService) VerifyInvestorLedger(ctx context.Context, investorID uuid.UUID) error {
	entries, err := s.InvestorLedger(ctx, investorID)
	if err != nil {
		return err
	}
	if err = ledger.VerifyBalances(entries); err != nil {
		s.metrics.ConsistencyIssues(1)
		s.logger.WarnContext(ctx, "ledger balance mismatch",
			slog.String("investor_id", investorID.String()),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

func (s *LedgerService) logLedgerFailure(ctx context.Context, loanID uuid.UUID, err error) {
	s.logger.ErrorContext(ctx, "ledger regeneration failed",
		slog.String("loan_id", loanID.String()),
		slog.String("error", err.Error()),
	)
}
