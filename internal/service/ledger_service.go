package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/segyhp/pawn-ledger/internal/cache"
	"github.com/segyhp/pawn-ledger/internal/config"
	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/ledger"
	"github.com/segyhp/pawn-ledger/internal/observability"
	"github.com/segyhp/pawn-ledger/internal/repository"
	customError "github.com/segyhp/pawn-ledger/pkg/errors"
)

type LedgerService struct {
	LoanRepo   repository.LoanRepository
	LedgerRepo repository.LedgerRepository
	locker     *cache.Locker
	metrics    *observability.Metrics
	config     *config.Config
	logger     *slog.Logger
	validate   *validator.Validate
	sweeps     singleflight.Group
	clock      func() time.Time
}

func NewLedgerService(
	loanRepo repository.LoanRepository,
	ledgerRepo repository.LedgerRepository,
	locker *cache.Locker,
	metrics *observability.Metrics,
	config *config.Config,
	logger *slog.Logger,
) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		LoanRepo:   loanRepo,
		LedgerRepo: ledgerRepo,
		locker:     locker,
		metrics:    metrics,
		config:     config,
		logger:     logger,
		validate:   domain.NewValidator(),
		clock:      time.Now,
	}
}

// WithClock overrides the clock for deterministic tests.
func (s *LedgerService) WithClock(clock func() time.Time) {
	s.clock = clock
}

// LoanResult is the outcome of a loan mutation. The loan itself is committed even when
// Ledger.Err is set.
type LoanResult struct {
	Loan             *domain.Loan                 `json:"loan"`
	Allocations      []*domain.InvestorAllocation `json:"allocations"`
	Regenerated      bool                         `json:"regenerated"`
	ChangeKind       ledger.ChangeKind            `json:"change_kind,omitempty"`
	Reason           string                       `json:"reason,omitempty"`
	PeriodsPreserved int                          `json:"periods_preserved"`
	EntriesRenamed   int                          `json:"entries_renamed"`
	Ledger           *LedgerResult                `json:"ledger,omitempty"`
}

// LedgerResult reports what a ledger write did. Err carries generation or reconciliation
// failures; they never undo the mutation that triggered them.
type LedgerResult struct {
	EntriesCreated  int   `json:"entries_created"`
	EntriesDeleted  int   `json:"entries_deleted"`
	BalancesUpdated int   `json:"balances_updated"`
	Err             error `json:"-"`
}

func (r *LedgerResult) MarshalJSON() ([]byte, error) {
	type plain LedgerResult
	out := struct {
		*plain
		Error string `json:"error,omitempty"`
	}{plain: (*plain)(r)}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// CreateLoan stores a loan with its allocations and generates its ledger
func (s *LedgerService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*LoanResult, error) {
	tracker := s.metrics.Track("create_loan")

	if err := s.validateLoan(request, request.Allocations); err != nil {
		return nil, tracker.End(err)
	}

	now := s.clock()
	loan := &domain.Loan{
		ID:        uuid.New(),
		OwnerID:   request.OwnerID,
		Name:      request.Name,
		Category:  request.Category,
		DueDate:   request.DueDate,
		Notes:     request.Notes,
		LotSize:   request.LotSize,
		CreatedAt: now,
		UpdatedAt: now,
	}
	allocations := buildAllocations(loan.ID, request.Allocations, now)
	loan.Status = ledger.DeriveLoanStatus(
		ledger.FundingStatus(domain.LoanStatusPartiallyFunded, allocations),
		allocations,
	)

	if err := s.LoanRepo.Create(ctx, loan); err != nil {
		return nil, tracker.End(customError.WrapDatabaseError(err))
	}
	if err := s.LoanRepo.ReplaceAllocations(ctx, loan.ID, allocations); err != nil {
		return nil, tracker.End(customError.WrapDatabaseError(err))
	}

	result := &LoanResult{
		Loan:        loan,
		Allocations: allocations,
		Regenerated: true,
		ChangeKind:  ledger.ChangeCreated,
		Reason:      "loan created",
		Ledger:      s.RegenerateLedger(ctx, loan, allocations),
	}
	s.metrics.Regenerated(string(result.ChangeKind))

	s.logger.InfoContext(ctx, "loan created",
		slog.String("loan_id", loan.ID.String()),
		slog.String("status", string(loan.Status)),
		slog.Int("entries", result.Ledger.EntriesCreated),
	)
	return result, tracker.End(nil)
}

// UpdateLoan applies an edit. Computational changes replace the allocations and regenerate
// the ledger; anything else only renames generated entries and syncs paid flags.
func (s *LedgerService) UpdateLoan(ctx context.Context, request *domain.UpdateLoanRequest) (*LoanResult, error) {
	tracker := s.metrics.Track("update_loan")

	if err := s.validateLoan(request, request.Allocations); err != nil {
		return nil, tracker.End(err)
	}

	existing, existingAllocations, err := s.GetLoan(ctx, request.LoanID)
	if err != nil {
		return nil, tracker.End(err)
	}

	now := s.clock()
	proposed := *existing
	proposed.Name = request.Name
	proposed.Category = request.Category
	proposed.DueDate = request.DueDate
	proposed.Notes = request.Notes
	proposed.LotSize = request.LotSize
	proposed.UpdatedAt = now
	proposedAllocations := buildAllocations(existing.ID, request.Allocations, now)

	// classification has to see the stored snapshot before the new row is written
	decision := ledger.ClassifyChange(existing, &proposed, existingAllocations, proposedAllocations)

	var result *LoanResult
	if decision.Regenerate {
		result, err = s.replaceLoan(ctx, existing, &proposed, existingAllocations, proposedAllocations)
	} else {
		result, err = s.amendLoan(ctx, existing, &proposed, existingAllocations, proposedAllocations)
	}
	if err != nil {
		return nil, tracker.End(err)
	}
	result.Regenerated = decision.Regenerate
	result.ChangeKind = decision.Kind
	result.Reason = decision.Reason
	if decision.Regenerate {
		s.metrics.Regenerated(string(decision.Kind))
	}

	s.logger.InfoContext(ctx, "loan updated",
		slog.String("loan_id", existing.ID.String()),
		slog.Bool("regenerated", decision.Regenerate),
		slog.String("change_kind", string(decision.Kind)),
		slog.String("reason", decision.Reason),
	)
	return result, tracker.End(nil)
}

func (s *LedgerService) replaceLoan(
	ctx context.Context,
	existing, proposed *domain.Loan,
	existingAllocations, proposedAllocations []*domain.InvestorAllocation,
) (*LoanResult, error) {
	index := ledger.CapturePeriodStatuses(existingAllocations)
	preserved, issues := index.Preserve(proposedAllocations)
	for _, issue := range issues {
		s.logger.WarnContext(ctx, "period status not carried over",
			slog.String("loan_id", existing.ID.String()),
			slog.String("error", issue.Error()),
		)
	}
	s.metrics.ConsistencyIssues(len(issues))

	if err := s.LoanRepo.ReplaceAllocations(ctx, existing.ID, proposedAllocations); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	proposed.Status = ledger.DeriveLoanStatus(
		ledger.FundingStatus(existing.Status, proposedAllocations),
		proposedAllocations,
	)
	if err := s.LoanRepo.Update(ctx, proposed); err != nil {
		return nil, s.loanError(err, existing.ID)
	}
	s.recordStatusChange(existing.Status, proposed.Status)

	return &LoanResult{
		Loan:             proposed,
		Allocations:      proposedAllocations,
		PeriodsPreserved: preserved,
		Ledger:           s.RegenerateLedger(ctx, proposed, proposedAllocations),
	}, nil
}

func (s *LedgerService) amendLoan(
	ctx context.Context,
	existing, proposed *domain.Loan,
	existingAllocations, proposedAllocations []*domain.InvestorAllocation,
) (*LoanResult, error) {
	matches := ledger.MatchAllocations(existingAllocations, proposedAllocations)
	for i, current := range matches {
		if current == nil || current.Paid == proposedAllocations[i].Paid {
			continue
		}
		if err := s.LoanRepo.UpdateAllocationPaid(ctx, current.ID, proposedAllocations[i].Paid); err != nil {
			return nil, s.allocationError(err, current.ID)
		}
		current.Paid = proposedAllocations[i].Paid
	}

	proposed.Status = ledger.DeriveLoanStatus(
		ledger.FundingStatus(existing.Status, existingAllocations),
		existingAllocations,
	)
	if err := s.LoanRepo.Update(ctx, proposed); err != nil {
		return nil, s.loanError(err, existing.ID)
	}
	s.recordStatusChange(existing.Status, proposed.Status)

	result := &LoanResult{Loan: proposed, Allocations: existingAllocations}
	if proposed.Name != existing.Name {
		renamed, err := s.RenameLedger(ctx, proposed)
		if err != nil {
			result.Ledger = &LedgerResult{Err: err}
		}
		result.EntriesRenamed = renamed
	}
	return result, nil
}

// GetLoan returns a loan with its allocations and their periods
func (s *LedgerService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, []*domain.InvestorAllocation, error) {
	loan, err := s.LoanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, nil, s.loanError(err, loanID)
	}
	allocations, err := s.LoanRepo.GetAllocations(ctx, loanID)
	if err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}
	return loan, allocations, nil
}

func (s *LedgerService) validateLoan(request interface{}, allocations []domain.AllocationInput) error {
	if err := s.validate.Struct(request); err != nil {
		return customError.WrapValidation("Invalid loan request", err)
	}
	for i, a := range allocations {
		if a.MultiplePeriods && len(a.Periods) == 0 {
			return customError.WrapValidation(
				fmt.Sprintf("Allocation %d uses multiple periods but has none", i+1), nil)
		}
		if !a.MultiplePeriods && len(a.Periods) > 0 {
			return customError.WrapValidation(
				fmt.Sprintf("Allocation %d has periods but does not use multiple periods", i+1), nil)
		}
	}
	return nil
}

func buildAllocations(loanID uuid.UUID, inputs []domain.AllocationInput, now time.Time) []*domain.InvestorAllocation {
	allocations := make([]*domain.InvestorAllocation, 0, len(inputs))
	for i, in := range inputs {
		a := &domain.InvestorAllocation{
			ID:         uuid.New(),
			LoanID:     loanID,
			InvestorID: in.InvestorID,
			Principal:  in.Principal,
			InterestSpec: domain.InterestSpec{
				InterestType:  in.InterestType,
				InterestValue: in.InterestValue,
			},
			DisbursedAt:     in.DisbursedAt,
			Paid:            in.Paid,
			MultiplePeriods: in.MultiplePeriods,
			Position:        i,
			CreatedAt:       now,
		}
		for _, p := range in.Periods {
			a.Periods = append(a.Periods, &domain.InterestPeriod{
				ID:           uuid.New(),
				AllocationID: a.ID,
				DueDate:      p.DueDate,
				InterestSpec: domain.InterestSpec{
					InterestType:  p.InterestType,
					InterestValue: p.InterestValue,
				},
				Status:    domain.PeriodStatusPending,
				CreatedAt: now,
			})
		}
		allocations = append(allocations, a)
	}
	return allocations
}

func (s *LedgerService) recordStatusChange(from, to domain.LoanStatus) {
	if from != to {
		s.metrics.StatusChanged(string(to))
	}
}

func (s *LedgerService) loanError(err error, loanID uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapLoanNotFound(loanID.String())
	}
	return customError.WrapDatabaseError(err)
}

func (s *LedgerService) allocationError(err error, allocationID uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapAllocationNotFound(allocationID.String())
	}
	return customError.WrapDatabaseError(err)
}

func (s *LedgerService) periodError(err error, periodID uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapPeriodNotFound(periodID.String())
	}
	return customError.WrapDatabaseError(err)
}

func (s *LedgerService) entryError(err error, entryID uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapEntryNotFound(entryID.String())
	}
	return customError.WrapDatabaseError(err)
}
