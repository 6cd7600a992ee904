package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/segyhp/pawn-ledger/internal/domain"
)

// Missing rows are reported as sql.ErrNoRows by every implementation.

// LoanRepository defines the interface for loan, allocation and period data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// Update updates a loan's descriptive and computational fields, including status
	Update(ctx context.Context, loan *domain.Loan) error

	// UpdateStatus writes only the loan status
	UpdateStatus(ctx context.Context, loanID uuid.UUID, status domain.LoanStatus) error

	// ListByOwner retrieves every loan in an owner's scope
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error)

	// ListOwners returns every owner that has at least one loan
	ListOwners(ctx context.Context) ([]uuid.UUID, error)

	// GetAllocations retrieves a loan's allocations with their periods attached
	GetAllocations(ctx context.Context, loanID uuid.UUID) ([]*domain.InvestorAllocation, error)

	// GetAllocation retrieves a single allocation with its periods attached
	GetAllocation(ctx context.Context, allocationID uuid.UUID) (*domain.InvestorAllocation, error)

	// ReplaceAllocations deletes a loan's allocations (cascading to periods) and inserts the
	// given set, atomically
	ReplaceAllocations(ctx context.Context, loanID uuid.UUID, allocations []*domain.InvestorAllocation) error

	// UpdateAllocationPaid sets the paid flag of an allocation
	UpdateAllocationPaid(ctx context.Context, allocationID uuid.UUID, paid bool) error

	// GetPeriod retrieves a single interest period
	GetPeriod(ctx context.Context, periodID uuid.UUID) (*domain.InterestPeriod, error)

	// UpdatePeriodStatus writes only the status of a period
	UpdatePeriodStatus(ctx context.Context, periodID uuid.UUID, status domain.PeriodStatus) error
}

// LedgerRepository defines the interface for ledger entry data operations
type LedgerRepository interface {
	// InsertEntries inserts entries in slice order and assigns each its sequence number
	InsertEntries(ctx context.Context, entries []*domain.LedgerEntry) error

	// DeleteGeneratedByLoanID deletes a loan's generated entries and returns them
	DeleteGeneratedByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LedgerEntry, error)

	// GetByLoanID retrieves a loan's entries ordered by date and sequence
	GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LedgerEntry, error)

	// GetByInvestorID retrieves an investor's entries ordered by date and sequence
	GetByInvestorID(ctx context.Context, investorID uuid.UUID) ([]*domain.LedgerEntry, error)

	// GetByID retrieves a single entry
	GetByID(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error)

	// Update writes an entry's editable fields (date, direction, name, amount, notes)
	Update(ctx context.Context, entry *domain.LedgerEntry) error

	// Delete removes a single entry
	Delete(ctx context.Context, entryID uuid.UUID) error

	// UpdateBalances writes recomputed running balances
	UpdateBalances(ctx context.Context, updates []domain.BalanceUpdate) error

	// UpdateNames writes recomputed display names
	UpdateNames(ctx context.Context, updates []domain.NameUpdate) error
}
