package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/repository"
)

var (
	_ repository.LoanRepository   = (*MockLoanRepository)(nil)
	_ repository.LedgerRepository = (*MockLedgerRepository)(nil)
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateStatus(ctx context.Context, loanID uuid.UUID, status domain.LoanStatus) error {
	args := m.Called(ctx, loanID, status)
	return args.Error(0)
}

func (m *MockLoanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockLoanRepository) GetAllocations(ctx context.Context, loanID uuid.UUID) ([]*domain.InvestorAllocation, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InvestorAllocation), args.Error(1)
}

func (m *MockLoanRepository) GetAllocation(ctx context.Context, allocationID uuid.UUID) (*domain.InvestorAllocation, error) {
	args := m.Called(ctx, allocationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvestorAllocation), args.Error(1)
}

func (m *MockLoanRepository) ReplaceAllocations(ctx context.Context, loanID uuid.UUID, allocations []*domain.InvestorAllocation) error {
	args := m.Called(ctx, loanID, allocations)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateAllocationPaid(ctx context.Context, allocationID uuid.UUID, paid bool) error {
	args := m.Called(ctx, allocationID, paid)
	return args.Error(0)
}

func (m *MockLoanRepository) GetPeriod(ctx context.Context, periodID uuid.UUID) (*domain.InterestPeriod, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InterestPeriod), args.Error(1)
}

func (m *MockLoanRepository) UpdatePeriodStatus(ctx context.Context, periodID uuid.UUID, status domain.PeriodStatus) error {
	args := m.Called(ctx, periodID, status)
	return args.Error(0)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) InsertEntries(ctx context.Context, entries []*domain.LedgerEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeleteGeneratedByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LedgerEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LedgerEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetByInvestorID(ctx context.Context, investorID uuid.UUID) ([]*domain.LedgerEntry, error) {
	args := m.Called(ctx, investorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Update(ctx context.Context, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) Delete(ctx context.Context, entryID uuid.UUID) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockLedgerRepository) UpdateBalances(ctx context.Context, updates []domain.BalanceUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

func (m *MockLedgerRepository) UpdateNames(ctx context.Context, updates []domain.NameUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}
