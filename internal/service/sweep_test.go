package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/pawn-ledger/internal/cache"
	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/repository/mocks"
	customError "github.com/segyhp/pawn-ledger/pkg/errors"
)

func TestSweepOverdue_PeriodsAndIdempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.createLoan(t, createRequest("L1", date(2024, 6, 1),
		periodAllocation(investorA, 1000, true, date(2024, 2, 1), date(2024, 3, 1))))
	now := date(2024, 2, 15)

	report, err := f.svc.SweepOverdue(ctx, ownerID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.LoansProcessed)
	assert.Equal(t, 1, report.LoansChanged)
	assert.Equal(t, 1, report.PeriodsChanged)
	assert.Zero(t, report.LoansFailed)
	assert.False(t, report.Skipped)

	loan, allocations, err := f.svc.GetLoan(ctx, created.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, loan.Status)
	assert.Equal(t, domain.PeriodStatusOverdue, allocations[0].Periods[0].Status)
	assert.Equal(t, domain.PeriodStatusPending, allocations[0].Periods[1].Status)

	again, err := f.svc.SweepOverdue(ctx, ownerID, now)
	require.NoError(t, err)
	assert.Zero(t, again.LoansChanged)
	assert.Zero(t, again.PeriodsChanged)
}

func TestSweepOverdue_SingleDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	funded := f.createLoan(t, createRequest("L1", date(2024, 6, 1), singleAllocation(investorA, 100, 5, true)))
	partial := f.createLoan(t, createRequest("L2", date(2024, 6, 1), singleAllocation(investorA, 100, 5, false)))

	report, err := f.svc.SweepOverdue(ctx, ownerID, date(2024, 6, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, report.LoansProcessed)
	assert.Equal(t, 1, report.LoansChanged)

	loan, _, err := f.svc.GetLoan(ctx, funded.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, loan.Status)

	loan, _, err = f.svc.GetLoan(ctx, partial.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPartiallyFunded, loan.Status)

	// due date pushed out: the next sweep reverts the loan
	_, err = f.svc.UpdateLoan(ctx, &domain.UpdateLoanRequest{
		LoanID:      funded.Loan.ID,
		Name:        "L1",
		Category:    "gold",
		DueDate:     date(2024, 9, 1),
		Allocations: []domain.AllocationInput{singleAllocation(investorA, 100, 5, true)},
	})
	require.NoError(t, err)

	_, err = f.svc.SweepOverdue(ctx, ownerID, date(2024, 6, 3))
	require.NoError(t, err)
	loan, _, err = f.svc.GetLoan(ctx, funded.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusFullyFunded, loan.Status)
}

func TestSweepOverdue_FailedLoanDoesNotStopSweep(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	svc := NewLedgerService(loanRepo, &mocks.MockLedgerRepository{}, nil, nil, nil, discardLogger())

	broken := &domain.Loan{ID: uuid.New(), OwnerID: ownerID, Status: domain.LoanStatusFullyFunded, DueDate: date(2024, 6, 1)}
	healthy := &domain.Loan{ID: uuid.New(), OwnerID: ownerID, Status: domain.LoanStatusFullyFunded, DueDate: date(2024, 6, 1)}

	loanRepo.On("ListByOwner", mock.Anything, ownerID).Return([]*domain.Loan{broken, healthy}, nil)
	loanRepo.On("GetAllocations", mock.Anything, broken.ID).Return(nil, errors.New("deadlock detected"))
	loanRepo.On("GetAllocations", mock.Anything, healthy.ID).Return([]*domain.InvestorAllocation{}, nil)
	loanRepo.On("UpdateStatus", mock.Anything, healthy.ID, domain.LoanStatusOverdue).Return(nil)

	report, err := svc.SweepOverdue(context.Background(), ownerID, date(2024, 7, 1))
	require.NoError(t, err)

	assert.Equal(t, 2, report.LoansProcessed)
	assert.Equal(t, 1, report.LoansFailed)
	assert.Equal(t, 1, report.LoansChanged)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken.ID, report.Failures[0].LoanID)
	loanRepo.AssertExpectations(t)
}

func TestSweepOverdue_SkipsWhenLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	loanRepo := &mocks.MockLoanRepository{}
	svc := NewLedgerService(loanRepo, &mocks.MockLedgerRepository{}, cache.NewLocker(client, time.Minute), nil, nil, discardLogger())

	require.NoError(t, mr.Set(cache.SweepLockKey(ownerID), "another-process"))

	report, err := svc.SweepOverdue(context.Background(), ownerID, date(2024, 7, 1))
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	loanRepo.AssertNotCalled(t, "ListByOwner", mock.Anything, mock.Anything)

	mr.Del(cache.SweepLockKey(ownerID))
	loanRepo.On("ListByOwner", mock.Anything, ownerID).Return([]*domain.Loan{}, nil)

	report, err = svc.SweepOverdue(context.Background(), ownerID, date(2024, 7, 1))
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.False(t, mr.Exists(cache.SweepLockKey(ownerID)))
}

func TestSweepOverdue_ListFailure(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	svc := NewLedgerService(loanRepo, &mocks.MockLedgerRepository{}, nil, nil, nil, discardLogger())
	loanRepo.On("ListByOwner", mock.Anything, ownerID).Return(nil, errors.New("down"))

	_, err := svc.SweepOverdue(context.Background(), ownerID, date(2024, 7, 1))
	assert.Equal(t, customError.ErrCodeDatabaseError, customError.Code(err))
}

func TestSweepAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherOwner := uuid.MustParse("0a4f6d0e-1111-4000-8000-000000000002")

	f.createLoan(t, createRequest("L1", date(2024, 6, 1), singleAllocation(investorA, 100, 5, true)))
	other := createRequest("L2", date(2024, 6, 1), singleAllocation(investorB, 100, 5, true))
	other.OwnerID = otherOwner
	f.createLoan(t, other)

	reports, err := f.svc.SweepAll(ctx, date(2024, 6, 2))
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, 1, r.LoansChanged)
	}
}

func TestSweepKey(t *testing.T) {
	owner := uuid.New()
	now := date(2024, 2, 15)

	tests := []struct {
		name  string
		owner uuid.UUID
		now   time.Time
		same  bool
	}{
		{name: "same instant", owner: owner, now: now, same: true},
		{name: "same instant in another zone", owner: owner, now: now.In(time.FixedZone("WIB", 7*60*60)), same: true},
		{name: "later instant", owner: owner, now: now.Add(time.Nanosecond), same: false},
		{name: "other owner", owner: uuid.New(), now: now, same: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, sweepKey(owner, now) == sweepKey(tt.owner, tt.now))
		})
	}
}

func TestSweepOverdue_ReportCarriesCallerInstant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createLoan(t, createRequest("L1", date(2024, 6, 1), singleAllocation(investorA, 1000, 5, true)))

	for _, now := range []time.Time{date(2024, 5, 1), date(2024, 7, 1)} {
		report, err := f.svc.SweepOverdue(ctx, ownerID, now)
		require.NoError(t, err)
		assert.True(t, report.Now.Equal(now))
	}
}
