package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/repository/memstore"
)

var (
	ownerID   = uuid.MustParse("0a4f6d0e-1111-4000-8000-000000000001")
	investorA = uuid.MustParse("0a4f6d0e-aaaa-4000-8000-000000000001")
	investorB = uuid.MustParse("0a4f6d0e-bbbb-4000-8000-000000000002")
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc    *LedgerService
	loans  *memstore.LoanStore
	ledger *memstore.LedgerStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	loans := memstore.NewLoanStore()
	ledgerStore := memstore.NewLedgerStore()
	svc := NewLedgerService(loans, ledgerStore, nil, nil, nil, discardLogger())
	svc.WithClock(func() time.Time { return date(2024, 1, 1) })
	return &fixture{svc: svc, loans: loans, ledger: ledgerStore}
}

func singleAllocation(investor uuid.UUID, principal, ratePct int64, paid bool) domain.AllocationInput {
	return domain.AllocationInput{
		InvestorID:    investor,
		Principal:     dec(principal),
		InterestType:  domain.InterestTypeRate,
		InterestValue: dec(ratePct),
		DisbursedAt:   date(2024, 1, 1),
		Paid:          paid,
	}
}

func periodAllocation(investor uuid.UUID, principal int64, paid bool, dues ...time.Time) domain.AllocationInput {
	a := singleAllocation(investor, principal, 0, paid)
	a.MultiplePeriods = true
	for _, due := range dues {
		a.Periods = append(a.Periods, domain.PeriodInput{
			DueDate:       due,
			InterestType:  domain.InterestTypeRate,
			InterestValue: dec(1),
		})
	}
	return a
}

func createRequest(name string, due time.Time, allocations ...domain.AllocationInput) *domain.CreateLoanRequest {
	return &domain.CreateLoanRequest{
		OwnerID:     ownerID,
		Name:        name,
		Category:    "gold",
		DueDate:     due,
		Allocations: allocations,
	}
}

func updateRequest(loan *domain.Loan, allocations ...domain.AllocationInput) *domain.UpdateLoanRequest {
	return &domain.UpdateLoanRequest{
		LoanID:      loan.ID,
		Name:        loan.Name,
		Category:    loan.Category,
		DueDate:     loan.DueDate,
		Notes:       loan.Notes,
		LotSize:     loan.LotSize,
		Allocations: allocations,
	}
}

func (f *fixture) createLoan(t *testing.T, request *domain.CreateLoanRequest) *LoanResult {
	t.Helper()
	result, err := f.svc.CreateLoan(context.Background(), request)
	require.NoError(t, err)
	require.NoError(t, result.Ledger.Err)
	return result
}

func (f *fixture) investorLedger(t *testing.T, investor uuid.UUID) []*domain.LedgerEntry {
	t.Helper()
	entries, err := f.svc.InvestorLedger(context.Background(), investor)
	require.NoError(t, err)
	return entries
}

func balances(entries []*domain.LedgerEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Balance.String())
	}
	return out
}

func names(entries []*domain.LedgerEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}
