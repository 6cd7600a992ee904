package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/segyhp/pawn-ledger/internal/domain"
)

func periodsWith(paid bool, statuses ...domain.PeriodStatus) []*domain.InvestorAllocation {
	a := allocation(investorA, 1000, rate(0), date(2024, 1, 1))
	a.Paid = paid
	var periods []*domain.InterestPeriod
	for i, s := range statuses {
		periods = append(periods, period(date(2024, time.Month(2+i), 1), rate(1), s))
	}
	return []*domain.InvestorAllocation{withPeriods(a, periods...)}
}

func TestDeriveLoanStatus(t *testing.T) {
	const (
		pending   = domain.PeriodStatusPending
		overdue   = domain.PeriodStatusOverdue
		completed = domain.PeriodStatusCompleted
	)

	tests := []struct {
		name        string
		current     domain.LoanStatus
		allocations []*domain.InvestorAllocation
		expected    domain.LoanStatus
	}{
		{
			name:        "overdue period makes loan overdue",
			current:     domain.LoanStatusFullyFunded,
			allocations: periodsWith(true, completed, overdue, pending),
			expected:    domain.LoanStatusOverdue,
		},
		{
			name:        "completed is terminal against overdue periods",
			current:     domain.LoanStatusCompleted,
			allocations: periodsWith(true, overdue),
			expected:    domain.LoanStatusCompleted,
		},
		{
			name:        "overdue wins over completion in the same pass",
			current:     domain.LoanStatusOverdue,
			allocations: periodsWith(true, completed, overdue),
			expected:    domain.LoanStatusOverdue,
		},
		{
			name:        "all completed and paid completes",
			current:     domain.LoanStatusOverdue,
			allocations: periodsWith(true, completed, completed),
			expected:    domain.LoanStatusCompleted,
		},
		{
			name:        "all completed but unpaid clears overdue",
			current:     domain.LoanStatusOverdue,
			allocations: periodsWith(false, completed, completed),
			expected:    domain.LoanStatusFullyFunded,
		},
		{
			name:        "overdue stays while periods pending",
			current:     domain.LoanStatusOverdue,
			allocations: periodsWith(true, completed, pending),
			expected:    domain.LoanStatusOverdue,
		},
		{
			name:        "pending periods leave status alone",
			current:     domain.LoanStatusPartiallyFunded,
			allocations: periodsWith(false, pending),
			expected:    domain.LoanStatusPartiallyFunded,
		},
		{
			name:        "loans without periods are left to the due date rule",
			current:     domain.LoanStatusOverdue,
			allocations: []*domain.InvestorAllocation{allocation(investorA, 1000, rate(5), date(2024, 1, 1))},
			expected:    domain.LoanStatusOverdue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveLoanStatus(tt.current, tt.allocations))
		})
	}
}

func TestDeriveLoanStatus_OnlyMultiPeriodAllocationsCount(t *testing.T) {
	a := allocation(investorA, 1000, rate(0), date(2024, 1, 1))
	a.Paid = true
	a.Periods = []*domain.InterestPeriod{period(date(2024, 2, 1), rate(1), domain.PeriodStatusOverdue)}

	assert.Equal(t, domain.LoanStatusFullyFunded,
		DeriveLoanStatus(domain.LoanStatusFullyFunded, []*domain.InvestorAllocation{a}))
}

func TestFundingStatus(t *testing.T) {
	paid := allocation(investorA, 1000, rate(5), date(2024, 1, 1))
	paid.Paid = true
	unpaid := allocation(investorB, 1000, rate(5), date(2024, 1, 1))

	assert.Equal(t, domain.LoanStatusFullyFunded,
		FundingStatus(domain.LoanStatusPartiallyFunded, []*domain.InvestorAllocation{paid}))
	assert.Equal(t, domain.LoanStatusPartiallyFunded,
		FundingStatus(domain.LoanStatusFullyFunded, []*domain.InvestorAllocation{paid, unpaid}))
	assert.Equal(t, domain.LoanStatusPartiallyFunded,
		FundingStatus(domain.LoanStatusFullyFunded, nil))
	assert.Equal(t, domain.LoanStatusOverdue,
		FundingStatus(domain.LoanStatusOverdue, []*domain.InvestorAllocation{paid}))
}

func TestApplyDueDateRule(t *testing.T) {
	due := date(2024, 6, 1)
	before := due.AddDate(0, 0, -1)
	after := due.AddDate(0, 0, 1)

	assert.Equal(t, domain.LoanStatusOverdue, ApplyDueDateRule(domain.LoanStatusFullyFunded, due, after))
	assert.Equal(t, domain.LoanStatusFullyFunded, ApplyDueDateRule(domain.LoanStatusFullyFunded, due, before))
	assert.Equal(t, domain.LoanStatusFullyFunded, ApplyDueDateRule(domain.LoanStatusOverdue, due, before))
	assert.Equal(t, domain.LoanStatusOverdue, ApplyDueDateRule(domain.LoanStatusOverdue, due, after))
	assert.Equal(t, domain.LoanStatusPartiallyFunded, ApplyDueDateRule(domain.LoanStatusPartiallyFunded, due, after))
	assert.Equal(t, domain.LoanStatusCompleted, ApplyDueDateRule(domain.LoanStatusCompleted, due, after))
}
