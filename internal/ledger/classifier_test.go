package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/segyhp/pawn-ledger/internal/domain"
)

func baseline() (*domain.Loan, []*domain.InvestorAllocation) {
	loan := testLoan("L1", date(2024, 6, 1))
	loan.Notes = "ring, 18k"
	loan.LotSize = decimal.NewNullDecimal(dec(3))
	allocations := []*domain.InvestorAllocation{
		allocation(investorA, 100000, rate(5), date(2024, 1, 1)),
		withPeriods(allocation(investorB, 50000, rate(0), date(2024, 1, 2)),
			period(date(2024, 3, 1), rate(2), domain.PeriodStatusCompleted),
			period(date(2024, 5, 1), rate(2), domain.PeriodStatusPending),
		),
	}
	return loan, allocations
}

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(loan *domain.Loan, allocations []*domain.InvestorAllocation) []*domain.InvestorAllocation
		expected bool
		kind     ChangeKind
	}{
		{
			name:     "no change",
			mutate:   func(*domain.Loan, []*domain.InvestorAllocation) []*domain.InvestorAllocation { return nil },
			expected: false,
		},
		{
			name: "cosmetic fields only",
			mutate: func(loan *domain.Loan, _ []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				loan.Name = "Renamed"
				loan.Notes = "changed"
				loan.LotSize = decimal.NewNullDecimal(dec(7))
				loan.Status = domain.LoanStatusOverdue
				return nil
			},
			expected: false,
		},
		{
			name: "due date same instant in another zone",
			mutate: func(loan *domain.Loan, _ []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				loan.DueDate = loan.DueDate.In(jakarta())
				return nil
			},
			expected: false,
		},
		{
			name: "paid flag does not regenerate",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[0].Paid = !a[0].Paid
				return nil
			},
			expected: false,
		},
		{
			name: "period status does not regenerate",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[1].Periods[1].Status = domain.PeriodStatusCompleted
				return nil
			},
			expected: false,
		},
		{
			name: "allocation order does not matter",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				return []*domain.InvestorAllocation{a[1], a[0]}
			},
			expected: false,
		},
		{
			name: "category",
			mutate: func(loan *domain.Loan, _ []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				loan.Category = "electronics"
				return nil
			},
			expected: true,
			kind:     ChangeCategory,
		},
		{
			name: "loan due date",
			mutate: func(loan *domain.Loan, _ []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				loan.DueDate = loan.DueDate.AddDate(0, 0, 1)
				return nil
			},
			expected: true,
			kind:     ChangeDueDate,
		},
		{
			name: "principal",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[0].Principal = dec(100001)
				return nil
			},
			expected: true,
			kind:     ChangePrincipal,
		},
		{
			name: "interest value",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[0].InterestValue = dec(6)
				return nil
			},
			expected: true,
			kind:     ChangeInterestTerms,
		},
		{
			name: "interest type",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[0].InterestType = domain.InterestTypeFixed
				return nil
			},
			expected: true,
			kind:     ChangeInterestTerms,
		},
		{
			name: "multiple period flag",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[0].MultiplePeriods = true
				return nil
			},
			expected: true,
			kind:     ChangePeriodMode,
		},
		{
			name: "disbursement date",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[0].DisbursedAt = a[0].DisbursedAt.AddDate(0, 0, 3)
				return nil
			},
			expected: true,
			kind:     ChangeDisbursementDate,
		},
		{
			name: "allocation added",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				return append(a, allocation(uuid.New(), 10, rate(1), date(2024, 1, 1)))
			},
			expected: true,
			kind:     ChangeAllocations,
		},
		{
			name: "allocation removed",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				return a[:1]
			},
			expected: true,
			kind:     ChangeAllocations,
		},
		{
			name: "investor swapped",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[0].InvestorID = uuid.New()
				return nil
			},
			expected: true,
			kind:     ChangeAllocations,
		},
		{
			name: "period count",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[1].Periods = a[1].Periods[:1]
				return nil
			},
			expected: true,
			kind:     ChangePeriods,
		},
		{
			name: "period due date",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[1].Periods[0].DueDate = date(2024, 3, 2)
				return nil
			},
			expected: true,
			kind:     ChangePeriods,
		},
		{
			name: "period interest value",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[1].Periods[1].InterestValue = dec(3)
				return nil
			},
			expected: true,
			kind:     ChangePeriodTerms,
		},
		{
			name: "period interest type",
			mutate: func(_ *domain.Loan, a []*domain.InvestorAllocation) []*domain.InvestorAllocation {
				a[1].Periods[1].InterestType = domain.InterestTypeFixed
				return nil
			},
			expected: true,
			kind:     ChangePeriodTerms,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldLoan, oldAllocations := baseline()
			newLoan := *oldLoan
			newAllocations := cloneAllocations(oldAllocations)
			if replaced := tt.mutate(&newLoan, newAllocations); replaced != nil {
				newAllocations = replaced
			}

			decision := ClassifyChange(oldLoan, &newLoan, oldAllocations, newAllocations)
			assert.Equal(t, tt.expected, decision.Regenerate, decision.Reason)
			assert.Equal(t, tt.expected, RequiresRegeneration(oldLoan, &newLoan, oldAllocations, newAllocations))
			assert.Equal(t, tt.kind, decision.Kind)
			if tt.expected {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestClassifyChange_PeriodsComparedInDueDateOrder(t *testing.T) {
	oldLoan, oldAllocations := baseline()
	newAllocations := cloneAllocations(oldAllocations)
	p := newAllocations[1].Periods
	newAllocations[1].Periods = []*domain.InterestPeriod{p[1], p[0]}

	assert.False(t, RequiresRegeneration(oldLoan, oldLoan, oldAllocations, newAllocations))
}

func TestClassifyChange_InvestorWithTwoAllocations(t *testing.T) {
	loan := testLoan("L1", date(2024, 6, 1))
	oldAllocations := []*domain.InvestorAllocation{
		allocation(investorA, 100, rate(5), date(2024, 1, 1)),
		allocation(investorA, 200, rate(5), date(2024, 1, 1)),
	}

	same := cloneAllocations(oldAllocations)
	assert.False(t, RequiresRegeneration(loan, loan, oldAllocations, same))

	changed := cloneAllocations(oldAllocations)
	changed[1].Principal = dec(250)
	assert.True(t, RequiresRegeneration(loan, loan, oldAllocations, changed))
}

func TestMatchAllocations(t *testing.T) {
	a1 := allocation(investorA, 100, rate(5), date(2024, 1, 1))
	a2 := allocation(investorA, 200, rate(5), date(2024, 1, 1))
	b1 := allocation(investorB, 300, rate(5), date(2024, 1, 1))

	proposed := cloneAllocations([]*domain.InvestorAllocation{b1, a1, a2})
	proposed = append(proposed, allocation(uuid.New(), 50, rate(1), date(2024, 1, 1)))

	matches := MatchAllocations([]*domain.InvestorAllocation{a1, a2, b1}, proposed)

	assert.Same(t, b1, matches[0])
	assert.Same(t, a1, matches[1])
	assert.Same(t, a2, matches[2])
	assert.Nil(t, matches[3])
}
