package ledger

import (
	"time"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/pkg/utils"
)

type periodTally struct {
	total, pending, overdue, completed int
}

func tallyPeriods(allocations []*domain.InvestorAllocation) periodTally {
	var t periodTally
	for _, a := range allocations {
		if !a.MultiplePeriods {
			continue
		}
		for _, p := range a.Periods {
			t.total++
			switch p.Status {
			case domain.PeriodStatusPending:
				t.pending++
			case domain.PeriodStatusOverdue:
				t.overdue++
			case domain.PeriodStatusCompleted:
				t.completed++
			}
		}
	}
	return t
}

func allPaid(allocations []*domain.InvestorAllocation) bool {
	if len(allocations) == 0 {
		return false
	}
	for _, a := range allocations {
		if !a.Paid {
			return false
		}
	}
	return true
}

// HasOpenPeriods is true when any period is still Pending or Overdue.
func HasOpenPeriods(allocations []*domain.InvestorAllocation) bool {
	t := tallyPeriods(allocations)
	return t.pending+t.overdue > 0
}

// DeriveLoanStatus folds period statuses and paid flags into the loan status.
//
// Overdue periods win over everything except Completed, which only an explicit status write
// reopens. With no Overdue period, a loan whose periods are all Completed and whose
// allocations are all paid completes. An Overdue loan with nothing Overdue or Pending left
// falls back to FullyFunded. Loans without periods are left to the due-date rule.
func DeriveLoanStatus(current domain.LoanStatus, allocations []*domain.InvestorAllocation) domain.LoanStatus {
	t := tallyPeriods(allocations)
	if t.total == 0 {
		return current
	}

	switch {
	case t.overdue > 0:
		if current == domain.LoanStatusCompleted {
			return current
		}
		return domain.LoanStatusOverdue
	case t.completed == t.total && allPaid(allocations):
		return domain.LoanStatusCompleted
	case current == domain.LoanStatusOverdue && t.pending == 0:
		return domain.LoanStatusFullyFunded
	}
	return current
}

// FundingStatus refines PartiallyFunded/FullyFunded from the paid flags. Other statuses are
// returned unchanged.
func FundingStatus(current domain.LoanStatus, allocations []*domain.InvestorAllocation) domain.LoanStatus {
	if current != domain.LoanStatusPartiallyFunded && current != domain.LoanStatusFullyFunded {
		return current
	}
	if allPaid(allocations) {
		return domain.LoanStatusFullyFunded
	}
	return domain.LoanStatusPartiallyFunded
}

// ApplyDueDateRule applies the loan's own due date to loans with no open periods: a
// FullyFunded loan past due becomes Overdue, and an Overdue loan that is no longer past due
// returns to FullyFunded.
func ApplyDueDateRule(current domain.LoanStatus, dueDate, now time.Time) domain.LoanStatus {
	pastDue := utils.IsDateOverdue(dueDate, now)
	switch {
	case current == domain.LoanStatusFullyFunded && pastDue:
		return domain.LoanStatusOverdue
	case current == domain.LoanStatusOverdue && !pastDue:
		return domain.LoanStatusFullyFunded
	}
	return current
}
