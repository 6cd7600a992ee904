package ledger

import (
	"time"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/pkg/utils"
)

// OverdueOutcome is what a sweep has to write for one loan.
type OverdueOutcome struct {
	OverduePeriods []*domain.InterestPeriod
	Status         domain.LoanStatus
	StatusChanged  bool
}

// Writes counts the status writes the outcome implies.
func (o OverdueOutcome) Writes() int {
	n := len(o.OverduePeriods)
	if o.StatusChanged {
		n++
	}
	return n
}

// EvaluateOverdue flips every Pending period of a multi-period allocation whose due date
// has passed to Overdue (mutating allocations) and works out the loan's next status.
// Running it again with the same now yields no writes.
func EvaluateOverdue(loan *domain.Loan, allocations []*domain.InvestorAllocation, now time.Time) OverdueOutcome {
	var out OverdueOutcome
	for _, a := range allocations {
		if !a.MultiplePeriods {
			continue
		}
		for _, p := range a.Periods {
			if p.Status == domain.PeriodStatusPending && utils.IsDateOverdue(p.DueDate, now) {
				p.Status = domain.PeriodStatusOverdue
				out.OverduePeriods = append(out.OverduePeriods, p)
			}
		}
	}

	next := DeriveLoanStatus(loan.Status, allocations)
	if !HasOpenPeriods(allocations) {
		next = ApplyDueDateRule(next, loan.DueDate, now)
	}
	out.Status = next
	out.StatusChanged = next != loan.Status
	return out
}
