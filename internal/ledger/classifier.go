package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/pkg/utils"
)

// ChangeKind is the bounded category of a regenerating change. Reason carries the detail.
type ChangeKind string

const (
	ChangeCreated          ChangeKind = "created"
	ChangeCategory         ChangeKind = "category"
	ChangeDueDate          ChangeKind = "due_date"
	ChangeAllocations      ChangeKind = "allocations"
	ChangePrincipal        ChangeKind = "principal"
	ChangeInterestTerms    ChangeKind = "interest_terms"
	ChangePeriodMode       ChangeKind = "period_mode"
	ChangeDisbursementDate ChangeKind = "disbursement_date"
	ChangePeriods          ChangeKind = "periods"
	ChangePeriodTerms      ChangeKind = "period_terms"
)

// ChangeDecision says whether an edit touches generated amounts or dates.
type ChangeDecision struct {
	Regenerate bool
	Kind       ChangeKind
	Reason     string
}

func regenerate(kind ChangeKind, format string, args ...interface{}) ChangeDecision {
	return ChangeDecision{Regenerate: true, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// RequiresRegeneration reports whether the Transaction Generator has to re-run for the
// proposed edit.
func RequiresRegeneration(
	oldLoan, newLoan *domain.Loan,
	oldAllocations, newAllocations []*domain.InvestorAllocation,
) bool {
	return ClassifyChange(oldLoan, newLoan, oldAllocations, newAllocations).Regenerate
}

// ClassifyChange compares the existing loan and allocations against a proposed edit. Name,
// notes, lot size and status never trigger regeneration. Allocations are matched by
// investor; an investor holding several allocations on the loan is matched positionally.
func ClassifyChange(
	oldLoan, newLoan *domain.Loan,
	oldAllocations, newAllocations []*domain.InvestorAllocation,
) ChangeDecision {
	if oldLoan.Category != newLoan.Category {
		return regenerate(ChangeCategory, "category changed from %q to %q", oldLoan.Category, newLoan.Category)
	}
	if !utils.SameInstant(oldLoan.DueDate, newLoan.DueDate) {
		return regenerate(ChangeDueDate, "due date changed")
	}
	if len(oldAllocations) != len(newAllocations) {
		return regenerate(ChangeAllocations, "allocation count changed from %d to %d", len(oldAllocations), len(newAllocations))
	}

	matches := MatchAllocations(oldAllocations, newAllocations)
	for i, proposed := range newAllocations {
		current := matches[i]
		if current == nil {
			return regenerate(ChangeAllocations, "investor %s has no existing allocation", proposed.InvestorID)
		}
		if d := compareAllocation(current, proposed); d.Regenerate {
			return d
		}
	}

	matched := make(map[*domain.InvestorAllocation]bool, len(matches))
	for _, m := range matches {
		matched[m] = true
	}
	for _, a := range oldAllocations {
		if !matched[a] {
			return regenerate(ChangeAllocations, "investor %s allocation removed", a.InvestorID)
		}
	}

	return ChangeDecision{}
}

// MatchAllocations pairs every proposed allocation with its existing counterpart: same
// investor, then first unused in order. The result is parallel to proposed; unmatched
// entries are nil.
func MatchAllocations(existing, proposed []*domain.InvestorAllocation) []*domain.InvestorAllocation {
	byInvestor := make(map[uuid.UUID][]*domain.InvestorAllocation)
	for _, a := range existing {
		byInvestor[a.InvestorID] = append(byInvestor[a.InvestorID], a)
	}

	out := make([]*domain.InvestorAllocation, len(proposed))
	for i, p := range proposed {
		candidates := byInvestor[p.InvestorID]
		if len(candidates) == 0 {
			continue
		}
		out[i] = candidates[0]
		byInvestor[p.InvestorID] = candidates[1:]
	}
	return out
}

func compareAllocation(current, proposed *domain.InvestorAllocation) ChangeDecision {
	investor := proposed.InvestorID
	switch {
	case !current.Principal.Equal(proposed.Principal):
		return regenerate(ChangePrincipal, "investor %s principal changed", investor)
	case !current.InterestSpec.SameTerms(proposed.InterestSpec):
		return regenerate(ChangeInterestTerms, "investor %s interest terms changed", investor)
	case current.MultiplePeriods != proposed.MultiplePeriods:
		return regenerate(ChangePeriodMode, "investor %s multiple-period mode changed", investor)
	case !utils.SameInstant(current.DisbursedAt, proposed.DisbursedAt):
		return regenerate(ChangeDisbursementDate, "investor %s disbursement date changed", investor)
	}

	if len(current.Periods) != len(proposed.Periods) {
		return regenerate(ChangePeriods, "investor %s period count changed", investor)
	}
	before := SortedPeriods(current.Periods)
	after := SortedPeriods(proposed.Periods)
	for i := range before {
		if !utils.SameInstant(before[i].DueDate, after[i].DueDate) {
			return regenerate(ChangePeriods, "investor %s period %d due date changed", investor, i+1)
		}
		if !before[i].InterestSpec.SameTerms(after[i].InterestSpec) {
			return regenerate(ChangePeriodTerms, "investor %s period %d interest terms changed", investor, i+1)
		}
	}

	return ChangeDecision{}
}
