package ledger

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/segyhp/pawn-ledger/internal/domain"
	customError "github.com/segyhp/pawn-ledger/pkg/errors"
	"github.com/segyhp/pawn-ledger/pkg/utils"
)

// PeriodKey identifies a period across a replacement of the loan's allocations.
type PeriodKey struct {
	InvestorID uuid.UUID
	DueDate    int64
}

func keyFor(investorID uuid.UUID, period *domain.InterestPeriod) PeriodKey {
	return PeriodKey{InvestorID: investorID, DueDate: utils.InstantKey(period.DueDate)}
}

type periodSnapshot struct {
	status domain.PeriodStatus
	terms  domain.InterestSpec
}

// PeriodStatusIndex remembers the statuses of the periods being replaced.
type PeriodStatusIndex struct {
	snapshots map[PeriodKey]periodSnapshot
	ambiguous map[PeriodKey]bool
}

// CapturePeriodStatuses indexes every period of the allocations about to be replaced by
// (investor, due date). Two periods sharing a key cannot be told apart and are marked
// ambiguous.
func CapturePeriodStatuses(allocations []*domain.InvestorAllocation) *PeriodStatusIndex {
	idx := &PeriodStatusIndex{
		snapshots: make(map[PeriodKey]periodSnapshot),
		ambiguous: make(map[PeriodKey]bool),
	}
	for _, a := range allocations {
		for _, p := range a.Periods {
			key := keyFor(a.InvestorID, p)
			if _, dup := idx.snapshots[key]; dup {
				idx.ambiguous[key] = true
				continue
			}
			idx.snapshots[key] = periodSnapshot{status: p.Status, terms: p.InterestSpec}
		}
	}
	return idx
}

// Len returns the number of indexed periods.
func (idx *PeriodStatusIndex) Len() int {
	return len(idx.snapshots)
}

// Preserve assigns a status to every period of the proposed allocations. A period whose
// (investor, due date) matches an old one with the same interest terms keeps the old status
// verbatim; everything else starts Pending. Ambiguous matches are reported as consistency
// issues and treated as new.
func (idx *PeriodStatusIndex) Preserve(allocations []*domain.InvestorAllocation) (preserved int, issues []error) {
	for _, a := range allocations {
		for _, p := range a.Periods {
			p.Status = domain.PeriodStatusPending

			key := keyFor(a.InvestorID, p)
			if idx.ambiguous[key] {
				issues = append(issues, customError.WrapConsistency(fmt.Sprintf(
					"investor %s has more than one period due %s",
					a.InvestorID, p.DueDate.Format("2006-01-02"),
				)))
				continue
			}
			old, ok := idx.snapshots[key]
			if !ok || !old.terms.SameTerms(p.InterestSpec) {
				continue
			}
			p.Status = old.status
			preserved++
		}
	}
	return preserved, issues
}
