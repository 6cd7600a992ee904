package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/pawn-ledger/internal/domain"
)

const (
	DisbursementLabel = "Principal Payment"
	CollectionLabel   = "Due Payment"
)

// EntryName builds the display name of a generated entry. The "(i/total)" suffix is only
// added when the investor has more than one entry of the same kind on the loan.
func EntryName(loanName, label string, index, total int) string {
	if total <= 1 {
		return fmt.Sprintf("%s - %s", loanName, label)
	}
	return fmt.Sprintf("%s - %s (%d/%d)", loanName, label, index, total)
}

func labelFor(d domain.Direction) string {
	if d == domain.DirectionOut {
		return DisbursementLabel
	}
	return CollectionLabel
}

type pendingEntry struct {
	date   time.Time
	amount decimal.Decimal
}

// GenerateEntries builds the complete ledger of a loan. Entries come back grouped by
// investor (in order of first appearance), disbursements first, then collections by date;
// the order is the insertion order and therefore the tie-break between same-day entries.
// Balances are left at zero for the reconciler.
func GenerateEntries(loan *domain.Loan, allocations []*domain.InvestorAllocation) []*domain.LedgerEntry {
	var investors []uuid.UUID
	byInvestor := make(map[uuid.UUID][]*domain.InvestorAllocation)
	for _, a := range allocations {
		if _, ok := byInvestor[a.InvestorID]; !ok {
			investors = append(investors, a.InvestorID)
		}
		byInvestor[a.InvestorID] = append(byInvestor[a.InvestorID], a)
	}

	loanRef := uuid.NullUUID{UUID: loan.ID, Valid: true}
	entries := make([]*domain.LedgerEntry, 0, len(allocations)*2)

	for _, investorID := range investors {
		group := byInvestor[investorID]

		var disbursements, collections []pendingEntry
		for _, a := range group {
			disbursements = append(disbursements, pendingEntry{date: a.DisbursedAt, amount: a.Principal})
			collections = append(collections, collectionsFor(loan, a)...)
		}
		sortByDate(disbursements)
		sortByDate(collections)

		for _, set := range []struct {
			direction domain.Direction
			items     []pendingEntry
		}{
			{domain.DirectionOut, disbursements},
			{domain.DirectionIn, collections},
		} {
			for i, p := range set.items {
				entries = append(entries, &domain.LedgerEntry{
					ID:         uuid.New(),
					InvestorID: investorID,
					LoanID:     loanRef,
					Date:       p.date,
					Category:   domain.EntryCategoryLoan,
					Direction:  set.direction,
					Name:       EntryName(loan.Name, labelFor(set.direction), i+1, len(set.items)),
					Amount:     p.amount,
					Balance:    decimal.Zero,
				})
			}
		}
	}

	return entries
}

func sortByDate(items []pendingEntry) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].date.Before(items[j].date)
	})
}

// collectionsFor returns the inbound payments of one allocation. A single-period
// allocation pays principal and interest on the loan due date; a multi-period one pays
// interest on every period and retires the principal with the last one.
func collectionsFor(loan *domain.Loan, a *domain.InvestorAllocation) []pendingEntry {
	if !a.UsesPeriods() {
		return []pendingEntry{{
			date:   loan.DueDate,
			amount: a.Principal.Add(CalculateInterest(a.Principal, a.InterestSpec)),
		}}
	}

	periods := SortedPeriods(a.Periods)
	out := make([]pendingEntry, 0, len(periods))
	for i, p := range periods {
		amount := CalculateInterest(a.Principal, p.InterestSpec)
		if i == len(periods)-1 {
			amount = amount.Add(a.Principal)
		}
		out = append(out, pendingEntry{date: p.DueDate, amount: amount})
	}
	return out
}

// SortedPeriods returns a copy of periods ordered by due date.
func SortedPeriods(periods []*domain.InterestPeriod) []*domain.InterestPeriod {
	sorted := make([]*domain.InterestPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DueDate.Before(sorted[j].DueDate)
	})
	return sorted
}

// RenameEntries recomputes the display names of a loan's generated entries after the loan
// was renamed. entries must already be in ledger order. Only changed names are returned.
func RenameEntries(loanName string, entries []*domain.LedgerEntry) []domain.NameUpdate {
	type kind struct {
		investor  uuid.UUID
		direction domain.Direction
	}
	totals := make(map[kind]int)
	for _, e := range entries {
		if e.IsGenerated() {
			totals[kind{e.InvestorID, e.Direction}]++
		}
	}

	seen := make(map[kind]int)
	var updates []domain.NameUpdate
	for _, e := range entries {
		if !e.IsGenerated() {
			continue
		}
		k := kind{e.InvestorID, e.Direction}
		seen[k]++
		name := EntryName(loanName, labelFor(e.Direction), seen[k], totals[k])
		if name != e.Name {
			updates = append(updates, domain.NameUpdate{EntryID: e.ID, Name: name})
		}
	}
	return updates
}
