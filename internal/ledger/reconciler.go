package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/pawn-ledger/internal/domain"
	customError "github.com/segyhp/pawn-ledger/pkg/errors"
)

// SortEntries orders entries by date, then by sequence number.
func SortEntries(entries []*domain.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Seq < entries[j].Seq
	})
}

// ComputeBalances walks one investor's entries in ledger order and returns the balance
// writes needed to make every stored balance equal the running sum.
//
// Summation always starts at zero on the first entry. A non-nil cutover only limits which
// entries may be written: entries dated before it are assumed correct and never updated.
// Entries whose stored balance already matches are skipped. The returned entries'
// Balance fields are updated in place.
func ComputeBalances(entries []*domain.LedgerEntry, cutover *time.Time) []domain.BalanceUpdate {
	SortEntries(entries)

	running := decimal.Zero
	var updates []domain.BalanceUpdate
	for _, e := range entries {
		running = running.Add(e.Signed())
		if cutover != nil && e.Date.Before(*cutover) {
			continue
		}
		if e.Balance.Equal(running) {
			continue
		}
		e.Balance = running
		updates = append(updates, domain.BalanceUpdate{EntryID: e.ID, Balance: running})
	}
	return updates
}

// VerifyBalances checks the running balance invariant over an investor's entries and
// reports the first entry that diverges.
func VerifyBalances(entries []*domain.LedgerEntry) error {
	SortEntries(entries)

	running := decimal.Zero
	for _, e := range entries {
		running = running.Add(e.Signed())
		if !e.Balance.Equal(running) {
			return customError.WrapConsistency(fmt.Sprintf(
				"entry %s on %s stores balance %s, expected %s",
				e.ID, e.Date.Format("2006-01-02"), e.Balance.String(), running.String(),
			))
		}
	}
	return nil
}
