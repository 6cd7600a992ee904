// Package ledger holds the pure parts of the loan ledger engine: interest, entry
// generation, running balances, change classification, period status carry-over and loan
// status derivation. Nothing here touches storage.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/pawn-ledger/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// CalculateInterest returns principal x value/100 for a rate spec and value itself for a
// fixed spec.
func CalculateInterest(principal decimal.Decimal, spec domain.InterestSpec) decimal.Decimal {
	if spec.InterestType == domain.InterestTypeFixed {
		return spec.InterestValue
	}
	return principal.Mul(spec.InterestValue).Div(hundred)
}

// TotalCollection is what an allocation returns to its investor: principal plus every
// interest payment it schedules.
func TotalCollection(a *domain.InvestorAllocation) decimal.Decimal {
	if !a.UsesPeriods() {
		return a.Principal.Add(CalculateInterest(a.Principal, a.InterestSpec))
	}
	total := a.Principal
	for _, p := range a.Periods {
		total = total.Add(CalculateInterest(a.Principal, p.InterestSpec))
	}
	return total
}
