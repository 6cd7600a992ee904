package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryCategory string

const (
	EntryCategoryLoan  EntryCategory = "loan"
	EntryCategoryOther EntryCategory = "other"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// LedgerEntry is a dated, directional amount against an investor's running balance.
// Amount is always positive; Direction carries the sign.
type LedgerEntry struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Seq        int64           `json:"seq" db:"seq"`
	InvestorID uuid.UUID       `json:"investor_id" db:"investor_id"`
	LoanID     uuid.NullUUID   `json:"loan_id" db:"loan_id"`
	Date       time.Time       `json:"date" db:"entry_date"`
	Category   EntryCategory   `json:"category" db:"category"`
	Direction  Direction       `json:"direction" db:"direction"`
	Name       string          `json:"name" db:"name"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
	Notes      string          `json:"notes" db:"notes"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Signed returns the amount with the sign implied by the direction.
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == DirectionIn {
		return e.Amount
	}
	return e.Amount.Neg()
}

// IsGenerated reports whether the entry belongs to a loan's generated ledger.
func (e *LedgerEntry) IsGenerated() bool {
	return e.Category == EntryCategoryLoan && e.LoanID.Valid
}

// BalanceUpdate is a pending write of a recomputed running balance.
type BalanceUpdate struct {
	EntryID uuid.UUID       `db:"id"`
	Balance decimal.Decimal `db:"balance"`
}

// NameUpdate is a pending rename of a generated entry.
type NameUpdate struct {
	EntryID uuid.UUID `db:"id"`
	Name    string    `db:"name"`
}
