package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is derived from periods and paid flags; it is only set freely through the
// status override entry point.
type LoanStatus string

const (
	LoanStatusPartiallyFunded LoanStatus = "partially_funded"
	LoanStatusFullyFunded     LoanStatus = "fully_funded"
	LoanStatusOverdue         LoanStatus = "overdue"
	LoanStatusCompleted       LoanStatus = "completed"
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPartiallyFunded, LoanStatusFullyFunded, LoanStatusOverdue, LoanStatusCompleted:
		return true
	}
	return false
}

// Loan represents a pawn loan entity
type Loan struct {
	ID        uuid.UUID           `json:"id" db:"id"`
	OwnerID   uuid.UUID           `json:"owner_id" db:"owner_id"`
	Name      string              `json:"name" db:"name"`
	Category  string              `json:"category" db:"category"`
	Status    LoanStatus          `json:"status" db:"status"`
	DueDate   time.Time           `json:"due_date" db:"due_date"`
	Notes     string              `json:"notes" db:"notes"`
	LotSize   decimal.NullDecimal `json:"lot_size" db:"lot_size"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`
}

// LoanDetail is a loan together with its allocations and their periods.
type LoanDetail struct {
	Loan        *Loan                 `json:"loan"`
	Allocations []*InvestorAllocation `json:"allocations"`
}
