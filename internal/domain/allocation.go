package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InterestType string

const (
	InterestTypeRate  InterestType = "rate"
	InterestTypeFixed InterestType = "fixed"
)

type PeriodStatus string

const (
	PeriodStatusPending   PeriodStatus = "pending"
	PeriodStatusCompleted PeriodStatus = "completed"
	PeriodStatusOverdue   PeriodStatus = "overdue"
)

func (s PeriodStatus) IsValid() bool {
	switch s {
	case PeriodStatusPending, PeriodStatusCompleted, PeriodStatusOverdue:
		return true
	}
	return false
}

// InterestSpec is either a percentage of principal (rate) or an absolute amount (fixed).
type InterestSpec struct {
	InterestType  InterestType    `json:"interest_type" db:"interest_type"`
	InterestValue decimal.Decimal `json:"interest_value" db:"interest_value"`
}

// SameTerms reports whether two specs owe the same interest.
func (s InterestSpec) SameTerms(other InterestSpec) bool {
	return s.InterestType == other.InterestType && s.InterestValue.Equal(other.InterestValue)
}

// InvestorAllocation is one investor's principal commitment within a loan. Position is the
// submitted order within the loan and is the order allocations are read back in.
type InvestorAllocation struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	LoanID     uuid.UUID       `json:"loan_id" db:"loan_id"`
	InvestorID uuid.UUID       `json:"investor_id" db:"investor_id"`
	Principal  decimal.Decimal `json:"principal" db:"principal"`
	InterestSpec
	DisbursedAt     time.Time         `json:"disbursed_at" db:"disbursed_at"`
	Paid            bool              `json:"paid" db:"paid"`
	MultiplePeriods bool              `json:"multiple_periods" db:"multiple_periods"`
	Position        int               `json:"position" db:"position"`
	Periods         []*InterestPeriod `json:"periods,omitempty" db:"-"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

// UsesPeriods is true only when the allocation is in multi-period mode and has periods.
func (a *InvestorAllocation) UsesPeriods() bool {
	return a.MultiplePeriods && len(a.Periods) > 0
}

// InterestPeriod is a scheduled interest settlement point of a multi-period allocation.
type InterestPeriod struct {
	ID           uuid.UUID `json:"id" db:"id"`
	AllocationID uuid.UUID `json:"allocation_id" db:"allocation_id"`
	DueDate      time.Time `json:"due_date" db:"due_date"`
	InterestSpec
	Status    PeriodStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
