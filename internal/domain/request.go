package domain

import (
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for requests and responses

type PeriodInput struct {
	DueDate       time.Time       `json:"due_date" validate:"required"`
	InterestType  InterestType    `json:"interest_type" validate:"required,oneof=rate fixed"`
	InterestValue decimal.Decimal `json:"interest_value" validate:"gte=0"`
}

type AllocationInput struct {
	InvestorID      uuid.UUID       `json:"investor_id" validate:"required"`
	Principal       decimal.Decimal `json:"principal" validate:"gt=0"`
	InterestType    InterestType    `json:"interest_type" validate:"required,oneof=rate fixed"`
	InterestValue   decimal.Decimal `json:"interest_value" validate:"gte=0"`
	DisbursedAt     time.Time       `json:"disbursed_at" validate:"required"`
	Paid            bool            `json:"paid"`
	MultiplePeriods bool            `json:"multiple_periods"`
	Periods         []PeriodInput   `json:"periods" validate:"dive"`
}

type CreateLoanRequest struct {
	OwnerID     uuid.UUID           `json:"owner_id" validate:"required"`
	Name        string              `json:"name" validate:"required"`
	Category    string              `json:"category" validate:"required"`
	DueDate     time.Time           `json:"due_date" validate:"required"`
	Notes       string              `json:"notes"`
	LotSize     decimal.NullDecimal `json:"lot_size"`
	Allocations []AllocationInput   `json:"allocations" validate:"required,min=1,dive"`
}

type UpdateLoanRequest struct {
	LoanID      uuid.UUID           `json:"-" validate:"required"`
	Name        string              `json:"name" validate:"required"`
	Category    string              `json:"category" validate:"required"`
	DueDate     time.Time           `json:"due_date" validate:"required"`
	Notes       string              `json:"notes"`
	LotSize     decimal.NullDecimal `json:"lot_size"`
	Allocations []AllocationInput   `json:"allocations" validate:"required,min=1,dive"`
}

type EntryRequest struct {
	InvestorID uuid.UUID       `json:"investor_id" validate:"required"`
	Date       time.Time       `json:"date" validate:"required"`
	Direction  Direction       `json:"direction" validate:"required,oneof=in out"`
	Name       string          `json:"name" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
	Notes      string          `json:"notes"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type PaidRequest struct {
	Paid bool `json:"paid"`
}

type ReconcileRequest struct {
	From *time.Time `json:"from"`
}

// NewValidator returns a validator that understands decimal amounts.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
	return v
}

func decimalValue(field reflect.Value) interface{} {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := d.Float64()
		return f
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		f, _ := d.Decimal.Float64()
		return f
	}
	return nil
}
