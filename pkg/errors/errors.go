package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound           = errors.New("not found")
	ErrLoanNotFound       = fmt.Errorf("loan %w", ErrNotFound)
	ErrAllocationNotFound = fmt.Errorf("allocation %w", ErrNotFound)
	ErrPeriodNotFound     = fmt.Errorf("interest period %w", ErrNotFound)
	ErrEntryNotFound      = fmt.Errorf("ledger entry %w", ErrNotFound)
	ErrValidation         = errors.New("validation failed")
	ErrConsistency        = errors.New("ledger consistency violated")
	ErrLedgerGeneration   = errors.New("ledger generation failed")
	ErrReconciliation     = errors.New("balance reconciliation failed")
	ErrEntryImmutable     = errors.New("ledger entry is system generated")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeLoanNotFound       = "LOAN_NOT_FOUND"
	ErrCodeAllocationNotFound = "ALLOCATION_NOT_FOUND"
	ErrCodePeriodNotFound     = "PERIOD_NOT_FOUND"
	ErrCodeEntryNotFound      = "ENTRY_NOT_FOUND"
	ErrCodeConsistency        = "CONSISTENCY_ERROR"
	ErrCodeLedgerGeneration   = "LEDGER_GENERATION_FAILED"
	ErrCodeReconciliation     = "RECONCILIATION_FAILED"
	ErrCodeEntryImmutable     = "ENTRY_IMMUTABLE"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeCacheError         = "CACHE_ERROR"
)

// WrapValidation rejects malformed input before any state change.
func WrapValidation(message string, err error) *BusinessError {
	if err == nil {
		err = ErrValidation
	} else {
		err = fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return NewBusinessError(ErrCodeValidation, message, err)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapAllocationNotFound(allocationID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAllocationNotFound,
		fmt.Sprintf("Allocation with ID %s not found", allocationID),
		ErrAllocationNotFound,
	)
}

func WrapPeriodNotFound(periodID string) *BusinessError {
	return NewBusinessError(
		ErrCodePeriodNotFound,
		fmt.Sprintf("Interest period with ID %s not found", periodID),
		ErrPeriodNotFound,
	)
}

func WrapEntryNotFound(entryID string) *BusinessError {
	return NewBusinessError(
		ErrCodeEntryNotFound,
		fmt.Sprintf("Ledger entry with ID %s not found", entryID),
		ErrEntryNotFound,
	)
}

// WrapConsistency describes a counterpart that could not be matched. Callers log it and
// fall back to treating the record as new.
func WrapConsistency(message string) *BusinessError {
	return NewBusinessError(ErrCodeConsistency, message, ErrConsistency)
}

func WrapLedgerGeneration(loanID string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeLedgerGeneration,
		fmt.Sprintf("Ledger for loan %s could not be regenerated", loanID),
		fmt.Errorf("%w: %w", ErrLedgerGeneration, err),
	)
}

func WrapReconciliation(investorID string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeReconciliation,
		fmt.Sprintf("Balances for investor %s could not be reconciled", investorID),
		fmt.Errorf("%w: %w", ErrReconciliation, err),
	)
}

func WrapEntryImmutable(entryID string) *BusinessError {
	return NewBusinessError(
		ErrCodeEntryImmutable,
		fmt.Sprintf("Ledger entry %s is generated from a loan and cannot be edited", entryID),
		ErrEntryImmutable,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// IsNotFound reports whether err resolves to any missing loan, allocation, period or entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Code extracts the business error code, or "" for foreign errors.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
