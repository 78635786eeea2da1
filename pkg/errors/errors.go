package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound              = errors.New("loan not found")
	ErrLoanNotActive             = errors.New("loan is not active")
	ErrInvalidTransition         = errors.New("invalid loan status transition")
	ErrInvalidParameters         = errors.New("invalid schedule parameters")
	ErrInsufficientAmount        = errors.New("payment amount below minimum installment due")
	ErrNoOutstandingInstallments = errors.New("no outstanding installments")
	ErrScheduleGeneration        = errors.New("repayment schedule generation failed")
	ErrConcurrencyConflict       = errors.New("concurrent modification detected")
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
	ErrCodeLoanNotFound              = "LOAN_NOT_FOUND"
	ErrCodeLoanNotActive             = "LOAN_NOT_ACTIVE"
	ErrCodeInvalidTransition         = "INVALID_TRANSITION"
	ErrCodeInvalidParameters         = "INVALID_PARAMETERS"
	ErrCodeInsufficientAmount        = "INSUFFICIENT_AMOUNT"
	ErrCodeNoOutstandingInstallments = "NO_OUTSTANDING_INSTALLMENTS"
	ErrCodeScheduleGeneration        = "SCHEDULE_GENERATION_ERROR"
	ErrCodeConcurrencyConflict       = "CONCURRENCY_CONFLICT"
	ErrCodeDatabaseError             = "DATABASE_ERROR"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanNotActive(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotActive,
		fmt.Sprintf("Loan %s is %s, payments require an active loan", loanID, status),
		ErrLoanNotActive,
	)
}

func WrapInvalidTransition(loanID, current, attempted string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Loan %s cannot move from %s to %s", loanID, current, attempted),
		ErrInvalidTransition,
	)
}

func WrapInvalidParameters(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidParameters,
		detail,
		ErrInvalidParameters,
	)
}

func WrapInsufficientAmount(required, tendered string) *BusinessError {
	return NewBusinessError(
		ErrCodeInsufficientAmount,
		fmt.Sprintf("Tendered amount %s is below the %s due on the next installment", tendered, required),
		ErrInsufficientAmount,
	)
}

func WrapNoOutstandingInstallments(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoOutstandingInstallments,
		fmt.Sprintf("Loan %s has no unpaid installments", loanID),
		ErrNoOutstandingInstallments,
	)
}

func WrapScheduleGeneration(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleGeneration,
		"repayment schedule could not be generated",
		errors.Join(ErrScheduleGeneration, err),
	)
}

func WrapConcurrencyConflict(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrencyConflict,
		fmt.Sprintf("Loan %s was modified by a concurrent operation, retry the request", loanID),
		ErrConcurrencyConflict,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}
