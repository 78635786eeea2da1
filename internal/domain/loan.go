package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusPending   = "pending"
	LoanStatusApproved  = "approved"
	LoanStatusActive    = "active"
	LoanStatusCompleted = "completed"
	LoanStatusDefaulted = "defaulted"
	LoanStatusRejected  = "rejected"
)

// allowedTransitions is the single source of truth for the loan lifecycle.
// pending -> approved -> active -> {completed | defaulted}, rejected only
// from pending. completed, defaulted and rejected are terminal.
var allowedTransitions = map[string][]string{
	LoanStatusPending:  {LoanStatusApproved, LoanStatusRejected},
	LoanStatusApproved: {LoanStatusActive},
	LoanStatusActive:   {LoanStatusCompleted, LoanStatusDefaulted},
}

// CanTransition reports whether a loan may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Loan represents a microcredit loan
type Loan struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ClientID     uuid.UUID       `json:"client_id" db:"client_id"`
	BranchID     uuid.UUID       `json:"branch_id" db:"branch_id"`
	ProductID    uuid.NullUUID   `json:"product_id" db:"product_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	InterestRate decimal.Decimal `json:"interest_rate" db:"interest_rate"` // annual percentage
	TermMonths   int             `json:"term_months" db:"term_months"`
	Purpose      string          `json:"purpose" db:"purpose"`
	Status       string          `json:"status" db:"status"`
	ApprovedBy   uuid.NullUUID   `json:"approved_by" db:"approved_by"`
	ApprovedAt   *time.Time      `json:"approved_at" db:"approved_at"`
	DisbursedAt  *time.Time      `json:"disbursed_at" db:"disbursed_at"`
	StartDate    *time.Time      `json:"start_date" db:"start_date"`
	EndDate      *time.Time      `json:"end_date" db:"end_date"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	ClientID     uuid.UUID       `json:"client_id" validate:"required"`
	BranchID     uuid.UUID       `json:"branch_id" validate:"required"`
	ProductID    *uuid.UUID      `json:"product_id"`
	Amount       decimal.Decimal `json:"amount" validate:"required,gt=0"`
	InterestRate decimal.Decimal `json:"interest_rate" validate:"gte=0"`
	TermMonths   int             `json:"term_months" validate:"required,gt=0"`
	Purpose      string          `json:"purpose"`
}

type ApproveLoanRequest struct {
	ApprovedBy uuid.UUID `json:"approved_by" validate:"required"`
}

type LoanResponse struct {
	Loan *Loan `json:"loan"`
}

type ActivateLoanResponse struct {
	Loan     *Loan            `json:"loan"`
	Schedule []*LoanRepayment `json:"schedule"`
}
