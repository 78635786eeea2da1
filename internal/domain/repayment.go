package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanRepayment represents a single scheduled installment of a loan
type LoanRepayment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	LoanID        uuid.UUID       `json:"loan_id" db:"loan_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	PaidDate      *time.Time      `json:"paid_date" db:"paid_date"`
	IsPaid        bool            `json:"is_paid" db:"is_paid"`
	PaymentMethod *string         `json:"payment_method" db:"payment_method"`
	TransactionID *string         `json:"transaction_id" db:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Method string          `json:"method" validate:"required"`
}

// PaymentResult summarizes what a payment settled.
type PaymentResult struct {
	LoanID              uuid.UUID        `json:"loan_id"`
	TransactionID       string           `json:"transaction_id"`
	AmountTendered      decimal.Decimal  `json:"amount_tendered"`
	AmountApplied       decimal.Decimal  `json:"amount_applied"`
	UncreditedRemainder decimal.Decimal  `json:"uncredited_remainder"`
	SettledInstallments []*LoanRepayment `json:"settled_installments"`
	RemainingUnpaid     int              `json:"remaining_unpaid"`
	LoanCompleted       bool             `json:"loan_completed"`
}

type ScheduleResponse struct {
	LoanID   uuid.UUID        `json:"loan_id"`
	Schedule []*LoanRepayment `json:"schedule"`
}
