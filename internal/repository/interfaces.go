package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create persists a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// Update writes the mutable lifecycle fields of a loan. The update is
	// conditional on the loan still being in fromStatus; a lost race returns
	// errors.ErrConcurrencyConflict.
	Update(ctx context.Context, loan *domain.Loan, fromStatus string) error

	// UpdateStatus moves a loan from one status to another. The update is
	// conditional on the current status; a lost race returns
	// errors.ErrConcurrencyConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error

	// ListByStatus retrieves all loans in a given status
	ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error)
}

// RepaymentRepository defines the interface for installment data operations
type RepaymentRepository interface {
	// CreateBatch inserts the full schedule for a loan
	CreateBatch(ctx context.Context, repayments []*domain.LoanRepayment) error

	// GetByLoanID retrieves all installments for a loan ordered by due date,
	// then id, so the earliest-due installment is deterministic.
	GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanRepayment, error)

	// MarkPaid settles a single installment. The update is conditional on
	// the installment still being unpaid; a lost race returns
	// errors.ErrConcurrencyConflict.
	MarkPaid(ctx context.Context, id uuid.UUID, paidDate time.Time, method, transactionID string) error

	// CountUnpaid returns the number of unpaid installments for a loan
	CountUnpaid(ctx context.Context, loanID uuid.UUID) (int, error)

	// CountOverdueUnpaid returns the number of unpaid installments due
	// before asOf
	CountOverdueUnpaid(ctx context.Context, loanID uuid.UUID, asOf time.Time) (int, error)
}

// Transactor runs a function within a database transaction. Repository calls
// made with the context passed to fn join that transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
