package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
	customError "github.com/DataGeek404/micro-finance-app-sub000/pkg/errors"
)

type repaymentRepository struct {
	db *sqlx.DB
}

func NewRepaymentRepository(db *sqlx.DB) RepaymentRepository {
	return &repaymentRepository{db: db}
}

func (r *repaymentRepository) CreateBatch(ctx context.Context, repayments []*domain.LoanRepayment) error {
	query := `
		INSERT INTO loan_repayments (id, loan_id, amount, due_date, is_paid, created_at)
		VALUES ($1, $2, $3, $4, FALSE, now())
	`

	exec := executor(ctx, r.db)
	for _, repayment := range repayments {
		_, err := exec.ExecContext(ctx, query,
			repayment.ID,
			repayment.LoanID,
			repayment.Amount,
			repayment.DueDate,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *repaymentRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanRepayment, error) {
	query := `
		SELECT id, loan_id, amount, due_date, paid_date, is_paid, payment_method, transaction_id, created_at
		FROM loan_repayments
		WHERE loan_id = $1
		ORDER BY due_date, id
	`

	var repayments []*domain.LoanRepayment
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &repayments, query, loanID); err != nil {
		return nil, err
	}

	return repayments, nil
}

func (r *repaymentRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidDate time.Time, method, transactionID string) error {
	query := `
		UPDATE loan_repayments
		SET is_paid = TRUE, paid_date = $2, payment_method = $3, transaction_id = $4
		WHERE id = $1 AND is_paid = FALSE
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query, id, paidDate, method, transactionID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return customError.ErrConcurrencyConflict
	}

	return nil
}

func (r *repaymentRepository) CountUnpaid(ctx context.Context, loanID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM loan_repayments
		WHERE loan_id = $1 AND is_paid = FALSE
	`

	var count int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &count, query, loanID); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repaymentRepository) CountOverdueUnpaid(ctx context.Context, loanID uuid.UUID, asOf time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM loan_repayments
		WHERE loan_id = $1 AND is_paid = FALSE AND due_date < $2
	`

	var count int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &count, query, loanID, asOf); err != nil {
		return 0, err
	}

	return count, nil
}
