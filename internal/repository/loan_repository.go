package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
	customError "github.com/DataGeek404/micro-finance-app-sub000/pkg/errors"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, client_id, branch_id, product_id, amount, interest_rate, term_months, purpose, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
	`

	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		loan.ID,
		loan.ClientID,
		loan.BranchID,
		loan.ProductID,
		loan.Amount,
		loan.InterestRate,
		loan.TermMonths,
		loan.Purpose,
		loan.Status,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT id, client_id, branch_id, product_id, amount, interest_rate, term_months, purpose, status,
		       approved_by, approved_at, disbursed_at, start_date, end_date, created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var loan domain.Loan
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan, fromStatus string) error {
	query := `
		UPDATE loans
		SET status = $2, approved_by = $3, approved_at = $4, disbursed_at = $5, start_date = $6, end_date = $7, updated_at = $8
		WHERE id = $1 AND status = $9
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		loan.ID,
		loan.Status,
		loan.ApprovedBy,
		loan.ApprovedAt,
		loan.DisbursedAt,
		loan.StartDate,
		loan.EndDate,
		time.Now(),
		fromStatus,
	)
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

func (r *loanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	query := `
		UPDATE loans
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`

	res, err := executor(ctx, r.db).ExecContext(ctx, query, id, from, to)
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

func (r *loanRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error) {
	query := `
		SELECT id, client_id, branch_id, product_id, amount, interest_rate, term_months, purpose, status,
		       approved_by, approved_at, disbursed_at, start_date, end_date, created_at, updated_at
		FROM loans
		WHERE status = $1
		ORDER BY created_at
	`

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &loans, query, status); err != nil {
		return nil, err
	}

	return loans, nil
}
