package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) Update(ctx context.Context, loan *domain.Loan, fromStatus string) error {
	args := m.Called(ctx, loan, fromStatus)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockLoanRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

type MockRepaymentRepository struct {
	mock.Mock
}

func (m *MockRepaymentRepository) CreateBatch(ctx context.Context, repayments []*domain.LoanRepayment) error {
	args := m.Called(ctx, repayments)
	return args.Error(0)
}

func (m *MockRepaymentRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanRepayment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoanRepayment), args.Error(1)
}

func (m *MockRepaymentRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidDate time.Time, method, transactionID string) error {
	args := m.Called(ctx, id, paidDate, method, transactionID)
	return args.Error(0)
}

func (m *MockRepaymentRepository) CountUnpaid(ctx context.Context, loanID uuid.UUID) (int, error) {
	args := m.Called(ctx, loanID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepaymentRepository) CountOverdueUnpaid(ctx context.Context, loanID uuid.UUID, asOf time.Time) (int, error) {
	args := m.Called(ctx, loanID, asOf)
	return args.Int(0), args.Error(1)
}

// TxPassthrough satisfies repository.Transactor by running the function
// directly, without a real database transaction.
type TxPassthrough struct{}

func (TxPassthrough) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
