package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/config"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/mocks"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/service"
	customError "github.com/DataGeek404/micro-finance-app-sub000/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			DelinquencyThreshold: 3,
			DelinquencyGraceDays: 7,
			ScheduleCacheTTL:     "15m",
		},
	}
}

func newLoanService(loanRepo *mocks.MockLoanRepository, repaymentRepo *mocks.MockRepaymentRepository) *service.LoanService {
	return service.NewLoanService(loanRepo, repaymentRepo, mocks.TxPassthrough{}, nil, testConfig())
}

func pendingLoan() *domain.Loan {
	return &domain.Loan{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		BranchID:     uuid.New(),
		Amount:       decimal.NewFromInt(12000),
		InterestRate: decimal.NewFromInt(12),
		TermMonths:   12,
		Status:       domain.LoanStatusPending,
	}
}

func TestCreateLoan(t *testing.T) {
	tests := []struct {
		name          string
		request       *domain.CreateLoanRequest
		setupMocks    func(*mocks.MockLoanRepository)
		expectedError error
	}{
		{
			name: "Success - new pending loan",
			request: &domain.CreateLoanRequest{
				ClientID:     uuid.New(),
				BranchID:     uuid.New(),
				Amount:       decimal.NewFromInt(50000),
				InterestRate: decimal.NewFromInt(15),
				TermMonths:   24,
				Purpose:      "working capital",
			},
			setupMocks: func(loanRepo *mocks.MockLoanRepository) {
				loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
					return loan.Status == domain.LoanStatusPending && loan.TermMonths == 24
				})).Return(nil)
			},
		},
		{
			name: "Failure - non-positive amount",
			request: &domain.CreateLoanRequest{
				ClientID:   uuid.New(),
				BranchID:   uuid.New(),
				Amount:     decimal.Zero,
				TermMonths: 12,
			},
			setupMocks:    func(loanRepo *mocks.MockLoanRepository) {},
			expectedError: customError.ErrInvalidParameters,
		},
		{
			name: "Failure - non-positive term",
			request: &domain.CreateLoanRequest{
				ClientID:   uuid.New(),
				BranchID:   uuid.New(),
				Amount:     decimal.NewFromInt(1000),
				TermMonths: 0,
			},
			setupMocks:    func(loanRepo *mocks.MockLoanRepository) {},
			expectedError: customError.ErrInvalidParameters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := &mocks.MockLoanRepository{}
			repaymentRepo := &mocks.MockRepaymentRepository{}
			svc := newLoanService(loanRepo, repaymentRepo)

			tt.setupMocks(loanRepo)

			loan, err := svc.CreateLoan(context.Background(), tt.request)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, loan)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, domain.LoanStatusPending, loan.Status)
			}
			loanRepo.AssertExpectations(t)
		})
	}
}

func TestApprove(t *testing.T) {
	approverID := uuid.New()

	tests := []struct {
		name          string
		status        string
		expectedError error
	}{
		{"Success - pending loan", domain.LoanStatusPending, nil},
		{"Failure - already approved", domain.LoanStatusApproved, customError.ErrInvalidTransition},
		{"Failure - active loan", domain.LoanStatusActive, customError.ErrInvalidTransition},
		{"Failure - rejected loan", domain.LoanStatusRejected, customError.ErrInvalidTransition},
		{"Failure - completed loan", domain.LoanStatusCompleted, customError.ErrInvalidTransition},
		{"Failure - defaulted loan", domain.LoanStatusDefaulted, customError.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := pendingLoan()
			loan.Status = tt.status

			loanRepo := &mocks.MockLoanRepository{}
			repaymentRepo := &mocks.MockRepaymentRepository{}
			svc := newLoanService(loanRepo, repaymentRepo)

			loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
			if tt.expectedError == nil {
				loanRepo.On("Update", mock.Anything, mock.MatchedBy(func(updated *domain.Loan) bool {
					return updated.Status == domain.LoanStatusApproved &&
						updated.ApprovedBy.Valid && updated.ApprovedBy.UUID == approverID &&
						updated.ApprovedAt != nil
				}), domain.LoanStatusPending).Return(nil)
			}

			updated, err := svc.Approve(context.Background(), loan.ID, approverID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, updated)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, domain.LoanStatusApproved, updated.Status)
			}
			loanRepo.AssertExpectations(t)
		})
	}
}

func TestApproveConcurrencyConflict(t *testing.T) {
	loan := pendingLoan()

	loanRepo := &mocks.MockLoanRepository{}
	repaymentRepo := &mocks.MockRepaymentRepository{}
	svc := newLoanService(loanRepo, repaymentRepo)

	loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
	loanRepo.On("Update", mock.Anything, mock.Anything, domain.LoanStatusPending).
		Return(customError.ErrConcurrencyConflict)

	_, err := svc.Approve(context.Background(), loan.ID, uuid.New())

	assert.ErrorIs(t, err, customError.ErrConcurrencyConflict)
}

func TestApproveLoanNotFound(t *testing.T) {
	loanRepo := &mocks.MockLoanRepository{}
	repaymentRepo := &mocks.MockRepaymentRepository{}
	svc := newLoanService(loanRepo, repaymentRepo)

	loanID := uuid.New()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(nil, sql.ErrNoRows)

	_, err := svc.Approve(context.Background(), loanID, uuid.New())

	assert.ErrorIs(t, err, customError.ErrLoanNotFound)
}

func TestActivate(t *testing.T) {
	t.Run("Success - approved loan gets dates and schedule", func(t *testing.T) {
		loan := pendingLoan()
		loan.Status = domain.LoanStatusApproved

		loanRepo := &mocks.MockLoanRepository{}
		repaymentRepo := &mocks.MockRepaymentRepository{}
		svc := newLoanService(loanRepo, repaymentRepo)

		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		loanRepo.On("Update", mock.Anything, mock.MatchedBy(func(updated *domain.Loan) bool {
			return updated.Status == domain.LoanStatusActive &&
				updated.StartDate != nil && updated.EndDate != nil && updated.DisbursedAt != nil &&
				updated.EndDate.Equal(updated.StartDate.AddDate(0, updated.TermMonths, 0))
		}), domain.LoanStatusApproved).Return(nil)
		repaymentRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(repayments []*domain.LoanRepayment) bool {
			return len(repayments) == 12
		})).Return(nil)

		updated, repayments, err := svc.Activate(context.Background(), loan.ID)

		assert.NoError(t, err)
		assert.Equal(t, domain.LoanStatusActive, updated.Status)
		assert.Len(t, repayments, 12)
		for _, repayment := range repayments {
			assert.True(t, repayment.Amount.Equal(decimal.NewFromInt(1120)))
			assert.Equal(t, loan.ID, repayment.LoanID)
		}
		loanRepo.AssertExpectations(t)
		repaymentRepo.AssertExpectations(t)
	})

	t.Run("Failure - activating twice", func(t *testing.T) {
		loan := pendingLoan()
		loan.Status = domain.LoanStatusActive

		loanRepo := &mocks.MockLoanRepository{}
		repaymentRepo := &mocks.MockRepaymentRepository{}
		svc := newLoanService(loanRepo, repaymentRepo)

		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		_, repayments, err := svc.Activate(context.Background(), loan.ID)

		assert.ErrorIs(t, err, customError.ErrInvalidTransition)
		assert.Nil(t, repayments)
		// No schedule insert may happen on a failed activation.
		repaymentRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("Failure - pending loan skips approval", func(t *testing.T) {
		loan := pendingLoan()

		loanRepo := &mocks.MockLoanRepository{}
		repaymentRepo := &mocks.MockRepaymentRepository{}
		svc := newLoanService(loanRepo, repaymentRepo)

		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		_, _, err := svc.Activate(context.Background(), loan.ID)

		assert.ErrorIs(t, err, customError.ErrInvalidTransition)
	})

	t.Run("Failure - lost race against another instance inserts no schedule", func(t *testing.T) {
		loan := pendingLoan()
		loan.Status = domain.LoanStatusApproved

		loanRepo := &mocks.MockLoanRepository{}
		repaymentRepo := &mocks.MockRepaymentRepository{}
		svc := newLoanService(loanRepo, repaymentRepo)

		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
		// A second replica activated the loan after our read; the conditional
		// status write finds zero rows.
		loanRepo.On("Update", mock.Anything, mock.Anything, domain.LoanStatusApproved).
			Return(customError.ErrConcurrencyConflict)

		_, repayments, err := svc.Activate(context.Background(), loan.ID)

		assert.ErrorIs(t, err, customError.ErrConcurrencyConflict)
		assert.Nil(t, repayments)
		repaymentRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("Failure - schedule generation error leaves loan untouched", func(t *testing.T) {
		loan := pendingLoan()
		loan.Status = domain.LoanStatusApproved
		loan.TermMonths = 0

		loanRepo := &mocks.MockLoanRepository{}
		repaymentRepo := &mocks.MockRepaymentRepository{}
		svc := newLoanService(loanRepo, repaymentRepo)

		loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

		_, _, err := svc.Activate(context.Background(), loan.ID)

		assert.ErrorIs(t, err, customError.ErrScheduleGeneration)
		loanRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		repaymentRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})
}

func TestRejectAndDefault(t *testing.T) {
	tests := []struct {
		name          string
		status        string
		action        string
		expectedError error
	}{
		{"Success - reject pending loan", domain.LoanStatusPending, "reject", nil},
		{"Failure - reject approved loan", domain.LoanStatusApproved, "reject", customError.ErrInvalidTransition},
		{"Failure - reject active loan", domain.LoanStatusActive, "reject", customError.ErrInvalidTransition},
		{"Success - default active loan", domain.LoanStatusActive, "default", nil},
		{"Failure - default pending loan", domain.LoanStatusPending, "default", customError.ErrInvalidTransition},
		{"Failure - default completed loan", domain.LoanStatusCompleted, "default", customError.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := pendingLoan()
			loan.Status = tt.status

			target := domain.LoanStatusRejected
			if tt.action == "default" {
				target = domain.LoanStatusDefaulted
			}

			loanRepo := &mocks.MockLoanRepository{}
			repaymentRepo := &mocks.MockRepaymentRepository{}
			svc := newLoanService(loanRepo, repaymentRepo)

			loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
			if tt.expectedError == nil {
				loanRepo.On("UpdateStatus", mock.Anything, loan.ID, tt.status, target).Return(nil)
			}

			var err error
			var updated *domain.Loan
			if tt.action == "reject" {
				updated, err = svc.Reject(context.Background(), loan.ID)
			} else {
				updated, err = svc.MarkDefaulted(context.Background(), loan.ID)
			}

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, target, updated.Status)
			}
			loanRepo.AssertExpectations(t)
		})
	}
}

func TestTransitionConcurrencyConflict(t *testing.T) {
	loan := pendingLoan()
	loan.Status = domain.LoanStatusActive

	loanRepo := &mocks.MockLoanRepository{}
	repaymentRepo := &mocks.MockRepaymentRepository{}
	svc := newLoanService(loanRepo, repaymentRepo)

	loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
	loanRepo.On("UpdateStatus", mock.Anything, loan.ID, domain.LoanStatusActive, domain.LoanStatusDefaulted).
		Return(customError.ErrConcurrencyConflict)

	_, err := svc.MarkDefaulted(context.Background(), loan.ID)

	assert.ErrorIs(t, err, customError.ErrConcurrencyConflict)
}

func TestGetSchedule(t *testing.T) {
	loan := pendingLoan()
	loan.Status = domain.LoanStatusActive

	repayments := []*domain.LoanRepayment{
		{ID: uuid.New(), LoanID: loan.ID, Amount: decimal.NewFromInt(1120), DueDate: time.Now().AddDate(0, 1, 0)},
		{ID: uuid.New(), LoanID: loan.ID, Amount: decimal.NewFromInt(1120), DueDate: time.Now().AddDate(0, 2, 0)},
	}

	loanRepo := &mocks.MockLoanRepository{}
	repaymentRepo := &mocks.MockRepaymentRepository{}
	svc := newLoanService(loanRepo, repaymentRepo)

	loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
	repaymentRepo.On("GetByLoanID", mock.Anything, loan.ID).Return(repayments, nil)

	got, err := svc.GetSchedule(context.Background(), loan.ID)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	repaymentRepo.AssertExpectations(t)
}

func TestFlagDelinquentLoans(t *testing.T) {
	delinquent := pendingLoan()
	delinquent.Status = domain.LoanStatusActive
	current := pendingLoan()
	current.Status = domain.LoanStatusActive

	loanRepo := &mocks.MockLoanRepository{}
	repaymentRepo := &mocks.MockRepaymentRepository{}
	svc := newLoanService(loanRepo, repaymentRepo)

	loanRepo.On("ListByStatus", mock.Anything, domain.LoanStatusActive).
		Return([]*domain.Loan{delinquent, current}, nil)
	repaymentRepo.On("CountOverdueUnpaid", mock.Anything, delinquent.ID, mock.AnythingOfType("time.Time")).Return(3, nil)
	repaymentRepo.On("CountOverdueUnpaid", mock.Anything, current.ID, mock.AnythingOfType("time.Time")).Return(1, nil)

	// MarkDefaulted re-reads the loan under its lock.
	loanRepo.On("GetByID", mock.Anything, delinquent.ID).Return(delinquent, nil)
	loanRepo.On("UpdateStatus", mock.Anything, delinquent.ID, domain.LoanStatusActive, domain.LoanStatusDefaulted).Return(nil)

	defaulted, err := svc.FlagDelinquentLoans(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, defaulted)
	loanRepo.AssertExpectations(t)
	repaymentRepo.AssertExpectations(t)
}
