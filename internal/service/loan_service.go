package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/config"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/repository"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/schedule"
	customError "github.com/DataGeek404/micro-finance-app-sub000/pkg/errors"
)

// LoanService owns the loan lifecycle: which status transitions are allowed
// and what each transition does. All mutating operations take the per-loan
// lock so concurrent requests against the same loan are serialized.
type LoanService struct {
	loanRepo      repository.LoanRepository
	repaymentRepo repository.RepaymentRepository
	tx            repository.Transactor
	redis         *redis.Client
	config        *config.Config
	locks         *loanLocker
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	repaymentRepo repository.RepaymentRepository,
	tx repository.Transactor,
	redis *redis.Client,
	config *config.Config,
) *LoanService {
	return &LoanService{
		loanRepo:      loanRepo,
		repaymentRepo: repaymentRepo,
		tx:            tx,
		redis:         redis,
		config:        config,
		locks:         newLoanLocker(),
	}
}

// CreateLoan registers a new loan application in pending status. Product
// bound checks belong to the origination workflow; the core only rejects
// inputs that could never form a valid schedule.
func (s *LoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	if request.TermMonths <= 0 {
		return nil, customError.WrapInvalidParameters(fmt.Sprintf("term must be a positive number of months, got %d", request.TermMonths))
	}
	if request.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapInvalidParameters(fmt.Sprintf("amount must be positive, got %s", request.Amount))
	}
	if request.InterestRate.IsNegative() {
		return nil, customError.WrapInvalidParameters(fmt.Sprintf("interest rate must not be negative, got %s", request.InterestRate))
	}

	now := time.Now()
	loan := &domain.Loan{
		ID:           uuid.New(),
		ClientID:     request.ClientID,
		BranchID:     request.BranchID,
		Amount:       request.Amount,
		InterestRate: request.InterestRate,
		TermMonths:   request.TermMonths,
		Purpose:      request.Purpose,
		Status:       domain.LoanStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if request.ProductID != nil {
		loan.ProductID = uuid.NullUUID{UUID: *request.ProductID, Valid: true}
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return loan, nil
}

// GetLoan retrieves a single loan.
func (s *LoanService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return s.getLoan(ctx, loanID)
}

// Approve moves a pending loan to approved, recording who approved it and
// when.
func (s *LoanService) Approve(ctx context.Context, loanID, approverID uuid.UUID) (*domain.Loan, error) {
	s.locks.Lock(loanID)
	defer s.locks.Unlock(loanID)

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(loan.Status, domain.LoanStatusApproved) {
		return nil, customError.WrapInvalidTransition(loanID.String(), loan.Status, domain.LoanStatusApproved)
	}

	now := time.Now()
	from := loan.Status
	loan.Status = domain.LoanStatusApproved
	loan.ApprovedBy = uuid.NullUUID{UUID: approverID, Valid: true}
	loan.ApprovedAt = &now

	if err := s.loanRepo.Update(ctx, loan, from); err != nil {
		if errors.Is(err, customError.ErrConcurrencyConflict) {
			return nil, customError.WrapConcurrencyConflict(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return loan, nil
}

// Activate disburses an approved loan: it sets the loan dates, generates the
// repayment schedule and persists both in a single transaction. Either the
// status change and the full schedule land together, or neither does.
func (s *LoanService) Activate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, []*domain.LoanRepayment, error) {
	s.locks.Lock(loanID)
	defer s.locks.Unlock(loanID)

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	if !domain.CanTransition(loan.Status, domain.LoanStatusActive) {
		return nil, nil, customError.WrapInvalidTransition(loanID.String(), loan.Status, domain.LoanStatusActive)
	}

	start := time.Now().Truncate(24 * time.Hour)
	end := start.AddDate(0, loan.TermMonths, 0)
	disbursed := time.Now()

	repayments, err := schedule.Generate(loan.ID, loan.Amount, loan.InterestRate, loan.TermMonths, start)
	if err != nil {
		return nil, nil, customError.WrapScheduleGeneration(err)
	}

	from := loan.Status
	loan.Status = domain.LoanStatusActive
	loan.StartDate = &start
	loan.EndDate = &end
	loan.DisbursedAt = &disbursed

	// The conditional update makes a lost race against another instance fail
	// the whole transaction, so the schedule is never inserted twice.
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.loanRepo.Update(ctx, loan, from); err != nil {
			return err
		}
		return s.repaymentRepo.CreateBatch(ctx, repayments)
	})
	if err != nil {
		if errors.Is(err, customError.ErrConcurrencyConflict) {
			return nil, nil, customError.WrapConcurrencyConflict(loanID.String())
		}
		return nil, nil, customError.WrapDatabaseError(err)
	}

	s.invalidateScheduleCache(ctx, loanID)

	return loan, repayments, nil
}

// Reject declines a pending loan. Terminal.
func (s *LoanService) Reject(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return s.transition(ctx, loanID, domain.LoanStatusRejected)
}

// MarkDefaulted flags an active loan as defaulted. Operator-invoked,
// terminal.
func (s *LoanService) MarkDefaulted(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return s.transition(ctx, loanID, domain.LoanStatusDefaulted)
}

// transition performs a plain status move with no side effects beyond the
// status itself.
func (s *LoanService) transition(ctx context.Context, loanID uuid.UUID, to string) (*domain.Loan, error) {
	s.locks.Lock(loanID)
	defer s.locks.Unlock(loanID)

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(loan.Status, to) {
		return nil, customError.WrapInvalidTransition(loanID.String(), loan.Status, to)
	}

	if err := s.loanRepo.UpdateStatus(ctx, loanID, loan.Status, to); err != nil {
		if errors.Is(err, customError.ErrConcurrencyConflict) {
			return nil, customError.WrapConcurrencyConflict(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	loan.Status = to
	return loan, nil
}

// completeLocked moves an active loan to completed. Callers must already
// hold the loan lock; the conditional update still guards against writers
// outside this process.
func (s *LoanService) completeLocked(ctx context.Context, loan *domain.Loan) error {
	if !domain.CanTransition(loan.Status, domain.LoanStatusCompleted) {
		return customError.WrapInvalidTransition(loan.ID.String(), loan.Status, domain.LoanStatusCompleted)
	}
	return s.loanRepo.UpdateStatus(ctx, loan.ID, loan.Status, domain.LoanStatusCompleted)
}

// GetSchedule returns the installment schedule for a loan, served from the
// redis cache when possible.
func (s *LoanService) GetSchedule(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanRepayment, error) {
	if cached := s.readScheduleCache(ctx, loanID); cached != nil {
		return cached, nil
	}

	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	repayments, err := s.repaymentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.writeScheduleCache(ctx, loanID, repayments)

	return repayments, nil
}

// FlagDelinquentLoans defaults every active loan whose count of unpaid
// installments past the grace period has reached the configured threshold.
// Invoked by the scheduler binary. Returns how many loans were defaulted.
func (s *LoanService) FlagDelinquentLoans(ctx context.Context) (int, error) {
	loans, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusActive)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	cutoff := time.Now().AddDate(0, 0, -s.config.Business.DelinquencyGraceDays)

	defaulted := 0
	var errs []error
	for _, loan := range loans {
		overdue, err := s.repaymentRepo.CountOverdueUnpaid(ctx, loan.ID, cutoff)
		if err != nil {
			errs = append(errs, customError.WrapDatabaseError(err))
			continue
		}
		if overdue < s.config.Business.DelinquencyThreshold {
			continue
		}
		if _, err := s.MarkDefaulted(ctx, loan.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		defaulted++
	}

	return defaulted, errors.Join(errs...)
}

func (s *LoanService) getLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}

func scheduleCacheKey(loanID uuid.UUID) string {
	return fmt.Sprintf("loan:%s:schedule", loanID)
}

// The cache is best effort: read or write failures fall through to the
// database and are never surfaced to the caller.
func (s *LoanService) readScheduleCache(ctx context.Context, loanID uuid.UUID) []*domain.LoanRepayment {
	if s.redis == nil {
		return nil
	}

	payload, err := s.redis.Get(ctx, scheduleCacheKey(loanID)).Bytes()
	if err != nil {
		return nil
	}

	var repayments []*domain.LoanRepayment
	if err := json.Unmarshal(payload, &repayments); err != nil {
		return nil
	}
	return repayments
}

func (s *LoanService) writeScheduleCache(ctx context.Context, loanID uuid.UUID, repayments []*domain.LoanRepayment) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(repayments)
	if err != nil {
		return
	}
	s.redis.Set(ctx, scheduleCacheKey(loanID), payload, s.config.GetScheduleCacheTTL())
}

func (s *LoanService) invalidateScheduleCache(ctx context.Context, loanID uuid.UUID) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, scheduleCacheKey(loanID))
}
