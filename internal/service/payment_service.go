package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
	customError "github.com/DataGeek404/micro-finance-app-sub000/pkg/errors"
)

// PaymentService applies incoming payments against a loan's outstanding
// installments in due-date order. It shares the loan lock and the completed
// transition with LoanService so a payment settles atomically with respect
// to any other operation on the same loan.
type PaymentService struct {
	loans *LoanService
}

func NewPaymentService(loans *LoanService) *PaymentService {
	return &PaymentService{loans: loans}
}

// RecordPayment settles the earliest unpaid installment of an active loan.
// An overpayment cascades across subsequent installments while it fully
// covers them; a remainder smaller than the next installment is reported
// back but not persisted. Partial-installment crediting is not supported.
func (s *PaymentService) RecordPayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, method string) (*domain.PaymentResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapInvalidParameters(fmt.Sprintf("payment amount must be positive, got %s", amount))
	}
	if method == "" {
		return nil, customError.WrapInvalidParameters("payment method is required")
	}

	s.loans.locks.Lock(loanID)
	defer s.loans.locks.Unlock(loanID)

	loan, err := s.loans.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, customError.WrapLoanNotActive(loanID.String(), loan.Status)
	}

	repayments, err := s.loans.repaymentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	// The repository orders by due date then id, so the first unpaid entry
	// is the target installment. The target is always derived from
	// persisted data, never from caller-supplied selection.
	var unpaid []*domain.LoanRepayment
	for _, repayment := range repayments {
		if !repayment.IsPaid {
			unpaid = append(unpaid, repayment)
		}
	}
	if len(unpaid) == 0 {
		return nil, customError.WrapNoOutstandingInstallments(loanID.String())
	}

	target := unpaid[0]
	if amount.LessThan(target.Amount) {
		return nil, customError.WrapInsufficientAmount(target.Amount.StringFixed(2), amount.StringFixed(2))
	}

	settled := []*domain.LoanRepayment{target}
	remainder := amount.Sub(target.Amount)
	for _, next := range unpaid[1:] {
		if remainder.LessThan(next.Amount) {
			break
		}
		settled = append(settled, next)
		remainder = remainder.Sub(next.Amount)
	}

	transactionID := uuid.NewString()
	paidAt := time.Now()
	completed := false

	err = s.loans.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, installment := range settled {
			if err := s.loans.repaymentRepo.MarkPaid(ctx, installment.ID, paidAt, method, transactionID); err != nil {
				return err
			}
		}

		outstanding, err := s.loans.repaymentRepo.CountUnpaid(ctx, loanID)
		if err != nil {
			return err
		}
		if outstanding == 0 {
			completed = true
			return s.loans.completeLocked(ctx, loan)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, customError.ErrConcurrencyConflict) {
			return nil, customError.WrapConcurrencyConflict(loanID.String())
		}
		var businessErr *customError.BusinessError
		if errors.As(err, &businessErr) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	for _, installment := range settled {
		installment.IsPaid = true
		installment.PaidDate = &paidAt
		installment.PaymentMethod = &method
		installment.TransactionID = &transactionID
	}
	if completed {
		loan.Status = domain.LoanStatusCompleted
	}

	s.loans.invalidateScheduleCache(ctx, loanID)

	return &domain.PaymentResult{
		LoanID:              loanID,
		TransactionID:       transactionID,
		AmountTendered:      amount,
		AmountApplied:       amount.Sub(remainder),
		UncreditedRemainder: remainder,
		SettledInstallments: settled,
		RemainingUnpaid:     len(unpaid) - len(settled),
		LoanCompleted:       completed,
	}, nil
}
