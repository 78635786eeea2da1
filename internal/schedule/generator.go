package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
	customError "github.com/DataGeek404/micro-finance-app-sub000/pkg/errors"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Generate materializes the repayment schedule for a loan being activated.
// Interest is flat: computed once on the principal for the whole term and
// spread evenly across installments, due monthly starting one month after
// startDate. The final installment absorbs rounding drift so the schedule
// sums exactly to principal plus total interest.
func Generate(loanID uuid.UUID, principal, annualRatePercent decimal.Decimal, termMonths int, startDate time.Time) ([]*domain.LoanRepayment, error) {
	if termMonths <= 0 {
		return nil, customError.WrapInvalidParameters(fmt.Sprintf("term must be a positive number of months, got %d", termMonths))
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, customError.WrapInvalidParameters(fmt.Sprintf("principal must be positive, got %s", principal))
	}
	if annualRatePercent.IsNegative() {
		return nil, customError.WrapInvalidParameters(fmt.Sprintf("interest rate must not be negative, got %s", annualRatePercent))
	}

	term := decimal.NewFromInt(int64(termMonths))
	totalInterest := principal.Mul(annualRatePercent).Div(hundred).Mul(term).Div(twelve).Round(2)
	totalAmount := principal.Add(totalInterest)

	// Rounded down so the drift absorbed by the final installment is always
	// non-negative, even for tiny principals over long terms.
	monthlyPayment := totalAmount.Div(term).RoundDown(2)

	repayments := make([]*domain.LoanRepayment, 0, termMonths)
	for i := 1; i <= termMonths; i++ {
		amount := monthlyPayment
		if i == termMonths {
			amount = totalAmount.Sub(monthlyPayment.Mul(decimal.NewFromInt(int64(termMonths - 1))))
		}

		repayments = append(repayments, &domain.LoanRepayment{
			ID:      uuid.New(),
			LoanID:  loanID,
			Amount:  amount,
			DueDate: startDate.AddDate(0, i, 0),
		})
	}

	return repayments, nil
}
