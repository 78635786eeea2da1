package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"

	customError "github.com/DataGeek404/micro-finance-app-sub000/pkg/errors"
)

// Method selects the interest model used for a quote.
type Method string

const (
	MethodFlat            Method = "flat"
	MethodReducingBalance Method = "reducing_balance"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Row is one period of an amortization schedule.
type Row struct {
	Period           int             `json:"period"`
	Payment          decimal.Decimal `json:"payment"`
	PrincipalPortion decimal.Decimal `json:"principal_portion"`
	InterestPortion  decimal.Decimal `json:"interest_portion"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
}

// Compute produces a full installment schedule for a hypothetical loan. It
// never reads or writes persisted state, so it is safe for client-facing
// quoting. annualRatePercent is an annual percentage rate, e.g. 12 for 12%.
func Compute(principal, annualRatePercent decimal.Decimal, termMonths int, method Method) ([]Row, error) {
	if err := validate(principal, annualRatePercent, termMonths); err != nil {
		return nil, err
	}

	switch method {
	case MethodFlat:
		return computeFlat(principal, annualRatePercent, termMonths), nil
	case MethodReducingBalance:
		return computeReducingBalance(principal, annualRatePercent, termMonths), nil
	default:
		return nil, customError.WrapInvalidParameters(fmt.Sprintf("unknown amortization method %q", method))
	}
}

func validate(principal, annualRatePercent decimal.Decimal, termMonths int) error {
	if termMonths <= 0 {
		return customError.WrapInvalidParameters(fmt.Sprintf("term must be a positive number of months, got %d", termMonths))
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return customError.WrapInvalidParameters(fmt.Sprintf("principal must be positive, got %s", principal))
	}
	if annualRatePercent.IsNegative() {
		return customError.WrapInvalidParameters(fmt.Sprintf("interest rate must not be negative, got %s", annualRatePercent))
	}
	return nil
}

// computeFlat spreads interest computed once on the original principal evenly
// across all installments. The last row absorbs any rounding drift so the
// closing balance lands exactly on zero.
func computeFlat(principal, annualRatePercent decimal.Decimal, termMonths int) []Row {
	term := decimal.NewFromInt(int64(termMonths))
	totalInterest := principal.Mul(annualRatePercent).Div(hundred).Mul(term).Div(twelve).Round(2)

	// Rounded down so the final row absorbs a strictly non-negative
	// remainder.
	principalPortion := principal.Div(term).RoundDown(2)
	interestPortion := totalInterest.Div(term).RoundDown(2)

	rows := make([]Row, 0, termMonths)
	balance := principal
	interestLeft := totalInterest

	for period := 1; period <= termMonths; period++ {
		pp := principalPortion
		ip := interestPortion
		if period == termMonths {
			pp = balance
			ip = interestLeft
		}

		balance = balance.Sub(pp)
		interestLeft = interestLeft.Sub(ip)

		rows = append(rows, Row{
			Period:           period,
			Payment:          pp.Add(ip),
			PrincipalPortion: pp,
			InterestPortion:  ip,
			ClosingBalance:   balance,
		})
	}

	return rows
}

// computeReducingBalance uses the standard annuity formula
// payment = P * r * (1+r)^n / ((1+r)^n - 1) with interest charged each period
// on the remaining balance.
func computeReducingBalance(principal, annualRatePercent decimal.Decimal, termMonths int) []Row {
	term := decimal.NewFromInt(int64(termMonths))
	monthlyRate := annualRatePercent.Div(hundred).Div(twelve)

	var payment decimal.Decimal
	if monthlyRate.IsZero() {
		payment = principal.Div(term).Round(2)
	} else {
		factor := one.Add(monthlyRate).Pow(term)
		payment = principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(one)).Round(2)
	}

	rows := make([]Row, 0, termMonths)
	balance := principal

	for period := 1; period <= termMonths; period++ {
		interest := balance.Mul(monthlyRate).Round(2)
		principalPart := payment.Sub(interest)
		rowPayment := payment

		// Final period clears the remaining balance exactly, absorbing
		// the rounding accumulated across earlier periods.
		if period == termMonths {
			principalPart = balance
			rowPayment = principalPart.Add(interest)
		}

		balance = balance.Sub(principalPart)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		rows = append(rows, Row{
			Period:           period,
			Payment:          rowPayment,
			PrincipalPortion: principalPart,
			InterestPortion:  interest,
			ClosingBalance:   balance,
		})
	}

	return rows
}
