package domain

import (
	"github.com/shopspring/decimal"

	"github.com/DataGeek404/micro-finance-app-sub000/pkg/amortization"
)

// AmortizationRequest asks for a quote schedule for a hypothetical loan.
// It never touches persisted loans.
type AmortizationRequest struct {
	Principal         decimal.Decimal `json:"principal" validate:"required,gt=0"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent" validate:"gte=0"`
	TermMonths        int             `json:"term_months" validate:"required,gt=0"`
	Method            string          `json:"method" validate:"required,oneof=flat reducing_balance"`
}

type AmortizationResponse struct {
	Method   string             `json:"method"`
	Schedule []amortization.Row `json:"schedule"`
}
