package amortization

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	customError "github.com/DataGeek404/micro-finance-app-sub000/pkg/errors"
)

func TestComputeFlat(t *testing.T) {
	tests := []struct {
		name             string
		principal        decimal.Decimal
		annualRate       decimal.Decimal
		termMonths       int
		expectedPayment  decimal.Decimal
		expectedInterest decimal.Decimal // per period, except possibly the last
	}{
		{
			name:             "12000 at 12% over 12 months",
			principal:        decimal.NewFromInt(12000),
			annualRate:       decimal.NewFromInt(12),
			termMonths:       12,
			expectedPayment:  decimal.NewFromInt(1120),
			expectedInterest: decimal.NewFromInt(120),
		},
		{
			name:             "zero interest rate",
			principal:        decimal.NewFromInt(1200),
			annualRate:       decimal.Zero,
			termMonths:       12,
			expectedPayment:  decimal.NewFromInt(100),
			expectedInterest: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Compute(tt.principal, tt.annualRate, tt.termMonths, MethodFlat)

			assert.NoError(t, err)
			assert.Len(t, rows, tt.termMonths)

			totalPaid := decimal.Zero
			for i, row := range rows {
				assert.Equal(t, i+1, row.Period)
				assert.True(t, row.Payment.Equal(tt.expectedPayment),
					"period %d payment: expected %s, got %s", row.Period, tt.expectedPayment, row.Payment)
				assert.True(t, row.InterestPortion.Equal(tt.expectedInterest))
				totalPaid = totalPaid.Add(row.Payment)
			}

			assert.True(t, rows[tt.termMonths-1].ClosingBalance.IsZero(),
				"final closing balance must be zero, got %s", rows[tt.termMonths-1].ClosingBalance)

			term := decimal.NewFromInt(int64(tt.termMonths))
			expectedTotal := tt.principal.Add(tt.expectedInterest.Mul(term))
			assert.True(t, totalPaid.Equal(expectedTotal),
				"total paid: expected %s, got %s", expectedTotal, totalPaid)
		})
	}
}

func TestComputeFlatRoundingAbsorbedByLastRow(t *testing.T) {
	// 1000 / 3 does not divide evenly; the last row picks up the cent.
	rows, err := Compute(decimal.NewFromInt(1000), decimal.Zero, 3, MethodFlat)

	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.True(t, rows[0].Payment.Equal(decimal.NewFromFloat(333.33)))
	assert.True(t, rows[1].Payment.Equal(decimal.NewFromFloat(333.33)))
	assert.True(t, rows[2].Payment.Equal(decimal.NewFromFloat(333.34)))
	assert.True(t, rows[2].ClosingBalance.IsZero())
}

func TestComputeFlatTinyPrincipalStaysNonNegative(t *testing.T) {
	rows, err := Compute(decimal.NewFromFloat(1.00), decimal.Zero, 144, MethodFlat)

	assert.NoError(t, err)
	assert.Len(t, rows, 144)

	totalPaid := decimal.Zero
	for i, row := range rows {
		assert.False(t, row.Payment.IsNegative(),
			"period %d payment must not be negative, got %s", i+1, row.Payment)
		assert.False(t, row.ClosingBalance.IsNegative())
		totalPaid = totalPaid.Add(row.Payment)
	}
	assert.True(t, totalPaid.Equal(decimal.NewFromFloat(1.00)))
	assert.True(t, rows[143].ClosingBalance.IsZero())
}

func TestComputeReducingBalance(t *testing.T) {
	principal := decimal.NewFromInt(12000)
	rate := decimal.NewFromInt(12)
	termMonths := 12

	rows, err := Compute(principal, rate, termMonths, MethodReducingBalance)

	assert.NoError(t, err)
	assert.Len(t, rows, termMonths)

	// First period interest is charged on the full principal: 12000 * 1% = 120.
	assert.True(t, rows[0].InterestPortion.Equal(decimal.NewFromInt(120)))

	totalPrincipal := decimal.Zero
	totalInterest := decimal.Zero
	totalPaid := decimal.Zero
	for i, row := range rows {
		totalPrincipal = totalPrincipal.Add(row.PrincipalPortion)
		totalInterest = totalInterest.Add(row.InterestPortion)
		totalPaid = totalPaid.Add(row.Payment)

		// Interest shrinks as the balance declines.
		if i > 0 {
			assert.True(t, row.InterestPortion.LessThanOrEqual(rows[i-1].InterestPortion),
				"period %d interest %s should not exceed period %d interest %s",
				i+1, row.InterestPortion, i, rows[i-1].InterestPortion)
		}
	}

	assert.True(t, rows[termMonths-1].ClosingBalance.IsZero())
	assert.True(t, totalPrincipal.Equal(principal),
		"principal portions must sum to the principal, got %s", totalPrincipal)
	assert.True(t, totalPaid.Equal(principal.Add(totalInterest)),
		"payments must equal principal plus interest: %s vs %s", totalPaid, principal.Add(totalInterest))
}

func TestComputeReducingBalanceZeroRate(t *testing.T) {
	rows, err := Compute(decimal.NewFromInt(1200), decimal.Zero, 12, MethodReducingBalance)

	assert.NoError(t, err)
	assert.Len(t, rows, 12)
	for _, row := range rows {
		assert.True(t, row.InterestPortion.IsZero())
	}
	assert.True(t, rows[11].ClosingBalance.IsZero())
}

func TestComputeInvalidParameters(t *testing.T) {
	tests := []struct {
		name       string
		principal  decimal.Decimal
		annualRate decimal.Decimal
		termMonths int
		method     Method
	}{
		{"zero term", decimal.NewFromInt(1000), decimal.NewFromInt(10), 0, MethodFlat},
		{"negative term", decimal.NewFromInt(1000), decimal.NewFromInt(10), -3, MethodFlat},
		{"zero principal", decimal.Zero, decimal.NewFromInt(10), 12, MethodFlat},
		{"negative principal", decimal.NewFromInt(-1000), decimal.NewFromInt(10), 12, MethodReducingBalance},
		{"negative rate", decimal.NewFromInt(1000), decimal.NewFromInt(-1), 12, MethodReducingBalance},
		{"unknown method", decimal.NewFromInt(1000), decimal.NewFromInt(10), 12, Method("compound")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Compute(tt.principal, tt.annualRate, tt.termMonths, tt.method)

			assert.Nil(t, rows)
			assert.ErrorIs(t, err, customError.ErrInvalidParameters)
		})
	}
}
