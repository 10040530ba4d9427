package engine_test

import (
	"testing"
	"time"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/core/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedTerms() domain.LoanTerms {
	return domain.LoanTerms{
		Principal:         decimal.NewFromInt(2500000),
		AnnualRatePercent: decimal.NewFromInt(6),
		TenorMonths:       36,
		MoratoriumMonths:  1,
		DisbursementDate:  date(2024, time.March, 15),
	}
}

func TestComputeAmortization_AnnuityFigures(t *testing.T) {
	result, err := engine.ComputeAmortization(seedTerms())
	require.NoError(t, err)

	assert.Equal(t, "76054.84", result.MonthlyInstallment.StringFixed(2))
	assert.Equal(t, "2737974.37", result.TotalPayment.StringFixed(2))
	assert.Equal(t, "237974.37", result.TotalInterest.StringFixed(2))
	assert.True(t, result.TotalInterest.Equal(result.TotalPayment.Sub(decimal.NewFromInt(2500000))))
}

func TestComputeAmortization_MoratoriumShiftsDatesOnly(t *testing.T) {
	withMoratorium := seedTerms()
	noMoratorium := seedTerms()
	noMoratorium.MoratoriumMonths = 0

	a, err := engine.ComputeAmortization(withMoratorium)
	require.NoError(t, err)
	b, err := engine.ComputeAmortization(noMoratorium)
	require.NoError(t, err)

	// One month deferral, same money.
	assert.Equal(t, date(2024, time.April, 15), a.CommencementDate)
	assert.Equal(t, date(2024, time.March, 15), b.CommencementDate)
	assert.True(t, a.MonthlyInstallment.Equal(b.MonthlyInstallment))
	assert.True(t, a.TotalPayment.Equal(b.TotalPayment))
	assert.True(t, a.TotalInterest.Equal(b.TotalInterest))
}

func TestComputeAmortization_ScheduleShape(t *testing.T) {
	result, err := engine.ComputeAmortization(seedTerms())
	require.NoError(t, err)

	require.Len(t, result.Schedule, 36)
	assert.Equal(t, date(2024, time.April, 15), result.Schedule[0].DueDate)
	assert.Equal(t, result.Schedule[35].DueDate, result.TerminationDate)
	for i, entry := range result.Schedule {
		assert.Equal(t, i+1, entry.Month)
		if i > 0 {
			assert.True(t, entry.DueDate.After(result.Schedule[i-1].DueDate),
				"due dates must be strictly increasing at month %d", entry.Month)
		}
	}
}

func TestComputeAmortization_ZeroRate(t *testing.T) {
	terms := domain.LoanTerms{
		Principal:         decimal.NewFromInt(360000),
		AnnualRatePercent: decimal.Zero,
		TenorMonths:       36,
		DisbursementDate:  date(2024, time.January, 1),
	}
	result, err := engine.ComputeAmortization(terms)
	require.NoError(t, err)

	assert.Equal(t, "10000.00", result.MonthlyInstallment.StringFixed(2))
	assert.True(t, result.TotalPayment.Equal(terms.Principal),
		"zero-rate total payment must equal the principal exactly")
	assert.True(t, result.TotalInterest.IsZero())
}

func TestComputeAmortization_DayOfMonthClamping(t *testing.T) {
	terms := domain.LoanTerms{
		Principal:         decimal.NewFromInt(100000),
		AnnualRatePercent: decimal.NewFromInt(12),
		TenorMonths:       4,
		DisbursementDate:  date(2024, time.January, 31),
	}
	result, err := engine.ComputeAmortization(terms)
	require.NoError(t, err)

	// Jan 31 anchors each month: Feb clamps to the leap-year 29th, months
	// with 31 days recover the original day.
	assert.Equal(t, date(2024, time.January, 31), result.Schedule[0].DueDate)
	assert.Equal(t, date(2024, time.February, 29), result.Schedule[1].DueDate)
	assert.Equal(t, date(2024, time.March, 31), result.Schedule[2].DueDate)
	assert.Equal(t, date(2024, time.April, 30), result.Schedule[3].DueDate)
}

func TestComputeAmortization_Idempotent(t *testing.T) {
	first, err := engine.ComputeAmortization(seedTerms())
	require.NoError(t, err)
	second, err := engine.ComputeAmortization(seedTerms())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeAmortization_InvalidTerms(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.LoanTerms)
	}{
		{"zero principal", func(terms *domain.LoanTerms) { terms.Principal = decimal.Zero }},
		{"negative principal", func(terms *domain.LoanTerms) { terms.Principal = decimal.NewFromInt(-1) }},
		{"zero tenor", func(terms *domain.LoanTerms) { terms.TenorMonths = 0 }},
		{"negative rate", func(terms *domain.LoanTerms) { terms.AnnualRatePercent = decimal.NewFromInt(-5) }},
		{"negative moratorium", func(terms *domain.LoanTerms) { terms.MoratoriumMonths = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := seedTerms()
			tt.mutate(&terms)
			_, err := engine.ComputeAmortization(terms)
			assert.ErrorIs(t, err, engine.ErrInvalidLoanTerms)
		})
	}
}

func TestValidateTerms_TenorCap(t *testing.T) {
	terms := seedTerms()
	assert.NoError(t, engine.ValidateTerms(terms, 60))

	terms.TenorMonths = 61
	assert.ErrorIs(t, engine.ValidateTerms(terms, 60), engine.ErrInvalidLoanTerms)
}
