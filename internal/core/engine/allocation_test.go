package engine_test

import (
	"testing"

	"github.com/loanworks/loanbook_app/internal/core/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumAllocations(allocations []engine.Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	return total
}

func TestAllocatePayment_TwoMonthSplit(t *testing.T) {
	installment := decimal.RequireFromString("76042.78")

	allocations, err := engine.AllocatePayment(5, decimal.NewFromInt(150000), installment, 36)
	require.NoError(t, err)

	require.Len(t, allocations, 2)
	assert.Equal(t, 5, allocations[0].Month)
	assert.Equal(t, "76042.78", allocations[0].Amount.StringFixed(2))
	assert.False(t, allocations[0].Advance)
	assert.Equal(t, 6, allocations[1].Month)
	assert.Equal(t, "73957.22", allocations[1].Amount.StringFixed(2))
	assert.True(t, allocations[1].Advance)
	assert.True(t, sumAllocations(allocations).Equal(decimal.NewFromInt(150000)))
}

func TestAllocatePayment_SingleMonth(t *testing.T) {
	installment := decimal.NewFromInt(10000)

	allocations, err := engine.AllocatePayment(3, decimal.NewFromInt(4000), installment, 12)
	require.NoError(t, err)

	require.Len(t, allocations, 1)
	assert.Equal(t, 3, allocations[0].Month)
	assert.Equal(t, "4000", allocations[0].Amount.String())
	assert.False(t, allocations[0].Advance)
}

func TestAllocatePayment_OverflowFoldsIntoLastMonth(t *testing.T) {
	installment := decimal.NewFromInt(10000)

	// Paying 35000 from month 11 of a 12-month loan: months 11 and 12 take an
	// installment each, the 15000 past maturity folds into month 12.
	allocations, err := engine.AllocatePayment(11, decimal.NewFromInt(35000), installment, 12)
	require.NoError(t, err)

	require.Len(t, allocations, 2)
	assert.Equal(t, 11, allocations[0].Month)
	assert.Equal(t, "10000", allocations[0].Amount.String())
	assert.Equal(t, 12, allocations[1].Month)
	assert.Equal(t, "25000", allocations[1].Amount.String())
	assert.True(t, sumAllocations(allocations).Equal(decimal.NewFromInt(35000)))
}

func TestAllocatePayment_ConservationAcrossCases(t *testing.T) {
	installment := decimal.RequireFromString("76054.84")
	tests := []struct {
		name       string
		startMonth int
		amount     string
	}{
		{"exact single installment", 1, "76054.84"},
		{"partial cent amounts", 7, "100000.01"},
		{"many months", 1, "500000.00"},
		{"past tenor overflow", 35, "300000.00"},
		{"tiny amount", 12, "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			allocations, err := engine.AllocatePayment(tt.startMonth, amount, installment, 36)
			require.NoError(t, err)
			require.NotEmpty(t, allocations)
			assert.True(t, sumAllocations(allocations).Equal(amount),
				"allocations must sum to the paid amount cent for cent")
			for i, a := range allocations {
				assert.Equal(t, tt.startMonth+i, a.Month)
				assert.Equal(t, i > 0, a.Advance)
			}
		})
	}
}

func TestAllocatePayment_Invalid(t *testing.T) {
	installment := decimal.NewFromInt(10000)

	_, err := engine.AllocatePayment(1, decimal.Zero, installment, 12)
	assert.ErrorIs(t, err, engine.ErrInvalidPaymentAmount)

	_, err = engine.AllocatePayment(1, decimal.NewFromInt(-50), installment, 12)
	assert.ErrorIs(t, err, engine.ErrInvalidPaymentAmount)

	_, err = engine.AllocatePayment(0, decimal.NewFromInt(100), installment, 12)
	assert.ErrorIs(t, err, engine.ErrInvalidPaymentAmount)

	_, err = engine.AllocatePayment(13, decimal.NewFromInt(100), installment, 12)
	assert.ErrorIs(t, err, engine.ErrInvalidPaymentAmount)
}
