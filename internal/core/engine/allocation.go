package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidPaymentAmount indicates a non-positive payment amount or a
// starting month outside the loan's tenor.
var ErrInvalidPaymentAmount = errors.New("invalid payment amount")

// Allocation is one installment-month's share of a payment. Advance marks
// every allocation after the first of a multi-month payment so each stays
// individually traceable and reversible.
type Allocation struct {
	Month   int
	Amount  decimal.Decimal
	Advance bool
}

// AllocatePayment spreads a payment across schedule months, walking forward
// from startMonth and consuming up to one installment per month.
//
// When the final schedule month is reached with balance still unallocated,
// the remainder is folded into the last allocation instead of inventing a
// month beyond the tenor. The same fold absorbs any rounding residual, so the
// returned amounts always sum to totalAmountPaid cent for cent: no currency
// is created or destroyed by rounding.
func AllocatePayment(startMonth int, totalAmountPaid, installment decimal.Decimal, tenorMonths int) ([]Allocation, error) {
	if totalAmountPaid.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPaymentAmount)
	}
	if startMonth < 1 || startMonth > tenorMonths {
		return nil, fmt.Errorf("%w: start month %d outside [1, %d]", ErrInvalidPaymentAmount, startMonth, tenorMonths)
	}
	if installment.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: installment must be positive", ErrInvalidPaymentAmount)
	}

	allocations := make([]Allocation, 0, 4)
	remaining := totalAmountPaid
	for month := startMonth; month <= tenorMonths && remaining.IsPositive(); month++ {
		take := decimal.Min(remaining, installment).Round(2)
		allocations = append(allocations, Allocation{
			Month:   month,
			Amount:  take,
			Advance: month != startMonth,
		})
		remaining = remaining.Sub(take)
	}

	// Conservation: the last allocation is whatever the earlier ones left,
	// covering both the past-tenor overflow and any rounding residual.
	allocated := decimal.Zero
	for i := 0; i < len(allocations)-1; i++ {
		allocated = allocated.Add(allocations[i].Amount)
	}
	allocations[len(allocations)-1].Amount = totalAmountPaid.Sub(allocated)

	return allocations, nil
}
