package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BatchMember is one loan in a repayment group: its reference and the
// installment it owes this cycle.
type BatchMember struct {
	Ref         string
	Installment decimal.Decimal
}

// BatchCredit is the amount a member is credited out of a batch settlement.
// Excluded members are reported explicitly with a zero amount so downstream
// reporting can show who received nothing.
type BatchCredit struct {
	Ref      string
	Amount   decimal.Decimal
	Excluded bool
}

// AllocateBatch splits one settlement receipt across the included members of
// a group.
//
// Paid in full (or over), every included member is credited exactly its own
// installment; the excess beyond expected is a business condition handled
// outside this allocator and is not auto-distributed. On a shortfall, each
// included member gets round(installment x actual/expected, 2), with the
// rounding residual folded into the last included member so the credits sum
// to the actual amount paid.
func AllocateBatch(members []BatchMember, included map[string]bool, actualAmountPaid, expectedAmount decimal.Decimal) ([]BatchCredit, error) {
	if actualAmountPaid.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPaymentAmount)
	}
	if expectedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: expected amount must be positive", ErrInvalidPaymentAmount)
	}

	lastIncluded := -1
	for i, m := range members {
		if included[m.Ref] {
			lastIncluded = i
		}
	}
	if lastIncluded < 0 {
		return nil, fmt.Errorf("%w: no members included in the batch", ErrInvalidPaymentAmount)
	}

	shortfall := actualAmountPaid.LessThan(expectedAmount)
	var ratio decimal.Decimal
	if shortfall {
		ratio = actualAmountPaid.Div(expectedAmount)
	}

	credits := make([]BatchCredit, 0, len(members))
	creditedSoFar := decimal.Zero
	for i, m := range members {
		if !included[m.Ref] {
			credits = append(credits, BatchCredit{Ref: m.Ref, Amount: decimal.Zero, Excluded: true})
			continue
		}
		var amount decimal.Decimal
		switch {
		case !shortfall:
			amount = m.Installment
		case i == lastIncluded:
			amount = actualAmountPaid.Sub(creditedSoFar)
		default:
			amount = m.Installment.Mul(ratio).Round(2)
			creditedSoFar = creditedSoFar.Add(amount)
		}
		credits = append(credits, BatchCredit{Ref: m.Ref, Amount: amount})
	}
	return credits, nil
}
