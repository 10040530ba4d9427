// Package engine holds the pure repayment arithmetic: schedule derivation,
// delinquency classification, payment allocation and statement matching.
// Every function is deterministic over its inputs; none reads the clock,
// performs I/O, or touches shared state, so a recomputation always reproduces
// the figures previously shown to an officer.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidLoanTerms indicates loan terms that fail the preconditions of the
// amortization formula or the business tenor cap.
var ErrInvalidLoanTerms = errors.New("invalid loan terms")

const monthsPerYear = 12

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ValidateTerms checks loan terms against the business rules enforced before
// any calculation. maxTenorMonths is the configured business cap.
func ValidateTerms(terms domain.LoanTerms, maxTenorMonths int) error {
	if terms.Principal.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidLoanTerms)
	}
	if terms.TenorMonths <= 0 {
		return fmt.Errorf("%w: tenor must be positive", ErrInvalidLoanTerms)
	}
	if maxTenorMonths > 0 && terms.TenorMonths > maxTenorMonths {
		return fmt.Errorf("%w: tenor %d exceeds maximum of %d months", ErrInvalidLoanTerms, terms.TenorMonths, maxTenorMonths)
	}
	if terms.AnnualRatePercent.IsNegative() {
		return fmt.Errorf("%w: annual rate must not be negative", ErrInvalidLoanTerms)
	}
	if terms.MoratoriumMonths < 0 {
		return fmt.Errorf("%w: moratorium must not be negative", ErrInvalidLoanTerms)
	}
	return nil
}

// ComputeAmortization derives the fixed-installment schedule and summary
// figures from loan terms.
//
// The installment uses the standard reducing-balance annuity with monthly
// rate r = annual/100/12, or a straight principal/tenor split when r is zero.
// Intermediate figures stay at full decimal precision; rounding to the cent
// happens once, on the result fields. TotalPayment is the unrounded
// installment times the tenor, not the sum of rounded per-month figures: the
// schedule exists for due-date bookkeeping, never for re-deriving totals.
//
// The moratorium shifts the first due date forward without accruing interest
// or recapitalizing. This is the mandated business simplification, not an
// oversight.
func ComputeAmortization(terms domain.LoanTerms) (domain.AmortizationResult, error) {
	if terms.Principal.LessThanOrEqual(decimal.Zero) {
		return domain.AmortizationResult{}, fmt.Errorf("%w: principal must be positive", ErrInvalidLoanTerms)
	}
	if terms.TenorMonths <= 0 {
		return domain.AmortizationResult{}, fmt.Errorf("%w: tenor must be positive", ErrInvalidLoanTerms)
	}
	if terms.AnnualRatePercent.IsNegative() {
		return domain.AmortizationResult{}, fmt.Errorf("%w: annual rate must not be negative", ErrInvalidLoanTerms)
	}
	if terms.MoratoriumMonths < 0 {
		return domain.AmortizationResult{}, fmt.Errorf("%w: moratorium must not be negative", ErrInvalidLoanTerms)
	}

	n := decimal.NewFromInt(int64(terms.TenorMonths))

	var installment decimal.Decimal
	if terms.AnnualRatePercent.IsZero() {
		installment = terms.Principal.Div(n)
	} else {
		r := terms.AnnualRatePercent.Div(hundred).Div(decimal.NewFromInt(monthsPerYear))
		compound := one.Add(r).Pow(n)
		installment = terms.Principal.Mul(r).Mul(compound).Div(compound.Sub(one))
	}

	totalPayment := installment.Mul(n).Round(2)

	commencement := addMonthsClamped(terms.DisbursementDate, terms.MoratoriumMonths)
	schedule := make([]domain.ScheduleEntry, terms.TenorMonths)
	for i := range schedule {
		schedule[i] = domain.ScheduleEntry{
			Month: i + 1,
			// Anchor every addition on the disbursement date so a clamped
			// month (Jan 31 -> Feb 28) does not drag later due dates down.
			DueDate: addMonthsClamped(terms.DisbursementDate, terms.MoratoriumMonths+i),
		}
	}

	return domain.AmortizationResult{
		MonthlyInstallment: installment.Round(2),
		TotalPayment:       totalPayment,
		TotalInterest:      totalPayment.Sub(terms.Principal),
		CommencementDate:   commencement,
		TerminationDate:    schedule[len(schedule)-1].DueDate,
		Schedule:           schedule,
	}, nil
}

// addMonthsClamped adds calendar months preserving the day-of-month where the
// target month has it, clamping to the last valid day otherwise.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
