package engine

import (
	"time"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultGraceDays is the fallback days-past-due threshold separating the
// overdue bucket from arrears when no policy value is configured.
const DefaultGraceDays = 30

// ClassifyArrears computes the point-in-time delinquency snapshot of a loan.
//
// The expected-to-date amount is monthsDue x installment; whatever cumulative
// payments have not covered is the shortfall. The shortfall sits in a single
// bucket chosen by the age of the oldest unpaid due date: younger than
// graceDays it is "overdue", at or beyond graceDays it is "arrears". Month
// counts are ceiling divisions by the installment, capped at the number of
// cycles actually past due.
//
// Completed loans return an all-zero snapshot regardless of date arithmetic.
func ClassifyArrears(schedule []domain.ScheduleEntry, installment, totalPaid decimal.Decimal, asOf time.Time, status domain.LoanStatus, graceDays int) domain.ArrearsSnapshot {
	snap := domain.ZeroArrearsSnapshot()
	if status == domain.LoanCompleted || len(schedule) == 0 || installment.LessThanOrEqual(decimal.Zero) {
		return snap
	}
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}

	monthsDue := 0
	for _, entry := range schedule {
		if entry.DueDate.After(asOf) {
			break
		}
		monthsDue++
	}
	snap.MonthsDue = monthsDue
	snap.ExpectedToDate = installment.Mul(decimal.NewFromInt(int64(monthsDue)))
	if monthsDue == 0 {
		return snap
	}

	shortfall := snap.ExpectedToDate.Sub(totalPaid)
	if shortfall.LessThanOrEqual(decimal.Zero) {
		return snap
	}
	snap.Shortfall = shortfall

	// The first month not fully covered by cumulative payments owns the
	// oldest unpaid due date. A positive shortfall guarantees it is a month
	// already due.
	monthsCovered := int(totalPaid.Div(installment).Floor().IntPart())
	firstUnpaid := monthsCovered + 1

	oldestUnpaidDue := schedule[firstUnpaid-1].DueDate
	snap.DaysOverdue = daysBetween(oldestUnpaidDue, asOf)

	cyclesPastDue := monthsDue - monthsCovered
	months := int(shortfall.Div(installment).Ceil().IntPart())
	if months > cyclesPastDue {
		months = cyclesPastDue
	}

	if snap.DaysOverdue < graceDays {
		snap.OverdueAmount = shortfall
		snap.OverdueMonths = months
	} else {
		snap.ArrearsAmount = shortfall
		snap.MonthsInArrears = months
	}
	return snap
}

// daysBetween returns whole days from a to b. Callers pass calendar dates
// without time-of-day, so the division is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
