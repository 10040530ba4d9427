package domain

import "github.com/shopspring/decimal"

// ArrearsSnapshot is the point-in-time delinquency classification of a loan.
// It is recomputed on every read from the current paid total and the as-of
// date, and must never be persisted past a single read.
//
// The shortfall lives in exactly one of two buckets: while the oldest unpaid
// due date is younger than the grace threshold it is all "overdue"; once it
// ages past the threshold it reclassifies wholesale as "arrears".
type ArrearsSnapshot struct {
	MonthsDue       int             `json:"monthsDue"`      // Schedule entries due on or before the as-of date
	ExpectedToDate  decimal.Decimal `json:"expectedToDate"` // MonthsDue x installment
	Shortfall       decimal.Decimal `json:"shortfall"`      // max(0, expected - paid)
	OverdueAmount   decimal.Decimal `json:"overdueAmount"`
	OverdueMonths   int             `json:"overdueMonths"`
	ArrearsAmount   decimal.Decimal `json:"arrearsAmount"`
	MonthsInArrears int             `json:"monthsInArrears"`
	DaysOverdue     int             `json:"daysOverdue"` // Age of the oldest unpaid due date
}

// ZeroArrearsSnapshot returns a snapshot with every amount at zero.
func ZeroArrearsSnapshot() ArrearsSnapshot {
	return ArrearsSnapshot{
		ExpectedToDate: decimal.Zero,
		Shortfall:      decimal.Zero,
		OverdueAmount:  decimal.Zero,
		ArrearsAmount:  decimal.Zero,
	}
}
