package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus indicates the repayment state of a loan.
type LoanStatus string

const (
	LoanActive    LoanStatus = "ACTIVE"
	LoanCompleted LoanStatus = "COMPLETED"
	LoanDefaulted LoanStatus = "DEFAULTED"
)

// LoanTerms holds the immutable figures fixed at origination.
// The repayment schedule and all summary amounts are derived from these;
// they are never edited after disbursement.
type LoanTerms struct {
	Principal         decimal.Decimal `json:"principal"`         // Positive, minor-unit precision
	AnnualRatePercent decimal.Decimal `json:"annualRatePercent"` // Non-negative, e.g. 6 for 6% p.a.
	TenorMonths       int             `json:"tenorMonths"`       // Positive, capped by business rule
	MoratoriumMonths  int             `json:"moratoriumMonths"`  // Non-negative deferral before first due date
	DisbursementDate  time.Time       `json:"disbursementDate"`  // Calendar date, no time-of-day
}

// ScheduleEntry is one due date in the repayment schedule, month 1..TenorMonths.
type ScheduleEntry struct {
	Month   int       `json:"month"`
	DueDate time.Time `json:"dueDate"`
}

// AmortizationResult is derived from LoanTerms on demand. Persisted copies of
// its figures are a cache only; a recomputation is always the source of truth.
type AmortizationResult struct {
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"` // EMI, rounded to 2dp
	TotalInterest      decimal.Decimal `json:"totalInterest"`
	TotalPayment       decimal.Decimal `json:"totalPayment"` // Unrounded EMI x tenor, rounded once
	CommencementDate   time.Time       `json:"commencementDate"`
	TerminationDate    time.Time       `json:"terminationDate"`
	Schedule           []ScheduleEntry `json:"schedule"`
}

// Loan is a disbursed loan as held by the system of record.
// TotalPaid and OutstandingBalance are aggregates folded from the loan ledger;
// they are refreshed through RefreshFromLedger, never assigned ad hoc.
type Loan struct {
	LoanID             string          `json:"loanID"` // Primary Key (UUID)
	BeneficiaryRef     string          `json:"beneficiaryRef"`
	BeneficiaryName    string          `json:"beneficiaryName"`
	GroupName          string          `json:"groupName"` // Batch repayment group, empty for individual-only loans
	CurrencyCode       string          `json:"currencyCode"`
	Terms              LoanTerms       `json:"terms"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"` // Cached from AmortizationResult
	TotalInterest      decimal.Decimal `json:"totalInterest"`      // Cached from AmortizationResult
	TotalPayment       decimal.Decimal `json:"totalPayment"`       // Cached from AmortizationResult
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	Status             LoanStatus      `json:"status"`
	Notes              string          `json:"notes"`
	AuditFields
}

// RefreshFromLedger re-derives the mutable aggregates from the folded ledger
// total. Status transitions here and nowhere else: a loan is COMPLETED exactly
// when nothing remains outstanding, and DEFAULTED is sticky until completion.
func (l *Loan) RefreshFromLedger(ledgerTotal decimal.Decimal) {
	l.TotalPaid = ledgerTotal
	outstanding := l.TotalPayment.Sub(ledgerTotal)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	l.OutstandingBalance = outstanding

	switch {
	case outstanding.LessThanOrEqual(decimal.Zero):
		l.Status = LoanCompleted
	case l.Status == LoanDefaulted:
		// stays defaulted while anything is owed
	default:
		l.Status = LoanActive
	}
}
