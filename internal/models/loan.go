package models

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

// Loan represents a disbursed loan row. The installment and total columns are
// caches of the amortization derivation; the schedule itself is recomputed from
// the terms and never stored.
type Loan struct {
	LoanID             string          `db:"loan_id"`
	BeneficiaryRef     string          `db:"beneficiary_ref"`
	BeneficiaryName    string          `db:"beneficiary_name"`
	GroupName          string          `db:"group_name"`
	CurrencyCode       string          `db:"currency_code"`
	Principal          decimal.Decimal `db:"principal"`
	AnnualRatePercent  decimal.Decimal `db:"annual_rate_percent"`
	TenorMonths        int             `db:"tenor_months"`
	MoratoriumMonths   int             `db:"moratorium_months"`
	DisbursementDate   time.Time       `db:"disbursement_date"`
	MonthlyInstallment decimal.Decimal `db:"monthly_installment"`
	TotalInterest      decimal.Decimal `db:"total_interest"`
	TotalPayment       decimal.Decimal `db:"total_payment"`
	TotalPaid          decimal.Decimal `db:"total_paid"`
	OutstandingBalance decimal.Decimal `db:"outstanding_balance"`
	Status             LoanStatus      `db:"status"`
	Notes              string          `db:"notes"`
	AuditFields
}
