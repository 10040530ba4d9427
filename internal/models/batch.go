package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchRepayment represents one group settlement header row.
type BatchRepayment struct {
	BatchID             string          `db:"batch_id"`
	GroupName           string          `db:"group_name"`
	SettlementReference string          `db:"settlement_reference"`
	ExpectedAmount      decimal.Decimal `db:"expected_amount"`
	ActualAmount        decimal.Decimal `db:"actual_amount"`
	DatePaid            time.Time       `db:"date_paid"`
	SuccessCount        int             `db:"success_count"`
	FailureCount        int             `db:"failure_count"`
	Reversed            bool            `db:"reversed"`
	ReceiptRef          string          `db:"receipt_ref"`
	Notes               string          `db:"notes"`
	AuditFields
}

// BatchMemberCredit records the distribution outcome for one member of a batch.
// Excluded and failed members keep a row so the batch remains auditable.
type BatchMemberCredit struct {
	CreditID       string          `db:"credit_id"`
	BatchID        string          `db:"batch_id"`
	LoanID         string          `db:"loan_id"`
	BeneficiaryRef string          `db:"beneficiary_ref"`
	Amount         decimal.Decimal `db:"amount"`
	Excluded       bool            `db:"excluded"`
	Failed         bool            `db:"failed"`
	FailureReason  string          `db:"failure_reason"`
}
