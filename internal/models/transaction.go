package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSource names the channel a repayment arrived through.
type TransactionSource string

const (
	SourceIndividual TransactionSource = "INDIVIDUAL"
	SourceBatch      TransactionSource = "BATCH"
)

// Transaction represents one allocated repayment row. A single payment that
// covers several installment months produces several rows sharing the
// settlement reference.
type Transaction struct {
	TransactionID       string            `db:"transaction_id"`
	LoanID              string            `db:"loan_id"`
	BeneficiaryRef      string            `db:"beneficiary_ref"`
	Amount              decimal.Decimal   `db:"amount"`
	SettlementReference string            `db:"settlement_reference"`
	DatePaid            time.Time         `db:"date_paid"`
	MonthFor            int               `db:"month_for"`
	Advance             bool              `db:"advance"`
	Source              TransactionSource `db:"source"`
	ReceiptRef          string            `db:"receipt_ref"`
	Notes               string            `db:"notes"`
	Reversed            bool              `db:"reversed"`
	AuditFields
}
