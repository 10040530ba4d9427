package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSource distinguishes individually recorded repayments from
// credits produced by a batch settlement.
type TransactionSource string

const (
	SourceIndividual TransactionSource = "INDIVIDUAL"
	SourceBatch      TransactionSource = "BATCH"
)

// Transaction is one installment-month credit against a loan. A single payment
// covering several months produces several transactions, one per month, each
// carrying its own settlement reference so it stays individually reversible.
type Transaction struct {
	TransactionID       string            `json:"transactionID"` // Primary Key (UUID)
	LoanID              string            `json:"loanID"`        // FK -> Loan.loanID
	BeneficiaryRef      string            `json:"beneficiaryRef"`
	Amount              decimal.Decimal   `json:"amount"`              // Positive
	SettlementReference string            `json:"settlementReference"` // Globally unique across individual and batch payments
	DatePaid            time.Time         `json:"datePaid"`
	MonthFor            int               `json:"monthFor"` // Schedule month this credit pays down
	Advance             bool              `json:"advance"`  // True for the second and later months of a multi-month payment
	Source              TransactionSource `json:"source"`
	ReceiptRef          string            `json:"receiptRef,omitempty"`
	Notes               string            `json:"notes,omitempty"`
	Reversed            bool              `json:"reversed"`
	AuditFields
}

// Validate checks the structural invariants of a transaction record.
func (t *Transaction) Validate() error {
	if t.LoanID == "" {
		return fmt.Errorf("transaction loan ID is required")
	}
	if t.SettlementReference == "" {
		return fmt.Errorf("transaction settlement reference is required")
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("transaction amount must be positive")
	}
	if t.MonthFor < 1 {
		return fmt.Errorf("transaction month must be at least 1")
	}
	return nil
}
