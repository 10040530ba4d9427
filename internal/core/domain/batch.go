package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchRepayment is the batch-level record of one settlement receipt covering
// a group of loans. It reflects what was intended: it persists in full even
// when some per-member writes fail, while the member credits reflect what
// actually succeeded. Reversal reconstructs the discrepancy from the two.
type BatchRepayment struct {
	BatchID             string          `json:"batchID"` // Primary Key (UUID)
	SettlementReference string          `json:"settlementReference"` // Shares the global uniqueness namespace with transactions
	GroupName           string          `json:"groupName"`
	ExpectedAmount      decimal.Decimal `json:"expectedAmount"` // Sum of included members' installments
	ActualAmount        decimal.Decimal `json:"actualAmount"`
	DatePaid            time.Time       `json:"datePaid"`
	ReceiptRef          string          `json:"receiptRef,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	SuccessCount        int             `json:"successCount"`
	FailureCount        int             `json:"failureCount"`
	Reversed            bool            `json:"reversed"`
	AuditFields
}

// BatchMemberCredit is the per-member allocation actually recorded for a
// batch. The stored amount is the source of truth for reversal; a reversal
// replays it verbatim and never re-runs the shortfall ratio.
type BatchMemberCredit struct {
	CreditID       string          `json:"creditID"` // Primary Key (UUID)
	BatchID        string          `json:"batchID"`
	LoanID         string          `json:"loanID"`
	BeneficiaryRef string          `json:"beneficiaryRef"`
	Amount         decimal.Decimal `json:"amount"` // Zero for excluded members
	Excluded       bool            `json:"excluded"`
	Failed         bool            `json:"failed"` // Per-member write did not commit
	FailureReason  string          `json:"failureReason,omitempty"`
}
