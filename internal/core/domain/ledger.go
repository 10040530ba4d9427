package domain

import "github.com/shopspring/decimal"

// LedgerEntryKind labels why a signed delta was appended to the loan ledger.
type LedgerEntryKind string

const (
	EntryRepayment LedgerEntryKind = "REPAYMENT"
	EntryReversal  LedgerEntryKind = "REVERSAL"
)

// LedgerEntry is one append-only signed delta against a loan's paid total.
// Repayments append positive amounts, reversals append the stored amount
// negated. TotalPaid and OutstandingBalance are folds over these entries,
// so an edit or delete can never leave a balance mutation behind.
type LedgerEntry struct {
	EntryID             string          `json:"entryID"` // Primary Key (UUID)
	LoanID              string          `json:"loanID"`
	Amount              decimal.Decimal `json:"amount"` // Signed
	Kind                LedgerEntryKind `json:"kind"`
	SettlementReference string          `json:"settlementReference"`
	AuditFields
}

// FoldLedger sums the signed deltas of a loan's ledger entries.
func FoldLedger(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}
