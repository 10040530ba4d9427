package models

import (
	"github.com/shopspring/decimal"
)

// LedgerEntryKind distinguishes money in from money backed out.
type LedgerEntryKind string

const (
	LedgerRepayment LedgerEntryKind = "REPAYMENT"
	LedgerReversal  LedgerEntryKind = "REVERSAL"
)

// LedgerEntry is one append-only row of a loan's ledger. Reversals are new
// negative rows; existing rows are never updated or deleted.
type LedgerEntry struct {
	EntryID             string          `db:"entry_id"`
	LoanID              string          `db:"loan_id"`
	Amount              decimal.Decimal `db:"amount"`
	Kind                LedgerEntryKind `db:"kind"`
	SettlementReference string          `db:"settlement_reference"`
	AuditFields
}
