package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchType classifies the outcome of matching one statement row against the
// system's records. None of these are failures; an unmatched row is a finding.
type MatchType string

const (
	MatchExact          MatchType = "EXACT"
	MatchAmountMismatch MatchType = "AMOUNT_MISMATCH"
	MatchUnmatched      MatchType = "UNMATCHED"
)

// MatchSource names which record set a statement row matched against.
type MatchSource string

const (
	MatchSourceIndividual MatchSource = "INDIVIDUAL"
	MatchSourceBatch      MatchSource = "BATCH"
)

// StatementRow is one already-normalized row from an uploaded settlement
// statement. Column-header inference and amount coercion happen at the
// ingestion boundary; the matcher only ever sees this shape.
type StatementRow struct {
	RowIndex   int             `json:"rowIndex"` // 1-based position in the source statement
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	ReceiptRef string          `json:"receiptRef,omitempty"`
}

// MatchResult is the classification of a single statement row.
type MatchResult struct {
	Row          StatementRow     `json:"row"`
	MatchType    MatchType        `json:"matchType"`
	SystemAmount *decimal.Decimal `json:"systemAmount,omitempty"` // Aggregated system-side amount, when matched
	Source       MatchSource      `json:"source,omitempty"`
	Beneficiary  string           `json:"beneficiary,omitempty"`
}

// ReconciliationSession is the persisted audit record of a completed
// reconciliation run. Saving one is an explicit user action; the matching
// itself never mutates system records.
type ReconciliationSession struct {
	SessionID      string          `json:"sessionID"` // Primary Key (UUID)
	RunAt          time.Time       `json:"runAt"`
	TotalRows      int             `json:"totalRows"`
	ExactCount     int             `json:"exactCount"`
	MismatchCount  int             `json:"mismatchCount"`
	UnmatchedCount int             `json:"unmatchedCount"`
	MatchedAmount  decimal.Decimal `json:"matchedAmount"` // Sum of exact-row amounts
	ExactDetail    []MatchResult   `json:"exactDetail"`
	AuditFields
}
