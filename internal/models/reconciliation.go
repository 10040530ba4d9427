package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationSession is the stored summary of one reconciliation run.
// The per-row detail of exact matches is kept as a JSONB document.
type ReconciliationSession struct {
	SessionID      string          `db:"session_id"`
	RunAt          time.Time       `db:"run_at"`
	TotalRows      int             `db:"total_rows"`
	ExactCount     int             `db:"exact_count"`
	MismatchCount  int             `db:"mismatch_count"`
	UnmatchedCount int             `db:"unmatched_count"`
	MatchedAmount  decimal.Decimal `db:"matched_amount"`
	ExactDetail    []byte          `db:"exact_detail"`
	AuditFields
}
