package engine

import (
	"strings"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// amountTolerance is the matching tolerance on amounts: anything closer than
// one cent counts as the same figure.
var amountTolerance = decimal.New(1, -2)

// IndexEntry aggregates the system-side records sharing one settlement
// reference: the summed amount and the beneficiary names behind it.
type IndexEntry struct {
	Amount      decimal.Decimal
	Beneficiary string
	RecordCount int
}

// NormalizeReference canonicalizes a settlement reference for lookup:
// trimmed and lower-cased, so "RRR-001", " rrr-001 " and "Rrr-001" all land
// in the same bucket.
func NormalizeReference(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

// BuildTransactionIndex aggregates individual transactions by normalized
// settlement reference. Reversed transactions are skipped; multiple
// transactions sharing a reference sum their amounts and concatenate their
// beneficiary names.
func BuildTransactionIndex(txns []domain.Transaction) map[string]IndexEntry {
	idx := make(map[string]IndexEntry, len(txns))
	for _, t := range txns {
		if t.Reversed {
			continue
		}
		key := NormalizeReference(t.SettlementReference)
		if key == "" {
			continue
		}
		entry := idx[key]
		entry.Amount = entry.Amount.Add(t.Amount)
		entry.Beneficiary = appendName(entry.Beneficiary, t.BeneficiaryRef)
		entry.RecordCount++
		idx[key] = entry
	}
	return idx
}

// BuildBatchIndex aggregates batch repayment records by normalized settlement
// reference, keyed on the actual amount received.
func BuildBatchIndex(batches []domain.BatchRepayment) map[string]IndexEntry {
	idx := make(map[string]IndexEntry, len(batches))
	for _, b := range batches {
		if b.Reversed {
			continue
		}
		key := NormalizeReference(b.SettlementReference)
		if key == "" {
			continue
		}
		entry := idx[key]
		entry.Amount = entry.Amount.Add(b.ActualAmount)
		entry.Beneficiary = appendName(entry.Beneficiary, b.GroupName)
		entry.RecordCount++
		idx[key] = entry
	}
	return idx
}

// MatchStatement classifies every statement row against the two indexes.
// Individual transactions take precedence over batch records when a reference
// exists in both, the individual record being the more specific one. The
// matcher never mutates anything; unmatched and mismatch are findings, not
// errors.
func MatchStatement(rows []domain.StatementRow, txnIdx, batchIdx map[string]IndexEntry) []domain.MatchResult {
	results := make([]domain.MatchResult, 0, len(rows))
	for _, row := range rows {
		key := NormalizeReference(row.Reference)

		if entry, ok := txnIdx[key]; ok {
			results = append(results, classify(row, entry, domain.MatchSourceIndividual))
			continue
		}
		if entry, ok := batchIdx[key]; ok {
			results = append(results, classify(row, entry, domain.MatchSourceBatch))
			continue
		}
		results = append(results, domain.MatchResult{Row: row, MatchType: domain.MatchUnmatched})
	}
	return results
}

func classify(row domain.StatementRow, entry IndexEntry, source domain.MatchSource) domain.MatchResult {
	systemAmount := entry.Amount
	matchType := domain.MatchAmountMismatch
	if systemAmount.Sub(row.Amount).Abs().LessThan(amountTolerance) {
		matchType = domain.MatchExact
	}
	return domain.MatchResult{
		Row:          row,
		MatchType:    matchType,
		SystemAmount: &systemAmount,
		Source:       source,
		Beneficiary:  entry.Beneficiary,
	}
}

func appendName(existing, name string) string {
	if name == "" || strings.Contains(existing, name) {
		return existing
	}
	if existing == "" {
		return name
	}
	return existing + ", " + name
}
