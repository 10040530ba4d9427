package engine_test

import (
	"testing"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/core/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemTransactions() []domain.Transaction {
	return []domain.Transaction{
		{
			SettlementReference: "RRR-1",
			BeneficiaryRef:      "LN-001",
			Amount:              decimal.RequireFromString("76042.78"),
		},
		{
			SettlementReference: "RRR-2",
			BeneficiaryRef:      "LN-002",
			Amount:              decimal.RequireFromString("50000.00"),
		},
		{
			SettlementReference: "RRR-2-ADV2",
			BeneficiaryRef:      "LN-002",
			Amount:              decimal.RequireFromString("26042.78"),
		},
	}
}

func systemBatches() []domain.BatchRepayment {
	return []domain.BatchRepayment{
		{
			SettlementReference: "BATCH-9",
			GroupName:           "Market Traders",
			ActualAmount:        decimal.NewFromInt(30000),
		},
	}
}

func TestMatchStatement_ExactMismatchUnmatched(t *testing.T) {
	txnIdx := engine.BuildTransactionIndex(systemTransactions())
	batchIdx := engine.BuildBatchIndex(systemBatches())

	rows := []domain.StatementRow{
		{RowIndex: 1, Reference: "RRR-1", Amount: decimal.RequireFromString("76042.78")},
		{RowIndex: 2, Reference: "RRR-1", Amount: decimal.RequireFromString("76000.00")},
		{RowIndex: 3, Reference: "RRR-404", Amount: decimal.NewFromInt(1000)},
	}
	results := engine.MatchStatement(rows, txnIdx, batchIdx)
	require.Len(t, results, 3)

	assert.Equal(t, domain.MatchExact, results[0].MatchType)
	assert.Equal(t, domain.MatchSourceIndividual, results[0].Source)
	assert.Equal(t, "76042.78", results[0].SystemAmount.StringFixed(2))

	assert.Equal(t, domain.MatchAmountMismatch, results[1].MatchType)
	assert.Equal(t, "76042.78", results[1].SystemAmount.StringFixed(2))

	assert.Equal(t, domain.MatchUnmatched, results[2].MatchType)
	assert.Nil(t, results[2].SystemAmount)
}

func TestMatchStatement_ReferenceKeyIsCaseAndWhitespaceInsensitive(t *testing.T) {
	txnIdx := engine.BuildTransactionIndex(systemTransactions())
	batchIdx := engine.BuildBatchIndex(nil)

	rows := []domain.StatementRow{
		{RowIndex: 1, Reference: "RRR-1", Amount: decimal.RequireFromString("76042.78")},
		{RowIndex: 2, Reference: " rrr-1 ", Amount: decimal.RequireFromString("76042.78")},
		{RowIndex: 3, Reference: "Rrr-1", Amount: decimal.RequireFromString("76042.78")},
	}
	for _, result := range engine.MatchStatement(rows, txnIdx, batchIdx) {
		assert.Equal(t, domain.MatchExact, result.MatchType, "row %d", result.Row.RowIndex)
	}
}

func TestMatchStatement_BatchFallback(t *testing.T) {
	txnIdx := engine.BuildTransactionIndex(systemTransactions())
	batchIdx := engine.BuildBatchIndex(systemBatches())

	rows := []domain.StatementRow{
		{RowIndex: 1, Reference: "batch-9", Amount: decimal.NewFromInt(30000)},
	}
	results := engine.MatchStatement(rows, txnIdx, batchIdx)

	require.Len(t, results, 1)
	assert.Equal(t, domain.MatchExact, results[0].MatchType)
	assert.Equal(t, domain.MatchSourceBatch, results[0].Source)
	assert.Equal(t, "Market Traders", results[0].Beneficiary)
}

func TestMatchStatement_IndividualTakesPrecedenceOverBatch(t *testing.T) {
	shared := []domain.Transaction{{
		SettlementReference: "REF-7",
		BeneficiaryRef:      "LN-009",
		Amount:              decimal.NewFromInt(5000),
	}}
	batches := []domain.BatchRepayment{{
		SettlementReference: "REF-7",
		GroupName:           "Group",
		ActualAmount:        decimal.NewFromInt(9999),
	}}

	results := engine.MatchStatement(
		[]domain.StatementRow{{RowIndex: 1, Reference: "REF-7", Amount: decimal.NewFromInt(5000)}},
		engine.BuildTransactionIndex(shared),
		engine.BuildBatchIndex(batches),
	)

	require.Len(t, results, 1)
	assert.Equal(t, domain.MatchSourceIndividual, results[0].Source)
	assert.Equal(t, domain.MatchExact, results[0].MatchType)
}

func TestBuildTransactionIndex_AggregatesSharedReferences(t *testing.T) {
	txns := []domain.Transaction{
		{SettlementReference: "RRR-5", BeneficiaryRef: "LN-001", Amount: decimal.NewFromInt(100)},
		{SettlementReference: "rrr-5", BeneficiaryRef: "LN-002", Amount: decimal.NewFromInt(200)},
	}
	idx := engine.BuildTransactionIndex(txns)

	entry, ok := idx["rrr-5"]
	require.True(t, ok)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "LN-001, LN-002", entry.Beneficiary)
	assert.Equal(t, 2, entry.RecordCount)
}

func TestBuildTransactionIndex_SkipsReversed(t *testing.T) {
	txns := []domain.Transaction{
		{SettlementReference: "RRR-5", Amount: decimal.NewFromInt(100), Reversed: true},
	}
	assert.Empty(t, engine.BuildTransactionIndex(txns))
}
