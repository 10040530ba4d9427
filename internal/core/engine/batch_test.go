package engine_test

import (
	"testing"

	"github.com/loanworks/loanbook_app/internal/core/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupOfThree() []engine.BatchMember {
	return []engine.BatchMember{
		{Ref: "LN-001", Installment: decimal.NewFromInt(10000)},
		{Ref: "LN-002", Installment: decimal.NewFromInt(20000)},
		{Ref: "LN-003", Installment: decimal.NewFromInt(30000)},
	}
}

func allIncluded() map[string]bool {
	return map[string]bool{"LN-001": true, "LN-002": true, "LN-003": true}
}

func TestAllocateBatch_ShortfallProRata(t *testing.T) {
	credits, err := engine.AllocateBatch(groupOfThree(), allIncluded(),
		decimal.NewFromInt(30000), decimal.NewFromInt(60000))
	require.NoError(t, err)

	require.Len(t, credits, 3)
	assert.Equal(t, "5000", credits[0].Amount.String())
	assert.Equal(t, "10000", credits[1].Amount.String())
	assert.Equal(t, "15000", credits[2].Amount.String())

	total := decimal.Zero
	for _, c := range credits {
		assert.False(t, c.Excluded)
		total = total.Add(c.Amount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(30000)))
}

func TestAllocateBatch_FullPaymentCreditsOwnInstallment(t *testing.T) {
	credits, err := engine.AllocateBatch(groupOfThree(), allIncluded(),
		decimal.NewFromInt(60000), decimal.NewFromInt(60000))
	require.NoError(t, err)

	assert.Equal(t, "10000", credits[0].Amount.String())
	assert.Equal(t, "20000", credits[1].Amount.String())
	assert.Equal(t, "30000", credits[2].Amount.String())
}

func TestAllocateBatch_OverPaymentIsNotDistributed(t *testing.T) {
	// The excess beyond expected is a business condition handled outside the
	// allocator; members still get exactly their own installment.
	credits, err := engine.AllocateBatch(groupOfThree(), allIncluded(),
		decimal.NewFromInt(75000), decimal.NewFromInt(60000))
	require.NoError(t, err)

	total := decimal.Zero
	for _, c := range credits {
		total = total.Add(c.Amount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(60000)))
}

func TestAllocateBatch_ExcludedMembersGetZeroAndAreFlagged(t *testing.T) {
	included := map[string]bool{"LN-001": true, "LN-003": true}

	credits, err := engine.AllocateBatch(groupOfThree(), included,
		decimal.NewFromInt(40000), decimal.NewFromInt(40000))
	require.NoError(t, err)

	require.Len(t, credits, 3)
	assert.False(t, credits[0].Excluded)
	assert.True(t, credits[1].Excluded)
	assert.True(t, credits[1].Amount.IsZero())
	assert.False(t, credits[2].Excluded)
	assert.Equal(t, "30000", credits[2].Amount.String())
}

func TestAllocateBatch_RoundingResidualFoldsIntoLastMember(t *testing.T) {
	members := []engine.BatchMember{
		{Ref: "A", Installment: decimal.NewFromInt(10000)},
		{Ref: "B", Installment: decimal.NewFromInt(10000)},
		{Ref: "C", Installment: decimal.NewFromInt(10000)},
	}
	included := map[string]bool{"A": true, "B": true, "C": true}
	actual := decimal.NewFromInt(10000) // ratio 1/3 cannot round cleanly

	credits, err := engine.AllocateBatch(members, included, actual, decimal.NewFromInt(30000))
	require.NoError(t, err)

	assert.Equal(t, "3333.33", credits[0].Amount.StringFixed(2))
	assert.Equal(t, "3333.33", credits[1].Amount.StringFixed(2))
	assert.Equal(t, "3333.34", credits[2].Amount.StringFixed(2))

	total := decimal.Zero
	for _, c := range credits {
		total = total.Add(c.Amount)
	}
	assert.True(t, total.Equal(actual))
}

func TestAllocateBatch_Invalid(t *testing.T) {
	_, err := engine.AllocateBatch(groupOfThree(), allIncluded(), decimal.Zero, decimal.NewFromInt(60000))
	assert.ErrorIs(t, err, engine.ErrInvalidPaymentAmount)

	_, err = engine.AllocateBatch(groupOfThree(), map[string]bool{}, decimal.NewFromInt(100), decimal.NewFromInt(60000))
	assert.ErrorIs(t, err, engine.ErrInvalidPaymentAmount)
}
