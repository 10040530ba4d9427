package statement_test

import (
	"strings"
	"testing"

	"github.com/loanworks/loanbook_app/internal/utils/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_InfersColumnsFromHeaders(t *testing.T) {
	csv := strings.Join([]string{
		"S/N,Beneficiary Name,RRR,Amount Paid,Receipt No",
		"1,Adaeze Obi,RRR-001,\"76,042.78\",RCP-1",
		"2,Musa Bello,RRR-002,\"150,000.00\",RCP-2",
	}, "\n")

	rows, err := statement.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].RowIndex)
	assert.Equal(t, "RRR-001", rows[0].Reference)
	assert.Equal(t, "76042.78", rows[0].Amount.StringFixed(2))
	assert.Equal(t, "RCP-1", rows[0].ReceiptRef)
	assert.Equal(t, "150000.00", rows[1].Amount.StringFixed(2))
}

func TestParse_AlternateHeaderSpellings(t *testing.T) {
	csv := strings.Join([]string{
		"Settlement Ref,Credit,Teller",
		"ref-9,\"1,000\",T-44",
	}, "\n")

	rows, err := statement.Parse(strings.NewReader(csv))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "ref-9", rows[0].Reference)
	assert.Equal(t, "1000", rows[0].Amount.String())
	assert.Equal(t, "T-44", rows[0].ReceiptRef)
}

func TestParse_SkipsBlankRows(t *testing.T) {
	csv := strings.Join([]string{
		"Reference,Amount",
		"RRR-1,500",
		",",
		"RRR-2,600",
	}, "\n")

	rows, err := statement.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "RRR-2", rows[1].Reference)
}

func TestParse_Errors(t *testing.T) {
	_, err := statement.Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, statement.ErrEmptyStatement)

	_, err = statement.Parse(strings.NewReader("Reference,Amount\n"))
	assert.ErrorIs(t, err, statement.ErrEmptyStatement)

	_, err = statement.Parse(strings.NewReader("Foo,Amount\n1,2\n"))
	assert.ErrorIs(t, err, statement.ErrNoReferenceColumn)

	_, err = statement.Parse(strings.NewReader("Reference,Foo\nRRR-1,2\n"))
	assert.ErrorIs(t, err, statement.ErrNoAmountColumn)

	_, err = statement.Parse(strings.NewReader("Reference,Amount\nRRR-1,abc\n"))
	assert.Error(t, err)
}

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"76,042.78", "76042.78"},
		{"₦150,000.00", "150000"},
		{"NGN 2500", "2500"},
		{" 1 000.50 ", "1000.5"},
	}
	for _, tt := range tests {
		got, err := statement.CoerceAmount(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got.String(), tt.raw)
	}

	_, err := statement.CoerceAmount("")
	assert.Error(t, err)
	_, err = statement.CoerceAmount("12a.00")
	assert.Error(t, err)
}