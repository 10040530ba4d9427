package domain_test

import (
	"testing"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoan_RefreshFromLedger(t *testing.T) {
	tests := []struct {
		name            string
		status          domain.LoanStatus
		totalPayment    decimal.Decimal
		ledgerTotal     decimal.Decimal
		wantPaid        string
		wantOutstanding string
		wantStatus      domain.LoanStatus
	}{
		{
			name:            "partial payment stays active",
			status:          domain.LoanActive,
			totalPayment:    decimal.NewFromInt(1200),
			ledgerTotal:     decimal.NewFromInt(500),
			wantPaid:        "500.00",
			wantOutstanding: "700.00",
			wantStatus:      domain.LoanActive,
		},
		{
			name:            "exact payoff completes the loan",
			status:          domain.LoanActive,
			totalPayment:    decimal.NewFromInt(1200),
			ledgerTotal:     decimal.NewFromInt(1200),
			wantPaid:        "1200.00",
			wantOutstanding: "0.00",
			wantStatus:      domain.LoanCompleted,
		},
		{
			name:            "overpayment clamps outstanding at zero",
			status:          domain.LoanActive,
			totalPayment:    decimal.NewFromInt(1200),
			ledgerTotal:     decimal.NewFromFloat(1250.50),
			wantPaid:        "1250.50",
			wantOutstanding: "0.00",
			wantStatus:      domain.LoanCompleted,
		},
		{
			name:            "defaulted loan stays defaulted while owing",
			status:          domain.LoanDefaulted,
			totalPayment:    decimal.NewFromInt(1200),
			ledgerTotal:     decimal.NewFromInt(300),
			wantPaid:        "300.00",
			wantOutstanding: "900.00",
			wantStatus:      domain.LoanDefaulted,
		},
		{
			name:            "defaulted loan completes on full payoff",
			status:          domain.LoanDefaulted,
			totalPayment:    decimal.NewFromInt(1200),
			ledgerTotal:     decimal.NewFromInt(1200),
			wantPaid:        "1200.00",
			wantOutstanding: "0.00",
			wantStatus:      domain.LoanCompleted,
		},
		{
			name:            "reversal back to zero reactivates",
			status:          domain.LoanCompleted,
			totalPayment:    decimal.NewFromInt(1200),
			ledgerTotal:     decimal.Zero,
			wantPaid:        "0.00",
			wantOutstanding: "1200.00",
			wantStatus:      domain.LoanActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := domain.Loan{
				Status:       tt.status,
				TotalPayment: tt.totalPayment,
			}

			loan.RefreshFromLedger(tt.ledgerTotal)

			assert.Equal(t, tt.wantPaid, loan.TotalPaid.StringFixed(2))
			assert.Equal(t, tt.wantOutstanding, loan.OutstandingBalance.StringFixed(2))
			assert.Equal(t, tt.wantStatus, loan.Status)
		})
	}
}

func TestFoldLedger(t *testing.T) {
	entries := []domain.LedgerEntry{
		{Amount: decimal.NewFromInt(100), Kind: domain.EntryRepayment},
		{Amount: decimal.NewFromFloat(250.25), Kind: domain.EntryRepayment},
		{Amount: decimal.NewFromInt(-100), Kind: domain.EntryReversal},
	}

	assert.Equal(t, "250.25", domain.FoldLedger(entries).StringFixed(2))
	assert.True(t, domain.FoldLedger(nil).IsZero())
}
