package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanworks/loanbook_app/internal/core/domain"
)

// CreateRepaymentRequest defines the data required to record a payment against a loan.
type CreateRepaymentRequest struct {
	Amount              decimal.Decimal `json:"amount" binding:"required,positivedecimal"`
	SettlementReference string          `json:"settlementReference" binding:"required"`
	DatePaid            time.Time       `json:"datePaid" binding:"required"`
	// StartMonth overrides auto-forward allocation; nil lets the allocator pick
	// the first uncovered month.
	StartMonth *int   `json:"startMonth"`
	ReceiptRef string `json:"receiptRef"`
	Notes      string `json:"notes"`
}

// ReverseRepaymentRequest identifies the settlement to reverse.
type ReverseRepaymentRequest struct {
	SettlementReference string `json:"settlementReference" binding:"required"`
}

// ListRepaymentsParams defines query parameters for listing repayments.
type ListRepaymentsParams struct {
	Limit           int     `form:"limit,default=20"`
	NextToken       *string `form:"nextToken"`
	IncludeReversed bool    `form:"includeReversed,default=false"`
}

// RepaymentResponse defines the data returned for one allocated repayment transaction.
type RepaymentResponse struct {
	TransactionID       string          `json:"transactionID"`
	LoanID              string          `json:"loanID"`
	BeneficiaryRef      string          `json:"beneficiaryRef"`
	Amount              decimal.Decimal `json:"amount"`
	SettlementReference string          `json:"settlementReference"`
	DatePaid            time.Time       `json:"datePaid"`
	MonthFor            int             `json:"monthFor"`
	Advance             bool            `json:"advance"`
	Source              string          `json:"source"`
	ReceiptRef          string          `json:"receiptRef,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	Reversed            bool            `json:"reversed"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// ListRepaymentsResponse wraps a page of repayments.
type ListRepaymentsResponse struct {
	Repayments []RepaymentResponse `json:"repayments"`
	NextToken  *string             `json:"nextToken,omitempty"`
}

// LedgerEntryResponse defines one row of a loan's append-only ledger.
type LedgerEntryResponse struct {
	EntryID             string          `json:"entryID"`
	LoanID              string          `json:"loanID"`
	Amount              decimal.Decimal `json:"amount"`
	Kind                string          `json:"kind"`
	SettlementReference string          `json:"settlementReference"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// ToRepaymentResponse converts a domain.Transaction to RepaymentResponse DTO.
func ToRepaymentResponse(txn *domain.Transaction) RepaymentResponse {
	return RepaymentResponse{
		TransactionID:       txn.TransactionID,
		LoanID:              txn.LoanID,
		BeneficiaryRef:      txn.BeneficiaryRef,
		Amount:              txn.Amount,
		SettlementReference: txn.SettlementReference,
		DatePaid:            txn.DatePaid,
		MonthFor:            txn.MonthFor,
		Advance:             txn.Advance,
		Source:              string(txn.Source),
		ReceiptRef:          txn.ReceiptRef,
		Notes:               txn.Notes,
		Reversed:            txn.Reversed,
		CreatedAt:           txn.CreatedAt,
	}
}

// ToRepaymentResponses converts a slice of domain.Transaction to []RepaymentResponse.
func ToRepaymentResponses(txns []domain.Transaction) []RepaymentResponse {
	responses := make([]RepaymentResponse, len(txns))
	for i, txn := range txns {
		responses[i] = ToRepaymentResponse(&txn)
	}
	return responses
}

// ToLedgerEntryResponses converts a slice of domain.LedgerEntry to its response form.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = LedgerEntryResponse{
			EntryID:             e.EntryID,
			LoanID:              e.LoanID,
			Amount:              e.Amount,
			Kind:                string(e.Kind),
			SettlementReference: e.SettlementReference,
			CreatedAt:           e.CreatedAt,
		}
	}
	return responses
}
