package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanworks/loanbook_app/internal/core/domain"
)

// BatchMemberInput names one group member in a batch repayment request.
type BatchMemberInput struct {
	LoanID string `json:"loanID" binding:"required"`
	// Included is false for members the group has excluded from this cycle's
	// distribution.
	Included bool `json:"included"`
}

// CreateBatchRepaymentRequest defines the data required to record a group payment.
type CreateBatchRepaymentRequest struct {
	GroupName           string             `json:"groupName" binding:"required"`
	SettlementReference string             `json:"settlementReference" binding:"required"`
	ActualAmount        decimal.Decimal    `json:"actualAmount" binding:"required,positivedecimal"`
	DatePaid            time.Time          `json:"datePaid" binding:"required"`
	Members             []BatchMemberInput `json:"members" binding:"required,min=1,dive"`
	ReceiptRef          string             `json:"receiptRef"`
	Notes               string             `json:"notes"`
}

// ListBatchesParams defines query parameters for listing batch repayments.
type ListBatchesParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// BatchMemberCreditResponse defines the credit outcome for one group member.
type BatchMemberCreditResponse struct {
	LoanID         string          `json:"loanID"`
	BeneficiaryRef string          `json:"beneficiaryRef"`
	Amount         decimal.Decimal `json:"amount"`
	Excluded       bool            `json:"excluded"`
	Failed         bool            `json:"failed"`
	FailureReason  string          `json:"failureReason,omitempty"`
}

// BatchRepaymentResponse defines the data returned for a batch repayment.
type BatchRepaymentResponse struct {
	BatchID             string                      `json:"batchID"`
	GroupName           string                      `json:"groupName"`
	SettlementReference string                      `json:"settlementReference"`
	ExpectedAmount      decimal.Decimal             `json:"expectedAmount"`
	ActualAmount        decimal.Decimal             `json:"actualAmount"`
	DatePaid            time.Time                   `json:"datePaid"`
	SuccessCount        int                         `json:"successCount"`
	FailureCount        int                         `json:"failureCount"`
	Reversed            bool                        `json:"reversed"`
	ReceiptRef          string                      `json:"receiptRef,omitempty"`
	Notes               string                      `json:"notes,omitempty"`
	Credits             []BatchMemberCreditResponse `json:"credits"`
	CreatedAt           time.Time                   `json:"createdAt"`
}

// ListBatchesResponse wraps a page of batch repayments.
type ListBatchesResponse struct {
	Batches   []BatchRepaymentResponse `json:"batches"`
	NextToken *string                  `json:"nextToken,omitempty"`
}

// ToBatchMemberCreditResponses converts domain member credits to their response form.
func ToBatchMemberCreditResponses(credits []domain.BatchMemberCredit) []BatchMemberCreditResponse {
	responses := make([]BatchMemberCreditResponse, len(credits))
	for i, c := range credits {
		responses[i] = BatchMemberCreditResponse{
			LoanID:         c.LoanID,
			BeneficiaryRef: c.BeneficiaryRef,
			Amount:         c.Amount,
			Excluded:       c.Excluded,
			Failed:         c.Failed,
			FailureReason:  c.FailureReason,
		}
	}
	return responses
}

// ToBatchRepaymentResponse converts a domain batch and its credits to BatchRepaymentResponse DTO.
func ToBatchRepaymentResponse(b *domain.BatchRepayment, credits []domain.BatchMemberCredit) BatchRepaymentResponse {
	return BatchRepaymentResponse{
		BatchID:             b.BatchID,
		GroupName:           b.GroupName,
		SettlementReference: b.SettlementReference,
		ExpectedAmount:      b.ExpectedAmount,
		ActualAmount:        b.ActualAmount,
		DatePaid:            b.DatePaid,
		SuccessCount:        b.SuccessCount,
		FailureCount:        b.FailureCount,
		Reversed:            b.Reversed,
		ReceiptRef:          b.ReceiptRef,
		Notes:               b.Notes,
		Credits:             ToBatchMemberCreditResponses(credits),
		CreatedAt:           b.CreatedAt,
	}
}
