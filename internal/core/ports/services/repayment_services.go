package services

import (
	"context"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/dto"
)

// RepaymentReaderSvc defines read operations for repayment data
type RepaymentReaderSvc interface {
	// GetRepaymentByID retrieves a specific repayment transaction by its ID.
	GetRepaymentByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListRepaymentsByLoan retrieves a paginated list of repayments for a loan.
	ListRepaymentsByLoan(ctx context.Context, loanID string, params dto.ListRepaymentsParams) (*dto.ListRepaymentsResponse, error)

	// GetLedger retrieves the append-only ledger of a loan.
	GetLedger(ctx context.Context, loanID string) ([]domain.LedgerEntry, error)
}

// RepaymentWriterSvc defines write operations for repayment data
type RepaymentWriterSvc interface {
	// CreateRepayment records a payment against a loan, allocating it across
	// installment months and updating the loan's ledger-derived fields.
	CreateRepayment(ctx context.Context, loanID string, req dto.CreateRepaymentRequest, creatorUserID string) ([]domain.Transaction, error)

	// ReverseRepayment reverses all transactions recorded under a settlement
	// reference by replaying their stored amounts as compensating ledger entries.
	ReverseRepayment(ctx context.Context, settlementReference string, requestingUserID string) ([]domain.Transaction, error)
}

// RepaymentSvcFacade combines all repayment-related service interfaces
// This is a facade for clients that need access to all operations
type RepaymentSvcFacade interface {
	RepaymentReaderSvc
	RepaymentWriterSvc
}
