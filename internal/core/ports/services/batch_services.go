package services

import (
	"context"

	"github.com/loanworks/loanbook_app/internal/dto"
)

// BatchReaderSvc defines read operations for batch repayment data
type BatchReaderSvc interface {
	// GetBatchByID retrieves a batch repayment with its member credit breakdown.
	GetBatchByID(ctx context.Context, batchID string) (*dto.BatchRepaymentResponse, error)

	// ListBatches retrieves a paginated list of batch repayments.
	ListBatches(ctx context.Context, params dto.ListBatchesParams) (*dto.ListBatchesResponse, error)
}

// BatchWriterSvc defines write operations for batch repayment data
type BatchWriterSvc interface {
	// CreateBatchRepayment distributes a group payment across member loans
	// pro-rata on shortfall and records the resulting credits. Members that
	// cannot be credited are reported, not fatal.
	CreateBatchRepayment(ctx context.Context, req dto.CreateBatchRepaymentRequest, creatorUserID string) (*dto.BatchRepaymentResponse, error)

	// ReverseBatch reverses every credited member repayment of a batch by
	// replaying the stored credit amounts.
	ReverseBatch(ctx context.Context, batchID string, requestingUserID string) (*dto.BatchRepaymentResponse, error)
}

// BatchSvcFacade combines all batch-related service interfaces
// This is a facade for clients that need access to all operations
type BatchSvcFacade interface {
	BatchReaderSvc
	BatchWriterSvc
}
