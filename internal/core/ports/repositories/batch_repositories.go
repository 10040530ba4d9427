package repositories

import (
	"context"
	"time"

	"github.com/loanworks/loanbook_app/internal/core/domain"
)

// BatchReader defines read operations for batch repayment data
type BatchReader interface {
	// FindBatchByID retrieves a specific batch repayment by its ID.
	FindBatchByID(ctx context.Context, batchID string) (*domain.BatchRepayment, error)

	// FindBatchBySettlementReference retrieves a batch repayment by its
	// settlement reference.
	FindBatchBySettlementReference(ctx context.Context, settlementReference string) (*domain.BatchRepayment, error)

	// ListBatches retrieves a paginated list of batch repayments using
	// token-based pagination, newest first.
	ListBatches(ctx context.Context, limit int, nextToken *string) ([]domain.BatchRepayment, *string, error)

	// FindMemberCreditsByBatchID retrieves the per-member credit breakdown for a batch.
	FindMemberCreditsByBatchID(ctx context.Context, batchID string) ([]domain.BatchMemberCredit, error)

	// ListActiveBatches retrieves all non-reversed batch repayments, used to
	// build the reconciliation reference index.
	ListActiveBatches(ctx context.Context) ([]domain.BatchRepayment, error)
}

// BatchWriter defines write operations for batch repayment data
type BatchWriter interface {
	// SaveBatch persists a batch repayment header and its member credits.
	SaveBatch(ctx context.Context, batch domain.BatchRepayment, credits []domain.BatchMemberCredit) error

	// MarkBatchReversed flags a batch repayment as reversed.
	MarkBatchReversed(ctx context.Context, batchID string, updatedByUserID string, updatedAt time.Time) error
}

// BatchRepositoryFacade combines all batch-related repository interfaces
// This is a facade for clients that need access to all operations
type BatchRepositoryFacade interface {
	BatchReader
	BatchWriter
}

// BatchRepositoryWithTx extends BatchRepositoryFacade with transaction capabilities
type BatchRepositoryWithTx interface {
	BatchRepositoryFacade
	TransactionManager
}
