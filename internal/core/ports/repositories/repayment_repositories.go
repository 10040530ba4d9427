package repositories

import (
	"context"
	"time"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RepaymentReader defines read operations for repayment transaction data
type RepaymentReader interface {
	// FindTransactionByID retrieves a specific repayment transaction by its ID.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionsBySettlementReference retrieves all transactions recorded
	// under a settlement reference, in the order they were allocated.
	FindTransactionsBySettlementReference(ctx context.Context, settlementReference string) ([]domain.Transaction, error)

	// ListTransactionsByLoan retrieves a paginated list of transactions for a loan
	// using token-based pagination, newest first.
	ListTransactionsByLoan(ctx context.Context, loanID string, limit int, nextToken *string, includeReversed bool) ([]domain.Transaction, *string, error)

	// ListActiveTransactions retrieves all non-reversed transactions, used to
	// build the reconciliation reference index.
	ListActiveTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// RepaymentWriter defines write operations for repayment transaction data
type RepaymentWriter interface {
	// SaveTransactions persists a set of repayment transactions and their ledger
	// entries atomically, and updates the loan's derived fields in the same
	// database transaction.
	SaveTransactions(ctx context.Context, transactions []domain.Transaction, entries []domain.LedgerEntry, loan domain.Loan) error

	// MarkTransactionsReversed flags transactions as reversed, appends the
	// compensating ledger entries, and updates the loan's derived fields.
	MarkTransactionsReversed(ctx context.Context, transactionIDs []string, entries []domain.LedgerEntry, loan domain.Loan, updatedByUserID string, updatedAt time.Time) error
}

// LedgerReader defines read operations for the loan ledger
type LedgerReader interface {
	// ListLedgerEntriesByLoan retrieves all ledger entries for a loan in
	// insertion order.
	ListLedgerEntriesByLoan(ctx context.Context, loanID string) ([]domain.LedgerEntry, error)

	// SumLedgerByLoan returns the net ledger amount for a loan.
	SumLedgerByLoan(ctx context.Context, loanID string) (decimal.Decimal, error)
}

// RepaymentRepositoryFacade combines all repayment-related repository interfaces
// This is a facade for clients that need access to all operations
type RepaymentRepositoryFacade interface {
	RepaymentReader
	RepaymentWriter
	LedgerReader
}

// RepaymentRepositoryWithTx extends RepaymentRepositoryFacade with transaction capabilities
type RepaymentRepositoryWithTx interface {
	RepaymentRepositoryFacade
	TransactionManager
}
