package repositories

import (
	"context"
	"time"

	"github.com/loanworks/loanbook_app/internal/core/domain"
)

// LoanReader defines read operations for loan data
type LoanReader interface {
	// FindLoanByID retrieves a specific loan by its unique identifier.
	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// FindLoanByBeneficiaryRef retrieves a loan by its beneficiary reference.
	FindLoanByBeneficiaryRef(ctx context.Context, beneficiaryRef string) (*domain.Loan, error)

	// ListLoans retrieves a paginated list of loans using token-based pagination.
	// It returns the loans, a token for the next page, and an error.
	ListLoans(ctx context.Context, limit int, nextToken *string, statuses []domain.LoanStatus) ([]domain.Loan, *string, error)

	// ListLoansByGroup retrieves all loans belonging to a batch group.
	ListLoansByGroup(ctx context.Context, groupName string) ([]domain.Loan, error)
}

// LoanWriter defines write operations for loan data
type LoanWriter interface {
	// SaveLoan persists a new loan together with its amortization schedule.
	SaveLoan(ctx context.Context, loan domain.Loan) error

	// UpdateLoan updates a loan's descriptive fields (beneficiary name, group,
	// notes).
	UpdateLoan(ctx context.Context, loan domain.Loan) error

	// UpdateLoanDerived updates the ledger-derived fields of a loan (total paid,
	// outstanding balance, status).
	UpdateLoanDerived(ctx context.Context, loan domain.Loan) error

	// UpdateLoanStatus updates only the status of a loan.
	UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, updatedByUserID string, updatedAt time.Time) error
}

// LoanRepositoryFacade combines all loan-related repository interfaces
// This is a facade for clients that need access to all operations
type LoanRepositoryFacade interface {
	LoanReader
	LoanWriter
}

// LoanRepositoryWithTx extends LoanRepositoryFacade with transaction capabilities
type LoanRepositoryWithTx interface {
	LoanRepositoryFacade
	TransactionManager
}
