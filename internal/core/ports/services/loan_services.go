package services

import (
	"context"
	"time"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/dto"
)

// LoanReaderSvc defines read operations for loan data
type LoanReaderSvc interface {
	// GetLoanByID retrieves a specific loan by its ID.
	GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// ListLoans retrieves a paginated list of loans.
	ListLoans(ctx context.Context, params dto.ListLoansParams) (*dto.ListLoansResponse, error)

	// ListLoansByGroup retrieves all loans belonging to a repayment group.
	ListLoansByGroup(ctx context.Context, groupName string) ([]domain.Loan, error)

	// GetSchedule retrieves the amortization schedule of a loan.
	GetSchedule(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error)

	// GetArrears classifies a loan's repayment position as of a date.
	GetArrears(ctx context.Context, loanID string, asOf time.Time) (*domain.ArrearsSnapshot, error)
}

// LoanWriterSvc defines write operations for loan data
type LoanWriterSvc interface {
	// CreateLoan books a new loan, computing its amortization schedule.
	CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.Loan, error)

	// UpdateLoan updates a loan's descriptive fields (beneficiary name, group).
	UpdateLoan(ctx context.Context, loanID string, req dto.UpdateLoanRequest, requestingUserID string) (*domain.Loan, error)

	// MarkLoanDefaulted flags a loan as defaulted. The flag is cleared only when
	// the loan is fully repaid.
	MarkLoanDefaulted(ctx context.Context, loanID string, requestingUserID string) (*domain.Loan, error)
}

// LoanCalculatorSvc defines stateless amortization calculations
type LoanCalculatorSvc interface {
	// PreviewAmortization computes installment, totals and schedule for proposed
	// terms without persisting anything.
	PreviewAmortization(ctx context.Context, req dto.AmortizationPreviewRequest) (*domain.AmortizationResult, error)
}

// LoanSvcFacade combines all loan-related service interfaces
// This is a facade for clients that need access to all operations
type LoanSvcFacade interface {
	LoanReaderSvc
	LoanWriterSvc
	LoanCalculatorSvc
}
