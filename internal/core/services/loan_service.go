package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/core/engine"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/dto"
	"github.com/loanworks/loanbook_app/internal/middleware"
)

// ErrLoanCompleted indicates an operation that needs an open balance was
// attempted on a fully repaid loan.
var ErrLoanCompleted = errors.New("loan is already completed")

// loanService implements loan origination, schedule and arrears reads.
type loanService struct {
	loanRepo       portsrepo.LoanRepositoryFacade
	graceDays      int
	maxTenorMonths int
}

// NewLoanService creates a new loan service.
func NewLoanService(loanRepo portsrepo.LoanRepositoryFacade, graceDays, maxTenorMonths int) portssvc.LoanSvcFacade {
	return &loanService{
		loanRepo:       loanRepo,
		graceDays:      graceDays,
		maxTenorMonths: maxTenorMonths,
	}
}

var _ portssvc.LoanSvcFacade = (*loanService)(nil)

// CreateLoan books a new loan. The amortization figures are computed from the
// terms and cached on the loan row; a recomputation from the same terms always
// reproduces them.
func (s *loanService) CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.Loan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	terms := domain.LoanTerms{
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TenorMonths:       req.TenorMonths,
		MoratoriumMonths:  req.MoratoriumMonths,
		DisbursementDate:  req.DisbursementDate,
	}
	if err := engine.ValidateTerms(terms, s.maxTenorMonths); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	result, err := engine.ComputeAmortization(terms)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	now := time.Now().UTC()
	loan := domain.Loan{
		LoanID:             uuid.NewString(),
		BeneficiaryRef:     req.BeneficiaryRef,
		BeneficiaryName:    req.BeneficiaryName,
		GroupName:          req.GroupName,
		CurrencyCode:       req.CurrencyCode,
		Terms:              terms,
		MonthlyInstallment: result.MonthlyInstallment,
		TotalInterest:      result.TotalInterest,
		TotalPayment:       result.TotalPayment,
		TotalPaid:          decimal.Zero,
		OutstandingBalance: result.TotalPayment,
		Status:             domain.LoanActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.loanRepo.SaveLoan(ctx, loan); err != nil {
		logger.Error("Failed to save loan", slog.String("beneficiary_ref", req.BeneficiaryRef), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Loan created",
		slog.String("loan_id", loan.LoanID),
		slog.String("beneficiary_ref", loan.BeneficiaryRef),
		slog.String("installment", loan.MonthlyInstallment.String()),
	)
	return &loan, nil
}

func (s *loanService) GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get loan %s: %w", loanID, err)
	}
	return loan, nil
}

func (s *loanService) ListLoans(ctx context.Context, params dto.ListLoansParams) (*dto.ListLoansResponse, error) {
	statuses := make([]domain.LoanStatus, 0, len(params.Statuses))
	for _, st := range params.Statuses {
		statuses = append(statuses, domain.LoanStatus(st))
	}

	loans, nextToken, err := s.loanRepo.ListLoans(ctx, params.Limit, params.NextToken, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	resp := dto.ToListLoansResponse(loans, nextToken)
	return &resp, nil
}

// ListLoansByGroup returns every loan in a repayment group, the roster a
// batch settlement is distributed over.
func (s *loanService) ListLoansByGroup(ctx context.Context, groupName string) ([]domain.Loan, error) {
	if groupName == "" {
		return nil, fmt.Errorf("%w: group name is required", apperrors.ErrValidation)
	}
	loans, err := s.loanRepo.ListLoansByGroup(ctx, groupName)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for group %s: %w", groupName, err)
	}
	return loans, nil
}

// GetSchedule returns the due-date schedule of a loan, recomputed from its
// stored terms.
func (s *loanService) GetSchedule(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	result, err := engine.ComputeAmortization(loan.Terms)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute schedule for loan %s: %w", loanID, err)
	}
	return result.Schedule, nil
}

// GetArrears classifies the loan's repayment position as of the given date.
// The snapshot is computed fresh on every call and never persisted.
func (s *loanService) GetArrears(ctx context.Context, loanID string, asOf time.Time) (*domain.ArrearsSnapshot, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	result, err := engine.ComputeAmortization(loan.Terms)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute schedule for loan %s: %w", loanID, err)
	}

	snapshot := engine.ClassifyArrears(result.Schedule, loan.MonthlyInstallment, loan.TotalPaid, asOf, loan.Status, s.graceDays)
	return &snapshot, nil
}

// UpdateLoan changes the descriptive fields of a loan. The terms and the
// schedule derived from them are immutable after disbursement.
func (s *loanService) UpdateLoan(ctx context.Context, loanID string, req dto.UpdateLoanRequest, requestingUserID string) (*domain.Loan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if req.BeneficiaryName != nil {
		loan.BeneficiaryName = *req.BeneficiaryName
	}
	if req.GroupName != nil {
		loan.GroupName = *req.GroupName
	}
	loan.LastUpdatedAt = time.Now().UTC()
	loan.LastUpdatedBy = requestingUserID

	if err := s.loanRepo.UpdateLoan(ctx, *loan); err != nil {
		logger.Error("Failed to update loan", slog.String("loan_id", loanID), slog.String("error", err.Error()))
		return nil, err
	}
	return loan, nil
}

// MarkLoanDefaulted flags a loan as defaulted. The flag stays until the loan
// is fully repaid, when completion clears it.
func (s *loanService) MarkLoanDefaulted(ctx context.Context, loanID string, requestingUserID string) (*domain.Loan, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanCompleted {
		return nil, fmt.Errorf("%w: cannot default loan %s", ErrLoanCompleted, loanID)
	}

	now := time.Now().UTC()
	if err := s.loanRepo.UpdateLoanStatus(ctx, loanID, domain.LoanDefaulted, requestingUserID, now); err != nil {
		logger.Error("Failed to mark loan defaulted", slog.String("loan_id", loanID), slog.String("error", err.Error()))
		return nil, err
	}

	loan.Status = domain.LoanDefaulted
	loan.LastUpdatedAt = now
	loan.LastUpdatedBy = requestingUserID
	logger.Info("Loan marked defaulted", slog.String("loan_id", loanID))
	return loan, nil
}

// PreviewAmortization computes the schedule for proposed terms without
// persisting anything.
func (s *loanService) PreviewAmortization(ctx context.Context, req dto.AmortizationPreviewRequest) (*domain.AmortizationResult, error) {
	terms := domain.LoanTerms{
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TenorMonths:       req.TenorMonths,
		MoratoriumMonths:  req.MoratoriumMonths,
		DisbursementDate:  req.DisbursementDate,
	}
	if err := engine.ValidateTerms(terms, s.maxTenorMonths); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	result, err := engine.ComputeAmortization(terms)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return &result, nil
}
