package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/core/engine"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/dto"
	"github.com/loanworks/loanbook_app/internal/utils/money"
)

// reportPageSize is the page size used when walking the full loan book.
const reportPageSize = 200

// PAR thresholds in days, per the portfolio-at-risk convention.
const (
	parThreshold30 = 30
	parThreshold90 = 90
)

// reportingService folds the loan book into portfolio-level figures. Reports
// are computed from current records on every call and never cached.
type reportingService struct {
	loanRepo      portsrepo.LoanRepositoryFacade
	repaymentRepo portsrepo.RepaymentRepositoryFacade
	graceDays     int
}

// NewReportingService creates a new reporting service.
func NewReportingService(loanRepo portsrepo.LoanRepositoryFacade, repaymentRepo portsrepo.RepaymentRepositoryFacade, graceDays int) portssvc.ReportingService {
	return &reportingService{
		loanRepo:      loanRepo,
		repaymentRepo: repaymentRepo,
		graceDays:     graceDays,
	}
}

var _ portssvc.ReportingService = (*reportingService)(nil)

// forEachLoan walks the whole loan book page by page.
func (s *reportingService) forEachLoan(ctx context.Context, fn func(loan domain.Loan) error) error {
	var nextToken *string
	for {
		loans, token, err := s.loanRepo.ListLoans(ctx, reportPageSize, nextToken, nil)
		if err != nil {
			return fmt.Errorf("failed to walk loan book: %w", err)
		}
		for _, loan := range loans {
			if err := fn(loan); err != nil {
				return err
			}
		}
		if token == nil {
			return nil
		}
		nextToken = token
	}
}

// PortfolioSummary aggregates the loan book as of a date. The PAR figures are
// the outstanding balance of loans whose oldest unpaid due date is older than
// the threshold, as a fraction of total outstanding.
func (s *reportingService) PortfolioSummary(ctx context.Context, asOf time.Time) (*dto.PortfolioSummaryResponse, error) {
	summary := &dto.PortfolioSummaryResponse{
		AsOf:             asOf,
		TotalDisbursed:   decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TotalOverdue:     decimal.Zero,
		TotalInArrears:   decimal.Zero,
	}
	atRisk30 := decimal.Zero
	atRisk90 := decimal.Zero

	err := s.forEachLoan(ctx, func(loan domain.Loan) error {
		summary.TotalLoans++
		switch loan.Status {
		case domain.LoanActive:
			summary.ActiveLoans++
		case domain.LoanCompleted:
			summary.CompletedLoans++
		case domain.LoanDefaulted:
			summary.DefaultedLoans++
		}
		summary.TotalDisbursed = summary.TotalDisbursed.Add(loan.Terms.Principal)
		summary.TotalCollected = summary.TotalCollected.Add(loan.TotalPaid)
		summary.TotalOutstanding = summary.TotalOutstanding.Add(loan.OutstandingBalance)

		result, err := engine.ComputeAmortization(loan.Terms)
		if err != nil {
			return fmt.Errorf("failed to recompute schedule for loan %s: %w", loan.LoanID, err)
		}
		snapshot := engine.ClassifyArrears(result.Schedule, loan.MonthlyInstallment, loan.TotalPaid, asOf, loan.Status, s.graceDays)
		summary.TotalOverdue = summary.TotalOverdue.Add(snapshot.OverdueAmount)
		summary.TotalInArrears = summary.TotalInArrears.Add(snapshot.ArrearsAmount)
		if snapshot.DaysOverdue > parThreshold30 {
			atRisk30 = atRisk30.Add(loan.OutstandingBalance)
		}
		if snapshot.DaysOverdue > parThreshold90 {
			atRisk90 = atRisk90.Add(loan.OutstandingBalance)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.PortfolioAtRisk30 = money.Ratio(atRisk30, summary.TotalOutstanding)
	summary.PortfolioAtRisk90 = money.Ratio(atRisk90, summary.TotalOutstanding)
	return summary, nil
}

// ArrearsReport lists every loan with a shortfall as of a date, the oldest
// delinquency first.
func (s *reportingService) ArrearsReport(ctx context.Context, asOf time.Time) ([]dto.ArrearsReportRow, error) {
	rows := []dto.ArrearsReportRow{}
	err := s.forEachLoan(ctx, func(loan domain.Loan) error {
		result, err := engine.ComputeAmortization(loan.Terms)
		if err != nil {
			return fmt.Errorf("failed to recompute schedule for loan %s: %w", loan.LoanID, err)
		}
		snapshot := engine.ClassifyArrears(result.Schedule, loan.MonthlyInstallment, loan.TotalPaid, asOf, loan.Status, s.graceDays)
		if !snapshot.Shortfall.IsPositive() {
			return nil
		}
		rows = append(rows, dto.ArrearsReportRow{
			LoanID:          loan.LoanID,
			BeneficiaryRef:  loan.BeneficiaryRef,
			BeneficiaryName: loan.BeneficiaryName,
			GroupName:       loan.GroupName,
			OverdueAmount:   snapshot.OverdueAmount,
			ArrearsAmount:   snapshot.ArrearsAmount,
			MonthsInArrears: snapshot.MonthsInArrears,
			DaysOverdue:     snapshot.DaysOverdue,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DaysOverdue > rows[j].DaysOverdue
	})
	return rows, nil
}

// CollectionReport sums the amounts collected between two dates inclusive,
// split by individual and batch source. Reversed transactions never count.
func (s *reportingService) CollectionReport(ctx context.Context, from, to time.Time) (*dto.CollectionReportResponse, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: report range ends before it starts", apperrors.ErrValidation)
	}

	transactions, err := s.repaymentRepo.ListActiveTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for collection report: %w", err)
	}

	report := &dto.CollectionReportResponse{
		From:             from,
		To:               to,
		IndividualAmount: decimal.Zero,
		BatchAmount:      decimal.Zero,
		TotalAmount:      decimal.Zero,
	}
	for _, txn := range transactions {
		if txn.DatePaid.Before(from) || txn.DatePaid.After(to) {
			continue
		}
		switch txn.Source {
		case domain.SourceIndividual:
			report.IndividualAmount = report.IndividualAmount.Add(txn.Amount)
			report.IndividualCount++
		case domain.SourceBatch:
			report.BatchAmount = report.BatchAmount.Add(txn.Amount)
			report.BatchCount++
		}
		report.TotalAmount = report.TotalAmount.Add(txn.Amount)
	}
	return report, nil
}
