package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/core/services"
)

type ReportingServiceTestSuite struct {
	suite.Suite
	mockLoanRepo      *MockLoanRepository
	mockRepaymentRepo *MockRepaymentRepository
	service           portssvc.ReportingService
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.mockLoanRepo = new(MockLoanRepository)
	suite.mockRepaymentRepo = new(MockRepaymentRepository)
	suite.service = services.NewReportingService(suite.mockLoanRepo, suite.mockRepaymentRepo, 30)
}

// bookLoan builds an active zero-rate loan disbursed on the given date with
// the given amount already collected.
func bookLoan(disbursed time.Time, principal, paid int64) domain.Loan {
	p := decimal.NewFromInt(principal)
	paidAmount := decimal.NewFromInt(paid)
	return domain.Loan{
		LoanID:         uuid.NewString(),
		BeneficiaryRef: uuid.NewString(),
		Terms: domain.LoanTerms{
			Principal:        p,
			TenorMonths:      12,
			DisbursementDate: disbursed,
		},
		MonthlyInstallment: p.Div(decimal.NewFromInt(12)).Round(2),
		TotalPayment:       p,
		TotalInterest:      decimal.Zero,
		TotalPaid:          paidAmount,
		OutstandingBalance: p.Sub(paidAmount),
		Status:             domain.LoanActive,
	}
}

func (suite *ReportingServiceTestSuite) TestPortfolioSummary() {
	ctx := context.Background()
	asOf := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	// Current loan: every due month covered. Delinquent loan: nothing paid
	// since a January disbursement, so its oldest unpaid due date is months old.
	current := bookLoan(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1200, 500)
	delinquent := bookLoan(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 2400, 0)

	suite.mockLoanRepo.On("ListLoans", ctx, 200, (*string)(nil), []domain.LoanStatus(nil)).
		Return([]domain.Loan{current, delinquent}, nil, nil).Once()

	summary, err := suite.service.PortfolioSummary(ctx, asOf)

	suite.Require().NoError(err)
	suite.Equal(2, summary.TotalLoans)
	suite.Equal(2, summary.ActiveLoans)
	suite.Equal("3600.00", summary.TotalDisbursed.StringFixed(2))
	suite.Equal("500.00", summary.TotalCollected.StringFixed(2))
	suite.Equal("3100.00", summary.TotalOutstanding.StringFixed(2))
	suite.True(summary.TotalInArrears.IsPositive())
	// Only the delinquent loan's balance is at risk past 30 and 90 days.
	suite.Equal("0.7742", summary.PortfolioAtRisk30.StringFixed(4))
	suite.Equal("0.7742", summary.PortfolioAtRisk90.StringFixed(4))
	suite.mockLoanRepo.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestArrearsReport_OldestFirst() {
	ctx := context.Background()
	asOf := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	newer := bookLoan(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), 1200, 0)
	older := bookLoan(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1200, 0)
	settled := bookLoan(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1200, 600)

	suite.mockLoanRepo.On("ListLoans", ctx, 200, (*string)(nil), []domain.LoanStatus(nil)).
		Return([]domain.Loan{newer, older, settled}, nil, nil).Once()

	rows, err := suite.service.ArrearsReport(ctx, asOf)

	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	suite.Equal(older.LoanID, rows[0].LoanID)
	suite.Equal(newer.LoanID, rows[1].LoanID)
	suite.Greater(rows[0].DaysOverdue, rows[1].DaysOverdue)
}

func (suite *ReportingServiceTestSuite) TestCollectionReport_SplitsBySource() {
	ctx := context.Background()
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	transactions := []domain.Transaction{
		{TransactionID: uuid.NewString(), Amount: decimal.NewFromInt(100), DatePaid: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), Source: domain.SourceIndividual},
		{TransactionID: uuid.NewString(), Amount: decimal.NewFromInt(250), DatePaid: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), Source: domain.SourceBatch},
		// Outside the range; must not count.
		{TransactionID: uuid.NewString(), Amount: decimal.NewFromInt(999), DatePaid: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Source: domain.SourceIndividual},
	}
	suite.mockRepaymentRepo.On("ListActiveTransactions", ctx).Return(transactions, nil).Once()

	report, err := suite.service.CollectionReport(ctx, from, to)

	suite.Require().NoError(err)
	suite.Equal("100.00", report.IndividualAmount.StringFixed(2))
	suite.Equal(1, report.IndividualCount)
	suite.Equal("250.00", report.BatchAmount.StringFixed(2))
	suite.Equal(1, report.BatchCount)
	suite.Equal("350.00", report.TotalAmount.StringFixed(2))
}

func (suite *ReportingServiceTestSuite) TestCollectionReport_InvertedRange() {
	ctx := context.Background()
	from := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := suite.service.CollectionReport(ctx, from, to)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepaymentRepo.AssertNotCalled(suite.T(), "ListActiveTransactions", mock.Anything)
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}
