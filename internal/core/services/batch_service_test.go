package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/core/services"
	"github.com/loanworks/loanbook_app/internal/dto"
)

// --- Mock BatchRepository ---
type MockBatchRepository struct {
	mock.Mock
}

var _ portsrepo.BatchRepositoryFacade = (*MockBatchRepository)(nil)

func (m *MockBatchRepository) FindBatchByID(ctx context.Context, batchID string) (*domain.BatchRepayment, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchRepayment), args.Error(1)
}

func (m *MockBatchRepository) FindBatchBySettlementReference(ctx context.Context, settlementReference string) (*domain.BatchRepayment, error) {
	args := m.Called(ctx, settlementReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchRepayment), args.Error(1)
}

func (m *MockBatchRepository) ListBatches(ctx context.Context, limit int, nextToken *string) ([]domain.BatchRepayment, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	var batches []domain.BatchRepayment
	if args.Get(0) != nil {
		batches = args.Get(0).([]domain.BatchRepayment)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return batches, token, args.Error(2)
}

func (m *MockBatchRepository) FindMemberCreditsByBatchID(ctx context.Context, batchID string) ([]domain.BatchMemberCredit, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BatchMemberCredit), args.Error(1)
}

func (m *MockBatchRepository) ListActiveBatches(ctx context.Context) ([]domain.BatchRepayment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BatchRepayment), args.Error(1)
}

func (m *MockBatchRepository) SaveBatch(ctx context.Context, batch domain.BatchRepayment, credits []domain.BatchMemberCredit) error {
	args := m.Called(ctx, batch, credits)
	return args.Error(0)
}

func (m *MockBatchRepository) MarkBatchReversed(ctx context.Context, batchID string, updatedByUserID string, updatedAt time.Time) error {
	args := m.Called(ctx, batchID, updatedByUserID, updatedAt)
	return args.Error(0)
}

// --- Test Suite ---

type BatchServiceTestSuite struct {
	suite.Suite
	mockBatchRepo     *MockBatchRepository
	mockLoanRepo      *MockLoanRepository
	mockRepaymentRepo *MockRepaymentRepository
	service           portssvc.BatchSvcFacade
	userID            string
	loanA, loanB      *domain.Loan
	loanC             *domain.Loan
}

func groupLoan(ref string, installment int64) *domain.Loan {
	monthly := decimal.NewFromInt(installment)
	total := monthly.Mul(decimal.NewFromInt(12))
	return &domain.Loan{
		LoanID:         uuid.NewString(),
		BeneficiaryRef: ref,
		GroupName:      "GRP-A",
		Terms: domain.LoanTerms{
			Principal:        total,
			TenorMonths:      12,
			DisbursementDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		MonthlyInstallment: monthly,
		TotalPayment:       total,
		TotalInterest:      decimal.Zero,
		TotalPaid:          decimal.Zero,
		OutstandingBalance: total,
		Status:             domain.LoanActive,
	}
}

func (suite *BatchServiceTestSuite) SetupTest() {
	suite.mockBatchRepo = new(MockBatchRepository)
	suite.mockLoanRepo = new(MockLoanRepository)
	suite.mockRepaymentRepo = new(MockRepaymentRepository)
	suite.service = services.NewBatchService(suite.mockBatchRepo, suite.mockLoanRepo, suite.mockRepaymentRepo)
	suite.userID = uuid.NewString()
	suite.loanA = groupLoan("BEN-A", 1000)
	suite.loanB = groupLoan("BEN-B", 1000)
	suite.loanC = groupLoan("BEN-C", 500)
}

func (suite *BatchServiceTestSuite) batchRequest(actual int64) dto.CreateBatchRepaymentRequest {
	return dto.CreateBatchRepaymentRequest{
		GroupName:           "GRP-A",
		SettlementReference: "BATCH-01",
		ActualAmount:        decimal.NewFromInt(actual),
		DatePaid:            time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		Members: []dto.BatchMemberInput{
			{LoanID: suite.loanA.LoanID, Included: true},
			{LoanID: suite.loanB.LoanID, Included: true},
			{LoanID: suite.loanC.LoanID, Included: true},
		},
	}
}

func (suite *BatchServiceTestSuite) expectMemberLoans() {
	ctx := mock.Anything
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loanA.LoanID).Return(suite.loanA, nil).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loanB.LoanID).Return(suite.loanB, nil).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loanC.LoanID).Return(suite.loanC, nil).Once()
}

func (suite *BatchServiceTestSuite) TestCreateBatchRepayment_FullPayment() {
	ctx := context.Background()
	req := suite.batchRequest(2500)

	suite.mockBatchRepo.On("FindBatchBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepaymentRepo.On("FindTransactionsBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.expectMemberLoans()
	suite.mockRepaymentRepo.On("SaveTransactions", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	var savedBatch domain.BatchRepayment
	var savedCredits []domain.BatchMemberCredit
	suite.mockBatchRepo.On("SaveBatch", ctx, mock.AnythingOfType("domain.BatchRepayment"), mock.AnythingOfType("[]domain.BatchMemberCredit")).
		Run(func(args mock.Arguments) {
			savedBatch = args.Get(1).(domain.BatchRepayment)
			savedCredits = args.Get(2).([]domain.BatchMemberCredit)
		}).
		Return(nil).Once()

	resp, err := suite.service.CreateBatchRepayment(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(3, resp.SuccessCount)
	suite.Equal(0, resp.FailureCount)
	suite.Equal("2500.00", savedBatch.ExpectedAmount.StringFixed(2))
	suite.Require().Len(savedCredits, 3)
	suite.Equal("1000.00", savedCredits[0].Amount.StringFixed(2))
	suite.Equal("1000.00", savedCredits[1].Amount.StringFixed(2))
	suite.Equal("500.00", savedCredits[2].Amount.StringFixed(2))
	suite.mockBatchRepo.AssertExpectations(suite.T())
	suite.mockRepaymentRepo.AssertExpectations(suite.T())
}

func (suite *BatchServiceTestSuite) TestCreateBatchRepayment_ShortfallProRata() {
	ctx := context.Background()
	req := suite.batchRequest(2000)

	suite.mockBatchRepo.On("FindBatchBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepaymentRepo.On("FindTransactionsBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.expectMemberLoans()
	suite.mockRepaymentRepo.On("SaveTransactions", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	var savedCredits []domain.BatchMemberCredit
	suite.mockBatchRepo.On("SaveBatch", ctx, mock.Anything, mock.AnythingOfType("[]domain.BatchMemberCredit")).
		Run(func(args mock.Arguments) { savedCredits = args.Get(2).([]domain.BatchMemberCredit) }).
		Return(nil).Once()

	_, err := suite.service.CreateBatchRepayment(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(savedCredits, 3)
	// Ratio 2000/2500; the last member absorbs the residual so the credits
	// sum to the amount actually paid.
	suite.Equal("800.00", savedCredits[0].Amount.StringFixed(2))
	suite.Equal("800.00", savedCredits[1].Amount.StringFixed(2))
	suite.Equal("400.00", savedCredits[2].Amount.StringFixed(2))

	total := decimal.Zero
	for _, c := range savedCredits {
		total = total.Add(c.Amount)
	}
	suite.Equal("2000.00", total.StringFixed(2))
}

func (suite *BatchServiceTestSuite) TestCreateBatchRepayment_ExcludedMember() {
	ctx := context.Background()
	req := suite.batchRequest(2000)
	req.Members[2].Included = false

	suite.mockBatchRepo.On("FindBatchBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepaymentRepo.On("FindTransactionsBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.expectMemberLoans()
	suite.mockRepaymentRepo.On("SaveTransactions", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(2)

	var savedBatch domain.BatchRepayment
	var savedCredits []domain.BatchMemberCredit
	suite.mockBatchRepo.On("SaveBatch", ctx, mock.AnythingOfType("domain.BatchRepayment"), mock.AnythingOfType("[]domain.BatchMemberCredit")).
		Run(func(args mock.Arguments) {
			savedBatch = args.Get(1).(domain.BatchRepayment)
			savedCredits = args.Get(2).([]domain.BatchMemberCredit)
		}).
		Return(nil).Once()

	_, err := suite.service.CreateBatchRepayment(ctx, req, suite.userID)

	suite.Require().NoError(err)
	// Expected excludes the skipped member, so 2000 covers the rest in full.
	suite.Equal("2000.00", savedBatch.ExpectedAmount.StringFixed(2))
	suite.Require().Len(savedCredits, 3)
	suite.Equal("1000.00", savedCredits[0].Amount.StringFixed(2))
	suite.True(savedCredits[2].Excluded)
	suite.True(savedCredits[2].Amount.IsZero())
	suite.Equal(2, savedBatch.SuccessCount)
}

func (suite *BatchServiceTestSuite) TestCreateBatchRepayment_MemberWriteFailure() {
	ctx := context.Background()
	req := suite.batchRequest(2500)

	suite.mockBatchRepo.On("FindBatchBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepaymentRepo.On("FindTransactionsBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.expectMemberLoans()
	suite.mockRepaymentRepo.On("SaveTransactions", ctx, mock.Anything, mock.Anything, mock.MatchedBy(func(l domain.Loan) bool {
		return l.LoanID == suite.loanB.LoanID
	})).Return(errors.New("insert failed")).Once()
	suite.mockRepaymentRepo.On("SaveTransactions", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(2)

	var savedBatch domain.BatchRepayment
	var savedCredits []domain.BatchMemberCredit
	suite.mockBatchRepo.On("SaveBatch", ctx, mock.AnythingOfType("domain.BatchRepayment"), mock.AnythingOfType("[]domain.BatchMemberCredit")).
		Run(func(args mock.Arguments) {
			savedBatch = args.Get(1).(domain.BatchRepayment)
			savedCredits = args.Get(2).([]domain.BatchMemberCredit)
		}).
		Return(nil).Once()

	resp, err := suite.service.CreateBatchRepayment(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(2, savedBatch.SuccessCount)
	suite.Equal(1, savedBatch.FailureCount)
	suite.Require().Len(savedCredits, 3)
	suite.True(savedCredits[1].Failed)
	suite.Contains(savedCredits[1].FailureReason, "insert failed")
	suite.False(savedCredits[0].Failed)
	suite.Equal(1, resp.FailureCount)
}

func (suite *BatchServiceTestSuite) TestCreateBatchRepayment_DuplicateSettlement() {
	ctx := context.Background()
	req := suite.batchRequest(2500)
	existing := &domain.BatchRepayment{BatchID: uuid.NewString(), SettlementReference: "BATCH-01"}

	suite.mockBatchRepo.On("FindBatchBySettlementReference", ctx, "BATCH-01").Return(existing, nil).Once()

	_, err := suite.service.CreateBatchRepayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDuplicateSettlement)
	suite.mockLoanRepo.AssertNotCalled(suite.T(), "FindLoanByID", mock.Anything, mock.Anything)
}

func (suite *BatchServiceTestSuite) TestCreateBatchRepayment_ReferenceUsedByRepayment() {
	ctx := context.Background()
	req := suite.batchRequest(2500)
	existing := []domain.Transaction{{TransactionID: uuid.NewString(), SettlementReference: "BATCH-01"}}

	suite.mockBatchRepo.On("FindBatchBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepaymentRepo.On("FindTransactionsBySettlementReference", ctx, "BATCH-01").Return(existing, nil).Once()

	_, err := suite.service.CreateBatchRepayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDuplicateSettlement)
	suite.mockLoanRepo.AssertNotCalled(suite.T(), "FindLoanByID", mock.Anything, mock.Anything)
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "SaveBatch", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BatchServiceTestSuite) TestCreateBatchRepayment_MemberOutsideGroup() {
	ctx := context.Background()
	req := suite.batchRequest(2500)
	suite.loanB.GroupName = "GRP-B"

	suite.mockBatchRepo.On("FindBatchBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepaymentRepo.On("FindTransactionsBySettlementReference", ctx, "BATCH-01").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loanA.LoanID).Return(suite.loanA, nil).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loanB.LoanID).Return(suite.loanB, nil).Once()

	_, err := suite.service.CreateBatchRepayment(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrMemberOutsideGroup)
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "SaveBatch", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BatchServiceTestSuite) TestReverseBatch_Success() {
	ctx := context.Background()
	batch := &domain.BatchRepayment{
		BatchID:             uuid.NewString(),
		SettlementReference: "BATCH-01",
		GroupName:           "GRP-A",
		ExpectedAmount:      decimal.NewFromInt(2000),
		ActualAmount:        decimal.NewFromInt(2000),
		SuccessCount:        2,
	}
	credits := []domain.BatchMemberCredit{
		{CreditID: uuid.NewString(), BatchID: batch.BatchID, LoanID: suite.loanA.LoanID, BeneficiaryRef: "BEN-A", Amount: decimal.NewFromInt(1000)},
		{CreditID: uuid.NewString(), BatchID: batch.BatchID, LoanID: suite.loanB.LoanID, BeneficiaryRef: "BEN-B", Amount: decimal.NewFromInt(1000)},
		{CreditID: uuid.NewString(), BatchID: batch.BatchID, LoanID: suite.loanC.LoanID, BeneficiaryRef: "BEN-C", Amount: decimal.Zero, Excluded: true},
	}
	suite.loanA.TotalPaid = decimal.NewFromInt(1000)
	suite.loanA.OutstandingBalance = decimal.NewFromInt(11000)
	suite.loanB.TotalPaid = decimal.NewFromInt(1000)
	suite.loanB.OutstandingBalance = decimal.NewFromInt(11000)

	txnsA := []domain.Transaction{{TransactionID: uuid.NewString(), LoanID: suite.loanA.LoanID, Amount: decimal.NewFromInt(1000), SettlementReference: "BATCH-01/BEN-A", Source: domain.SourceBatch}}
	txnsB := []domain.Transaction{{TransactionID: uuid.NewString(), LoanID: suite.loanB.LoanID, Amount: decimal.NewFromInt(1000), SettlementReference: "BATCH-01/BEN-B", Source: domain.SourceBatch}}

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()
	suite.mockBatchRepo.On("FindMemberCreditsByBatchID", ctx, batch.BatchID).Return(credits, nil).Once()
	suite.mockRepaymentRepo.On("FindTransactionsBySettlementReference", ctx, "BATCH-01/BEN-A").Return(txnsA, nil).Once()
	suite.mockRepaymentRepo.On("FindTransactionsBySettlementReference", ctx, "BATCH-01/BEN-B").Return(txnsB, nil).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loanA.LoanID).Return(suite.loanA, nil).Once()
	suite.mockLoanRepo.On("FindLoanByID", ctx, suite.loanB.LoanID).Return(suite.loanB, nil).Once()
	suite.mockRepaymentRepo.On("MarkTransactionsReversed", ctx, mock.Anything, mock.Anything, mock.Anything, suite.userID, mock.Anything).Return(nil).Times(2)
	suite.mockBatchRepo.On("MarkBatchReversed", ctx, batch.BatchID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	resp, err := suite.service.ReverseBatch(ctx, batch.BatchID, suite.userID)

	suite.Require().NoError(err)
	suite.True(resp.Reversed)
	suite.mockBatchRepo.AssertExpectations(suite.T())
	suite.mockRepaymentRepo.AssertExpectations(suite.T())
}

func (suite *BatchServiceTestSuite) TestReverseBatch_AlreadyReversed() {
	ctx := context.Background()
	batch := &domain.BatchRepayment{BatchID: uuid.NewString(), Reversed: true}

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()

	_, err := suite.service.ReverseBatch(ctx, batch.BatchID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyReversed)
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "MarkBatchReversed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BatchServiceTestSuite))
}
