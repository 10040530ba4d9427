package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/core/services"
)

// --- Mock ReconciliationRepository ---
type MockReconciliationRepository struct {
	mock.Mock
}

var _ portsrepo.ReconciliationRepositoryFacade = (*MockReconciliationRepository)(nil)

func (m *MockReconciliationRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationSession), args.Error(1)
}

func (m *MockReconciliationRepository) ListSessions(ctx context.Context, limit int, nextToken *string) ([]domain.ReconciliationSession, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	var sessions []domain.ReconciliationSession
	if args.Get(0) != nil {
		sessions = args.Get(0).([]domain.ReconciliationSession)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return sessions, token, args.Error(2)
}

func (m *MockReconciliationRepository) SaveSession(ctx context.Context, session domain.ReconciliationSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// --- Test Suite ---

type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockReconciliationRepo *MockReconciliationRepository
	mockRepaymentRepo      *MockRepaymentRepository
	mockBatchRepo          *MockBatchRepository
	service                portssvc.ReconciliationSvcFacade
	userID                 string
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockReconciliationRepo = new(MockReconciliationRepository)
	suite.mockRepaymentRepo = new(MockRepaymentRepository)
	suite.mockBatchRepo = new(MockBatchRepository)
	suite.service = services.NewReconciliationService(suite.mockReconciliationRepo, suite.mockRepaymentRepo, suite.mockBatchRepo)
	suite.userID = uuid.NewString()
}

func (suite *ReconciliationServiceTestSuite) TestReconcile_MixedOutcomes() {
	ctx := context.Background()
	transactions := []domain.Transaction{
		{TransactionID: uuid.NewString(), BeneficiaryRef: "BEN-001", Amount: decimal.NewFromFloat(500.00), SettlementReference: "RRR-001", Source: domain.SourceIndividual},
		{TransactionID: uuid.NewString(), BeneficiaryRef: "BEN-002", Amount: decimal.NewFromFloat(750.00), SettlementReference: "RRR-002", Source: domain.SourceIndividual},
	}
	batches := []domain.BatchRepayment{
		{BatchID: uuid.NewString(), GroupName: "GRP-A", ActualAmount: decimal.NewFromFloat(2000.00), SettlementReference: "BATCH-01"},
	}
	rows := []domain.StatementRow{
		// Case and whitespace differences still land on the recorded reference.
		{RowIndex: 1, Reference: " rrr-001 ", Amount: decimal.NewFromFloat(500.00)},
		{RowIndex: 2, Reference: "RRR-002", Amount: decimal.NewFromFloat(700.00)},
		{RowIndex: 3, Reference: "batch-01", Amount: decimal.NewFromFloat(2000.00)},
		{RowIndex: 4, Reference: "GHOST-99", Amount: decimal.NewFromFloat(50.00)},
	}

	suite.mockRepaymentRepo.On("ListActiveTransactions", ctx).Return(transactions, nil).Once()
	suite.mockBatchRepo.On("ListActiveBatches", ctx).Return(batches, nil).Once()

	var savedSession domain.ReconciliationSession
	suite.mockReconciliationRepo.On("SaveSession", ctx, mock.AnythingOfType("domain.ReconciliationSession")).
		Run(func(args mock.Arguments) { savedSession = args.Get(1).(domain.ReconciliationSession) }).
		Return(nil).Once()

	resp, err := suite.service.Reconcile(ctx, rows, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(4, resp.TotalRows)
	suite.Equal(2, resp.ExactCount)
	suite.Equal(1, resp.MismatchCount)
	suite.Equal(1, resp.UnmatchedCount)
	suite.Equal("2500.00", resp.MatchedAmount.StringFixed(2))
	suite.Require().Len(resp.Results, 4)

	suite.Equal(string(domain.MatchExact), resp.Results[0].MatchType)
	suite.Equal(string(domain.MatchSourceIndividual), resp.Results[0].Source)
	suite.Equal(string(domain.MatchAmountMismatch), resp.Results[1].MatchType)
	suite.Equal(string(domain.MatchExact), resp.Results[2].MatchType)
	suite.Equal(string(domain.MatchSourceBatch), resp.Results[2].Source)
	suite.Equal(string(domain.MatchUnmatched), resp.Results[3].MatchType)

	suite.Equal(2, savedSession.ExactCount)
	suite.Len(savedSession.ExactDetail, 2)
	suite.Equal(suite.userID, savedSession.CreatedBy)
	suite.mockReconciliationRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestReconcile_IndividualTakesPrecedence() {
	ctx := context.Background()
	// The same reference exists on both sides; the individual transaction is
	// the more specific record and wins.
	transactions := []domain.Transaction{
		{TransactionID: uuid.NewString(), BeneficiaryRef: "BEN-001", Amount: decimal.NewFromFloat(500.00), SettlementReference: "SHARED-REF", Source: domain.SourceIndividual},
	}
	batches := []domain.BatchRepayment{
		{BatchID: uuid.NewString(), GroupName: "GRP-A", ActualAmount: decimal.NewFromFloat(500.00), SettlementReference: "SHARED-REF"},
	}
	rows := []domain.StatementRow{
		{RowIndex: 1, Reference: "SHARED-REF", Amount: decimal.NewFromFloat(500.00)},
	}

	suite.mockRepaymentRepo.On("ListActiveTransactions", ctx).Return(transactions, nil).Once()
	suite.mockBatchRepo.On("ListActiveBatches", ctx).Return(batches, nil).Once()
	suite.mockReconciliationRepo.On("SaveSession", ctx, mock.Anything).Return(nil).Once()

	resp, err := suite.service.Reconcile(ctx, rows, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(resp.Results, 1)
	suite.Equal(string(domain.MatchExact), resp.Results[0].MatchType)
	suite.Equal(string(domain.MatchSourceIndividual), resp.Results[0].Source)
	suite.Equal("BEN-001", resp.Results[0].Beneficiary)
}

func (suite *ReconciliationServiceTestSuite) TestReconcile_EmptyStatement() {
	ctx := context.Background()

	_, err := suite.service.Reconcile(ctx, nil, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepaymentRepo.AssertNotCalled(suite.T(), "ListActiveTransactions", mock.Anything)
	suite.mockReconciliationRepo.AssertNotCalled(suite.T(), "SaveSession", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestGetSessionByID_NotFound() {
	ctx := context.Background()
	sessionID := uuid.NewString()
	suite.mockReconciliationRepo.On("FindSessionByID", ctx, sessionID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetSessionByID(ctx, sessionID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
