package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/dto"
	"github.com/loanworks/loanbook_app/internal/handlers"
	"github.com/loanworks/loanbook_app/internal/middleware"
)

// --- Mock LoanService ---
type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) GetLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, params dto.ListLoansParams) (*dto.ListLoansResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListLoansResponse), args.Error(1)
}

func (m *MockLoanService) ListLoansByGroup(ctx context.Context, groupName string) ([]domain.Loan, error) {
	args := m.Called(ctx, groupName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanService) GetSchedule(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduleEntry), args.Error(1)
}

func (m *MockLoanService) GetArrears(ctx context.Context, loanID string, asOf time.Time) (*domain.ArrearsSnapshot, error) {
	args := m.Called(ctx, loanID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArrearsSnapshot), args.Error(1)
}

func (m *MockLoanService) CreateLoan(ctx context.Context, req dto.CreateLoanRequest, creatorUserID string) (*domain.Loan, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) UpdateLoan(ctx context.Context, loanID string, req dto.UpdateLoanRequest, requestingUserID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, req, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) MarkLoanDefaulted(ctx context.Context, loanID string, requestingUserID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) PreviewAmortization(ctx context.Context, req dto.AmortizationPreviewRequest) (*domain.AmortizationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AmortizationResult), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.LoanSvcFacade = (*MockLoanService)(nil)

// --- Test Suite ---
type LoanHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockLoanService *MockLoanService
	jwtSecret       string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *LoanHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "loanbook-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedString, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signedString
}

func (suite *LoanHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockLoanService = new(MockLoanService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterLoanRoutes(v1, suite.mockLoanService)
}

// --- Test Cases ---

func (suite *LoanHandlerTestSuite) TestCreateLoan_Success() {
	creatorUserID := uuid.NewString()
	disbursed := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	reqBody := dto.CreateLoanRequest{
		BeneficiaryRef:    "BEN-001",
		BeneficiaryName:   "First Beneficiary",
		CurrencyCode:      "TZS",
		Principal:         decimal.NewFromInt(2500000),
		AnnualRatePercent: decimal.NewFromInt(6),
		TenorMonths:       36,
		DisbursementDate:  disbursed,
	}

	expectedLoan := &domain.Loan{
		LoanID:          uuid.NewString(),
		BeneficiaryRef:  reqBody.BeneficiaryRef,
		BeneficiaryName: reqBody.BeneficiaryName,
		CurrencyCode:    reqBody.CurrencyCode,
		Terms: domain.LoanTerms{
			Principal:         reqBody.Principal,
			AnnualRatePercent: reqBody.AnnualRatePercent,
			TenorMonths:       reqBody.TenorMonths,
			DisbursementDate:  disbursed,
		},
		MonthlyInstallment: decimal.NewFromFloat(76054.84),
		Status:             domain.LoanActive,
	}

	suite.mockLoanService.On("CreateLoan",
		mock.AnythingOfType("*context.valueCtx"),
		mock.MatchedBy(func(r dto.CreateLoanRequest) bool {
			return r.BeneficiaryRef == reqBody.BeneficiaryRef && r.TenorMonths == 36
		}),
		creatorUserID,
	).Return(expectedLoan, nil).Once()

	body, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/loans", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(creatorUserID))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusCreated, w.Code)

	var responseBody dto.LoanResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &responseBody))
	suite.Equal(expectedLoan.LoanID, responseBody.LoanID)
	suite.Equal("76054.84", responseBody.MonthlyInstallment.StringFixed(2))

	suite.mockLoanService.AssertExpectations(suite.T())
}

func (suite *LoanHandlerTestSuite) TestGetLoan_NotFound() {
	loanID := uuid.NewString()
	userID := uuid.NewString()

	suite.mockLoanService.On("GetLoanByID", mock.AnythingOfType("*context.valueCtx"), loanID).
		Return(nil, apperrors.ErrNotFound).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/loans/"+loanID, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockLoanService.AssertExpectations(suite.T())
}

func (suite *LoanHandlerTestSuite) TestGetArrears_ParsesAsOfDate() {
	loanID := uuid.NewString()
	userID := uuid.NewString()
	asOf := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	snapshot := &domain.ArrearsSnapshot{
		MonthsDue:      5,
		ExpectedToDate: decimal.NewFromInt(500),
		Shortfall:      decimal.NewFromInt(200),
		ArrearsAmount:  decimal.NewFromInt(200),
		DaysOverdue:    46,
	}

	suite.mockLoanService.On("GetArrears", mock.AnythingOfType("*context.valueCtx"), loanID, asOf).
		Return(snapshot, nil).Once()

	url := fmt.Sprintf("/api/v1/loans/%s/arrears?asOf=2024-06-30", loanID)
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)

	var responseBody dto.ArrearsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &responseBody))
	suite.Equal(5, responseBody.MonthsDue)
	suite.Equal("200.00", responseBody.ArrearsAmount.StringFixed(2))
	suite.Equal(46, responseBody.DaysOverdue)

	suite.mockLoanService.AssertExpectations(suite.T())
}

func (suite *LoanHandlerTestSuite) TestGetArrears_BadDate() {
	loanID := uuid.NewString()
	userID := uuid.NewString()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/loans/"+loanID+"/arrears?asOf=30-06-2024", nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLoanService.AssertNotCalled(suite.T(), "GetArrears")
}

func (suite *LoanHandlerTestSuite) TestCreateLoan_Unauthenticated() {
	reqBody := dto.CreateLoanRequest{
		BeneficiaryRef:   "BEN-001",
		BeneficiaryName:  "First Beneficiary",
		CurrencyCode:     "TZS",
		Principal:        decimal.NewFromInt(1000),
		TenorMonths:      12,
		DisbursementDate: time.Now(),
	}

	body, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/loans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockLoanService.AssertNotCalled(suite.T(), "CreateLoan")
}

// --- Run Test Suite ---
func TestLoanHandler(t *testing.T) {
	suite.Run(t, new(LoanHandlerTestSuite))
}
