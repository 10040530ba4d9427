package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanworks/loanbook_app/internal/core/domain"
)

// CreateLoanRequest defines the data required to book a new loan.
type CreateLoanRequest struct {
	BeneficiaryRef    string          `json:"beneficiaryRef" binding:"required"`
	BeneficiaryName   string          `json:"beneficiaryName" binding:"required"`
	GroupName         string          `json:"groupName"`
	CurrencyCode      string          `json:"currencyCode" binding:"required,uppercase,len=3"`
	Principal         decimal.Decimal `json:"principal" binding:"required,positivedecimal"`
	AnnualRatePercent decimal.Decimal `json:"annualRatePercent"`
	TenorMonths       int             `json:"tenorMonths" binding:"required,min=1"`
	MoratoriumMonths  int             `json:"moratoriumMonths" binding:"min=0"`
	DisbursementDate  time.Time       `json:"disbursementDate" binding:"required"`
}

// UpdateLoanRequest defines the data allowed for updating a loan.
// Using pointers to differentiate between omitted fields and zero-value fields.
type UpdateLoanRequest struct {
	BeneficiaryName *string `json:"beneficiaryName"`
	GroupName       *string `json:"groupName"`
}

// AmortizationPreviewRequest defines proposed terms for a schedule preview.
type AmortizationPreviewRequest struct {
	Principal         decimal.Decimal `json:"principal" binding:"required,positivedecimal"`
	AnnualRatePercent decimal.Decimal `json:"annualRatePercent"`
	TenorMonths       int             `json:"tenorMonths" binding:"required,min=1"`
	MoratoriumMonths  int             `json:"moratoriumMonths" binding:"min=0"`
	DisbursementDate  time.Time       `json:"disbursementDate" binding:"required"`
}

// ListLoansParams defines query parameters for listing loans.
type ListLoansParams struct {
	Limit     int      `form:"limit,default=20"`
	NextToken *string  `form:"nextToken"`
	Statuses  []string `form:"status"`
}

// LoanResponse defines the data returned for a loan.
type LoanResponse struct {
	LoanID             string          `json:"loanID"`
	BeneficiaryRef     string          `json:"beneficiaryRef"`
	BeneficiaryName    string          `json:"beneficiaryName"`
	GroupName          string          `json:"groupName,omitempty"`
	CurrencyCode       string          `json:"currencyCode"`
	Principal          decimal.Decimal `json:"principal"`
	AnnualRatePercent  decimal.Decimal `json:"annualRatePercent"`
	TenorMonths        int             `json:"tenorMonths"`
	MoratoriumMonths   int             `json:"moratoriumMonths"`
	DisbursementDate   time.Time       `json:"disbursementDate"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	TotalInterest      decimal.Decimal `json:"totalInterest"`
	TotalPayment       decimal.Decimal `json:"totalPayment"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// ListLoansResponse wraps a page of loans.
type ListLoansResponse struct {
	Loans     []LoanResponse `json:"loans"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// ScheduleEntryResponse defines one row of an amortization schedule.
type ScheduleEntryResponse struct {
	Month   int       `json:"month"`
	DueDate time.Time `json:"dueDate"`
}

// AmortizationPreviewResponse defines the result of a schedule preview.
type AmortizationPreviewResponse struct {
	MonthlyInstallment decimal.Decimal         `json:"monthlyInstallment"`
	TotalInterest      decimal.Decimal         `json:"totalInterest"`
	TotalPayment       decimal.Decimal         `json:"totalPayment"`
	CommencementDate   time.Time               `json:"commencementDate"`
	TerminationDate    time.Time               `json:"terminationDate"`
	Schedule           []ScheduleEntryResponse `json:"schedule"`
}

// ArrearsResponse defines the classified repayment position of a loan.
type ArrearsResponse struct {
	LoanID          string          `json:"loanID"`
	AsOf            time.Time       `json:"asOf"`
	MonthsDue       int             `json:"monthsDue"`
	ExpectedToDate  decimal.Decimal `json:"expectedToDate"`
	Shortfall       decimal.Decimal `json:"shortfall"`
	OverdueAmount   decimal.Decimal `json:"overdueAmount"`
	OverdueMonths   int             `json:"overdueMonths"`
	ArrearsAmount   decimal.Decimal `json:"arrearsAmount"`
	MonthsInArrears int             `json:"monthsInArrears"`
	DaysOverdue     int             `json:"daysOverdue"`
}

// ToLoanResponse converts a domain.Loan to LoanResponse DTO.
func ToLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		LoanID:             l.LoanID,
		BeneficiaryRef:     l.BeneficiaryRef,
		BeneficiaryName:    l.BeneficiaryName,
		GroupName:          l.GroupName,
		CurrencyCode:       l.CurrencyCode,
		Principal:          l.Terms.Principal,
		AnnualRatePercent:  l.Terms.AnnualRatePercent,
		TenorMonths:        l.Terms.TenorMonths,
		MoratoriumMonths:   l.Terms.MoratoriumMonths,
		DisbursementDate:   l.Terms.DisbursementDate,
		MonthlyInstallment: l.MonthlyInstallment,
		TotalInterest:      l.TotalInterest,
		TotalPayment:       l.TotalPayment,
		TotalPaid:          l.TotalPaid,
		OutstandingBalance: l.OutstandingBalance,
		Status:             string(l.Status),
		CreatedAt:          l.CreatedAt,
	}
}

// ToListLoansResponse converts a page of domain loans to ListLoansResponse.
func ToListLoansResponse(loans []domain.Loan, nextToken *string) ListLoansResponse {
	responses := make([]LoanResponse, len(loans))
	for i, l := range loans {
		responses[i] = ToLoanResponse(&l)
	}
	return ListLoansResponse{Loans: responses, NextToken: nextToken}
}

// ToScheduleEntryResponses converts a domain schedule to its response form.
func ToScheduleEntryResponses(schedule []domain.ScheduleEntry) []ScheduleEntryResponse {
	responses := make([]ScheduleEntryResponse, len(schedule))
	for i, e := range schedule {
		responses[i] = ScheduleEntryResponse{Month: e.Month, DueDate: e.DueDate}
	}
	return responses
}

// ToAmortizationPreviewResponse converts a domain.AmortizationResult to its response form.
func ToAmortizationPreviewResponse(r *domain.AmortizationResult) AmortizationPreviewResponse {
	return AmortizationPreviewResponse{
		MonthlyInstallment: r.MonthlyInstallment,
		TotalInterest:      r.TotalInterest,
		TotalPayment:       r.TotalPayment,
		CommencementDate:   r.CommencementDate,
		TerminationDate:    r.TerminationDate,
		Schedule:           ToScheduleEntryResponses(r.Schedule),
	}
}

// ToArrearsResponse converts a domain.ArrearsSnapshot to ArrearsResponse DTO.
func ToArrearsResponse(loanID string, asOf time.Time, s *domain.ArrearsSnapshot) ArrearsResponse {
	return ArrearsResponse{
		LoanID:          loanID,
		AsOf:            asOf,
		MonthsDue:       s.MonthsDue,
		ExpectedToDate:  s.ExpectedToDate,
		Shortfall:       s.Shortfall,
		OverdueAmount:   s.OverdueAmount,
		OverdueMonths:   s.OverdueMonths,
		ArrearsAmount:   s.ArrearsAmount,
		MonthsInArrears: s.MonthsInArrears,
		DaysOverdue:     s.DaysOverdue,
	}
}
