package mapping

import (
	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/models"
)

// ToModelLoan converts a domain Loan to a model Loan
func ToModelLoan(d domain.Loan) models.Loan {
	return models.Loan{
		LoanID:             d.LoanID,
		BeneficiaryRef:     d.BeneficiaryRef,
		BeneficiaryName:    d.BeneficiaryName,
		GroupName:          d.GroupName,
		CurrencyCode:       d.CurrencyCode,
		Principal:          d.Terms.Principal,
		AnnualRatePercent:  d.Terms.AnnualRatePercent,
		TenorMonths:        d.Terms.TenorMonths,
		MoratoriumMonths:   d.Terms.MoratoriumMonths,
		DisbursementDate:   d.Terms.DisbursementDate,
		MonthlyInstallment: d.MonthlyInstallment,
		TotalInterest:      d.TotalInterest,
		TotalPayment:       d.TotalPayment,
		TotalPaid:          d.TotalPaid,
		OutstandingBalance: d.OutstandingBalance,
		Status:             models.LoanStatus(d.Status),
		Notes:              d.Notes,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLoan converts a model Loan to a domain Loan
func ToDomainLoan(m models.Loan) domain.Loan {
	return domain.Loan{
		LoanID:          m.LoanID,
		BeneficiaryRef:  m.BeneficiaryRef,
		BeneficiaryName: m.BeneficiaryName,
		GroupName:       m.GroupName,
		CurrencyCode:    m.CurrencyCode,
		Terms: domain.LoanTerms{
			Principal:         m.Principal,
			AnnualRatePercent: m.AnnualRatePercent,
			TenorMonths:       m.TenorMonths,
			MoratoriumMonths:  m.MoratoriumMonths,
			DisbursementDate:  m.DisbursementDate,
		},
		MonthlyInstallment: m.MonthlyInstallment,
		TotalInterest:      m.TotalInterest,
		TotalPayment:       m.TotalPayment,
		TotalPaid:          m.TotalPaid,
		OutstandingBalance: m.OutstandingBalance,
		Status:             domain.LoanStatus(m.Status),
		Notes:              m.Notes,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLoanSlice converts a slice of model Loans to a slice of domain Loans
func ToDomainLoanSlice(ms []models.Loan) []domain.Loan {
	ds := make([]domain.Loan, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLoan(m)
	}
	return ds
}
