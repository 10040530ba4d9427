package mapping

import (
	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/models"
)

// ToModelBatchRepayment converts a domain BatchRepayment to a model BatchRepayment
func ToModelBatchRepayment(d domain.BatchRepayment) models.BatchRepayment {
	return models.BatchRepayment{
		BatchID:             d.BatchID,
		GroupName:           d.GroupName,
		SettlementReference: d.SettlementReference,
		ExpectedAmount:      d.ExpectedAmount,
		ActualAmount:        d.ActualAmount,
		DatePaid:            d.DatePaid,
		SuccessCount:        d.SuccessCount,
		FailureCount:        d.FailureCount,
		Reversed:            d.Reversed,
		ReceiptRef:          d.ReceiptRef,
		Notes:               d.Notes,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBatchRepayment converts a model BatchRepayment to a domain BatchRepayment
func ToDomainBatchRepayment(m models.BatchRepayment) domain.BatchRepayment {
	return domain.BatchRepayment{
		BatchID:             m.BatchID,
		GroupName:           m.GroupName,
		SettlementReference: m.SettlementReference,
		ExpectedAmount:      m.ExpectedAmount,
		ActualAmount:        m.ActualAmount,
		DatePaid:            m.DatePaid,
		SuccessCount:        m.SuccessCount,
		FailureCount:        m.FailureCount,
		Reversed:            m.Reversed,
		ReceiptRef:          m.ReceiptRef,
		Notes:               m.Notes,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainBatchRepaymentSlice converts a slice of model BatchRepayments to domain form
func ToDomainBatchRepaymentSlice(ms []models.BatchRepayment) []domain.BatchRepayment {
	ds := make([]domain.BatchRepayment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBatchRepayment(m)
	}
	return ds
}

// ToModelBatchMemberCredit converts a domain BatchMemberCredit to a model BatchMemberCredit
func ToModelBatchMemberCredit(d domain.BatchMemberCredit) models.BatchMemberCredit {
	return models.BatchMemberCredit{
		CreditID:       d.CreditID,
		BatchID:        d.BatchID,
		LoanID:         d.LoanID,
		BeneficiaryRef: d.BeneficiaryRef,
		Amount:         d.Amount,
		Excluded:       d.Excluded,
		Failed:         d.Failed,
		FailureReason:  d.FailureReason,
	}
}

// ToDomainBatchMemberCredit converts a model BatchMemberCredit to a domain BatchMemberCredit
func ToDomainBatchMemberCredit(m models.BatchMemberCredit) domain.BatchMemberCredit {
	return domain.BatchMemberCredit{
		CreditID:       m.CreditID,
		BatchID:        m.BatchID,
		LoanID:         m.LoanID,
		BeneficiaryRef: m.BeneficiaryRef,
		Amount:         m.Amount,
		Excluded:       m.Excluded,
		Failed:         m.Failed,
		FailureReason:  m.FailureReason,
	}
}

// ToDomainBatchMemberCreditSlice converts a slice of model BatchMemberCredits to domain form
func ToDomainBatchMemberCreditSlice(ms []models.BatchMemberCredit) []domain.BatchMemberCredit {
	ds := make([]domain.BatchMemberCredit, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainBatchMemberCredit(m)
	}
	return ds
}
