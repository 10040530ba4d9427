package mapping

import (
	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:       d.TransactionID,
		LoanID:              d.LoanID,
		BeneficiaryRef:      d.BeneficiaryRef,
		Amount:              d.Amount,
		SettlementReference: d.SettlementReference,
		DatePaid:            d.DatePaid,
		MonthFor:            d.MonthFor,
		Advance:             d.Advance,
		Source:              models.TransactionSource(d.Source),
		ReceiptRef:          d.ReceiptRef,
		Notes:               d.Notes,
		Reversed:            d.Reversed,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:       m.TransactionID,
		LoanID:              m.LoanID,
		BeneficiaryRef:      m.BeneficiaryRef,
		Amount:              m.Amount,
		SettlementReference: m.SettlementReference,
		DatePaid:            m.DatePaid,
		MonthFor:            m.MonthFor,
		Advance:             m.Advance,
		Source:              domain.TransactionSource(m.Source),
		ReceiptRef:          m.ReceiptRef,
		Notes:               m.Notes,
		Reversed:            m.Reversed,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions to a slice of domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:             d.EntryID,
		LoanID:              d.LoanID,
		Amount:              d.Amount,
		Kind:                models.LedgerEntryKind(d.Kind),
		SettlementReference: d.SettlementReference,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:             m.EntryID,
		LoanID:              m.LoanID,
		Amount:              m.Amount,
		Kind:                domain.LedgerEntryKind(m.Kind),
		SettlementReference: m.SettlementReference,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries to domain form
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
