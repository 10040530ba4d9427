package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/core/engine"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/dto"
	"github.com/loanworks/loanbook_app/internal/middleware"
)

// ErrAlreadyReversed indicates the settlement has already been reversed.
var ErrAlreadyReversed = errors.New("settlement already reversed")

// ErrDuplicateSettlement indicates the settlement reference was already used.
var ErrDuplicateSettlement = errors.New("settlement reference already recorded")

// repaymentService records and reverses individual repayments. Every balance
// change goes through the append-only loan ledger; the loan's derived fields
// are refreshed from the ledger total inside the same database transaction as
// the write that changed it.
type repaymentService struct {
	repaymentRepo portsrepo.RepaymentRepositoryFacade
	loanRepo      portsrepo.LoanRepositoryFacade
	batchRepo     portsrepo.BatchRepositoryFacade
}

// NewRepaymentService creates a new repayment service. The batch repository
// is consulted only to keep settlement references unique across individual
// and batch payments.
func NewRepaymentService(repaymentRepo portsrepo.RepaymentRepositoryFacade, loanRepo portsrepo.LoanRepositoryFacade, batchRepo portsrepo.BatchRepositoryFacade) portssvc.RepaymentSvcFacade {
	return &repaymentService{
		repaymentRepo: repaymentRepo,
		loanRepo:      loanRepo,
		batchRepo:     batchRepo,
	}
}

var _ portssvc.RepaymentSvcFacade = (*repaymentService)(nil)

// advanceReference derives the settlement reference for the n-th allocation of
// a multi-month payment. The first allocation keeps the base reference so the
// payer's reference stays searchable; later months get a suffixed variant to
// satisfy global reference uniqueness while staying traceable to the base.
func advanceReference(base string, n int) string {
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-ADV%d", base, n)
}

// CreateRepayment records a payment against a loan. The amount is spread
// forward across schedule months from the first uncovered month (or the
// caller's explicit start month), producing one transaction and one positive
// ledger entry per month covered.
func (s *repaymentService) CreateRepayment(ctx context.Context, loanID string, req dto.CreateRepaymentRequest, creatorUserID string) ([]domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == domain.LoanCompleted {
		return nil, fmt.Errorf("%w: %s", ErrLoanCompleted, loanID)
	}

	// Fast duplicate check; the unique index on settlement_reference remains
	// the authority under concurrent writes.
	existing, err := s.repaymentRepo.FindTransactionsBySettlementReference(ctx, req.SettlementReference)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check settlement reference %s: %w", req.SettlementReference, err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSettlement, req.SettlementReference)
	}

	// References are unique across individual and batch payments, so a
	// reference already used by a batch is a duplicate here too.
	existingBatch, err := s.batchRepo.FindBatchBySettlementReference(ctx, req.SettlementReference)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check batch settlement reference %s: %w", req.SettlementReference, err)
	}
	if existingBatch != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSettlement, req.SettlementReference)
	}

	startMonth := s.firstUncoveredMonth(loan)
	if req.StartMonth != nil {
		startMonth = *req.StartMonth
	}

	allocations, err := engine.AllocatePayment(startMonth, req.Amount, loan.MonthlyInstallment, loan.Terms.TenorMonths)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	now := time.Now().UTC()
	transactions := make([]domain.Transaction, 0, len(allocations))
	entries := make([]domain.LedgerEntry, 0, len(allocations))
	for i, alloc := range allocations {
		ref := advanceReference(req.SettlementReference, i)
		txn := domain.Transaction{
			TransactionID:       uuid.NewString(),
			LoanID:              loan.LoanID,
			BeneficiaryRef:      loan.BeneficiaryRef,
			Amount:              alloc.Amount,
			SettlementReference: ref,
			DatePaid:            req.DatePaid,
			MonthFor:            alloc.Month,
			Advance:             alloc.Advance,
			Source:              domain.SourceIndividual,
			ReceiptRef:          req.ReceiptRef,
			Notes:               req.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
		if err := txn.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		transactions = append(transactions, txn)
		entries = append(entries, domain.LedgerEntry{
			EntryID:             uuid.NewString(),
			LoanID:              loan.LoanID,
			Amount:              alloc.Amount,
			Kind:                domain.EntryRepayment,
			SettlementReference: ref,
			AuditFields:         txn.AuditFields,
		})
	}

	// The ledger, not the cached total, is the base for the refreshed figures.
	ledgerTotal, err := s.repaymentRepo.SumLedgerByLoan(ctx, loan.LoanID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger for loan %s: %w", loan.LoanID, err)
	}

	updated := *loan
	updated.RefreshFromLedger(ledgerTotal.Add(req.Amount))
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = creatorUserID

	if err := s.repaymentRepo.SaveTransactions(ctx, transactions, entries, updated); err != nil {
		logger.Error("Failed to save repayment",
			slog.String("loan_id", loanID),
			slog.String("settlement_ref", req.SettlementReference),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	logger.Info("Repayment recorded",
		slog.String("loan_id", loanID),
		slog.String("settlement_ref", req.SettlementReference),
		slog.Int("months_covered", len(transactions)),
		slog.String("amount", req.Amount.String()),
	)
	return transactions, nil
}

// firstUncoveredMonth walks forward to the first schedule month not yet fully
// paid for, clamped into the tenor.
func (s *repaymentService) firstUncoveredMonth(loan *domain.Loan) int {
	if !loan.MonthlyInstallment.IsPositive() {
		return 1
	}
	covered := int(loan.TotalPaid.Div(loan.MonthlyInstallment).IntPart())
	start := covered + 1
	if start > loan.Terms.TenorMonths {
		start = loan.Terms.TenorMonths
	}
	if start < 1 {
		start = 1
	}
	return start
}

// ReverseRepayment undoes every transaction recorded under a settlement
// reference, including the suffixed advance-month transactions of a
// multi-month payment. Each stored amount is replayed negated as a reversal
// ledger entry; the original rows survive with a reversed flag.
func (s *repaymentService) ReverseRepayment(ctx context.Context, settlementReference string, requestingUserID string) ([]domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	transactions, err := s.repaymentRepo.FindTransactionsBySettlementReference(ctx, settlementReference)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, fmt.Errorf("no transactions for settlement reference %s: %w", settlementReference, apperrors.ErrNotFound)
	}
	for _, txn := range transactions {
		if txn.Reversed {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyReversed, settlementReference)
		}
	}

	loan, err := s.loanRepo.FindLoanByID(ctx, transactions[0].LoanID)
	if err != nil {
		return nil, err
	}

	ledgerTotal, err := s.repaymentRepo.SumLedgerByLoan(ctx, loan.LoanID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger for loan %s: %w", loan.LoanID, err)
	}

	now := time.Now().UTC()
	ids := make([]string, 0, len(transactions))
	entries := make([]domain.LedgerEntry, 0, len(transactions))
	reversedTotal := ledgerTotal
	for _, txn := range transactions {
		ids = append(ids, txn.TransactionID)
		entries = append(entries, domain.LedgerEntry{
			EntryID:             uuid.NewString(),
			LoanID:              txn.LoanID,
			Amount:              txn.Amount.Neg(),
			Kind:                domain.EntryReversal,
			SettlementReference: txn.SettlementReference,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     requestingUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: requestingUserID,
			},
		})
		reversedTotal = reversedTotal.Sub(txn.Amount)
	}

	updated := *loan
	updated.RefreshFromLedger(reversedTotal)
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = requestingUserID

	if err := s.repaymentRepo.MarkTransactionsReversed(ctx, ids, entries, updated, requestingUserID, now); err != nil {
		logger.Error("Failed to reverse repayment",
			slog.String("settlement_ref", settlementReference),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	for i := range transactions {
		transactions[i].Reversed = true
		transactions[i].LastUpdatedAt = now
		transactions[i].LastUpdatedBy = requestingUserID
	}
	logger.Info("Repayment reversed",
		slog.String("settlement_ref", settlementReference),
		slog.Int("transactions", len(transactions)),
	)
	return transactions, nil
}

func (s *repaymentService) GetRepaymentByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.repaymentRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get repayment %s: %w", transactionID, err)
	}
	return txn, nil
}

func (s *repaymentService) ListRepaymentsByLoan(ctx context.Context, loanID string, params dto.ListRepaymentsParams) (*dto.ListRepaymentsResponse, error) {
	transactions, nextToken, err := s.repaymentRepo.ListTransactionsByLoan(ctx, loanID, params.Limit, params.NextToken, params.IncludeReversed)
	if err != nil {
		return nil, fmt.Errorf("failed to list repayments for loan %s: %w", loanID, err)
	}

	resp := dto.ListRepaymentsResponse{
		Repayments: dto.ToRepaymentResponses(transactions),
		NextToken:  nextToken,
	}
	return &resp, nil
}

func (s *repaymentService) GetLedger(ctx context.Context, loanID string) ([]domain.LedgerEntry, error) {
	// Verify the loan exists so an unknown ID reads as 404, not an empty ledger.
	if _, err := s.loanRepo.FindLoanByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.repaymentRepo.ListLedgerEntriesByLoan(ctx, loanID)
}
