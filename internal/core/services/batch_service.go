package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/core/engine"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/dto"
	"github.com/loanworks/loanbook_app/internal/middleware"
)

// ErrMemberOutsideGroup indicates a batch request named a loan that belongs to
// a different repayment group.
var ErrMemberOutsideGroup = errors.New("loan does not belong to the batch group")

// batchService distributes one settlement receipt across the member loans of
// a repayment group. The batch header records what was intended; the member
// credits record what actually committed, so a member whose write failed is
// reported rather than silently dropped.
type batchService struct {
	batchRepo     portsrepo.BatchRepositoryFacade
	loanRepo      portsrepo.LoanRepositoryFacade
	repaymentRepo portsrepo.RepaymentRepositoryFacade
}

// NewBatchService creates a new batch repayment service.
func NewBatchService(batchRepo portsrepo.BatchRepositoryFacade, loanRepo portsrepo.LoanRepositoryFacade, repaymentRepo portsrepo.RepaymentRepositoryFacade) portssvc.BatchSvcFacade {
	return &batchService{
		batchRepo:     batchRepo,
		loanRepo:      loanRepo,
		repaymentRepo: repaymentRepo,
	}
}

var _ portssvc.BatchSvcFacade = (*batchService)(nil)

// memberReference derives the settlement reference for one member's credit
// out of a batch: the batch reference with the member's beneficiary reference
// appended, keeping every member credit individually reversible.
func memberReference(batchRef, beneficiaryRef string) string {
	return batchRef + "/" + beneficiaryRef
}

// CreateBatchRepayment splits a group payment across its included members.
// Paid in full, every included member is credited its own installment; on a
// shortfall each gets its pro-rata share with the rounding residual folded
// into the last member. Per-member write failures are recorded on the credit
// and do not abort the batch.
func (s *batchService) CreateBatchRepayment(ctx context.Context, req dto.CreateBatchRepaymentRequest, creatorUserID string) (*dto.BatchRepaymentResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.batchRepo.FindBatchBySettlementReference(ctx, req.SettlementReference)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check batch settlement reference %s: %w", req.SettlementReference, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSettlement, req.SettlementReference)
	}

	// References are unique across individual and batch payments, so a
	// reference already used by an individual repayment is a duplicate too.
	existingTxns, err := s.repaymentRepo.FindTransactionsBySettlementReference(ctx, req.SettlementReference)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check settlement reference %s: %w", req.SettlementReference, err)
	}
	if len(existingTxns) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSettlement, req.SettlementReference)
	}

	// Resolve every member loan before writing anything.
	loansByRef := make(map[string]*domain.Loan, len(req.Members))
	members := make([]engine.BatchMember, 0, len(req.Members))
	included := make(map[string]bool, len(req.Members))
	expected := decimal.Zero
	for _, m := range req.Members {
		loan, err := s.loanRepo.FindLoanByID(ctx, m.LoanID)
		if err != nil {
			return nil, fmt.Errorf("member loan %s: %w", m.LoanID, err)
		}
		if loan.GroupName != "" && loan.GroupName != req.GroupName {
			return nil, fmt.Errorf("%w: loan %s is in group %q", ErrMemberOutsideGroup, loan.LoanID, loan.GroupName)
		}
		loansByRef[loan.BeneficiaryRef] = loan
		members = append(members, engine.BatchMember{Ref: loan.BeneficiaryRef, Installment: loan.MonthlyInstallment})
		if m.Included {
			included[loan.BeneficiaryRef] = true
			expected = expected.Add(loan.MonthlyInstallment)
		}
	}

	allocated, err := engine.AllocateBatch(members, included, req.ActualAmount, expected)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	now := time.Now().UTC()
	batch := domain.BatchRepayment{
		BatchID:             uuid.NewString(),
		SettlementReference: req.SettlementReference,
		GroupName:           req.GroupName,
		ExpectedAmount:      expected,
		ActualAmount:        req.ActualAmount,
		DatePaid:            req.DatePaid,
		ReceiptRef:          req.ReceiptRef,
		Notes:               req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	credits := make([]domain.BatchMemberCredit, 0, len(allocated))
	for _, alloc := range allocated {
		loan := loansByRef[alloc.Ref]
		credit := domain.BatchMemberCredit{
			CreditID:       uuid.NewString(),
			BatchID:        batch.BatchID,
			LoanID:         loan.LoanID,
			BeneficiaryRef: alloc.Ref,
			Amount:         alloc.Amount,
			Excluded:       alloc.Excluded,
		}
		if !alloc.Excluded && alloc.Amount.IsPositive() {
			if err := s.creditMember(ctx, loan, alloc.Amount, &batch, req, creatorUserID, now); err != nil {
				credit.Failed = true
				credit.FailureReason = err.Error()
				batch.FailureCount++
				logger.Warn("Batch member credit failed",
					slog.String("batch_id", batch.BatchID),
					slog.String("loan_id", loan.LoanID),
					slog.String("error", err.Error()),
				)
			} else {
				batch.SuccessCount++
			}
		}
		credits = append(credits, credit)
	}

	if err := s.batchRepo.SaveBatch(ctx, batch, credits); err != nil {
		logger.Error("Failed to save batch", slog.String("settlement_ref", req.SettlementReference), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Batch repayment recorded",
		slog.String("batch_id", batch.BatchID),
		slog.String("group", batch.GroupName),
		slog.Int("success", batch.SuccessCount),
		slog.Int("failure", batch.FailureCount),
	)
	resp := dto.ToBatchRepaymentResponse(&batch, credits)
	return &resp, nil
}

// creditMember records a single member's credit as a batch-sourced repayment
// transaction with a matching ledger entry.
func (s *batchService) creditMember(ctx context.Context, loan *domain.Loan, amount decimal.Decimal, batch *domain.BatchRepayment, req dto.CreateBatchRepaymentRequest, creatorUserID string, now time.Time) error {
	startMonth := 1
	if loan.MonthlyInstallment.IsPositive() {
		startMonth = int(loan.TotalPaid.Div(loan.MonthlyInstallment).IntPart()) + 1
		if startMonth > loan.Terms.TenorMonths {
			startMonth = loan.Terms.TenorMonths
		}
	}

	allocations, err := engine.AllocatePayment(startMonth, amount, loan.MonthlyInstallment, loan.Terms.TenorMonths)
	if err != nil {
		return err
	}

	ref := memberReference(req.SettlementReference, loan.BeneficiaryRef)
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     creatorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: creatorUserID,
	}
	transactions := make([]domain.Transaction, 0, len(allocations))
	entries := make([]domain.LedgerEntry, 0, len(allocations))
	for i, alloc := range allocations {
		allocRef := advanceReference(ref, i)
		transactions = append(transactions, domain.Transaction{
			TransactionID:       uuid.NewString(),
			LoanID:              loan.LoanID,
			BeneficiaryRef:      loan.BeneficiaryRef,
			Amount:              alloc.Amount,
			SettlementReference: allocRef,
			DatePaid:            req.DatePaid,
			MonthFor:            alloc.Month,
			Advance:             alloc.Advance,
			Source:              domain.SourceBatch,
			ReceiptRef:          req.ReceiptRef,
			Notes:               req.Notes,
			AuditFields:         audit,
		})
		entries = append(entries, domain.LedgerEntry{
			EntryID:             uuid.NewString(),
			LoanID:              loan.LoanID,
			Amount:              alloc.Amount,
			Kind:                domain.EntryRepayment,
			SettlementReference: allocRef,
			AuditFields:         audit,
		})
	}

	updated := *loan
	updated.RefreshFromLedger(loan.TotalPaid.Add(amount))
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = creatorUserID

	return s.repaymentRepo.SaveTransactions(ctx, transactions, entries, updated)
}

// ReverseBatch undoes every member credit that actually committed, replaying
// the stored amounts. The shortfall ratio is never re-run.
func (s *batchService) ReverseBatch(ctx context.Context, batchID string, requestingUserID string) (*dto.BatchRepaymentResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch, err := s.batchRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Reversed {
		return nil, fmt.Errorf("%w: batch %s", ErrAlreadyReversed, batchID)
	}

	credits, err := s.batchRepo.FindMemberCreditsByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, credit := range credits {
		if credit.Excluded || credit.Failed || !credit.Amount.IsPositive() {
			continue
		}
		ref := memberReference(batch.SettlementReference, credit.BeneficiaryRef)
		if err := s.reverseMember(ctx, credit, ref, requestingUserID, now); err != nil {
			logger.Error("Failed to reverse batch member",
				slog.String("batch_id", batchID),
				slog.String("loan_id", credit.LoanID),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
	}

	if err := s.batchRepo.MarkBatchReversed(ctx, batchID, requestingUserID, now); err != nil {
		return nil, err
	}

	batch.Reversed = true
	batch.LastUpdatedAt = now
	batch.LastUpdatedBy = requestingUserID
	logger.Info("Batch repayment reversed", slog.String("batch_id", batchID))
	resp := dto.ToBatchRepaymentResponse(batch, credits)
	return &resp, nil
}

func (s *batchService) reverseMember(ctx context.Context, credit domain.BatchMemberCredit, ref string, requestingUserID string, now time.Time) error {
	transactions, err := s.repaymentRepo.FindTransactionsBySettlementReference(ctx, ref)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		return fmt.Errorf("no transactions for member reference %s: %w", ref, apperrors.ErrNotFound)
	}

	loan, err := s.loanRepo.FindLoanByID(ctx, credit.LoanID)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(transactions))
	entries := make([]domain.LedgerEntry, 0, len(transactions))
	reversedTotal := loan.TotalPaid
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

	return s.repaymentRepo.MarkTransactionsReversed(ctx, ids, entries, updated, requestingUserID, now)
}

func (s *batchService) GetBatchByID(ctx context.Context, batchID string) (*dto.BatchRepaymentResponse, error) {
	batch, err := s.batchRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	credits, err := s.batchRepo.FindMemberCreditsByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToBatchRepaymentResponse(batch, credits)
	return &resp, nil
}

func (s *batchService) ListBatches(ctx context.Context, params dto.ListBatchesParams) (*dto.ListBatchesResponse, error) {
	batches, nextToken, err := s.batchRepo.ListBatches(ctx, params.Limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	responses := make([]dto.BatchRepaymentResponse, 0, len(batches))
	for i := range batches {
		credits, err := s.batchRepo.FindMemberCreditsByBatchID(ctx, batches[i].BatchID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.ToBatchRepaymentResponse(&batches[i], credits))
	}
	return &dto.ListBatchesResponse{Batches: responses, NextToken: nextToken}, nil
}
