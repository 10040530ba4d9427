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

// ErrEmptyStatement indicates a reconciliation run with no parsable rows.
var ErrEmptyStatement = errors.New("statement contains no rows")

// reconciliationService matches uploaded settlement statements against the
// recorded repayments and batches. Matching reads, classifies and reports; it
// never mutates loan or repayment records. The only write is the session
// summary kept for audit.
type reconciliationService struct {
	reconciliationRepo portsrepo.ReconciliationRepositoryFacade
	repaymentRepo      portsrepo.RepaymentRepositoryFacade
	batchRepo          portsrepo.BatchRepositoryFacade
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(reconciliationRepo portsrepo.ReconciliationRepositoryFacade, repaymentRepo portsrepo.RepaymentRepositoryFacade, batchRepo portsrepo.BatchRepositoryFacade) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		reconciliationRepo: reconciliationRepo,
		repaymentRepo:      repaymentRepo,
		batchRepo:          batchRepo,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

// Reconcile classifies every statement row against the reference indexes
// built from active transactions and batches, saves the session summary, and
// returns the per-row results. Individual transactions are consulted before
// batch records when a reference exists in both.
func (s *reconciliationService) Reconcile(ctx context.Context, rows []domain.StatementRow, runByUserID string) (*dto.ReconciliationResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrEmptyStatement.Error())
	}

	transactions, err := s.repaymentRepo.ListActiveTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for reconciliation: %w", err)
	}
	batches, err := s.batchRepo.ListActiveBatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load batches for reconciliation: %w", err)
	}

	txnIdx := engine.BuildTransactionIndex(transactions)
	batchIdx := engine.BuildBatchIndex(batches)
	results := engine.MatchStatement(rows, txnIdx, batchIdx)

	now := time.Now().UTC()
	session := domain.ReconciliationSession{
		SessionID:     uuid.NewString(),
		RunAt:         now,
		TotalRows:     len(results),
		MatchedAmount: decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     runByUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: runByUserID,
		},
	}
	for _, r := range results {
		switch r.MatchType {
		case domain.MatchExact:
			session.ExactCount++
			session.MatchedAmount = session.MatchedAmount.Add(r.Row.Amount)
			session.ExactDetail = append(session.ExactDetail, r)
		case domain.MatchAmountMismatch:
			session.MismatchCount++
		case domain.MatchUnmatched:
			session.UnmatchedCount++
		}
	}

	if err := s.reconciliationRepo.SaveSession(ctx, session); err != nil {
		logger.Error("Failed to save reconciliation session", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Reconciliation run completed",
		slog.String("session_id", session.SessionID),
		slog.Int("total", session.TotalRows),
		slog.Int("exact", session.ExactCount),
		slog.Int("mismatch", session.MismatchCount),
		slog.Int("unmatched", session.UnmatchedCount),
	)
	return &dto.ReconciliationResponse{
		SessionID:      session.SessionID,
		RunAt:          session.RunAt,
		TotalRows:      session.TotalRows,
		ExactCount:     session.ExactCount,
		MismatchCount:  session.MismatchCount,
		UnmatchedCount: session.UnmatchedCount,
		MatchedAmount:  session.MatchedAmount,
		Results:        dto.ToMatchResultResponses(results),
	}, nil
}

func (s *reconciliationService) GetSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	session, err := s.reconciliationRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get reconciliation session %s: %w", sessionID, err)
	}
	return session, nil
}

func (s *reconciliationService) ListSessions(ctx context.Context, params dto.ListSessionsParams) (*dto.ListSessionsResponse, error) {
	sessions, nextToken, err := s.reconciliationRepo.ListSessions(ctx, params.Limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliation sessions: %w", err)
	}

	resp := dto.ToListSessionsResponse(sessions, nextToken)
	return &resp, nil
}
