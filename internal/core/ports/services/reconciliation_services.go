package services

import (
	"context"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/dto"
)

// ReconciliationRunnerSvc defines operations for running statement reconciliation
type ReconciliationRunnerSvc interface {
	// Reconcile matches parsed statement rows against recorded repayments and
	// batches, persists a session summary, and returns the per-row results.
	Reconcile(ctx context.Context, rows []domain.StatementRow, runByUserID string) (*dto.ReconciliationResponse, error)
}

// ReconciliationReaderSvc defines read operations for past reconciliation runs
type ReconciliationReaderSvc interface {
	// GetSessionByID retrieves the summary of a past reconciliation run.
	GetSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error)

	// ListSessions retrieves a paginated list of reconciliation sessions.
	ListSessions(ctx context.Context, params dto.ListSessionsParams) (*dto.ListSessionsResponse, error)
}

// ReconciliationSvcFacade combines all reconciliation-related service interfaces
type ReconciliationSvcFacade interface {
	ReconciliationRunnerSvc
	ReconciliationReaderSvc
}
