package repositories

import (
	"context"

	"github.com/loanworks/loanbook_app/internal/core/domain"
)

// ReconciliationReader defines read operations for reconciliation sessions
type ReconciliationReader interface {
	// FindSessionByID retrieves a specific reconciliation session by its ID.
	FindSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error)

	// ListSessions retrieves a paginated list of reconciliation sessions using
	// token-based pagination, newest first.
	ListSessions(ctx context.Context, limit int, nextToken *string) ([]domain.ReconciliationSession, *string, error)
}

// ReconciliationWriter defines write operations for reconciliation sessions
type ReconciliationWriter interface {
	// SaveSession persists the summary of a reconciliation run.
	SaveSession(ctx context.Context, session domain.ReconciliationSession) error
}

// ReconciliationRepositoryFacade combines all reconciliation-related repository interfaces
type ReconciliationRepositoryFacade interface {
	ReconciliationReader
	ReconciliationWriter
}
