package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	"github.com/loanworks/loanbook_app/internal/models"
	"github.com/loanworks/loanbook_app/internal/utils/mapping"
	"github.com/loanworks/loanbook_app/internal/utils/pagination"
)

const sessionColumns = `session_id, run_at, total_rows, exact_count, mismatch_count, unmatched_count,
	       matched_amount, exact_detail, created_at, created_by, last_updated_at, last_updated_by`

type PgxReconciliationRepository struct {
	BaseRepository
}

// newPgxReconciliationRepository creates a new repository for reconciliation sessions.
func newPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationRepositoryFacade {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxReconciliationRepository implements portsrepo.ReconciliationRepositoryFacade
var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

func scanSession(row pgx.Row) (models.ReconciliationSession, error) {
	var m models.ReconciliationSession
	err := row.Scan(
		&m.SessionID,
		&m.RunAt,
		&m.TotalRows,
		&m.ExactCount,
		&m.MismatchCount,
		&m.UnmatchedCount,
		&m.MatchedAmount,
		&m.ExactDetail,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveSession persists the summary of a reconciliation run. The exact-match
// detail is stored as a JSONB document.
func (r *PgxReconciliationRepository) SaveSession(ctx context.Context, session domain.ReconciliationSession) error {
	m, err := mapping.ToModelReconciliationSession(session)
	if err != nil {
		return apperrors.NewAppError(500, "failed to serialise session detail for "+session.SessionID, err)
	}
	query := `
		INSERT INTO reconciliation_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.SessionID,
		m.RunAt,
		m.TotalRows,
		m.ExactCount,
		m.MismatchCount,
		m.UnmatchedCount,
		m.MatchedAmount,
		m.ExactDetail,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert reconciliation session "+m.SessionID, err)
	}
	return nil
}

// FindSessionByID retrieves a reconciliation session by its ID.
func (r *PgxReconciliationRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM reconciliation_sessions WHERE session_id = $1;`
	m, err := scanSession(r.Pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find session by ID "+sessionID, err)
	}
	d, err := mapping.ToDomainReconciliationSession(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to deserialise session detail for "+sessionID, err)
	}
	return &d, nil
}

// ListSessions retrieves a paginated list of reconciliation sessions, newest first.
func (r *PgxReconciliationRepository) ListSessions(ctx context.Context, limit int, nextToken *string) ([]domain.ReconciliationSession, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + sessionColumns + ` FROM reconciliation_sessions`
	orderByClause := `ORDER BY run_at DESC, created_at DESC`

	args := []interface{}{}
	var cursorClause string
	if nextToken != nil && *nextToken != "" {
		lastRunAt, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		cursorClause = `WHERE (run_at, created_at) < ($1, $2)`
		args = append(args, lastRunAt, lastCreatedAt)
	}

	query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query reconciliation sessions", err)
	}
	defer rows.Close()

	modelSessions := make([]models.ReconciliationSession, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan session row", scanErr)
		}
		modelSessions = append(modelSessions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating session rows", err)
	}

	var nextTokenVal *string
	results := modelSessions
	if len(modelSessions) > limit {
		last := modelSessions[limit-1]
		token := pagination.EncodeToken(last.RunAt, last.CreatedAt)
		nextTokenVal = &token
		results = modelSessions[:limit]
	}

	sessions := make([]domain.ReconciliationSession, len(results))
	for i, m := range results {
		d, mapErr := mapping.ToDomainReconciliationSession(m)
		if mapErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to deserialise session detail for "+m.SessionID, mapErr)
		}
		sessions[i] = d
	}

	return sessions, nextTokenVal, nil
}
