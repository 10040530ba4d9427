package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	"github.com/loanworks/loanbook_app/internal/models"
	"github.com/loanworks/loanbook_app/internal/utils/mapping"
	"github.com/loanworks/loanbook_app/internal/utils/pagination"
)

const batchColumns = `batch_id, group_name, settlement_reference, expected_amount, actual_amount,
	       date_paid, success_count, failure_count, reversed, receipt_ref, notes,
	       created_at, created_by, last_updated_at, last_updated_by`

type PgxBatchRepository struct {
	BaseRepository
}

// newPgxBatchRepository creates a new repository for batch repayment data.
func newPgxBatchRepository(pool *pgxpool.Pool) portsrepo.BatchRepositoryWithTx {
	return &PgxBatchRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxBatchRepository implements portsrepo.BatchRepositoryWithTx
var _ portsrepo.BatchRepositoryWithTx = (*PgxBatchRepository)(nil)

func scanBatch(row pgx.Row) (models.BatchRepayment, error) {
	var m models.BatchRepayment
	err := row.Scan(
		&m.BatchID,
		&m.GroupName,
		&m.SettlementReference,
		&m.ExpectedAmount,
		&m.ActualAmount,
		&m.DatePaid,
		&m.SuccessCount,
		&m.FailureCount,
		&m.Reversed,
		&m.ReceiptRef,
		&m.Notes,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveBatch persists a batch repayment header and its member credits in one
// database transaction. The settlement reference shares the uniqueness
// namespace with individual repayments.
func (r *PgxBatchRepository) SaveBatch(ctx context.Context, batch domain.BatchRepayment, credits []domain.BatchMemberCredit) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelBatchRepayment(batch)
	headerQuery := `
		INSERT INTO batch_repayments (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, headerQuery,
		m.BatchID,
		m.GroupName,
		m.SettlementReference,
		m.ExpectedAmount,
		m.ActualAmount,
		m.DatePaid,
		m.SuccessCount,
		m.FailureCount,
		m.Reversed,
		m.ReceiptRef,
		m.Notes,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError("settlement reference " + m.SettlementReference + " already recorded")
		}
		return apperrors.NewAppError(500, "failed to insert batch "+m.BatchID, err)
	}

	pgxBatch := &pgx.Batch{}
	creditQuery := `
		INSERT INTO batch_member_credits (credit_id, batch_id, loan_id, beneficiary_ref, amount, excluded, failed, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, c := range credits {
		mc := mapping.ToModelBatchMemberCredit(c)
		pgxBatch.Queue(creditQuery,
			mc.CreditID,
			mc.BatchID,
			mc.LoanID,
			mc.BeneficiaryRef,
			mc.Amount,
			mc.Excluded,
			mc.Failed,
			mc.FailureReason,
		)
	}
	br := tx.SendBatch(ctx, pgxBatch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert member credits for batch "+m.BatchID, err)
	}

	return r.Commit(ctx, tx)
}

// FindBatchByID retrieves a batch repayment by its ID.
func (r *PgxBatchRepository) FindBatchByID(ctx context.Context, batchID string) (*domain.BatchRepayment, error) {
	query := `SELECT ` + batchColumns + ` FROM batch_repayments WHERE batch_id = $1;`
	m, err := scanBatch(r.Pool.QueryRow(ctx, query, batchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find batch by ID "+batchID, err)
	}
	d := mapping.ToDomainBatchRepayment(m)
	return &d, nil
}

// FindBatchBySettlementReference retrieves a batch repayment by its settlement reference.
func (r *PgxBatchRepository) FindBatchBySettlementReference(ctx context.Context, settlementReference string) (*domain.BatchRepayment, error) {
	query := `SELECT ` + batchColumns + ` FROM batch_repayments WHERE settlement_reference = $1;`
	m, err := scanBatch(r.Pool.QueryRow(ctx, query, settlementReference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find batch by settlement "+settlementReference, err)
	}
	d := mapping.ToDomainBatchRepayment(m)
	return &d, nil
}

// ListBatches retrieves a paginated list of batch repayments, newest first.
func (r *PgxBatchRepository) ListBatches(ctx context.Context, limit int, nextToken *string) ([]domain.BatchRepayment, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + batchColumns + ` FROM batch_repayments`
	orderByClause := `ORDER BY date_paid DESC, created_at DESC`

	args := []interface{}{}
	var cursorClause string
	if nextToken != nil && *nextToken != "" {
		lastDatePaid, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		cursorClause = `WHERE (date_paid, created_at) < ($1, $2)`
		args = append(args, lastDatePaid, lastCreatedAt)
	}

	query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query batches", err)
	}
	defer rows.Close()

	modelBatches := make([]models.BatchRepayment, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanBatch(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan batch row", scanErr)
		}
		modelBatches = append(modelBatches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating batch rows", err)
	}

	var nextTokenVal *string
	results := modelBatches
	if len(modelBatches) > limit {
		last := modelBatches[limit-1]
		token := pagination.EncodeToken(last.DatePaid, last.CreatedAt)
		nextTokenVal = &token
		results = modelBatches[:limit]
	}

	return mapping.ToDomainBatchRepaymentSlice(results), nextTokenVal, nil
}

// FindMemberCreditsByBatchID retrieves the per-member credit breakdown for a batch.
func (r *PgxBatchRepository) FindMemberCreditsByBatchID(ctx context.Context, batchID string) ([]domain.BatchMemberCredit, error) {
	query := `
		SELECT credit_id, batch_id, loan_id, beneficiary_ref, amount, excluded, failed, failure_reason
		FROM batch_member_credits
		WHERE batch_id = $1
		ORDER BY beneficiary_ref;
	`
	rows, err := r.Pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query member credits for batch "+batchID, err)
	}
	defer rows.Close()

	modelCredits := []models.BatchMemberCredit{}
	for rows.Next() {
		var m models.BatchMemberCredit
		scanErr := rows.Scan(
			&m.CreditID,
			&m.BatchID,
			&m.LoanID,
			&m.BeneficiaryRef,
			&m.Amount,
			&m.Excluded,
			&m.Failed,
			&m.FailureReason,
		)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan member credit row for batch "+batchID, scanErr)
		}
		modelCredits = append(modelCredits, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating member credit rows for batch "+batchID, err)
	}

	return mapping.ToDomainBatchMemberCreditSlice(modelCredits), nil
}

// ListActiveBatches retrieves all non-reversed batch repayments for the
// reconciliation reference index.
func (r *PgxBatchRepository) ListActiveBatches(ctx context.Context) ([]domain.BatchRepayment, error) {
	query := `SELECT ` + batchColumns + ` FROM batch_repayments WHERE reversed = FALSE ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query active batches", err)
	}
	defer rows.Close()

	modelBatches := []models.BatchRepayment{}
	for rows.Next() {
		m, scanErr := scanBatch(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan active batch row", scanErr)
		}
		modelBatches = append(modelBatches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating active batch rows", err)
	}

	return mapping.ToDomainBatchRepaymentSlice(modelBatches), nil
}

// MarkBatchReversed flags a batch repayment as reversed. A batch reverses at
// most once.
func (r *PgxBatchRepository) MarkBatchReversed(ctx context.Context, batchID string, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE batch_repayments
		SET reversed = TRUE,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE batch_id = $1 AND reversed = FALSE;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, batchID, updatedAt, updatedByUserID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark batch reversed "+batchID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewConflictError("batch " + batchID + " already reversed or missing")
	}
	return nil
}
