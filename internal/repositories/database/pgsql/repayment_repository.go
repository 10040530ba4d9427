package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/loanworks/loanbook_app/internal/apperrors"
	"github.com/loanworks/loanbook_app/internal/core/domain"
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	"github.com/loanworks/loanbook_app/internal/models"
	"github.com/loanworks/loanbook_app/internal/utils/mapping"
	"github.com/loanworks/loanbook_app/internal/utils/pagination"
)

const transactionColumns = `transaction_id, loan_id, beneficiary_ref, amount, settlement_reference,
	       date_paid, month_for, advance, source, receipt_ref, notes, reversed,
	       created_at, created_by, last_updated_at, last_updated_by`

type PgxRepaymentRepository struct {
	BaseRepository
}

// newPgxRepaymentRepository creates a new repository for repayment transaction
// and ledger data.
func newPgxRepaymentRepository(pool *pgxpool.Pool) portsrepo.RepaymentRepositoryWithTx {
	return &PgxRepaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxRepaymentRepository implements portsrepo.RepaymentRepositoryWithTx
var _ portsrepo.RepaymentRepositoryWithTx = (*PgxRepaymentRepository)(nil)

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.LoanID,
		&m.BeneficiaryRef,
		&m.Amount,
		&m.SettlementReference,
		&m.DatePaid,
		&m.MonthFor,
		&m.Advance,
		&m.Source,
		&m.ReceiptRef,
		&m.Notes,
		&m.Reversed,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func queueLedgerInserts(batch *pgx.Batch, entries []domain.LedgerEntry) {
	query := `
		INSERT INTO loan_ledger (entry_id, loan_id, amount, kind, settlement_reference,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, e := range entries {
		m := mapping.ToModelLedgerEntry(e)
		batch.Queue(query,
			m.EntryID,
			m.LoanID,
			m.Amount,
			m.Kind,
			m.SettlementReference,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}
}

func updateLoanDerivedInTx(ctx context.Context, tx pgx.Tx, loan domain.Loan) error {
	m := mapping.ToModelLoan(loan)
	query := `
		UPDATE loans
		SET total_paid = $2,
		    outstanding_balance = $3,
		    status = $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE loan_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.LoanID,
		m.TotalPaid,
		m.OutstandingBalance,
		m.Status,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveTransactions persists the allocated transactions of one payment together
// with their ledger entries and the refreshed loan aggregates, all in a single
// database transaction. The unique index on settlement_reference is the
// authority on duplicate settlements.
func (r *PgxRepaymentRepository) SaveTransactions(ctx context.Context, transactions []domain.Transaction, entries []domain.LedgerEntry, loan domain.Loan) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	batch := &pgx.Batch{}
	txnQuery := `
		INSERT INTO loan_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	for _, txn := range transactions {
		m := mapping.ToModelTransaction(txn)
		batch.Queue(txnQuery,
			m.TransactionID,
			m.LoanID,
			m.BeneficiaryRef,
			m.Amount,
			m.SettlementReference,
			m.DatePaid,
			m.MonthFor,
			m.Advance,
			m.Source,
			m.ReceiptRef,
			m.Notes,
			m.Reversed,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}
	queueLedgerInserts(batch, entries)

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError("settlement reference already recorded")
		}
		return apperrors.NewAppError(500, "failed to insert repayment transactions", err)
	}

	if err := updateLoanDerivedInTx(ctx, tx, loan); err != nil {
		return apperrors.NewAppError(500, "failed to update loan aggregates for "+loan.LoanID, err)
	}

	return r.Commit(ctx, tx)
}

// MarkTransactionsReversed flags the transactions as reversed, appends the
// compensating ledger entries and refreshes the loan aggregates atomically.
func (r *PgxRepaymentRepository) MarkTransactionsReversed(ctx context.Context, transactionIDs []string, entries []domain.LedgerEntry, loan domain.Loan, updatedByUserID string, updatedAt time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		UPDATE loan_transactions
		SET reversed = TRUE,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE transaction_id = ANY($1) AND reversed = FALSE;
	`
	cmdTag, err := tx.Exec(ctx, query, transactionIDs, updatedAt, updatedByUserID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark transactions reversed", err)
	}
	if int(cmdTag.RowsAffected()) != len(transactionIDs) {
		// Some transaction was missing or already reversed; the whole reversal
		// must not partially apply.
		return apperrors.NewConflictError("transactions already reversed or missing")
	}

	batch := &pgx.Batch{}
	queueLedgerInserts(batch, entries)
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert reversal ledger entries", err)
	}

	if err := updateLoanDerivedInTx(ctx, tx, loan); err != nil {
		return apperrors.NewAppError(500, "failed to update loan aggregates for "+loan.LoanID, err)
	}

	return r.Commit(ctx, tx)
}

// FindTransactionByID retrieves a repayment transaction by its ID.
func (r *PgxRepaymentRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM loan_transactions WHERE transaction_id = $1;`
	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by ID "+transactionID, err)
	}
	d := mapping.ToDomainTransaction(m)
	return &d, nil
}

// FindTransactionsBySettlementReference retrieves every transaction the named
// settlement produced, including the suffixed advance-month rows, in
// allocation order.
func (r *PgxRepaymentRepository) FindTransactionsBySettlementReference(ctx context.Context, settlementReference string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM loan_transactions
		WHERE settlement_reference = $1 OR settlement_reference LIKE $2 || '-ADV%'
		ORDER BY month_for;
	`
	rows, err := r.Pool.Query(ctx, query, settlementReference, escapeLikePattern(settlementReference))
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions for settlement "+settlementReference, err)
	}
	defer rows.Close()

	modelTxns := []models.Transaction{}
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction row for settlement "+settlementReference, scanErr)
		}
		modelTxns = append(modelTxns, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating transaction rows for settlement "+settlementReference, err)
	}

	return mapping.ToDomainTransactionSlice(modelTxns), nil
}

// ListTransactionsByLoan retrieves a paginated list of transactions for a loan
// using token-based pagination, newest first.
func (r *PgxRepaymentRepository) ListTransactionsByLoan(ctx context.Context, loanID string, limit int, nextToken *string, includeReversed bool) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumns + ` FROM loan_transactions`
	filterClause := `WHERE loan_id = $1`
	if !includeReversed {
		filterClause += ` AND reversed = FALSE`
	}
	orderByClause := `ORDER BY date_paid DESC, created_at DESC`

	args := []interface{}{loanID}
	var cursorClause string
	if nextToken != nil && *nextToken != "" {
		lastDatePaid, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		cursorClause = `AND (date_paid, created_at) < ($2, $3)`
		args = append(args, lastDatePaid, lastCreatedAt)
	}

	query := baseQuery + " " + filterClause + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions for loan "+loanID, err)
	}
	defer rows.Close()

	modelTxns := make([]models.Transaction, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row for loan "+loanID, scanErr)
		}
		modelTxns = append(modelTxns, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows for loan "+loanID, err)
	}

	var nextTokenVal *string
	results := modelTxns
	if len(modelTxns) > limit {
		last := modelTxns[limit-1]
		token := pagination.EncodeToken(last.DatePaid, last.CreatedAt)
		nextTokenVal = &token
		results = modelTxns[:limit]
	}

	return mapping.ToDomainTransactionSlice(results), nextTokenVal, nil
}

// ListActiveTransactions retrieves all non-reversed transactions for the
// reconciliation reference index.
func (r *PgxRepaymentRepository) ListActiveTransactions(ctx context.Context) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM loan_transactions WHERE reversed = FALSE ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query active transactions", err)
	}
	defer rows.Close()

	modelTxns := []models.Transaction{}
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan active transaction row", scanErr)
		}
		modelTxns = append(modelTxns, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating active transaction rows", err)
	}

	return mapping.ToDomainTransactionSlice(modelTxns), nil
}

// ListLedgerEntriesByLoan retrieves the loan's ledger entries in insertion order.
func (r *PgxRepaymentRepository) ListLedgerEntriesByLoan(ctx context.Context, loanID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT entry_id, loan_id, amount, kind, settlement_reference,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM loan_ledger
		WHERE loan_id = $1
		ORDER BY created_at, entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger for loan "+loanID, err)
	}
	defer rows.Close()

	modelEntries := []models.LedgerEntry{}
	for rows.Next() {
		var m models.LedgerEntry
		scanErr := rows.Scan(
			&m.EntryID,
			&m.LoanID,
			&m.Amount,
			&m.Kind,
			&m.SettlementReference,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger row for loan "+loanID, scanErr)
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger rows for loan "+loanID, err)
	}

	return mapping.ToDomainLedgerEntrySlice(modelEntries), nil
}

// SumLedgerByLoan returns the net ledger amount for a loan.
func (r *PgxRepaymentRepository) SumLedgerByLoan(ctx context.Context, loanID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM loan_ledger WHERE loan_id = $1;`
	var total decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, loanID).Scan(&total); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum ledger for loan "+loanID, err)
	}
	return total, nil
}
