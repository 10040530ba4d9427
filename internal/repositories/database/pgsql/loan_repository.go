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

const loanColumns = `loan_id, beneficiary_ref, beneficiary_name, group_name, currency_code,
	       principal, annual_rate_percent, tenor_months, moratorium_months, disbursement_date,
	       monthly_installment, total_interest, total_payment, total_paid, outstanding_balance,
	       status, notes, created_at, created_by, last_updated_at, last_updated_by`

type PgxLoanRepository struct {
	BaseRepository
}

// newPgxLoanRepository creates a new repository for loan data.
func newPgxLoanRepository(pool *pgxpool.Pool) portsrepo.LoanRepositoryWithTx {
	return &PgxLoanRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxLoanRepository implements portsrepo.LoanRepositoryWithTx
var _ portsrepo.LoanRepositoryWithTx = (*PgxLoanRepository)(nil)

func scanLoan(row pgx.Row) (models.Loan, error) {
	var m models.Loan
	err := row.Scan(
		&m.LoanID,
		&m.BeneficiaryRef,
		&m.BeneficiaryName,
		&m.GroupName,
		&m.CurrencyCode,
		&m.Principal,
		&m.AnnualRatePercent,
		&m.TenorMonths,
		&m.MoratoriumMonths,
		&m.DisbursementDate,
		&m.MonthlyInstallment,
		&m.TotalInterest,
		&m.TotalPayment,
		&m.TotalPaid,
		&m.OutstandingBalance,
		&m.Status,
		&m.Notes,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveLoan inserts a new loan row. The beneficiary reference is unique; a
// second loan for the same reference is rejected as a duplicate.
func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	m := mapping.ToModelLoan(loan)
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.LoanID,
		m.BeneficiaryRef,
		m.BeneficiaryName,
		m.GroupName,
		m.CurrencyCode,
		m.Principal,
		m.AnnualRatePercent,
		m.TenorMonths,
		m.MoratoriumMonths,
		m.DisbursementDate,
		m.MonthlyInstallment,
		m.TotalInterest,
		m.TotalPayment,
		m.TotalPaid,
		m.OutstandingBalance,
		m.Status,
		m.Notes,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError("loan for beneficiary " + m.BeneficiaryRef + " already exists")
		}
		return apperrors.NewAppError(500, "failed to insert loan "+m.LoanID, err)
	}
	return nil
}

// FindLoanByID retrieves a loan by its ID.
func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1;`
	m, err := scanLoan(r.Pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find loan by ID "+loanID, err)
	}
	d := mapping.ToDomainLoan(m)
	return &d, nil
}

// FindLoanByBeneficiaryRef retrieves a loan by its beneficiary reference.
func (r *PgxLoanRepository) FindLoanByBeneficiaryRef(ctx context.Context, beneficiaryRef string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE beneficiary_ref = $1;`
	m, err := scanLoan(r.Pool.QueryRow(ctx, query, beneficiaryRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find loan by beneficiary ref "+beneficiaryRef, err)
	}
	d := mapping.ToDomainLoan(m)
	return &d, nil
}

// ListLoans retrieves a paginated list of loans using token-based pagination.
// Ordering is stable: disbursement_date DESC with created_at DESC tie-break.
func (r *PgxLoanRepository) ListLoans(ctx context.Context, limit int, nextToken *string, statuses []domain.LoanStatus) ([]domain.Loan, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + loanColumns + ` FROM loans`
	orderByClause := `ORDER BY disbursement_date DESC, created_at DESC`

	args := []interface{}{}
	filterClause := ""
	if len(statuses) > 0 {
		statusStrs := make([]string, len(statuses))
		for i, s := range statuses {
			statusStrs[i] = string(s)
		}
		args = append(args, statusStrs)
		filterClause = `WHERE status = ANY($1)`
	}

	var cursorClause string
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		prefix := "WHERE"
		if filterClause != "" {
			prefix = "AND"
		}
		cursorClause = prefix + ` (disbursement_date, created_at) < ($` + strconv.Itoa(len(args)+1) + `, $` + strconv.Itoa(len(args)+2) + `)`
		args = append(args, lastDate, lastCreatedAt)
	}

	query := baseQuery + " " + filterClause + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query loans", err)
	}
	defer rows.Close()

	modelLoans := make([]models.Loan, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanLoan(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan loan row", scanErr)
		}
		modelLoans = append(modelLoans, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating loan rows", err)
	}

	var nextTokenVal *string
	results := modelLoans
	if len(modelLoans) > limit {
		last := modelLoans[limit-1]
		token := pagination.EncodeToken(last.DisbursementDate, last.CreatedAt)
		nextTokenVal = &token
		results = modelLoans[:limit]
	}

	return mapping.ToDomainLoanSlice(results), nextTokenVal, nil
}

// ListLoansByGroup retrieves all loans belonging to a batch group.
func (r *PgxLoanRepository) ListLoansByGroup(ctx context.Context, groupName string) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE group_name = $1 ORDER BY beneficiary_ref;`
	rows, err := r.Pool.Query(ctx, query, groupName)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query loans for group "+groupName, err)
	}
	defer rows.Close()

	modelLoans := []models.Loan{}
	for rows.Next() {
		m, scanErr := scanLoan(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan loan row for group "+groupName, scanErr)
		}
		modelLoans = append(modelLoans, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating loan rows for group "+groupName, err)
	}

	return mapping.ToDomainLoanSlice(modelLoans), nil
}

// UpdateLoan updates the descriptive fields of a loan.
func (r *PgxLoanRepository) UpdateLoan(ctx context.Context, loan domain.Loan) error {
	m := mapping.ToModelLoan(loan)
	query := `
		UPDATE loans
		SET beneficiary_name = $2,
		    group_name = $3,
		    notes = $4,
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE loan_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.LoanID,
		m.BeneficiaryName,
		m.GroupName,
		m.Notes,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update loan "+m.LoanID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("loan " + m.LoanID + " not found for update")
	}
	return nil
}

// UpdateLoanDerived updates the ledger-derived columns of a loan.
func (r *PgxLoanRepository) UpdateLoanDerived(ctx context.Context, loan domain.Loan) error {
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
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.LoanID,
		m.TotalPaid,
		m.OutstandingBalance,
		m.Status,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update derived fields for loan "+m.LoanID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("loan " + m.LoanID + " not found for update")
	}
	return nil
}

// UpdateLoanStatus updates only the status of a loan.
func (r *PgxLoanRepository) UpdateLoanStatus(ctx context.Context, loanID string, status domain.LoanStatus, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE loans
		SET status = $2,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE loan_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, loanID, status, updatedAt, updatedByUserID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status for loan "+loanID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("loan " + loanID + " not found for update")
	}
	return nil
}
