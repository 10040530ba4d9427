package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	loanRepo := newPgxLoanRepository(dbPool)
	repaymentRepo := newPgxRepaymentRepository(dbPool)
	batchRepo := newPgxBatchRepository(dbPool)
	reconciliationRepo := newPgxReconciliationRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)

	return portsrepo.RepositoryProvider{
		LoanRepo:           loanRepo,
		RepaymentRepo:      repaymentRepo,
		BatchRepo:          batchRepo,
		ReconciliationRepo: reconciliationRepo,
		UserRepo:           userRepo,
	}
}
