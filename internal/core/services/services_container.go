package services

import (
	portsrepo "github.com/loanworks/loanbook_app/internal/core/ports/repositories"
	portssvc "github.com/loanworks/loanbook_app/internal/core/ports/services"
	"github.com/loanworks/loanbook_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Loan = NewLoanService(repos.LoanRepo, cfg.GraceDays, cfg.MaxTenorMonths)
	container.Repayment = NewRepaymentService(repos.RepaymentRepo, repos.LoanRepo, repos.BatchRepo)
	container.Batch = NewBatchService(repos.BatchRepo, repos.LoanRepo, repos.RepaymentRepo)
	container.Reconciliation = NewReconciliationService(repos.ReconciliationRepo, repos.RepaymentRepo, repos.BatchRepo)
	container.Reporting = NewReportingService(repos.LoanRepo, repos.RepaymentRepo, cfg.GraceDays)
	container.User = NewUserService(repos.UserRepo)

	container.TokenService = NewTokenService(cfg, container.User)
	container.GoogleOAuthHandler = NewGoogleOAuthHandlerService(cfg)

	return container
}
