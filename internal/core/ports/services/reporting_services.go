package services

import (
	"context"
	"time"

	"github.com/loanworks/loanbook_app/internal/dto"
)

// ReportingService defines operations for generating portfolio reports
type ReportingService interface {
	// PortfolioSummary generates portfolio-wide totals and portfolio-at-risk
	// figures as of a specific date.
	PortfolioSummary(ctx context.Context, asOf time.Time) (*dto.PortfolioSummaryResponse, error)

	// ArrearsReport lists every loan with an overdue or arrears position as of
	// a specific date, oldest first.
	ArrearsReport(ctx context.Context, asOf time.Time) ([]dto.ArrearsReportRow, error)

	// CollectionReport summarises amounts collected between two dates, split by
	// individual and batch source.
	CollectionReport(ctx context.Context, from, to time.Time) (*dto.CollectionReportResponse, error)
}
