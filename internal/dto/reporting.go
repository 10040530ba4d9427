package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummaryResponse defines portfolio-wide totals as of a date.
// PAR figures follow the portfolio-at-risk convention: outstanding principal of
// loans with any amount overdue for more than the named number of days, as a
// fraction of total outstanding.
type PortfolioSummaryResponse struct {
	AsOf               time.Time       `json:"asOf"`
	TotalLoans         int             `json:"totalLoans"`
	ActiveLoans        int             `json:"activeLoans"`
	CompletedLoans     int             `json:"completedLoans"`
	DefaultedLoans     int             `json:"defaultedLoans"`
	TotalDisbursed     decimal.Decimal `json:"totalDisbursed"`
	TotalCollected     decimal.Decimal `json:"totalCollected"`
	TotalOutstanding   decimal.Decimal `json:"totalOutstanding"`
	TotalOverdue       decimal.Decimal `json:"totalOverdue"`
	TotalInArrears     decimal.Decimal `json:"totalInArrears"`
	PortfolioAtRisk30  decimal.Decimal `json:"portfolioAtRisk30"`
	PortfolioAtRisk90  decimal.Decimal `json:"portfolioAtRisk90"`
}

// ArrearsReportRow defines one delinquent loan in the arrears report.
type ArrearsReportRow struct {
	LoanID          string          `json:"loanID"`
	BeneficiaryRef  string          `json:"beneficiaryRef"`
	BeneficiaryName string          `json:"beneficiaryName"`
	GroupName       string          `json:"groupName,omitempty"`
	OverdueAmount   decimal.Decimal `json:"overdueAmount"`
	ArrearsAmount   decimal.Decimal `json:"arrearsAmount"`
	MonthsInArrears int             `json:"monthsInArrears"`
	DaysOverdue     int             `json:"daysOverdue"`
}

// CollectionReportResponse summarises amounts collected over a period.
type CollectionReportResponse struct {
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	IndividualAmount decimal.Decimal `json:"individualAmount"`
	IndividualCount  int             `json:"individualCount"`
	BatchAmount      decimal.Decimal `json:"batchAmount"`
	BatchCount       int             `json:"batchCount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
}
