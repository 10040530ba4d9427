package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanworks/loanbook_app/internal/core/domain"
)

// MatchResultResponse defines the reconciliation outcome for one statement row.
type MatchResultResponse struct {
	RowIndex     int              `json:"rowIndex"`
	Reference    string           `json:"reference"`
	Amount       decimal.Decimal  `json:"amount"`
	MatchType    string           `json:"matchType"`
	Source       string           `json:"source,omitempty"`
	SystemAmount *decimal.Decimal `json:"systemAmount,omitempty"`
	Beneficiary  string           `json:"beneficiary,omitempty"`
}

// ReconciliationResponse defines the full result of a reconciliation run.
type ReconciliationResponse struct {
	SessionID      string                `json:"sessionID"`
	RunAt          time.Time             `json:"runAt"`
	TotalRows      int                   `json:"totalRows"`
	ExactCount     int                   `json:"exactCount"`
	MismatchCount  int                   `json:"mismatchCount"`
	UnmatchedCount int                   `json:"unmatchedCount"`
	MatchedAmount  decimal.Decimal       `json:"matchedAmount"`
	Results        []MatchResultResponse `json:"results"`
}

// ListSessionsParams defines query parameters for listing reconciliation sessions.
type ListSessionsParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// SessionResponse defines the stored summary of a past reconciliation run.
type SessionResponse struct {
	SessionID      string          `json:"sessionID"`
	RunAt          time.Time       `json:"runAt"`
	TotalRows      int             `json:"totalRows"`
	ExactCount     int             `json:"exactCount"`
	MismatchCount  int             `json:"mismatchCount"`
	UnmatchedCount int             `json:"unmatchedCount"`
	MatchedAmount  decimal.Decimal `json:"matchedAmount"`
	CreatedBy      string          `json:"createdBy"`
}

// ListSessionsResponse wraps a page of reconciliation sessions.
type ListSessionsResponse struct {
	Sessions  []SessionResponse `json:"sessions"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToMatchResultResponses converts domain match results to their response form.
func ToMatchResultResponses(results []domain.MatchResult) []MatchResultResponse {
	responses := make([]MatchResultResponse, len(results))
	for i, r := range results {
		responses[i] = MatchResultResponse{
			RowIndex:     r.Row.RowIndex,
			Reference:    r.Row.Reference,
			Amount:       r.Row.Amount,
			MatchType:    string(r.MatchType),
			Source:       string(r.Source),
			SystemAmount: r.SystemAmount,
			Beneficiary:  r.Beneficiary,
		}
	}
	return responses
}

// ToSessionResponse converts a domain.ReconciliationSession to SessionResponse DTO.
func ToSessionResponse(s *domain.ReconciliationSession) SessionResponse {
	return SessionResponse{
		SessionID:      s.SessionID,
		RunAt:          s.RunAt,
		TotalRows:      s.TotalRows,
		ExactCount:     s.ExactCount,
		MismatchCount:  s.MismatchCount,
		UnmatchedCount: s.UnmatchedCount,
		MatchedAmount:  s.MatchedAmount,
		CreatedBy:      s.CreatedBy,
	}
}

// ToListSessionsResponse converts a page of domain sessions to ListSessionsResponse.
func ToListSessionsResponse(sessions []domain.ReconciliationSession, nextToken *string) ListSessionsResponse {
	responses := make([]SessionResponse, len(sessions))
	for i, s := range sessions {
		responses[i] = ToSessionResponse(&s)
	}
	return ListSessionsResponse{Sessions: responses, NextToken: nextToken}
}
