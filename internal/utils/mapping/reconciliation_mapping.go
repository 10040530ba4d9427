package mapping

import (
	"encoding/json"

	"github.com/loanworks/loanbook_app/internal/core/domain"
	"github.com/loanworks/loanbook_app/internal/models"
)

// ToModelReconciliationSession converts a domain ReconciliationSession to its
// model form, serialising the exact-match detail to JSON.
func ToModelReconciliationSession(d domain.ReconciliationSession) (models.ReconciliationSession, error) {
	detail, err := json.Marshal(d.ExactDetail)
	if err != nil {
		return models.ReconciliationSession{}, err
	}
	return models.ReconciliationSession{
		SessionID:      d.SessionID,
		RunAt:          d.RunAt,
		TotalRows:      d.TotalRows,
		ExactCount:     d.ExactCount,
		MismatchCount:  d.MismatchCount,
		UnmatchedCount: d.UnmatchedCount,
		MatchedAmount:  d.MatchedAmount,
		ExactDetail:    detail,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainReconciliationSession converts a model ReconciliationSession to its
// domain form, deserialising the exact-match detail.
func ToDomainReconciliationSession(m models.ReconciliationSession) (domain.ReconciliationSession, error) {
	var detail []domain.MatchResult
	if len(m.ExactDetail) > 0 {
		if err := json.Unmarshal(m.ExactDetail, &detail); err != nil {
			return domain.ReconciliationSession{}, err
		}
	}
	return domain.ReconciliationSession{
		SessionID:      m.SessionID,
		RunAt:          m.RunAt,
		TotalRows:      m.TotalRows,
		ExactCount:     m.ExactCount,
		MismatchCount:  m.MismatchCount,
		UnmatchedCount: m.UnmatchedCount,
		MatchedAmount:  m.MatchedAmount,
		ExactDetail:    detail,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}, nil
}
