package pipeline

import (
	"strings"

	"github.com/meridian-grc/riskflow/internal/model"
)

// Route labels identify which routing rule fired. They appear verbatim in
// the audit record.
const (
	RouteInvalidIntent        = "invalid_intent"
	RouteMissingCustomerID    = "missing_customer_id"
	RouteModerationFailure    = "moderation_failure"
	RouteMissingData          = "missing_data"
	RouteSuppressHighRisk     = "suppress_high_risk_review"
	RouteCriticalAutoEscalate = "critical_risk_auto_escalate"
	RouteHighEscalate         = "high_risk_escalate"
	RouteExecutionFailure     = "execution_failure"
)

// suppressReviewThreshold is the score at or above which a suppress_flag
// request always requires dual-control sign-off. Aligned with the HIGH tier
// boundary.
const suppressReviewThreshold = 40.0

// Route is the pure routing decision: given a scored state it returns the
// terminal status and the label of the first matching rule. Rules are
// evaluated in strict priority order; anything uncertain or elevated-risk
// escalates to a human rather than auto-approving.
//
// Reads moderationPassed, missingFields, intent, riskScore, riskTier.
// Writes nothing.
func Route(s *model.RequestState) (model.TerminalStatus, string) {
	if s.ModerationPassed != nil && !*s.ModerationPassed {
		return model.StatusEscalate, RouteModerationFailure
	}
	if len(s.MissingFields) > 0 {
		return model.StatusNeedInfo, RouteMissingData
	}

	var score float64
	if s.RiskScore != nil {
		score = *s.RiskScore
	}
	if s.Intent == model.IntentSuppressFlag && score >= suppressReviewThreshold {
		return model.StatusEscalate, RouteSuppressHighRisk
	}

	switch s.RiskTier {
	case model.TierCritical:
		return model.StatusEscalate, RouteCriticalAutoEscalate
	case model.TierHigh:
		return model.StatusEscalate, RouteHighEscalate
	}
	return model.StatusReady, strings.ToLower(string(s.RiskTier)) + "_risk_auto_approved"
}
