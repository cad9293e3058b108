package model

import "time"

// FeatureContribution is one line of the per-feature scoring breakdown.
type FeatureContribution struct {
	Feature    string  `json:"feature"`
	RawValue   float64 `json:"raw_value"`
	Normalized float64 `json:"normalized"`
	Weight     float64 `json:"weight"`
	// Contribution is normalized × weight × 100, rounded to 2 decimals.
	Contribution float64 `json:"contribution"`
}

// AuditRecord is the tamper-evident evidence emitted for every run. It holds
// masked identifiers only: raw customer IDs and raw free text must never
// appear here.
type AuditRecord struct {
	RunID            string         `json:"run_id"`
	Timestamp        time.Time      `json:"timestamp"`
	Intent           string         `json:"intent"`
	ReasonCode       string         `json:"reason_code,omitempty"`
	CustomerIDMasked string         `json:"customer_id_masked"`
	TerminalStatus   TerminalStatus `json:"terminal_status"`
	RouteTaken       string         `json:"route_taken"`
	NodePath         []string       `json:"node_path"`

	RiskScore      *float64              `json:"risk_score"`
	RiskTier       RiskTier              `json:"risk_tier"`
	ScoreBreakdown []FeatureContribution `json:"score_breakdown,omitempty"`
	MissingFields  []string              `json:"missing_fields"`

	PIIFieldsRedacted []string `json:"pii_fields_redacted"`
	ModerationPassed  *bool    `json:"moderation_passed"`
	ModerationReason  string   `json:"moderation_reason"`

	HITLTriggered      bool   `json:"hitl_triggered"`
	HITLReviewerAction string `json:"hitl_reviewer_action,omitempty"`
	HITLReviewerNotes  string `json:"hitl_reviewer_notes,omitempty"`
	HITLDecisionSource string `json:"hitl_decision_source,omitempty"`
	HITLDraftResponse  string `json:"hitl_draft_response,omitempty"`
	HITLEditedResponse string `json:"hitl_edited_response,omitempty"`

	ToolCallCount  int      `json:"tool_call_count"`
	ModelCallCount int      `json:"model_call_count"`
	Errors         []string `json:"errors"`
}

// BuildAuditRecord assembles the audit record from a finished run. The raw
// payload and raw customer identifier are deliberately not consulted.
func BuildAuditRecord(s *RequestState) *AuditRecord {
	masked := s.MaskedCustomerID
	if masked == "" {
		masked = "NOT_SET"
	}
	return &AuditRecord{
		RunID:             s.RunID,
		Timestamp:         s.Timestamp,
		Intent:            string(s.Intent),
		ReasonCode:        s.ReasonCode,
		CustomerIDMasked:  masked,
		TerminalStatus:    s.TerminalStatus,
		RouteTaken:        s.RouteTaken,
		NodePath:          s.NodePath,
		RiskScore:         s.RiskScore,
		RiskTier:          s.RiskTier,
		ScoreBreakdown:    s.ScoreBreakdown,
		MissingFields:     s.MissingFields,
		PIIFieldsRedacted: s.PIIFieldsRedacted,
		ModerationPassed:  s.ModerationPassed,
		ModerationReason:  s.ModerationReason,

		HITLTriggered:      s.HITLTriggered,
		HITLReviewerAction: s.HITLReviewerAction,
		HITLReviewerNotes:  s.HITLReviewerNotes,
		HITLDecisionSource: s.HITLDecisionSource,
		HITLDraftResponse:  s.HITLDraftResponse,
		HITLEditedResponse: s.HITLEditedResponse,

		ToolCallCount:  s.ToolCallCount,
		ModelCallCount: s.ModelCallCount,
		Errors:         s.Errors,
	}
}

// ReviewResult is the system's observable contract: terminal status, final
// client-facing response, and the audit record.
type ReviewResult struct {
	Status        TerminalStatus `json:"status"`
	FinalResponse string         `json:"final_response"`
	Audit         *AuditRecord   `json:"audit"`
}
