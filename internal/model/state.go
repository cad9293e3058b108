// Package model defines the request state, input payload, and audit record
// types shared by every pipeline stage.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TerminalStatus is the final disposition of a run.
type TerminalStatus string

const (
	// StatusReady means the request was scored and auto-approved.
	StatusReady TerminalStatus = "READY"
	// StatusNeedInfo means required input was missing; the caller must resubmit.
	StatusNeedInfo TerminalStatus = "NEED_INFO"
	// StatusEscalate means the request requires human review.
	StatusEscalate TerminalStatus = "ESCALATE"
)

// IntentType is the closed set of supported request intents.
type IntentType string

const (
	IntentRescore      IntentType = "rescore"
	IntentSuppressFlag IntentType = "suppress_flag"
	IntentExplainScore IntentType = "explain_score"
)

// ParseIntent normalizes and validates an intent string.
func ParseIntent(raw string) (IntentType, bool) {
	switch IntentType(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentRescore:
		return IntentRescore, true
	case IntentSuppressFlag:
		return IntentSuppressFlag, true
	case IntentExplainScore:
		return IntentExplainScore, true
	default:
		return "", false
	}
}

// RiskTier is the risk classification bucket derived from the numeric score.
type RiskTier string

const (
	TierLow      RiskTier = "LOW"
	TierMedium   RiskTier = "MEDIUM"
	TierHigh     RiskTier = "HIGH"
	TierCritical RiskTier = "CRITICAL"
	// TierUnknown is assigned only when required features are missing.
	TierUnknown RiskTier = "UNKNOWN"
)

// Default per-run call ceilings. Costed operations are bounded per run so a
// misbehaving request escalates instead of looping silently.
const (
	DefaultMaxToolCalls  = 10
	DefaultMaxModelCalls = 5
)

// RequestState is the single mutable record threaded through every stage of
// one run. It is created once per run, mutated in place by each stage, never
// shared across concurrent runs, and discarded after the output stage.
//
// Stage contracts (reads/writes) are documented on each stage function in
// internal/pipeline.
type RequestState struct {
	// Run identity. Immutable once set.
	RunID     string
	Timestamp time.Time

	// Raw input. Never copied verbatim into the audit record.
	RawInput *ReviewRequest

	// Populated by intake.
	Intent     IntentType
	ReasonCode string
	CustomerID string

	// FreeTextNotes starts as the raw notes, is redacted in place by the
	// scrub stage, and may gain explainability text after scoring. The
	// scrub-then-append order guarantees appended text is never re-scrubbed;
	// it is PII-free by construction.
	FreeTextNotes string

	// Populated by the scrub stage.
	MaskedCustomerID  string
	PIIFieldsRedacted []string

	// Populated by the moderation stage. Nil until the stage runs.
	ModerationPassed *bool
	ModerationReason string

	// Populated by the scoring stage.
	RiskScore      *float64
	RiskTier       RiskTier
	ScoreBreakdown []FeatureContribution
	MissingFields  []string

	// Routing outcome. Write-once: once any stage sets TerminalStatus the
	// router passes through unchanged.
	TerminalStatus TerminalStatus
	RouteTaken     string

	// HITL outcome. Populated only on ESCALATE.
	HITLTriggered      bool
	HITLReviewerAction string
	HITLReviewerNotes  string
	HITLEditedResponse string
	HITLDraftResponse  string
	// HITLDecisionSource distinguishes a genuine human decision ("human")
	// from the non-interactive fallback ("system"). Mandatory in the audit
	// record so an automatic approval is never mistaken for a human one.
	HITLDecisionSource string

	// Final client-facing response. Synthesized by the output stage if still
	// empty when it runs.
	FinalResponse string

	// NodePath is the append-only audit trail of stages actually executed.
	NodePath []string
	// Errors is the append-only list of warnings and errors. Never cleared.
	Errors []string

	// Call-limit counters. Monotonically increasing, never decremented.
	ToolCallCount  int
	ModelCallCount int
	MaxToolCalls   int
	MaxModelCalls  int
}

// NewRequestState creates the per-run state with a fresh run ID and UTC
// timestamp. Run IDs use the first eight hex characters of a UUID, uppercased,
// matching the audit log naming scheme.
func NewRequestState(req *ReviewRequest) *RequestState {
	return &RequestState{
		RunID:         strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
		Timestamp:     time.Now().UTC(),
		RawInput:      req,
		RiskTier:      TierUnknown,
		MaxToolCalls:  DefaultMaxToolCalls,
		MaxModelCalls: DefaultMaxModelCalls,
	}
}

// VisitNode appends a stage name to the node path.
func (s *RequestState) VisitNode(name string) {
	s.NodePath = append(s.NodePath, name)
}

// AddError appends a warning or error message. The list is append-only.
func (s *RequestState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// Terminated reports whether a terminal status has already been assigned.
func (s *RequestState) Terminated() bool {
	return s.TerminalStatus != ""
}

// MarkTerminal assigns the terminal status and route label. It returns false
// without writing if a status is already set, guarding against double-routing.
func (s *RequestState) MarkTerminal(status TerminalStatus, route string) bool {
	if s.Terminated() {
		return false
	}
	s.TerminalStatus = status
	s.RouteTaken = route
	return true
}
