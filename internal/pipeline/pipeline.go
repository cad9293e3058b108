// Package pipeline composes the risk-review stages into a fixed execution
// order: intake, PII scrub, moderation, scoring, routing, optional human
// review, output. One RequestState is threaded through the whole run; the
// branching is a hand-written switch over terminal status rather than a
// generic graph engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-grc/riskflow/internal/audit"
	"github.com/meridian-grc/riskflow/internal/guard"
	"github.com/meridian-grc/riskflow/internal/hitl"
	"github.com/meridian-grc/riskflow/internal/model"
	"github.com/meridian-grc/riskflow/internal/moderation"
	"github.com/meridian-grc/riskflow/internal/pii"
	"github.com/meridian-grc/riskflow/internal/scoring"
)

// Stage names as they appear in nodePath.
const (
	NodeIntake     = "intake"
	NodePIIScrub   = "pii_scrub"
	NodeModeration = "moderation"
	NodeScoring    = "scoring"
	NodeRouter     = "router"
	NodeHITL       = "hitl"
	NodeOutput     = "output"
)

// Options configures one Pipeline instance.
type Options struct {
	Scoring    scoring.Config
	Classifier moderation.Classifier
	Reviewer   hitl.Reviewer
	// AllowAutoCritical permits the automatic fallback reviewer to approve
	// CRITICAL-tier escalations. Defaults to off: without the opt-in such
	// cases are held for manual review.
	AllowAutoCritical bool
	Emitters          []audit.Emitter
	MaxToolCalls      int
	MaxModelCalls     int
}

// Pipeline orchestrates the stages for independent runs. Instances are safe
// for concurrent use: all per-run state lives on the RequestState.
type Pipeline struct {
	scoring    scoring.Config
	classifier moderation.Classifier
	reviewer   hitl.Reviewer
	fallback   *hitl.AutoReviewer
	emitters   []audit.Emitter
	maxTool    int
	maxModel   int
}

// New creates a Pipeline. A nil classifier degrades to the builtin keyword
// heuristic; a nil reviewer means every escalation is resolved by the
// automatic fallback.
func New(opts Options) *Pipeline {
	cfg := opts.Scoring
	if cfg.WeightSum() == 0 {
		cfg = scoring.DefaultConfig()
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = moderation.NewHeuristicClassifier(nil)
	}
	fallback := &hitl.AutoReviewer{AllowCritical: opts.AllowAutoCritical}
	reviewer := opts.Reviewer
	if reviewer == nil {
		reviewer = fallback
	}
	maxTool := opts.MaxToolCalls
	if maxTool <= 0 {
		maxTool = model.DefaultMaxToolCalls
	}
	maxModel := opts.MaxModelCalls
	if maxModel <= 0 {
		maxModel = model.DefaultMaxModelCalls
	}
	return &Pipeline{
		scoring:    cfg,
		classifier: classifier,
		reviewer:   reviewer,
		fallback:   fallback,
		emitters:   opts.Emitters,
		maxTool:    maxTool,
		maxModel:   maxModel,
	}
}

// Run processes one request end to end. It always returns the full result
// triple: terminal status, final response, audit record. Unexpected faults
// are caught at this boundary and converted to a terminal ESCALATE.
func (p *Pipeline) Run(ctx context.Context, req *model.ReviewRequest) (result *model.ReviewResult) {
	s := model.NewRequestState(req)
	s.MaxToolCalls = p.maxTool
	s.MaxModelCalls = p.maxModel

	log := zap.L().With(zap.String("run_id", s.RunID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline: unexpected fault", zap.Any("panic", r))
			s.AddError(fmt.Sprintf("execution failure: %v", r))
			s.MarkTerminal(model.StatusEscalate, RouteExecutionFailure)
			result = p.finalize(ctx, s, log)
		}
	}()

	var rawIntent string
	if req != nil {
		rawIntent = req.Intent
	}
	log.Info("pipeline: run started", zap.String("intent", rawIntent))

	p.runIntake(s, log)
	if !s.Terminated() {
		p.runScrub(s)
		if !p.runModeration(ctx, s, log) {
			p.runScoring(s, log)
		}
		p.runRouter(s)
		if s.TerminalStatus == model.StatusEscalate {
			p.runReview(ctx, s, log)
		}
	}
	return p.finalize(ctx, s, log)
}

// runIntake validates and normalizes the raw payload.
// Reads rawInput. Writes intent, customerId, reasonCode, freeTextNotes, or
// an early NEED_INFO terminal decision.
func (p *Pipeline) runIntake(s *model.RequestState, log *zap.Logger) {
	s.VisitNode(NodeIntake)

	payload := s.RawInput
	if payload == nil {
		payload = &model.ReviewRequest{}
	}

	intent, ok := model.ParseIntent(payload.Intent)
	if !ok {
		verr := &model.ValidationError{
			Field:  "intent",
			Reason: fmt.Sprintf("unknown or missing intent %q (valid: explain_score, rescore, suppress_flag)", payload.Intent),
		}
		s.AddError("intake: " + verr.Error())
		s.MarkTerminal(model.StatusNeedInfo, RouteInvalidIntent)
		log.Warn("pipeline: intake rejected request", zap.String("route", RouteInvalidIntent))
		return
	}
	s.Intent = intent

	if strings.TrimSpace(payload.CustomerID) == "" {
		verr := &model.ValidationError{Field: "customer_id", Reason: "required"}
		s.AddError("intake: " + verr.Error())
		s.MarkTerminal(model.StatusNeedInfo, RouteMissingCustomerID)
		log.Warn("pipeline: intake rejected request", zap.String("route", RouteMissingCustomerID))
		return
	}
	s.CustomerID = payload.CustomerID

	if payload.ReasonCode != "" {
		s.ReasonCode = payload.ReasonCode
		if !model.ReasonCodes[payload.ReasonCode] {
			s.AddError(fmt.Sprintf("intake: unrecognized reason code %q", payload.ReasonCode))
		}
	}
	s.FreeTextNotes = payload.Notes
}

// runScrub masks the customer identifier and redacts PII from free text.
// Reads customerId, freeTextNotes. Writes maskedCustomerId, freeTextNotes,
// piiFieldsRedacted.
func (p *Pipeline) runScrub(s *model.RequestState) {
	s.VisitNode(NodePIIScrub)

	if s.CustomerID != "" {
		s.MaskedCustomerID = pii.MaskIdentifier(s.CustomerID)
		s.PIIFieldsRedacted = append(s.PIIFieldsRedacted, "customer_id")
	}
	if s.FreeTextNotes != "" {
		scrubbed, classes := pii.ScrubText(s.FreeTextNotes)
		s.FreeTextNotes = scrubbed
		s.PIIFieldsRedacted = append(s.PIIFieldsRedacted, classes...)
	}
}

// runModeration classifies the scrubbed notes. Classification counts against
// the model-call ceiling; a breach aborts the run toward ESCALATE and the
// returned flag tells the caller to skip scoring.
// Reads freeTextNotes. Writes moderationPassed, moderationReason,
// modelCallCount.
func (p *Pipeline) runModeration(ctx context.Context, s *model.RequestState, log *zap.Logger) (aborted bool) {
	s.VisitNode(NodeModeration)

	if strings.TrimSpace(s.FreeTextNotes) == "" {
		passed := true
		s.ModerationPassed = &passed
		s.ModerationReason = "no content to check"
		return false
	}

	if err := guard.CheckAndIncrement(guard.CounterModelCalls, &s.ModelCallCount, s.MaxModelCalls); err != nil {
		p.abortOnLimit(s, err, log)
		return true
	}

	verdict := moderation.Check(ctx, p.classifier, s.FreeTextNotes)
	s.ModerationPassed = &verdict.Passed
	s.ModerationReason = verdict.Reason
	if !verdict.Passed {
		log.Warn("pipeline: moderation flagged notes", zap.String("reason", verdict.Reason))
	}
	return false
}

// runScoring invokes the scoring engine under the tool-call guard and folds
// the result into the state.
// Reads rawInput.customerFeatures, intent. Writes riskScore, riskTier,
// scoreBreakdown, missingFields, freeTextNotes (explainability), toolCallCount.
func (p *Pipeline) runScoring(s *model.RequestState, log *zap.Logger) {
	s.VisitNode(NodeScoring)

	if err := guard.CheckAndIncrement(guard.CounterToolCalls, &s.ToolCallCount, s.MaxToolCalls); err != nil {
		p.abortOnLimit(s, err, log)
		return
	}

	var features *model.CustomerFeatures
	if s.RawInput != nil {
		features = s.RawInput.CustomerFeatures
	}
	if features == nil {
		s.MissingFields = []string{"customer_features"}
		s.AddError("scoring: no customer_features provided in payload")
		return
	}

	res := scoring.Compute(features, p.scoring)
	s.RiskScore = &res.Score
	s.RiskTier = res.Tier
	s.ScoreBreakdown = res.Breakdown
	s.MissingFields = res.MissingFields

	// Scrubbing already ran, so appended text must be PII-free by
	// construction. The explanation is built from numeric values only.
	if s.Intent == model.IntentExplainScore {
		s.FreeTextNotes = s.FreeTextNotes + "\n\n[EXPLAINABILITY REPORT]\n" + res.Explanation
	}

	log.Info("pipeline: scored request",
		zap.Float64("score", res.Score),
		zap.String("tier", string(res.Tier)),
	)
}

// runRouter applies the routing rules unless an earlier stage already
// terminated the run.
func (p *Pipeline) runRouter(s *model.RequestState) {
	s.VisitNode(NodeRouter)
	if s.Terminated() {
		return
	}
	status, route := Route(s)
	s.MarkTerminal(status, route)
}

// runReview drives the human-in-the-loop gate for escalated runs. When no
// interactive reviewer answers, the automatic fallback decides and the audit
// record marks the decision as system-sourced.
func (p *Pipeline) runReview(ctx context.Context, s *model.RequestState, log *zap.Logger) {
	s.VisitNode(NodeHITL)
	s.HITLTriggered = true
	if s.TerminalStatus != model.StatusEscalate {
		return
	}

	draft := hitl.DraftResponse()
	s.HITLDraftResponse = draft

	decision, err := p.reviewer.Review(ctx, s, draft)
	if err != nil {
		if !errors.Is(err, hitl.ErrNoReviewer) {
			s.AddError("hitl: reviewer failed: " + err.Error())
			log.Warn("pipeline: interactive review failed, falling back", zap.Error(err))
		}
		decision, _ = p.fallback.Review(ctx, s, draft)
	}

	s.HITLReviewerAction = string(decision.Action)
	s.HITLReviewerNotes = decision.Notes
	s.HITLDecisionSource = decision.Source

	switch decision.Action {
	case hitl.ActionApprove:
		s.FinalResponse = draft
	case hitl.ActionEdit:
		s.HITLEditedResponse = decision.EditedResponse
		s.FinalResponse = decision.EditedResponse
	case hitl.ActionReject:
		s.FinalResponse = hitl.RejectionResponse(s.MaskedCustomerID, decision.Notes)
	case hitl.ActionPolicyHold:
		s.AddError("hitl: " + decision.Notes)
		s.FinalResponse = hitl.HoldResponse(s.MaskedCustomerID)
	}

	log.Info("pipeline: review complete",
		zap.String("action", string(decision.Action)),
		zap.String("source", decision.Source),
	)
}

func (p *Pipeline) abortOnLimit(s *model.RequestState, err error, log *zap.Logger) {
	s.AddError(err.Error())
	route := "call_limit_exceeded"
	var lim *guard.LimitExceededError
	if errors.As(err, &lim) {
		route = lim.RouteLabel()
	}
	s.MarkTerminal(model.StatusEscalate, route)
	log.Warn("pipeline: call limit exceeded", zap.Error(err))
}
