package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meridian-grc/riskflow/internal/model"
)

// finalize is the output stage: it guarantees a non-empty final response,
// assembles the audit record, and hands it to every emitter. It always runs
// last regardless of the path taken.
func (p *Pipeline) finalize(ctx context.Context, s *model.RequestState, log *zap.Logger) *model.ReviewResult {
	s.VisitNode(NodeOutput)

	// The router is total, so only a fault between stages can leave the
	// status unset.
	if !s.Terminated() {
		s.AddError("output: run reached output without a terminal status")
		s.MarkTerminal(model.StatusEscalate, RouteExecutionFailure)
	}
	if s.FinalResponse == "" {
		s.FinalResponse = synthesizeResponse(s)
	}

	rec := model.BuildAuditRecord(s)
	for _, em := range p.emitters {
		if err := em.Emit(ctx, rec); err != nil {
			log.Warn("pipeline: audit emit failed", zap.Error(err))
		}
	}

	log.Info("pipeline: run complete",
		zap.String("status", string(s.TerminalStatus)),
		zap.String("route", s.RouteTaken),
		zap.String("node_path", strings.Join(s.NodePath, ">")),
		zap.Int("warnings", len(s.Errors)),
	)

	return &model.ReviewResult{
		Status:        s.TerminalStatus,
		FinalResponse: s.FinalResponse,
		Audit:         rec,
	}
}

// synthesizeResponse builds the client-facing response for runs that ended
// without one (auto-approved or rejected-at-intake paths). Only the masked
// identifier ever appears in it.
func synthesizeResponse(s *model.RequestState) string {
	cid := s.MaskedCustomerID
	if cid == "" {
		cid = "UNKNOWN"
	}

	switch s.TerminalStatus {
	case model.StatusReady:
		var score float64
		if s.RiskScore != nil {
			score = *s.RiskScore
		}
		switch s.Intent {
		case model.IntentRescore:
			return fmt.Sprintf("Customer %s has been re-scored. Risk score: %.1f (%s tier). "+
				"Status: Cleared for normal processing.", cid, score, s.RiskTier)
		case model.IntentSuppressFlag:
			return fmt.Sprintf("Flag suppression for customer %s has been approved. "+
				"Risk score: %.1f (%s tier). The flag has been suppressed as requested.", cid, score, s.RiskTier)
		case model.IntentExplainScore:
			return fmt.Sprintf("Score explanation for customer %s: Risk score %.1f (%s tier). "+
				"See score breakdown for feature-level detail.", cid, score, s.RiskTier)
		default:
			return fmt.Sprintf("Request for customer %s processed. Status: READY.", cid)
		}

	case model.StatusNeedInfo:
		missing := "unspecified fields"
		if len(s.MissingFields) > 0 {
			missing = strings.Join(s.MissingFields, ", ")
		}
		msg := fmt.Sprintf("Cannot process request for customer %s. Additional information required: %s.", cid, missing)
		if len(s.Errors) > 0 {
			msg += " " + strings.Join(s.Errors, " | ")
		}
		return msg
	}

	return fmt.Sprintf("Request for customer %s completed with status: %s.", cid, s.TerminalStatus)
}
