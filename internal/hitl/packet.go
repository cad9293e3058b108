package hitl

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/meridian-grc/riskflow/internal/model"
)

const separator = "──────────────────────────────────────────────────────────────────────"

// DraftResponse returns the holding response a compliance officer reviews
// before it is released to the downstream team.
func DraftResponse() string {
	return "Thank you for your patience. We have received your request and it is currently " +
		"being reviewed by one of our compliance officers. This is a standard part of our " +
		"process to ensure your account is protected. Please call us back and a member of " +
		"our team will be happy to walk you through the next steps."
}

// RejectionResponse renders the final response for a rejected case. Only the
// masked customer identifier ever appears in it.
func RejectionResponse(maskedID, notes string) string {
	if strings.TrimSpace(notes) == "" {
		notes = "None provided."
	}
	return fmt.Sprintf("[REJECTED BY REVIEWER] Customer %s: "+
		"This case has been rejected and flagged for further investigation. Notes: %s",
		maskedID, notes)
}

// HoldResponse renders the final response for a CRITICAL-tier case that
// could not be auto-approved.
func HoldResponse(maskedID string) string {
	return fmt.Sprintf("[ON HOLD PENDING REVIEW] Customer %s: "+
		"This case requires sign-off from a compliance officer and has been queued for "+
		"manual review. No action will be taken until the review is complete.", maskedID)
}

// BuildReviewPacket renders everything the officer needs for an informed
// decision: score, tier, explainability breakdown, scrubbed notes, warnings,
// and the draft response. Raw identifiers never appear in the packet.
func BuildReviewPacket(s *model.RequestState, draft string) string {
	title := cases.Title(language.English)

	masked := s.MaskedCustomerID
	if masked == "" {
		masked = "UNKNOWN"
	}
	score := "N/A"
	if s.RiskScore != nil {
		score = fmt.Sprintf("%.1f / 100", *s.RiskScore)
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("")
	line(separator)
	line("  COMPLIANCE REVIEW REQUIRED — HUMAN IN THE LOOP")
	line(separator)
	line("  Run ID       : %s", s.RunID)
	line("  Timestamp    : %s", s.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	line("  Customer     : %s  (masked)", masked)
	line("  Intent       : %s", s.Intent)
	line("  Risk Score   : %s", score)
	line("  Risk Tier    : %s", s.RiskTier)
	line("  Route Taken  : %s", s.RouteTaken)
	line(separator)

	if len(s.ScoreBreakdown) > 0 {
		line("  SCORE BREAKDOWN:")
		for _, fc := range s.ScoreBreakdown {
			name := title.String(strings.ReplaceAll(fc.Feature, "_", " "))
			line("    %-28s raw=%-8v contrib=%.1f", name, fc.RawValue, fc.Contribution)
		}
		line(separator)
	}

	if notes := strings.TrimSpace(s.FreeTextNotes); notes != "" {
		line("  ANALYST NOTES (PII-scrubbed):")
		noteLines := strings.Split(notes, "\n")
		if len(noteLines) > 10 {
			noteLines = noteLines[:10]
		}
		for _, nl := range noteLines {
			line("    %s", nl)
		}
		line(separator)
	}

	if len(s.Errors) > 0 {
		line("  WORKFLOW WARNINGS:")
		for _, e := range s.Errors {
			line("    ! %s", e)
		}
		line(separator)
	}

	line("  DRAFT COMPLIANCE RESPONSE:")
	line("")
	for _, dl := range strings.Split(draft, "\n") {
		line("    %s", dl)
	}
	line("")
	b.WriteString(separator)
	return b.String()
}
