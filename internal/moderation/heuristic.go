package moderation

import (
	"context"
	"fmt"
	"strings"
)

// defaultDenylist holds keyword stems that block analyst notes from
// proceeding. Stems catch inflected forms ("fabricat" → fabricate,
// fabricated, fabricating).
var defaultDenylist = []string{
	"kill", "threat", "harm", "discriminat", "racist", "sexist",
	"fabricat", "fake", "falsif", "bribe",
}

// HeuristicClassifier is the local fallback: a case-insensitive substring
// scan over a fixed denylist. First matching keyword wins and is named as
// the single failure cause. It never errors.
type HeuristicClassifier struct {
	denylist []string
}

// NewHeuristicClassifier creates the keyword classifier. An empty keyword
// list falls back to the built-in denylist.
func NewHeuristicClassifier(keywords []string) *HeuristicClassifier {
	if len(keywords) == 0 {
		keywords = defaultDenylist
	}
	return &HeuristicClassifier{denylist: keywords}
}

func (h *HeuristicClassifier) Name() string { return "heuristic" }

func (h *HeuristicClassifier) Classify(_ context.Context, text string) (Verdict, error) {
	lower := strings.ToLower(text)
	for _, kw := range h.denylist {
		if strings.Contains(lower, kw) {
			return Verdict{
				Passed: false,
				Reason: fmt.Sprintf("flagged by heuristic moderation: keyword %q detected", kw),
			}, nil
		}
	}
	return Verdict{Passed: true, Reason: "passed heuristic moderation"}, nil
}
