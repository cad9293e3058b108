// Package moderation screens analyst free text before it influences a
// compliance decision. A classification answer is mandatory: the remote
// classifier degrades to a local heuristic, never to silence.
package moderation

import (
	"context"
	"strings"
)

// Verdict is a definitive moderation answer: pass or fail, with a
// human-readable reason citing the trigger.
type Verdict struct {
	Passed bool
	Reason string
}

// Classifier classifies free text. Implementations may call an external
// service; an error means "no answer", which callers recover from via the
// fallback decorator.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (Verdict, error)
}

// Check is the gate entry point. Empty or whitespace-only text passes
// unconditionally; otherwise the classifier decides. Check never returns an
// error: a classifier failure here means the chain was misassembled, and the
// gate still answers by failing toward human review.
func Check(ctx context.Context, classifier Classifier, text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return Verdict{Passed: true, Reason: "no content to check"}
	}
	verdict, err := classifier.Classify(ctx, text)
	if err != nil {
		return Verdict{Passed: false, Reason: "moderation unavailable: " + err.Error()}
	}
	return verdict
}
