package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// stubClassifier returns a fixed verdict or error.
type stubClassifier struct {
	name    string
	verdict Verdict
	err     error
	calls   int
}

func (s *stubClassifier) Name() string { return s.name }

func (s *stubClassifier) Classify(context.Context, string) (Verdict, error) {
	s.calls++
	return s.verdict, s.err
}

func TestCheck_EmptyTextPassesUnconditionally(t *testing.T) {
	boom := &stubClassifier{name: "boom", err: errors.New("must not be called")}

	for _, text := range []string{"", "   ", "\n\t "} {
		verdict := Check(context.Background(), boom, text)
		assert.True(t, verdict.Passed)
		assert.Equal(t, "no content to check", verdict.Reason)
	}
	assert.Zero(t, boom.calls)
}

func TestCheck_DelegatesToClassifier(t *testing.T) {
	c := &stubClassifier{name: "stub", verdict: Verdict{Passed: false, Reason: "nope"}}
	verdict := Check(context.Background(), c, "some note")
	assert.False(t, verdict.Passed)
	assert.Equal(t, "nope", verdict.Reason)
	assert.Equal(t, 1, c.calls)
}

func TestCheck_ClassifierErrorFailsTowardReview(t *testing.T) {
	c := &stubClassifier{name: "stub", err: errors.New("wires crossed")}
	verdict := Check(context.Background(), c, "some note")
	assert.False(t, verdict.Passed)
	assert.Contains(t, verdict.Reason, "moderation unavailable")
}

func TestHeuristicClassifier(t *testing.T) {
	h := NewHeuristicClassifier(nil)

	tests := []struct {
		name       string
		text       string
		wantPassed bool
		wantSubstr string
	}{
		{"clean", "routine KYC refresh, nothing unusual", true, "passed heuristic"},
		{"keyword", "client asked us to falsify the ledger", false, `"falsif"`},
		{"case insensitive", "DO NOT FABRICATE RECORDS", false, `"fabricat"`},
		{"first match wins", "threat to bribe the auditor", false, `"threat"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := h.Classify(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPassed, verdict.Passed)
			assert.Contains(t, verdict.Reason, tt.wantSubstr)
		})
	}
}

func TestHeuristicClassifier_CustomDenylist(t *testing.T) {
	h := NewHeuristicClassifier([]string{"tulip"})

	verdict, err := h.Classify(context.Background(), "classic tulip mania")
	require.NoError(t, err)
	assert.False(t, verdict.Passed)

	verdict, err = h.Classify(context.Background(), "client asked us to falsify records")
	require.NoError(t, err)
	assert.True(t, verdict.Passed, "built-in denylist must not apply when a custom list is set")
}

func TestWithFallback_PrimaryWins(t *testing.T) {
	primary := &stubClassifier{name: "remote", verdict: Verdict{Passed: true, Reason: "passed remote moderation"}}
	secondary := &stubClassifier{name: "heuristic", verdict: Verdict{Passed: false, Reason: "flagged"}}

	verdict, err := WithFallback(primary, secondary).Classify(context.Background(), "note")
	require.NoError(t, err)
	assert.True(t, verdict.Passed)
	assert.Zero(t, secondary.calls)
}

func TestWithFallback_DegradesOnError(t *testing.T) {
	primary := &stubClassifier{name: "remote", err: errors.New("status 503")}
	secondary := &stubClassifier{name: "heuristic", verdict: Verdict{Passed: true, Reason: "passed heuristic moderation"}}

	verdict, err := WithFallback(primary, secondary).Classify(context.Background(), "note")
	require.NoError(t, err)
	assert.True(t, verdict.Passed)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		reply      string
		wantPassed bool
		wantErr    bool
	}{
		{"PASS", true, false},
		{"pass", true, false},
		{"PASS — no concerns", true, false},
		{"FAIL: discriminatory language", false, false},
		{"fail: threats", false, false},
		{"FAIL", false, false},
		{"maybe?", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		verdict, err := parseVerdict(tt.reply)
		if tt.wantErr {
			assert.Error(t, err, "reply=%q", tt.reply)
			continue
		}
		require.NoError(t, err, "reply=%q", tt.reply)
		assert.Equal(t, tt.wantPassed, verdict.Passed, "reply=%q", tt.reply)
	}
}
