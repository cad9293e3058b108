package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		raw    string
		want   IntentType
		wantOK bool
	}{
		{"rescore", IntentRescore, true},
		{"  SUPPRESS_FLAG ", IntentSuppressFlag, true},
		{"Explain_Score", IntentExplainScore, true},
		{"", "", false},
		{"delete_customer", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseIntent(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}

func TestNewRequestState_Identity(t *testing.T) {
	a := NewRequestState(&ReviewRequest{CustomerID: "C1"})
	b := NewRequestState(&ReviewRequest{CustomerID: "C2"})

	require.Len(t, a.RunID, 8)
	assert.Equal(t, a.RunID, string([]byte(a.RunID))) // sanity: plain ASCII
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.False(t, a.Timestamp.IsZero())
	assert.Equal(t, "UTC", a.Timestamp.Location().String())
	assert.Equal(t, TierUnknown, a.RiskTier)
	assert.Equal(t, DefaultMaxToolCalls, a.MaxToolCalls)
	assert.Equal(t, DefaultMaxModelCalls, a.MaxModelCalls)
}

func TestMarkTerminal_WriteOnce(t *testing.T) {
	s := NewRequestState(&ReviewRequest{})

	assert.True(t, s.MarkTerminal(StatusNeedInfo, "invalid_intent"))
	assert.False(t, s.MarkTerminal(StatusReady, "low_risk_auto_approved"))

	assert.Equal(t, StatusNeedInfo, s.TerminalStatus)
	assert.Equal(t, "invalid_intent", s.RouteTaken)
}

func TestVisitNodeAndAddError_AppendOnly(t *testing.T) {
	s := NewRequestState(&ReviewRequest{})
	s.VisitNode("intake")
	s.VisitNode("output")
	s.AddError("first")
	s.AddError("second")

	assert.Equal(t, []string{"intake", "output"}, s.NodePath)
	assert.Equal(t, []string{"first", "second"}, s.Errors)
}

func TestBuildAuditRecord_NeverCarriesRawInput(t *testing.T) {
	req := &ReviewRequest{
		Intent:     "rescore",
		CustomerID: "CUST-20241107-7842",
		Notes:      "call me at 555-867-5309",
	}
	s := NewRequestState(req)
	s.Intent = IntentRescore
	s.CustomerID = req.CustomerID
	s.MaskedCustomerID = "****************42"
	s.MarkTerminal(StatusReady, "low_risk_auto_approved")

	rec := BuildAuditRecord(s)

	assert.Equal(t, "****************42", rec.CustomerIDMasked)
	assert.Equal(t, StatusReady, rec.TerminalStatus)
	assert.NotContains(t, rec.CustomerIDMasked, "CUST-20241107")
}

func TestBuildAuditRecord_MaskedFallback(t *testing.T) {
	s := NewRequestState(&ReviewRequest{})
	rec := BuildAuditRecord(s)
	assert.Equal(t, "NOT_SET", rec.CustomerIDMasked)
}
