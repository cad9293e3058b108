package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-grc/riskflow/internal/audit"
	"github.com/meridian-grc/riskflow/internal/model"
)

func summaries() []audit.RunSummary {
	score1 := 12.5
	score2 := 88.0
	ts := time.Date(2026, 2, 17, 10, 30, 0, 0, time.UTC)
	return []audit.RunSummary{
		{RunID: "AAAA1111", Timestamp: ts, Intent: "rescore", TerminalStatus: model.StatusReady, RouteTaken: "low_risk_auto_approved", RiskScore: &score1, RiskTier: model.TierLow},
		{RunID: "BBBB2222", Timestamp: ts, Intent: "rescore", TerminalStatus: model.StatusEscalate, RouteTaken: "high_risk_escalate", RiskScore: &score2, RiskTier: model.TierHigh},
		{RunID: "CCCC3333", Timestamp: ts, Intent: "rescore", TerminalStatus: model.StatusNeedInfo, RouteTaken: "missing_data"},
	}
}

func TestComputeRunStats(t *testing.T) {
	stats := computeRunStats(summaries())

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Ready)
	assert.Equal(t, 1, stats.NeedInfo)
	assert.Equal(t, 1, stats.Escalated)
	assert.InDelta(t, 50.25, stats.AvgScore, 0.01)
	assert.Equal(t, 1, stats.Routes["high_risk_escalate"])
	assert.Equal(t, 1, stats.Routes["missing_data"])
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, summaries())

	output := buf.String()
	assert.Contains(t, output, "AAAA1111")
	assert.Contains(t, output, "low_risk_auto_approved")
	assert.Contains(t, output, "12.5")
	assert.Contains(t, output, "2026-02-17 10:30:00")
	// Unscored runs render a dash, not a zero.
	assert.Contains(t, output, "missing_data")
	assert.NotContains(t, output, "0.0")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, computeRunStats(summaries()))

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Escalated:")
	assert.Contains(t, output, "Avg risk score:")
	assert.Contains(t, output, "high_risk_escalate")
}
