package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-grc/riskflow/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRecord(runID string, status model.TerminalStatus) *model.AuditRecord {
	score := 61.25
	passed := true
	return &model.AuditRecord{
		RunID:             runID,
		Timestamp:         time.Date(2026, 2, 17, 9, 30, 0, 0, time.UTC),
		Intent:            "rescore",
		CustomerIDMasked:  "****89",
		TerminalStatus:    status,
		RouteTaken:        "high_risk_escalate",
		NodePath:          []string{"intake", "pii_scrub", "moderation", "scoring", "router", "hitl", "output"},
		RiskScore:         &score,
		RiskTier:          model.TierHigh,
		PIIFieldsRedacted: []string{"customer_id"},
		ModerationPassed:  &passed,
		ModerationReason:  "passed heuristic moderation",
		ToolCallCount:     1,
		ModelCallCount:    1,
	}
}

func TestSQLiteStore_EmitAndGetRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rec := sampleRecord("AB12CD34", model.StatusEscalate)
	require.NoError(t, s.Emit(ctx, rec))

	got, err := s.GetRun(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.TerminalStatus, got.TerminalStatus)
	assert.Equal(t, rec.RouteTaken, got.RouteTaken)
	assert.Equal(t, rec.NodePath, got.NodePath)
	require.NotNil(t, got.RiskScore)
	assert.InDelta(t, 61.25, *got.RiskScore, 1e-9)
	assert.Equal(t, "****89", got.CustomerIDMasked)
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetRun(context.Background(), "MISSING1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run MISSING1")
}

func TestSQLiteStore_DuplicateRunIDRejected(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Emit(ctx, sampleRecord("DUP00001", model.StatusReady)))
	assert.Error(t, s.Emit(ctx, sampleRecord("DUP00001", model.StatusReady)))
}

func TestSQLiteStore_ListRunsFilters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Emit(ctx, sampleRecord("RUN00001", model.StatusEscalate)))
	require.NoError(t, s.Emit(ctx, sampleRecord("RUN00002", model.StatusReady)))
	require.NoError(t, s.Emit(ctx, sampleRecord("RUN00003", model.StatusEscalate)))

	escalated, err := s.ListRuns(ctx, RunFilter{Status: model.StatusEscalate})
	require.NoError(t, err)
	assert.Len(t, escalated, 2)
	for _, rs := range escalated {
		assert.Equal(t, model.StatusEscalate, rs.TerminalStatus)
	}

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byRoute, err := s.ListRuns(ctx, RunFilter{Route: "high_risk_escalate", Status: model.StatusReady})
	require.NoError(t, err)
	assert.Len(t, byRoute, 1)
	assert.Equal(t, "RUN00002", byRoute[0].RunID)
}
