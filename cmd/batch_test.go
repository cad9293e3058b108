package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-grc/riskflow/internal/model"
)

func writeBatchFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requests.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fakeResult(status model.TerminalStatus) *model.ReviewResult {
	return &model.ReviewResult{
		Status: status,
		Audit:  &model.AuditRecord{RunID: "TESTRUN1", TerminalStatus: status},
	}
}

func TestLoadBatchRequests(t *testing.T) {
	path := writeBatchFile(t,
		`{"intent":"rescore","customer_id":"CUST-1"}`,
		``,
		`{"intent":"explain_score","customer_id":"CUST-2","notes":"why so high"}`,
	)

	requests, err := loadBatchRequests(path)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "rescore", requests[0].Intent)
	assert.Equal(t, "CUST-2", requests[1].CustomerID)
	assert.Equal(t, "why so high", requests[1].Notes)
}

func TestLoadBatchRequests_BadLine(t *testing.T) {
	path := writeBatchFile(t,
		`{"intent":"rescore","customer_id":"CUST-1"}`,
		`{not json}`,
	)

	_, err := loadBatchRequests(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestProcessBatch_Empty(t *testing.T) {
	err := processBatch(context.Background(), nil, 10, 4, func(_ context.Context, _ *model.ReviewRequest) *model.ReviewResult {
		t.Fatal("review func should not be called for an empty batch")
		return nil
	})
	assert.NoError(t, err)
}

func TestProcessBatch_AppliesLimit(t *testing.T) {
	requests := make([]*model.ReviewRequest, 10)
	for i := range requests {
		requests[i] = &model.ReviewRequest{Intent: "rescore", CustomerID: fmt.Sprintf("CUST-%d", i)}
	}

	var calls atomic.Int64
	err := processBatch(context.Background(), requests, 3, 2, func(_ context.Context, _ *model.ReviewRequest) *model.ReviewResult {
		calls.Add(1)
		return fakeResult(model.StatusReady)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestProcessBatch_EveryRunCounted(t *testing.T) {
	requests := []*model.ReviewRequest{
		{Intent: "rescore", CustomerID: "CUST-1"},
		{Intent: "rescore", CustomerID: "CUST-2"},
		{Intent: "rescore", CustomerID: "CUST-3"},
	}

	statuses := []model.TerminalStatus{model.StatusReady, model.StatusNeedInfo, model.StatusEscalate}
	var idx atomic.Int64
	err := processBatch(context.Background(), requests, 0, 1, func(_ context.Context, _ *model.ReviewRequest) *model.ReviewResult {
		return fakeResult(statuses[idx.Add(1)-1])
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), idx.Load())
}
