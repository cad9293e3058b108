// Package audit persists the per-run audit record. Every run emits exactly
// one record; sinks must never receive raw customer identifiers or raw
// free-text notes.
package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meridian-grc/riskflow/internal/model"
)

// Emitter persists one audit record.
type Emitter interface {
	Emit(ctx context.Context, rec *model.AuditRecord) error
}

// RunFilter specifies criteria for listing stored runs.
type RunFilter struct {
	Status model.TerminalStatus `json:"status,omitempty"`
	Route  string               `json:"route,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
}

// RunSummary is the one-line view of a stored run.
type RunSummary struct {
	RunID          string               `json:"run_id"`
	Timestamp      time.Time            `json:"timestamp"`
	Intent         string               `json:"intent"`
	TerminalStatus model.TerminalStatus `json:"terminal_status"`
	RouteTaken     string               `json:"route_taken"`
	RiskScore      *float64             `json:"risk_score"`
	RiskTier       model.RiskTier       `json:"risk_tier"`
}

// Store is an Emitter whose records can be queried back.
type Store interface {
	Emitter
	GetRun(ctx context.Context, runID string) (*model.AuditRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunSummary, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres store uses. pgxmock
// satisfies it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}
