package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/meridian-grc/riskflow/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS audit_runs (
	run_id          TEXT PRIMARY KEY,
	ts              DATETIME NOT NULL,
	intent          TEXT NOT NULL,
	terminal_status TEXT NOT NULL,
	route_taken     TEXT NOT NULL,
	risk_score      REAL,
	risk_tier       TEXT NOT NULL,
	record          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_runs_status ON audit_runs(terminal_status);
CREATE INDEX IF NOT EXISTS idx_audit_runs_route ON audit_runs(route_taken);
CREATE INDEX IF NOT EXISTS idx_audit_runs_ts ON audit_runs(ts);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Emit(ctx context.Context, rec *model.AuditRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal audit record")
	}

	var score any
	if rec.RiskScore != nil {
		score = *rec.RiskScore
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_runs (run_id, ts, intent, terminal_status, route_taken, risk_score, risk_tier, record)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Timestamp, rec.Intent, string(rec.TerminalStatus),
		rec.RouteTaken, score, string(rec.RiskTier), string(payload),
	)
	return eris.Wrapf(err, "sqlite: insert audit record %s", rec.RunID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.AuditRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM audit_runs WHERE run_id = ?`, runID,
	).Scan(&payload)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	var rec model.AuditRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal run %s", runID)
	}
	return &rec, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunSummary, error) {
	query := `SELECT run_id, ts, intent, terminal_status, route_taken, risk_score, risk_tier FROM audit_runs`
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, "terminal_status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Route != "" {
		conds = append(conds, "route_taken = ?")
		args = append(args, filter.Route)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var score sql.NullFloat64
		var status, tier string
		if err := rows.Scan(&rs.RunID, &rs.Timestamp, &rs.Intent, &status, &rs.RouteTaken, &score, &tier); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run summary")
		}
		if score.Valid {
			v := score.Float64
			rs.RiskScore = &v
		}
		rs.TerminalStatus = model.TerminalStatus(status)
		rs.RiskTier = model.RiskTier(tier)
		out = append(out, rs)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list runs")
}
