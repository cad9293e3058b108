package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/meridian-grc/riskflow/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_audit": `INSERT INTO audit_runs (run_id, ts, intent, terminal_status, route_taken, risk_score, risk_tier, record) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"get_audit":    `SELECT record FROM audit_runs WHERE run_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS audit_runs (
	run_id          TEXT PRIMARY KEY,
	ts              TIMESTAMPTZ NOT NULL,
	intent          TEXT NOT NULL,
	terminal_status TEXT NOT NULL,
	route_taken     TEXT NOT NULL,
	risk_score      DOUBLE PRECISION,
	risk_tier       TEXT NOT NULL,
	record          JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_runs_status ON audit_runs(terminal_status);
CREATE INDEX IF NOT EXISTS idx_audit_runs_route ON audit_runs(route_taken);
CREATE INDEX IF NOT EXISTS idx_audit_runs_ts ON audit_runs(ts);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Emit(ctx context.Context, rec *model.AuditRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal audit record")
	}

	var score any
	if rec.RiskScore != nil {
		score = *rec.RiskScore
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_runs (run_id, ts, intent, terminal_status, route_taken, risk_score, risk_tier, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.RunID, rec.Timestamp, rec.Intent, string(rec.TerminalStatus),
		rec.RouteTaken, score, string(rec.RiskTier), payload,
	)
	return eris.Wrapf(err, "postgres: insert audit record %s", rec.RunID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.AuditRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM audit_runs WHERE run_id = $1`, runID,
	).Scan(&payload)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	var rec model.AuditRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal run %s", runID)
	}
	return &rec, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]RunSummary, error) {
	query := `SELECT run_id, ts, intent, terminal_status, route_taken, risk_score, risk_tier FROM audit_runs`
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "terminal_status = $1")
	}
	if filter.Route != "" {
		args = append(args, filter.Route)
		conds = append(conds, "route_taken = $"+strconv.Itoa(len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var score sql.NullFloat64
		var status, tier string
		if err := rows.Scan(&rs.RunID, &rs.Timestamp, &rs.Intent, &status, &rs.RouteTaken, &score, &tier); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run summary")
		}
		if score.Valid {
			v := score.Float64
			rs.RiskScore = &v
		}
		rs.TerminalStatus = model.TerminalStatus(status)
		rs.RiskTier = model.RiskTier(tier)
		out = append(out, rs)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list runs")
}
