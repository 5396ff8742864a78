package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/db"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

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
CREATE TABLE IF NOT EXISTS analyses (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL,
	version          INTEGER NOT NULL,
	table_json       JSONB NOT NULL,
	discount_toggles JSONB NOT NULL DEFAULT '{}',
	hidden_rows      JSONB NOT NULL DEFAULT '[]',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (project_id, version)
);

CREATE TABLE IF NOT EXISTS audit_events (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	project_id  TEXT NOT NULL,
	type        TEXT NOT NULL,
	cell_path   TEXT NOT NULL,
	payload     JSONB NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS playbook_rules (
	id              TEXT PRIMARY KEY,
	vendor_name     TEXT NOT NULL DEFAULT '*',
	condition_field TEXT NOT NULL,
	condition_type  TEXT NOT NULL,
	condition_value TEXT NOT NULL,
	action_type     TEXT NOT NULL,
	action_value    TEXT NOT NULL,
	confidence      TEXT NOT NULL DEFAULT '',
	enabled         BOOLEAN NOT NULL DEFAULT true,
	version         INTEGER NOT NULL DEFAULT 1,
	priority        INTEGER NOT NULL DEFAULT 0,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_project ON analyses(project_id, version DESC);
CREATE INDEX IF NOT EXISTS idx_audit_events_project ON audit_events(project_id, seq);
CREATE INDEX IF NOT EXISTS idx_playbook_rules_vendor ON playbook_rules(vendor_name);
`

var ruleColumns = []string{
	"id", "vendor_name", "condition_field", "condition_type", "condition_value",
	"action_type", "action_value", "confidence", "enabled", "version", "priority", "updated_at",
}

var auditEventColumns = []string{"id", "project_id", "type", "cell_path", "payload", "occurred_at"}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

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

func (s *PostgresStore) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	cols, err := encodeAnalysis(a)
	if err != nil {
		return err
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	var version int
	err = s.pool.QueryRow(ctx,
		`INSERT INTO analyses (id, project_id, version, table_json, discount_toggles, hidden_rows, created_at)
		 SELECT $1::text, $2::text, COALESCE(MAX(version), 0) + 1, $3::jsonb, $4::jsonb, $5::jsonb, $6::timestamptz
		 FROM analyses WHERE project_id = $2
		 RETURNING version`,
		id, a.ProjectID, cols.table, cols.toggles, cols.hidden, now,
	).Scan(&version)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert analysis for project %s", a.ProjectID)
	}

	a.ID, a.Version, a.CreatedAt = id, version, now
	return nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, project_id, version, table_json, discount_toggles, hidden_rows, created_at
		 FROM analyses WHERE id = $1`,
		id,
	)
	return scanPgAnalysis(row, "analysis "+id)
}

func (s *PostgresStore) LatestAnalysis(ctx context.Context, projectID string) (*model.Analysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, project_id, version, table_json, discount_toggles, hidden_rows, created_at
		 FROM analyses WHERE project_id = $1 ORDER BY version DESC LIMIT 1`,
		projectID,
	)
	return scanPgAnalysis(row, "project "+projectID)
}

func (s *PostgresStore) AppendAuditEvents(ctx context.Context, projectID string, events []model.CellAuditEvent) error {
	rows := make([][]any, 0, len(events))
	for _, e := range events {
		payload, err := encodeEvent(e)
		if err != nil {
			return err
		}
		rows = append(rows, []any{e.ID, projectID, e.Type, e.CellPath, payload, e.Timestamp.UTC()})
	}
	_, err := db.CopyFrom(ctx, s.pool, "audit_events", auditEventColumns, rows)
	return eris.Wrapf(err, "postgres: append audit events for project %s", projectID)
}

func (s *PostgresStore) ListAuditEvents(ctx context.Context, projectID string) ([]model.CellAuditEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM audit_events WHERE project_id = $1 ORDER BY seq`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list audit events")
	}
	defer rows.Close()

	var events []model.CellAuditEvent
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan audit event")
		}
		e, err := decodeEvent(payload)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list audit events iterate")
}

func (s *PostgresStore) ListRules(ctx context.Context, filter RuleFilter) ([]model.PlaybookRule, error) {
	query := `SELECT id, vendor_name, condition_field, condition_type, condition_value,
		action_type, action_value, confidence, enabled, version, priority, updated_at
		FROM playbook_rules WHERE 1=1`
	var args []any

	if !filter.IncludeDisabled {
		query += ` AND enabled`
	}
	if filter.Vendor != "" {
		query += ` AND vendor_name IN ($1, $2)`
		args = append(args, filter.Vendor, model.GlobalVendor)
	}
	query += ` ORDER BY priority, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rules")
	}
	defer rows.Close()

	var rules []model.PlaybookRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan rule")
		}
		rules = append(rules, r)
	}
	return rules, eris.Wrap(rows.Err(), "postgres: list rules iterate")
}

func (s *PostgresStore) SaveRule(ctx context.Context, rule model.PlaybookRule) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO playbook_rules (id, vendor_name, condition_field, condition_type, condition_value,
			action_type, action_value, confidence, enabled, version, priority, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
			vendor_name = EXCLUDED.vendor_name,
			condition_field = EXCLUDED.condition_field,
			condition_type = EXCLUDED.condition_type,
			condition_value = EXCLUDED.condition_value,
			action_type = EXCLUDED.action_type,
			action_value = EXCLUDED.action_value,
			confidence = EXCLUDED.confidence,
			enabled = EXCLUDED.enabled,
			version = EXCLUDED.version,
			priority = EXCLUDED.priority,
			updated_at = EXCLUDED.updated_at`,
		ruleArgs(rule, time.Now().UTC())...,
	)
	return eris.Wrapf(err, "postgres: upsert rule %s", rule.ID)
}

func (s *PostgresStore) ImportRules(ctx context.Context, rules []model.PlaybookRule) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, len(rules))
	for i, r := range rules {
		rows[i] = ruleArgs(r, now)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "playbook_rules",
		Columns:      ruleColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import rules")
	}
	return int(n), nil
}

func scanPgAnalysis(row pgx.Row, what string) (*model.Analysis, error) {
	var a model.Analysis
	var cols analysisColumns
	err := row.Scan(&a.ID, &a.ProjectID, &a.Version, &cols.table, &cols.toggles, &cols.hidden, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, what)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: scan %s", what)
	}
	if err := decodeAnalysis(&a, cols); err != nil {
		return nil, err
	}
	return &a, nil
}
