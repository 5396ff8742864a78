package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	// A single writer keeps version assignment serialized.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL,
	version          INTEGER NOT NULL,
	table_json       TEXT NOT NULL,
	discount_toggles TEXT NOT NULL DEFAULT '{}',
	hidden_rows      TEXT NOT NULL DEFAULT '[]',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (project_id, version)
);

CREATE TABLE IF NOT EXISTS audit_events (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	project_id  TEXT NOT NULL,
	type        TEXT NOT NULL,
	cell_path   TEXT NOT NULL,
	payload     TEXT NOT NULL,
	occurred_at DATETIME NOT NULL
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
	enabled         INTEGER NOT NULL DEFAULT 1,
	version         INTEGER NOT NULL DEFAULT 1,
	priority        INTEGER NOT NULL DEFAULT 0,
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_project ON analyses(project_id, version DESC);
CREATE INDEX IF NOT EXISTS idx_audit_events_project ON audit_events(project_id, seq);
CREATE INDEX IF NOT EXISTS idx_playbook_rules_vendor ON playbook_rules(vendor_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	cols, err := encodeAnalysis(a)
	if err != nil {
		return err
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	var version int
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO analyses (id, project_id, version, table_json, discount_toggles, hidden_rows, created_at)
		 SELECT ?, ?, COALESCE(MAX(version), 0) + 1, ?, ?, ?, ? FROM analyses WHERE project_id = ?
		 RETURNING version`,
		id, a.ProjectID, string(cols.table), string(cols.toggles), string(cols.hidden), now, a.ProjectID,
	).Scan(&version)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert analysis for project %s", a.ProjectID)
	}

	a.ID, a.Version, a.CreatedAt = id, version, now
	return nil
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, version, table_json, discount_toggles, hidden_rows, created_at
		 FROM analyses WHERE id = ?`,
		id,
	)
	return scanAnalysis(row, "analysis "+id)
}

func (s *SQLiteStore) LatestAnalysis(ctx context.Context, projectID string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, version, table_json, discount_toggles, hidden_rows, created_at
		 FROM analyses WHERE project_id = ? ORDER BY version DESC LIMIT 1`,
		projectID,
	)
	return scanAnalysis(row, "project "+projectID)
}

func (s *SQLiteStore) AppendAuditEvents(ctx context.Context, projectID string, events []model.CellAuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin append audit events")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO audit_events (id, project_id, type, cell_path, payload, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert audit event")
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := encodeEvent(e)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.ID, projectID, e.Type, e.CellPath, string(payload), e.Timestamp.UTC()); err != nil {
			return eris.Wrapf(err, "sqlite: insert audit event %s", e.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit audit events")
}

func (s *SQLiteStore) ListAuditEvents(ctx context.Context, projectID string) ([]model.CellAuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM audit_events WHERE project_id = ? ORDER BY seq`,
		projectID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audit events")
	}
	defer rows.Close()

	var events []model.CellAuditEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan audit event")
		}
		e, err := decodeEvent([]byte(payload))
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list audit events iterate")
}

func (s *SQLiteStore) ListRules(ctx context.Context, filter RuleFilter) ([]model.PlaybookRule, error) {
	query := `SELECT id, vendor_name, condition_field, condition_type, condition_value,
		action_type, action_value, confidence, enabled, version, priority, updated_at
		FROM playbook_rules WHERE 1=1`
	var args []any

	if !filter.IncludeDisabled {
		query += ` AND enabled = 1`
	}
	if filter.Vendor != "" {
		query += ` AND (vendor_name = ? OR vendor_name = ?)`
		args = append(args, filter.Vendor, model.GlobalVendor)
	}
	query += ` ORDER BY priority, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rules")
	}
	defer rows.Close()

	var rules []model.PlaybookRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rule")
		}
		rules = append(rules, r)
	}
	return rules, eris.Wrap(rows.Err(), "sqlite: list rules iterate")
}

const sqliteUpsertRule = `
INSERT INTO playbook_rules (id, vendor_name, condition_field, condition_type, condition_value,
	action_type, action_value, confidence, enabled, version, priority, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	vendor_name = excluded.vendor_name,
	condition_field = excluded.condition_field,
	condition_type = excluded.condition_type,
	condition_value = excluded.condition_value,
	action_type = excluded.action_type,
	action_value = excluded.action_value,
	confidence = excluded.confidence,
	enabled = excluded.enabled,
	version = excluded.version,
	priority = excluded.priority,
	updated_at = excluded.updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRule(ctx context.Context, db execer, r model.PlaybookRule) error {
	_, err := db.ExecContext(ctx, sqliteUpsertRule, ruleArgs(r, time.Now().UTC())...)
	return eris.Wrapf(err, "sqlite: upsert rule %s", r.ID)
}

func (s *SQLiteStore) SaveRule(ctx context.Context, rule model.PlaybookRule) error {
	return upsertRule(ctx, s.db, rule)
}

func (s *SQLiteStore) ImportRules(ctx context.Context, rules []model.PlaybookRule) (int, error) {
	if len(rules) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import rules")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range rules {
		if err := upsertRule(ctx, tx, r); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import rules")
	}
	return len(rules), nil
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable, what string) (*model.Analysis, error) {
	var a model.Analysis
	var table, toggles, hidden string
	err := row.Scan(&a.ID, &a.ProjectID, &a.Version, &table, &toggles, &hidden, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, what)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: scan %s", what)
	}
	if err := decodeAnalysis(&a, analysisColumns{table: []byte(table), toggles: []byte(toggles), hidden: []byte(hidden)}); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanRule(row scannable) (model.PlaybookRule, error) {
	var r model.PlaybookRule
	var field, condType, actionType, confidence string
	err := row.Scan(&r.ID, &r.VendorName, &field, &condType, &r.ConditionValue,
		&actionType, &r.ActionValue, &confidence, &r.Enabled, &r.Version, &r.Priority, &r.UpdatedAt)
	r.ConditionField = model.ConditionField(field)
	r.ConditionType = model.ConditionType(condType)
	r.ActionType = model.ActionType(actionType)
	r.Confidence = model.Confidence(confidence)
	return r, err
}

func ruleArgs(r model.PlaybookRule, now time.Time) []any {
	vendor := r.VendorName
	if vendor == "" {
		vendor = model.GlobalVendor
	}
	return []any{
		r.ID, vendor, string(r.ConditionField), string(r.ConditionType), r.ConditionValue,
		string(r.ActionType), r.ActionValue, string(r.Confidence), r.Enabled, r.Version, r.Priority, now,
	}
}
