/*
Package sqlite provides the SQLite-backed store for the engine.

PURPOSE:
  Persists the state that outlives one server process: named rule
  set versions, the rule-change activity log, and the history of
  reconciliation runs. Datasets themselves are NOT persisted; they
  are session-scoped uploads by contract.

KEY TABLES:
  rule_sets:    Named, versioned rule/category configurations (JSON)
  activity_log: Rule mutation audit trail, newest first on read
  recon_runs:   One row per reconciliation pass with its totals

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: multiple readers don't block, single writer at a
  time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/recon.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - factory/config.go: The JSON stored in rule_sets
  - api/handlers.go:   The main consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// activityCap bounds how many audit entries a read returns.
const activityCap = 100

// Store implements persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Named rule set versions (config JSON as stored)
	CREATE TABLE IF NOT EXISTS rule_sets (
		name TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Rule mutation audit trail
	CREATE TABLE IF NOT EXISTS activity_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at TEXT NOT NULL,
		action TEXT NOT NULL,
		old_value TEXT,
		new_value TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_activity_at ON activity_log(at DESC);

	-- Reconciliation run history
	CREATE TABLE IF NOT EXISTS recon_runs (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		rule_set TEXT NOT NULL,
		total_records INTEGER NOT NULL,
		total_matched INTEGER NOT NULL,
		interface_failures INTEGER NOT NULL,
		status_mismatches INTEGER NOT NULL,
		duplicate_orders INTEGER NOT NULL,
		blank_claim_ids INTEGER NOT NULL,
		match_rate TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recon_runs_at ON recon_runs(at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Reset drops all rows. For tests and the dev reset endpoint only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, table := range []string{"rule_sets", "activity_log", "recon_runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// RULE SETS
// =============================================================================

// RuleSet is one stored configuration version.
type RuleSet struct {
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	ConfigJSON string    `json:"configJson"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SaveRuleSet inserts or updates a named configuration.
func (s *Store) SaveRuleSet(ctx context.Context, name, version, configJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rule_sets (name, version, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at`,
		name, version, configJSON, now, now)
	if err != nil {
		return fmt.Errorf("failed to save rule set %q: %w", name, err)
	}
	return nil
}

// LoadRuleSet fetches a named configuration.
func (s *Store) LoadRuleSet(ctx context.Context, name string) (*RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT name, version, config_json, created_at, updated_at
		FROM rule_sets WHERE name = ?`, name)

	var rs RuleSet
	var created, updated string
	if err := row.Scan(&rs.Name, &rs.Version, &rs.ConfigJSON, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule set %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load rule set %q: %w", name, err)
	}
	rs.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	rs.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &rs, nil
}

// ListRuleSets returns all stored configurations, newest first.
func (s *Store) ListRuleSets(ctx context.Context) ([]RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, version, config_json, created_at, updated_at
		FROM rule_sets ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule sets: %w", err)
	}
	defer rows.Close()

	var out []RuleSet
	for rows.Next() {
		var rs RuleSet
		var created, updated string
		if err := rows.Scan(&rs.Name, &rs.Version, &rs.ConfigJSON, &created, &updated); err != nil {
			return nil, err
		}
		rs.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		rs.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// DeleteRuleSet removes a named configuration.
func (s *Store) DeleteRuleSet(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM rule_sets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete rule set %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rule set %q: %w", name, ErrNotFound)
	}
	return nil
}

// =============================================================================
// ACTIVITY LOG
// =============================================================================

// Activity is one audit entry.
type Activity struct {
	ID       int64     `json:"id"`
	At       time.Time `json:"at"`
	Action   string    `json:"action"`
	OldValue string    `json:"oldValue,omitempty"`
	NewValue string    `json:"newValue,omitempty"`
}

// AppendActivity records a rule mutation.
func (s *Store) AppendActivity(ctx context.Context, action, oldValue, newValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (at, action, old_value, new_value)
		VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), action, oldValue, newValue)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// RecentActivity returns the newest entries, capped at 100.
func (s *Store) RecentActivity(ctx context.Context) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, action, COALESCE(old_value, ''), COALESCE(new_value, '')
		FROM activity_log ORDER BY id DESC LIMIT ?`, activityCap)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		var at string
		if err := rows.Scan(&a.ID, &at, &a.Action, &a.OldValue, &a.NewValue); err != nil {
			return nil, err
		}
		a.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// RECONCILIATION RUNS
// =============================================================================

// Run is one recorded reconciliation pass.
type Run struct {
	ID                string    `json:"id"`
	At                time.Time `json:"at"`
	RuleSet           string    `json:"ruleSet"`
	TotalRecords      int       `json:"totalRecords"`
	TotalMatched      int       `json:"totalMatched"`
	InterfaceFailures int       `json:"interfaceFailures"`
	StatusMismatches  int       `json:"statusMismatches"`
	DuplicateOrders   int       `json:"duplicateOrders"`
	BlankClaimIDs     int       `json:"blankClaimIds"`
	MatchRate         string    `json:"matchRate"`
}

// RecordRun persists a run's summary.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recon_runs
			(id, at, rule_set, total_records, total_matched,
			 interface_failures, status_mismatches, duplicate_orders,
			 blank_claim_ids, match_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.At.UTC().Format(time.RFC3339Nano), run.RuleSet,
		run.TotalRecords, run.TotalMatched,
		run.InterfaceFailures, run.StatusMismatches, run.DuplicateOrders,
		run.BlankClaimIDs, run.MatchRate)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns runs newest first, up to limit (0 = 50).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, rule_set, total_records, total_matched,
		       interface_failures, status_mismatches, duplicate_orders,
		       blank_claim_ids, match_rate
		FROM recon_runs ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var at string
		if err := rows.Scan(&r.ID, &at, &r.RuleSet, &r.TotalRecords, &r.TotalMatched,
			&r.InterfaceFailures, &r.StatusMismatches, &r.DuplicateOrders,
			&r.BlankClaimIDs, &r.MatchRate); err != nil {
			return nil, err
		}
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, r)
	}
	return out, rows.Err()
}
