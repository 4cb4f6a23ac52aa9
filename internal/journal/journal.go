// Package journal keeps an append-only SQLite log of audit mutations:
// scoring increments, auto-skip accounting, lifecycle transitions, and
// explicit status actions. The journal is advisory history read back by
// the report command; losing it never corrupts the record store.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema.
const currentSchemaVersion = 1

// Entry kinds.
const (
	KindScore      = "score"
	KindAutoSkip   = "auto_skip"
	KindTransition = "transition"
	KindStatus     = "status"
	KindSelect     = "select"
)

// Entry is one journaled mutation.
type Entry struct {
	ID         string
	OccurredAt string
	Kind       string
	RuleID     string
	Op         string
	Detail     string
}

// Journal provides durable append-only storage for mutation history.
// Uses SQLite with WAL mode for concurrent read access.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at the given path.
// Applies required pragmas and migrations. Idempotent.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Append writes entries in one transaction, assigning each a fresh id
// and the given timestamp.
func (j *Journal) Append(ctx context.Context, occurredAt string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal append: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entries (id, occurred_at, kind, rule_id, op, detail)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), occurredAt, e.Kind, e.RuleID, e.Op, e.Detail)
		if err != nil {
			return fmt.Errorf("journal append: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal append: commit: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first, capped at limit.
// Ordering is deterministic: occurred_at DESC, then id for same-instant
// entries.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, occurred_at, kind, rule_id, op, detail
		FROM entries
		ORDER BY occurred_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Kind, &e.RuleID, &e.Op, &e.Detail); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal iterate: %w", err)
	}
	return entries, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
