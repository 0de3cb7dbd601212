// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, tx *sqlx.Tx) error
}

// MigrationRunner applies pending migrations to a SQLite database.
type MigrationRunner struct {
	db         *sqlx.DB
	migrations []migration
}

// NewMigrationRunner creates a MigrationRunner with all registered migrations.
func NewMigrationRunner(db *sqlx.DB) *MigrationRunner {
	return &MigrationRunner{
		db: db,
		migrations: []migration{
			{Version: 1, Name: "initial_schema", Apply: migrateV001},
			{Version: 2, Name: "diaries_year_index", Apply: migrateV002},
		},
	}
}

// Run enables WAL mode, creates the schema_migrations table and applies every
// migration that hasn't been recorded yet, in version order.
func (r *MigrationRunner) Run(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range r.migrations {
		applied, err := r.isApplied(ctx, m.Version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}

		if err := r.apply(ctx, m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// Version returns the highest applied migration version.
func (r *MigrationRunner) Version(ctx context.Context) (int, error) {
	var version int
	err := r.db.GetContext(ctx, &version, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	return version, err
}

func (r *MigrationRunner) isApplied(ctx context.Context, version int) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	); err != nil {
		return false, err
	}
	return count > 0, nil
}

// apply executes a migration inside a transaction and records it.
func (r *MigrationRunner) apply(ctx context.Context, m migration) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(ctx, tx); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}

// migrateV001 creates the diaries and settings tables.
// images and tags are JSON arrays, settings values are JSON documents.
func migrateV001(ctx context.Context, tx *sqlx.Tx) error {
	stmts := []string{
		`CREATE TABLE diaries (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			date     TEXT NOT NULL,
			date_key TEXT NOT NULL,
			year     INTEGER NOT NULL DEFAULT 0,
			content  TEXT NOT NULL DEFAULT '',
			mood     TEXT NOT NULL DEFAULT '',
			images   TEXT NOT NULL DEFAULT '[]',
			tags     TEXT NOT NULL DEFAULT '[]',
			location TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX idx_diaries_date_key ON diaries(date_key)`,
		`CREATE TABLE settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateV002(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx, `CREATE INDEX idx_diaries_year ON diaries(year)`)
	return err
}
