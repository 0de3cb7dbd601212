// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/metrics"
	"github.com/AiChengYin/pinkdiary/internal/models"
)

// deleteChunkSize keeps IN lists below SQLite's host parameter limit.
const deleteChunkSize = 500

// SQLiteStore implements Store on a SQLite database through sqlx.
type SQLiteStore struct {
	db *sqlx.DB

	mu     sync.RWMutex
	closed bool
}

// diaryRow is the column layout of the diaries table.
type diaryRow struct {
	ID       int64  `db:"id"`
	Date     string `db:"date"`
	DateKey  string `db:"date_key"`
	Year     int    `db:"year"`
	Content  string `db:"content"`
	Mood     string `db:"mood"`
	Images   string `db:"images"`
	Tags     string `db:"tags"`
	Location string `db:"location"`
}

type settingRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

const diaryColumns = "id, date, date_key, year, content, mood, images, tags, location"

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dsn = path + "?_busy_timeout=5000&_foreign_keys=on"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer, and ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := NewMigrationRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logging.Info().Str("path", path).Msg("SQLite store opened")
	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an already-opened and migrated database.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Driver implements Store.
func (s *SQLiteStore) Driver() string { return DriverSQLite }

// DB returns the underlying handle.
func (s *SQLiteStore) DB() *sqlx.DB { return s.db }

// observe is deferred with a pointer to the named error result.
func (s *SQLiteStore) observe(op string, start time.Time, errp *error) {
	metrics.RecordStoreOperation(op, DriverSQLite, time.Since(start), *errp)
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// AllDiaries implements Store.
func (s *SQLiteStore) AllDiaries(ctx context.Context) (records []models.DiaryRecord, err error) {
	defer s.observe("all_diaries", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return nil, err
	}

	var rows []diaryRow
	if err = s.db.SelectContext(ctx, &rows,
		"SELECT "+diaryColumns+" FROM diaries ORDER BY date_key, id",
	); err != nil {
		return nil, fmt.Errorf("select diaries: %w", err)
	}
	return decodeDiaryRows(rows)
}

// DiariesInRange implements Store.
func (s *SQLiteStore) DiariesInRange(ctx context.Context, r DateRange) (records []models.DiaryRecord, err error) {
	defer s.observe("diaries_in_range", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if r.Lower != "" {
		op := ">"
		if r.IncludeLower {
			op = ">="
		}
		where = append(where, "date_key "+op+" ?")
		args = append(args, r.Lower)
	}
	if r.Upper != "" {
		op := "<"
		if r.IncludeUpper {
			op = "<="
		}
		where = append(where, "date_key "+op+" ?")
		args = append(args, r.Upper)
	}

	query := "SELECT " + diaryColumns + " FROM diaries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date_key, id"

	var rows []diaryRow
	if err = s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select diaries in %s: %w", r, err)
	}
	return decodeDiaryRows(rows)
}

// UpsertDiaries implements Store. The whole batch runs in one transaction.
func (s *SQLiteStore) UpsertDiaries(ctx context.Context, records []models.DiaryRecord) (err error) {
	defer s.observe("upsert_diaries", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range records {
		row, encErr := encodeDiaryRow(&records[i])
		if encErr != nil {
			return fmt.Errorf("encode diary %d: %w", i, encErr)
		}

		if records[i].HasID() {
			if _, err = tx.NamedExecContext(ctx, `
				INSERT INTO diaries (`+diaryColumns+`)
				VALUES (:id, :date, :date_key, :year, :content, :mood, :images, :tags, :location)
				ON CONFLICT(id) DO UPDATE SET
					date = excluded.date,
					date_key = excluded.date_key,
					year = excluded.year,
					content = excluded.content,
					mood = excluded.mood,
					images = excluded.images,
					tags = excluded.tags,
					location = excluded.location`, row); err != nil {
				return fmt.Errorf("upsert diary %d: %w", row.ID, err)
			}
			continue
		}

		res, execErr := tx.NamedExecContext(ctx, `
			INSERT INTO diaries (date, date_key, year, content, mood, images, tags, location)
			VALUES (:date, :date_key, :year, :content, :mood, :images, :tags, :location)`, row)
		if execErr != nil {
			return fmt.Errorf("insert diary: %w", execErr)
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return fmt.Errorf("read inserted id: %w", idErr)
		}
		records[i].ID = id
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteDiaries implements Store.
func (s *SQLiteStore) DeleteDiaries(ctx context.Context, ids []int64) (err error) {
	defer s.observe("delete_diaries", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for start := 0; start < len(ids); start += deleteChunkSize {
		end := min(start+deleteChunkSize, len(ids))

		query, args, inErr := sqlx.In("DELETE FROM diaries WHERE id IN (?)", ids[start:end])
		if inErr != nil {
			return fmt.Errorf("build delete: %w", inErr)
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("delete diaries: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ClearDiaries implements Store.
func (s *SQLiteStore) ClearDiaries(ctx context.Context) (err error) {
	defer s.observe("clear_diaries", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}
	if _, err = s.db.ExecContext(ctx, "DELETE FROM diaries"); err != nil {
		return fmt.Errorf("clear diaries: %w", err)
	}
	return nil
}

// AllSettings implements Store.
func (s *SQLiteStore) AllSettings(ctx context.Context) (settings []models.AppSetting, err error) {
	defer s.observe("all_settings", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return nil, err
	}

	var rows []settingRow
	if err = s.db.SelectContext(ctx, &rows, "SELECT key, value FROM settings ORDER BY key"); err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}

	settings = make([]models.AppSetting, 0, len(rows))
	for _, row := range rows {
		var value any
		if err = json.Unmarshal([]byte(row.Value), &value); err != nil {
			return nil, fmt.Errorf("decode setting %q: %w", row.Key, err)
		}
		settings = append(settings, models.AppSetting{Key: row.Key, Value: value})
	}
	return settings, nil
}

// UpsertSettings implements Store.
func (s *SQLiteStore) UpsertSettings(ctx context.Context, settings []models.AppSetting) (err error) {
	defer s.observe("upsert_settings", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}
	if len(settings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, setting := range settings {
		if err = upsertSetting(ctx, tx, setting.Key, setting.Value); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ClearSettings implements Store.
func (s *SQLiteStore) ClearSettings(ctx context.Context) (err error) {
	defer s.observe("clear_settings", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}
	if _, err = s.db.ExecContext(ctx, "DELETE FROM settings"); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	return nil
}

// GetSetting implements Store.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string, def any) (value any, err error) {
	defer s.observe("get_setting", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return nil, err
	}

	var raw string
	err = s.db.GetContext(ctx, &raw, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select setting %q: %w", key, err)
	}

	if err = json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("decode setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting implements Store.
func (s *SQLiteStore) SetSetting(ctx context.Context, key string, value any) (err error) {
	defer s.observe("set_setting", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}
	return upsertSetting(ctx, s.db, key, value)
}

// Close closes the database. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func upsertSetting(ctx context.Context, ex sqlx.ExecerContext, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	if _, err := ex.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw),
	); err != nil {
		return fmt.Errorf("upsert setting %q: %w", key, err)
	}
	return nil
}

func encodeDiaryRow(rec *models.DiaryRecord) (diaryRow, error) {
	images, err := json.Marshal(nonNil(rec.Images))
	if err != nil {
		return diaryRow{}, err
	}
	tags, err := json.Marshal(nonNil(rec.Tags))
	if err != nil {
		return diaryRow{}, err
	}
	return diaryRow{
		ID:       rec.ID,
		Date:     rec.Date,
		DateKey:  rec.DateKey(),
		Year:     rec.Year,
		Content:  rec.Content,
		Mood:     string(rec.Mood),
		Images:   string(images),
		Tags:     string(tags),
		Location: rec.Location,
	}, nil
}

func decodeDiaryRows(rows []diaryRow) ([]models.DiaryRecord, error) {
	records := make([]models.DiaryRecord, 0, len(rows))
	for _, row := range rows {
		rec := models.DiaryRecord{
			ID:       row.ID,
			Date:     row.Date,
			Year:     row.Year,
			Content:  row.Content,
			Mood:     models.Mood(row.Mood),
			Location: row.Location,
		}
		if err := json.Unmarshal([]byte(row.Images), &rec.Images); err != nil {
			return nil, fmt.Errorf("decode images of diary %d: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.Tags), &rec.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of diary %d: %w", row.ID, err)
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return records, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
