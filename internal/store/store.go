// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AiChengYin/pinkdiary/internal/models"
)

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store is the record store the diary and the backup pipeline operate on.
//
// Diaries and settings are separate collections. Range queries compare the
// YYYY-MM-DD prefix of DiaryRecord.Date lexicographically.
type Store interface {
	// AllDiaries returns every diary record ordered by date key then id.
	AllDiaries(ctx context.Context) ([]models.DiaryRecord, error)

	// DiariesInRange returns the records whose date key falls inside r.
	DiariesInRange(ctx context.Context, r DateRange) ([]models.DiaryRecord, error)

	// UpsertDiaries inserts or replaces records. Records with an id keep it;
	// records without one get a fresh id written back into the slice.
	UpsertDiaries(ctx context.Context, records []models.DiaryRecord) error

	// DeleteDiaries removes the records with the given ids. Unknown ids are ignored.
	DeleteDiaries(ctx context.Context, ids []int64) error

	// ClearDiaries removes every diary record.
	ClearDiaries(ctx context.Context) error

	// AllSettings returns every setting ordered by key.
	AllSettings(ctx context.Context) ([]models.AppSetting, error)

	// UpsertSettings inserts or replaces settings by key.
	UpsertSettings(ctx context.Context, settings []models.AppSetting) error

	// ClearSettings removes every setting.
	ClearSettings(ctx context.Context) error

	// GetSetting returns the value stored under key, or def when absent.
	GetSetting(ctx context.Context, key string, def any) (any, error)

	// SetSetting stores a single setting.
	SetSetting(ctx context.Context, key string, value any) error

	// Driver returns the driver name used in logs and metrics.
	Driver() string

	Close() error
}

// DateRange is a key range over YYYY-MM-DD date keys.
// An empty bound is unbounded on that side.
type DateRange struct {
	Lower        string
	Upper        string
	IncludeLower bool
	IncludeUpper bool
}

// InclusiveRange returns the range [lower, upper].
func InclusiveRange(lower, upper string) DateRange {
	return DateRange{Lower: lower, Upper: upper, IncludeLower: true, IncludeUpper: true}
}

// Contains reports whether the date key of date lies inside the range.
func (r DateRange) Contains(date string) bool {
	key := models.DateKey(date)
	if r.Lower != "" {
		c := strings.Compare(key, r.Lower)
		if c < 0 || (c == 0 && !r.IncludeLower) {
			return false
		}
	}
	if r.Upper != "" {
		c := strings.Compare(key, r.Upper)
		if c > 0 || (c == 0 && !r.IncludeUpper) {
			return false
		}
	}
	return true
}

// String formats the range in interval notation.
func (r DateRange) String() string {
	open, closeB := "(", ")"
	if r.IncludeLower {
		open = "["
	}
	if r.IncludeUpper {
		closeB = "]"
	}
	return open + r.Lower + ", " + r.Upper + closeB
}

// Open opens the store for driver at path. For sqlite, path is the database
// file (":memory:" for an ephemeral store). For badger, path is a directory
// and an empty path opens an in-memory store.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, path)
	case DriverBadger:
		return OpenBadger(BadgerOptions{Path: path, InMemory: path == ""})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
