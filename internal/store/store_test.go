// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AiChengYin/pinkdiary/internal/models"
)

// openers runs every behavioural test against both drivers.
var openers = map[string]func(t *testing.T) Store{
	DriverSQLite: func(t *testing.T) Store {
		t.Helper()
		s, err := OpenSQLite(context.Background(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	},
	DriverBadger: func(t *testing.T) Store {
		t.Helper()
		s, err := OpenBadger(BadgerOptions{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	},
}

func forEachDriver(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range openers {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func entry(date, content string) models.DiaryRecord {
	return models.DiaryRecord{
		Date:    date,
		Year:    2024,
		Content: content,
		Mood:    models.MoodHappy,
		Images:  []string{},
		Tags:    []string{"t"},
	}
}

func contents(records []models.DiaryRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Content
	}
	return out
}

// --- Diaries ---

func TestUpsertDiaries_AssignsIDs(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		records := []models.DiaryRecord{
			entry("2024-03-01T09:00:00.000Z", "a"),
			entry("2024-03-02T09:00:00.000Z", "b"),
		}

		require.NoError(t, s.UpsertDiaries(ctx, records))
		assert.True(t, records[0].HasID())
		assert.True(t, records[1].HasID())
		assert.NotEqual(t, records[0].ID, records[1].ID)

		all, err := s.AllDiaries(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, records[0].ID, all[0].ID)
		assert.Equal(t, []string{"t"}, all[0].Tags)
		assert.Equal(t, []string{}, all[0].Images)
	})
}

func TestUpsertDiaries_HonoursExistingIDs(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		rec := entry("2024-03-01T09:00:00.000Z", "original")
		rec.ID = 42
		require.NoError(t, s.UpsertDiaries(ctx, []models.DiaryRecord{rec}))

		rec.Content = "replaced"
		rec.Date = "2024-04-01T09:00:00.000Z"
		require.NoError(t, s.UpsertDiaries(ctx, []models.DiaryRecord{rec}))

		all, err := s.AllDiaries(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, int64(42), all[0].ID)
		assert.Equal(t, "replaced", all[0].Content)

		march, err := s.DiariesInRange(ctx, InclusiveRange("2024-03-01", "2024-03-31"))
		require.NoError(t, err)
		assert.Empty(t, march, "moved record must leave the old date range")

		// New ids continue above explicitly stored ones.
		fresh := []models.DiaryRecord{entry("2024-05-01", "fresh")}
		require.NoError(t, s.UpsertDiaries(ctx, fresh))
		assert.Greater(t, fresh[0].ID, int64(42))
	})
}

func TestDiariesInRange(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.UpsertDiaries(ctx, []models.DiaryRecord{
			entry("2024-02-29T23:59:59.000Z", "feb"),
			entry("2024-03-01T00:00:00.000Z", "mar-first"),
			entry("2024-03-15T12:00:00.000+09:00", "mar-mid"),
			entry("2024-03-31T23:59:59.999Z", "mar-last"),
			entry("2024-04-01T00:00:00.000Z", "apr"),
		}))

		tests := []struct {
			name string
			r    DateRange
			want []string
		}{
			{"inclusive month", InclusiveRange("2024-03-01", "2024-03-31"), []string{"mar-first", "mar-mid", "mar-last"}},
			{"exclusive bounds", DateRange{Lower: "2024-03-01", Upper: "2024-03-31"}, []string{"mar-mid"}},
			{"open lower", DateRange{Upper: "2024-03-01", IncludeUpper: true}, []string{"feb", "mar-first"}},
			{"open upper", DateRange{Lower: "2024-03-31", IncludeLower: true}, []string{"mar-last", "apr"}},
			{"unbounded", DateRange{}, []string{"feb", "mar-first", "mar-mid", "mar-last", "apr"}},
			{"empty month", InclusiveRange("2023-03-01", "2023-03-31"), []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.DiariesInRange(ctx, tt.r)
				require.NoError(t, err)
				assert.Equal(t, tt.want, contents(got))
			})
		}
	})
}

func TestDeleteDiaries(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		records := []models.DiaryRecord{
			entry("2024-03-01", "a"),
			entry("2024-03-02", "b"),
			entry("2024-03-03", "c"),
		}
		require.NoError(t, s.UpsertDiaries(ctx, records))

		require.NoError(t, s.DeleteDiaries(ctx, []int64{records[0].ID, records[2].ID, 9999}))
		require.NoError(t, s.DeleteDiaries(ctx, nil))

		all, err := s.AllDiaries(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, contents(all))
	})
}

func TestDeleteDiaries_ManyIDs(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		records := make([]models.DiaryRecord, 1200)
		for i := range records {
			records[i] = entry(fmt.Sprintf("2024-01-%02d", i%28+1), fmt.Sprint(i))
		}
		require.NoError(t, s.UpsertDiaries(ctx, records))

		ids := make([]int64, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		require.NoError(t, s.DeleteDiaries(ctx, ids))

		all, err := s.AllDiaries(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestUpsertDiaries_ImageHeavy(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		image := "data:image/png;base64," + strings.Repeat("A", 200*1024)
		records := make([]models.DiaryRecord, 100)
		for i := range records {
			records[i] = entry(fmt.Sprintf("2024-03-%02d", i%31+1), fmt.Sprint(i))
			records[i].Images = []string{image}
		}
		require.NoError(t, s.UpsertDiaries(ctx, records))

		seen := make(map[int64]bool, len(records))
		for _, r := range records {
			require.True(t, r.HasID())
			require.False(t, seen[r.ID], "duplicate id %d", r.ID)
			seen[r.ID] = true
		}

		march, err := s.DiariesInRange(ctx, InclusiveRange("2024-03-01", "2024-03-31"))
		require.NoError(t, err)
		require.Len(t, march, len(records))
		for _, r := range march {
			require.Equal(t, []string{image}, r.Images)
		}

		// Ids keep increasing after a write that spanned several transactions.
		extra := []models.DiaryRecord{entry("2024-04-01", "after")}
		require.NoError(t, s.UpsertDiaries(ctx, extra))
		assert.False(t, seen[extra[0].ID])

		ids := make([]int64, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		require.NoError(t, s.DeleteDiaries(ctx, ids))
		all, err := s.AllDiaries(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"after"}, contents(all))
	})
}

func TestClearDiaries_KeepsSettings(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.UpsertDiaries(ctx, []models.DiaryRecord{entry("2024-03-01", "a")}))
		require.NoError(t, s.SetSetting(ctx, models.SettingUserName, "Hana"))

		require.NoError(t, s.ClearDiaries(ctx))

		all, err := s.AllDiaries(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		name, err := s.GetSetting(ctx, models.SettingUserName, "")
		require.NoError(t, err)
		assert.Equal(t, "Hana", name)
	})
}

// --- Settings ---

func TestSettings_RoundTrip(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.UpsertSettings(ctx, []models.AppSetting{
			{Key: models.SettingUserName, Value: "Hana"},
			{Key: models.SettingBackgroundImage, Value: true},
			{Key: "font_size", Value: 14},
		}))

		settings, err := s.AllSettings(ctx)
		require.NoError(t, err)
		require.Len(t, settings, 3)
		assert.Equal(t, models.SettingBackgroundImage, settings[0].Key)
		assert.Equal(t, true, settings[0].Value)
		assert.Equal(t, "font_size", settings[1].Key)
		assert.InDelta(t, 14, settings[1].Value, 0)

		require.NoError(t, s.SetSetting(ctx, models.SettingUserName, "Sakura"))
		name, err := s.GetSetting(ctx, models.SettingUserName, "default")
		require.NoError(t, err)
		assert.Equal(t, "Sakura", name)
	})
}

func TestGetSetting_Default(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		got, err := s.GetSetting(context.Background(), "missing", "🌸")
		require.NoError(t, err)
		assert.Equal(t, "🌸", got)
	})
}

func TestClearSettings_KeepsDiaries(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.UpsertDiaries(ctx, []models.DiaryRecord{entry("2024-03-01", "a")}))
		require.NoError(t, s.SetSetting(ctx, models.SettingUserAvatar, "🐱"))

		require.NoError(t, s.ClearSettings(ctx))

		settings, err := s.AllSettings(ctx)
		require.NoError(t, err)
		assert.Empty(t, settings)

		all, err := s.AllDiaries(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestClosedStore(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Close())
		require.NoError(t, s.Close(), "second Close must be a no-op")

		_, err := s.AllDiaries(context.Background())
		assert.True(t, errors.Is(err, ErrClosed))
	})
}

// --- Range and Open ---

func TestDateRange_Contains(t *testing.T) {
	r := InclusiveRange("2024-03-01", "2024-03-31")

	assert.True(t, r.Contains("2024-03-01T00:00:00.000Z"))
	assert.True(t, r.Contains("2024-03-31T23:59:59.999Z"))
	assert.False(t, r.Contains("2024-02-29T23:59:59.999Z"))
	assert.False(t, r.Contains("2024-04-01"))
	assert.Equal(t, "[2024-03-01, 2024-03-31]", r.String())

	open := DateRange{Lower: "2024-03-01", Upper: "2024-03-31"}
	assert.False(t, open.Contains("2024-03-01"))
	assert.Equal(t, "(2024-03-01, 2024-03-31)", open.String())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "nested", "diary.db"))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, s.Driver())
	require.NoError(t, s.Close())

	b, err := Open(ctx, DriverBadger, filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	assert.Equal(t, DriverBadger, b.Driver())
	require.NoError(t, b.Close())

	_, err = Open(ctx, "postgres", "")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "diary.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.UpsertDiaries(ctx, []models.DiaryRecord{entry("2024-03-01", "kept")}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	all, err := s.AllDiaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, contents(all))
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	runner := NewMigrationRunner(s.DB())
	require.NoError(t, runner.Run(ctx))

	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestBadgerStore_RunGC(t *testing.T) {
	ctx := context.Background()

	mem, err := OpenBadger(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	assert.NoError(t, mem.RunGC(), "in-memory store has no value log")
	require.NoError(t, mem.Close())
	assert.ErrorIs(t, mem.RunGC(), ErrClosed)

	disk, err := OpenBadger(BadgerOptions{Path: filepath.Join(t.TempDir(), "badger")})
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })

	records := []models.DiaryRecord{entry("2024-03-01", "a"), entry("2024-03-02", "b")}
	require.NoError(t, disk.UpsertDiaries(ctx, records))
	require.NoError(t, disk.DeleteDiaries(ctx, []int64{records[0].ID}))
	assert.NoError(t, disk.RunGC())
}
