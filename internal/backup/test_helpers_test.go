// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package backup

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/AiChengYin/pinkdiary/internal/models"
	"github.com/AiChengYin/pinkdiary/internal/sink"
	"github.com/AiChengYin/pinkdiary/internal/store"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory store.Store with per-operation failure injection.
type memStore struct {
	mu       sync.Mutex
	diaries  map[int64]models.DiaryRecord
	settings map[string]any
	nextID   int64

	// failOn names the operation that returns errInjected
	failOn string

	// calls records every mutating operation in order
	calls []string
}

func newMemStore() *memStore {
	return &memStore{
		diaries:  make(map[int64]models.DiaryRecord),
		settings: make(map[string]any),
		nextID:   1,
	}
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return errInjected
	}
	return nil
}

func (m *memStore) record(op string) {
	m.calls = append(m.calls, op)
}

func (m *memStore) sorted(filter func(models.DiaryRecord) bool) []models.DiaryRecord {
	out := make([]models.DiaryRecord, 0, len(m.diaries))
	for _, d := range m.diaries {
		if filter == nil || filter(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateKey() != out[j].DateKey() {
			return out[i].DateKey() < out[j].DateKey()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) AllDiaries(context.Context) ([]models.DiaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("all_diaries"); err != nil {
		return nil, err
	}
	return m.sorted(nil), nil
}

func (m *memStore) DiariesInRange(_ context.Context, r store.DateRange) ([]models.DiaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("diaries_in_range"); err != nil {
		return nil, err
	}
	return m.sorted(func(d models.DiaryRecord) bool { return r.Contains(d.Date) }), nil
}

func (m *memStore) UpsertDiaries(_ context.Context, records []models.DiaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("upsert_diaries")
	if err := m.fail("upsert_diaries"); err != nil {
		return err
	}
	for i := range records {
		if !records[i].HasID() {
			records[i].ID = m.nextID
		}
		if records[i].ID >= m.nextID {
			m.nextID = records[i].ID + 1
		}
		m.diaries[records[i].ID] = records[i]
	}
	return nil
}

func (m *memStore) DeleteDiaries(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete_diaries")
	if err := m.fail("delete_diaries"); err != nil {
		return err
	}
	for _, id := range ids {
		delete(m.diaries, id)
	}
	return nil
}

func (m *memStore) ClearDiaries(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("clear_diaries")
	if err := m.fail("clear_diaries"); err != nil {
		return err
	}
	m.diaries = make(map[int64]models.DiaryRecord)
	return nil
}

func (m *memStore) AllSettings(context.Context) ([]models.AppSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("all_settings"); err != nil {
		return nil, err
	}
	out := make([]models.AppSetting, 0, len(m.settings))
	for k, v := range m.settings {
		out = append(out, models.AppSetting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memStore) UpsertSettings(_ context.Context, settings []models.AppSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("upsert_settings")
	if err := m.fail("upsert_settings"); err != nil {
		return err
	}
	for _, s := range settings {
		m.settings[s.Key] = s.Value
	}
	return nil
}

func (m *memStore) ClearSettings(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("clear_settings")
	if err := m.fail("clear_settings"); err != nil {
		return err
	}
	m.settings = make(map[string]any)
	return nil
}

func (m *memStore) GetSetting(_ context.Context, key string, def any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("get_setting"); err != nil {
		return nil, err
	}
	if v, ok := m.settings[key]; ok {
		return v, nil
	}
	return def, nil
}

func (m *memStore) SetSetting(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *memStore) Driver() string { return "memory" }

func (m *memStore) Close() error { return nil }

func (m *memStore) mutations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.diaries)
}

var _ store.Store = (*memStore)(nil)

// failingSink always fails.
type failingSink struct{ name string }

func (f failingSink) Name() string { return f.name }

func (f failingSink) WriteArtifact(context.Context, string, []byte) (sink.Location, error) {
	return sink.Location{}, errors.New(f.name + " unavailable")
}

// captureSink keeps the last artifact in memory.
type captureSink struct {
	mu    sync.Mutex
	names []string
	data  map[string][]byte
}

func newCaptureSink() *captureSink {
	return &captureSink{data: make(map[string][]byte)}
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) WriteArtifact(_ context.Context, name string, data []byte) (sink.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	c.data[name] = append([]byte(nil), data...)
	return sink.Location{Sink: "capture", URI: "mem://" + name}, nil
}

func (c *captureSink) get(name string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[name]
}

// testEnv holds the common test environment setup
type testEnv struct {
	tempDir   string
	backupDir string
	store     *memStore
	clock     time.Time
}

// newTestEnv creates a test environment with a temp directory and an empty store
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		tempDir:   dir,
		backupDir: filepath.Join(dir, "backups"),
		store:     newMemStore(),
		clock:     time.Date(2024, 4, 10, 8, 30, 0, 0, time.UTC),
	}
}

func (e *testEnv) now() time.Time { return e.clock }

// seed inserts entries with the given dates.
func (e *testEnv) seed(t *testing.T, dates ...string) []models.DiaryRecord {
	t.Helper()
	records := make([]models.DiaryRecord, len(dates))
	for i, d := range dates {
		records[i] = diaryAt(d, "entry "+d)
	}
	if err := e.store.UpsertDiaries(context.Background(), records); err != nil {
		t.Fatalf("seed: %v", err)
	}
	e.store.calls = nil
	return records
}

// newProducer returns a producer writing to the local backup dir.
func (e *testEnv) newProducer(t *testing.T, opts ...Option) (*Producer, *sink.DirSink) {
	t.Helper()
	dir := sink.NewDirSink(e.backupDir)
	opts = append([]Option{WithClock(e.now)}, opts...)
	return NewProducer(e.store, sink.NewChain(dir), opts...), dir
}

func diaryAt(date, content string) models.DiaryRecord {
	year := 0
	if t, err := models.ParseDate(date); err == nil {
		year = t.Year()
	}
	return models.DiaryRecord{
		Date:    date,
		Year:    year,
		Content: content,
		Mood:    models.MoodHappy,
		Images:  []string{},
		Tags:    []string{},
	}
}

// encodeJSON returns the artifact text for a raw container document.
func encodeJSON(t *testing.T, doc string) []byte {
	t.Helper()
	text, err := Compress(doc)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	return []byte(text)
}
