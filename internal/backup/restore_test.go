// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/AiChengYin/pinkdiary/internal/models"
	"github.com/AiChengYin/pinkdiary/internal/sink"
	"github.com/AiChengYin/pinkdiary/internal/store"
)

// stateRecorder collects restore transitions.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) observe(_, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, to)
}

func (r *stateRecorder) got() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

// produceArtifact backs up scope from a separate store seeded with dates.
func produceArtifact(t *testing.T, scope Scope, settings []models.AppSetting, dates ...string) []byte {
	t.Helper()
	src := newTestEnv(t)
	// Ids far from the target store's so upserts do not collide.
	src.store.nextID = 100
	src.seed(t, dates...)
	if len(settings) > 0 {
		if err := src.store.UpsertSettings(context.Background(), settings); err != nil {
			t.Fatalf("UpsertSettings: %v", err)
		}
	}
	capture := newCaptureSink()
	p := NewProducer(src.store, capture, WithClock(src.now))
	artifact, err := p.Produce(context.Background(), scope)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	return capture.get(artifact.Name)
}

func contentsByDate(t *testing.T, m *memStore) map[string]string {
	t.Helper()
	all, err := m.AllDiaries(context.Background())
	if err != nil {
		t.Fatalf("AllDiaries: %v", err)
	}
	out := make(map[string]string, len(all))
	for _, d := range all {
		out[d.DateKey()] = d.Content
	}
	return out
}

func TestRestore_MonthlyReplacesOnlyThatMonth(t *testing.T) {
	t.Parallel()
	artifact := produceArtifact(t, Monthly(2024, 3), nil,
		"2024-03-02T00:00:00.000Z", "2024-03-20T00:00:00.000Z")

	env := newTestEnv(t)
	env.seed(t,
		"2024-02-28T00:00:00.000Z",
		"2024-03-01T00:00:00.000Z",
		"2024-03-31T00:00:00.000Z",
		"2024-04-01T00:00:00.000Z",
	)
	ctx := context.Background()
	if err := env.store.UpsertSettings(ctx, []models.AppSetting{{Key: models.SettingUserName, Value: "kept"}}); err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	env.store.calls = nil

	var summary Summary
	rec := &stateRecorder{}
	r := NewRestorer(env.store, func(_ context.Context, s Summary) (bool, error) {
		summary = s
		return true, nil
	}, WithStateObserver(rec.observe))

	result, err := r.Restore(ctx, artifact)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if summary.Scope != Monthly(2024, 3) || summary.Records != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.Range != [2]string{"2024-03-01", "2024-03-31"} {
		t.Errorf("summary range = %v", summary.Range)
	}
	if result.Restored != 2 || result.Deleted != 2 {
		t.Errorf("Restored = %d, Deleted = %d", result.Restored, result.Deleted)
	}
	if result.Profile != nil {
		t.Error("monthly restore must not reload the profile")
	}

	got := contentsByDate(t, env.store)
	want := map[string]string{
		"2024-02-28": "entry 2024-02-28T00:00:00.000Z",
		"2024-03-02": "entry 2024-03-02T00:00:00.000Z",
		"2024-03-20": "entry 2024-03-20T00:00:00.000Z",
		"2024-04-01": "entry 2024-04-01T00:00:00.000Z",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("store after restore = %v, want %v", got, want)
	}

	name, err := env.store.GetSetting(ctx, models.SettingUserName, "")
	if err != nil || name != "kept" {
		t.Errorf("settings touched by monthly restore: %v %v", name, err)
	}
	if calls := env.store.mutations(); !reflect.DeepEqual(calls, []string{"delete_diaries", "upsert_diaries"}) {
		t.Errorf("mutation order = %v", calls)
	}

	wantStates := []State{StateDecoding, StateValidating, StateAwaitingConfirmation, StateApplying, StateDone}
	if !reflect.DeepEqual(rec.got(), wantStates) {
		t.Errorf("states = %v, want %v", rec.got(), wantStates)
	}
	if r.State() != StateDone {
		t.Errorf("State() = %v", r.State())
	}
}

func TestRestore_MonthlyHonoursContainerIDs(t *testing.T) {
	t.Parallel()

	// id 1 is reused by the restored record; the record without an id gets a new one.
	doc := `{"version":2,"type":"monthly","year":2024,"month":3,"timestamp":"2024-04-01T00:00:00.000Z",
		"diaries":[{"id":1,"date":"2024-03-05T00:00:00.000Z","year":2024,"content":"restored","mood":"😊"},
		           {"date":"2024-03-06T00:00:00.000Z","year":2024,"content":"new","mood":"😊"}]}`

	env := newTestEnv(t)
	env.seed(t, "2024-03-05T00:00:00.000Z", "2024-03-09T00:00:00.000Z")

	r := NewRestorer(env.store, AutoConfirm)
	result, err := r.Restore(context.Background(), encodeJSON(t, doc))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if result.Deleted != 2 || result.Restored != 2 {
		t.Errorf("Deleted = %d, Restored = %d", result.Deleted, result.Restored)
	}

	got := contentsByDate(t, env.store)
	want := map[string]string{"2024-03-05": "restored", "2024-03-06": "new"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("store = %v, want %v", got, want)
	}
}

// idlessRangeStore reports an extra record without an id inside every range
// and remembers the ids passed to DeleteDiaries.
type idlessRangeStore struct {
	*memStore
	deleted []int64
}

func (s *idlessRangeStore) DiariesInRange(ctx context.Context, r store.DateRange) ([]models.DiaryRecord, error) {
	records, err := s.memStore.DiariesInRange(ctx, r)
	if err != nil {
		return nil, err
	}
	return append(records, models.DiaryRecord{Date: r.Lower + "T12:00:00.000Z", Content: "no id"}), nil
}

func (s *idlessRangeStore) DeleteDiaries(ctx context.Context, ids []int64) error {
	s.deleted = append(s.deleted, ids...)
	return s.memStore.DeleteDiaries(ctx, ids)
}

func TestRestore_MonthlySkipsExistingRecordsWithoutID(t *testing.T) {
	t.Parallel()

	artifact := produceArtifact(t, Monthly(2024, 3), nil, "2024-03-05T00:00:00.000Z")

	env := newTestEnv(t)
	seeded := env.seed(t, "2024-03-09T00:00:00.000Z")
	st := &idlessRangeStore{memStore: env.store}

	r := NewRestorer(st, AutoConfirm)
	result, err := r.Restore(context.Background(), artifact)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if want := []int64{seeded[0].ID}; !reflect.DeepEqual(st.deleted, want) {
		t.Errorf("deleted ids = %v, want %v", st.deleted, want)
	}
	for _, id := range st.deleted {
		if id == 0 {
			t.Error("id 0 passed to DeleteDiaries")
		}
	}
	if result.Deleted != 1 || result.Restored != 1 {
		t.Errorf("Deleted = %d, Restored = %d, want 1, 1", result.Deleted, result.Restored)
	}
}

func TestRestore_FullReplacesEverything(t *testing.T) {
	t.Parallel()
	settings := []models.AppSetting{
		{Key: models.SettingUserName, Value: "Sakura"},
		{Key: models.SettingUserAvatar, Value: "🐱"},
		{Key: models.SettingBackgroundImage, Value: true},
		{Key: "custom", Value: map[string]any{"a": 1.0}},
	}
	artifact := produceArtifact(t, Full(), settings, "2022-05-05T00:00:00.000Z", "2024-03-03T00:00:00.000Z")

	env := newTestEnv(t)
	env.seed(t, "2021-01-01T00:00:00.000Z", "2024-03-04T00:00:00.000Z", "2025-01-01T00:00:00.000Z")
	ctx := context.Background()
	if err := env.store.UpsertSettings(ctx, []models.AppSetting{{Key: "stale", Value: "x"}}); err != nil {
		t.Fatalf("UpsertSettings: %v", err)
	}
	env.store.calls = nil

	var summary Summary
	var reloaded *models.Profile
	r := NewRestorer(env.store,
		func(_ context.Context, s Summary) (bool, error) {
			summary = s
			return true, nil
		},
		WithProfileReloader(func(_ context.Context, p models.Profile) error {
			reloaded = &p
			return nil
		}),
	)

	result, err := r.Restore(ctx, artifact)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if summary.Scope != Full() || summary.CreatedAt != "2024-04-10T08:30:00.000Z" || summary.Records != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if result.Restored != 2 || result.SettingsRestored != 4 {
		t.Errorf("Restored = %d, SettingsRestored = %d", result.Restored, result.SettingsRestored)
	}
	if env.store.count() != 2 {
		t.Errorf("store has %d entries, want 2", env.store.count())
	}
	if v, _ := env.store.GetSetting(ctx, "stale", nil); v != nil {
		t.Errorf("stale setting survived: %v", v)
	}

	if reloaded == nil {
		t.Fatal("profile reloader not called")
	}
	want := models.DefaultProfile()
	want.UserName = "Sakura"
	want.UserAvatar = "🐱"
	want.BackgroundImage = true
	if *reloaded != want {
		t.Errorf("reloaded profile = %+v, want %+v", *reloaded, want)
	}
	if result.Profile == nil || *result.Profile != want {
		t.Errorf("result profile = %+v", result.Profile)
	}

	wantCalls := []string{"clear_diaries", "clear_settings", "upsert_diaries", "upsert_settings"}
	if calls := env.store.mutations(); !reflect.DeepEqual(calls, wantCalls) {
		t.Errorf("mutation order = %v, want %v", calls, wantCalls)
	}
}

func TestRestore_LegacyV1IsFull(t *testing.T) {
	t.Parallel()
	doc := `{"version":1,"timestamp":"2020-01-01T00:00:00.000Z",
		"diaries":[{"id":9,"date":"2019-12-31T00:00:00.000Z","year":2019,"content":"old","mood":"😢","images":[],"tags":[]}],
		"settings":[{"key":"user_name","value":"Legacy"}]}`

	env := newTestEnv(t)
	env.seed(t, "2024-03-01T00:00:00.000Z")

	r := NewRestorer(env.store, AutoConfirm)
	result, err := r.Restore(context.Background(), encodeJSON(t, doc))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if result.Scope != Full() {
		t.Errorf("Scope = %v", result.Scope)
	}
	if got := contentsByDate(t, env.store); !reflect.DeepEqual(got, map[string]string{"2019-12-31": "old"}) {
		t.Errorf("store = %v", got)
	}
	if result.Profile == nil || result.Profile.UserName != "Legacy" {
		t.Errorf("profile = %+v", result.Profile)
	}
}

func TestRestore_FailuresBeforeConfirmationLeaveStoreUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		artifact []byte
		wantErr  func(error) bool
	}{
		{
			name:     "not base64",
			artifact: []byte("%%%"),
			wantErr:  func(err error) bool { var ce *CodecError; return errors.As(err, &ce) },
		},
		{
			name:     "not gzip",
			artifact: []byte("aGVsbG8gd29ybGQ="),
			wantErr:  func(err error) bool { var ce *CodecError; return errors.As(err, &ce) },
		},
		{
			name:     "not json",
			artifact: nil,
			wantErr:  func(err error) bool { return errors.Is(err, ErrInvalidFormat) },
		},
		{
			name:     "missing diaries",
			artifact: nil,
			wantErr:  func(err error) bool { return errors.Is(err, ErrInvalidFormat) },
		},
	}
	docs := map[string]string{
		"not json":        "definitely not json",
		"missing diaries": `{"version":2,"type":"monthly","year":2024,"month":3}`,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			artifact := tt.artifact
			if doc, ok := docs[tt.name]; ok {
				artifact = encodeJSON(t, doc)
			}

			env := newTestEnv(t)
			env.seed(t, "2024-03-01T00:00:00.000Z")
			asked := false
			rec := &stateRecorder{}
			r := NewRestorer(env.store, func(context.Context, Summary) (bool, error) {
				asked = true
				return true, nil
			}, WithStateObserver(rec.observe))

			_, err := r.Restore(context.Background(), artifact)
			if !tt.wantErr(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if asked {
				t.Error("confirmer asked for a broken artifact")
			}
			if calls := env.store.mutations(); len(calls) != 0 {
				t.Errorf("store mutated: %v", calls)
			}
			if states := rec.got(); states[len(states)-1] != StateFailed {
				t.Errorf("final state = %v", states[len(states)-1])
			}
		})
	}
}

func TestRestore_DeclinedConfirmation(t *testing.T) {
	t.Parallel()
	artifact := produceArtifact(t, Full(), nil, "2024-03-01T00:00:00.000Z")

	env := newTestEnv(t)
	env.seed(t, "2023-01-01T00:00:00.000Z")
	rec := &stateRecorder{}
	r := NewRestorer(env.store, func(context.Context, Summary) (bool, error) { return false, nil },
		WithStateObserver(rec.observe))

	_, err := r.Restore(context.Background(), artifact)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if calls := env.store.mutations(); len(calls) != 0 {
		t.Errorf("store mutated: %v", calls)
	}
	want := []State{StateDecoding, StateValidating, StateAwaitingConfirmation, StateCancelled}
	if !reflect.DeepEqual(rec.got(), want) {
		t.Errorf("states = %v, want %v", rec.got(), want)
	}
}

func TestRestore_NilConfirmerDeclines(t *testing.T) {
	t.Parallel()
	artifact := produceArtifact(t, Full(), nil, "2024-03-01T00:00:00.000Z")
	env := newTestEnv(t)

	if _, err := NewRestorer(env.store, nil).Restore(context.Background(), artifact); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestRestore_ConfirmerError(t *testing.T) {
	t.Parallel()
	artifact := produceArtifact(t, Full(), nil, "2024-03-01T00:00:00.000Z")
	env := newTestEnv(t)
	errPrompt := errors.New("stdin closed")

	r := NewRestorer(env.store, func(context.Context, Summary) (bool, error) { return false, errPrompt })
	if _, err := r.Restore(context.Background(), artifact); !errors.Is(err, errPrompt) {
		t.Fatalf("expected prompt error, got %v", err)
	}
	if r.State() != StateFailed {
		t.Errorf("State() = %v", r.State())
	}
	if calls := env.store.mutations(); len(calls) != 0 {
		t.Errorf("store mutated: %v", calls)
	}
}

func TestRestore_StoreMutationError(t *testing.T) {
	t.Parallel()
	monthly := produceArtifact(t, Monthly(2024, 3), nil, "2024-03-01T00:00:00.000Z")
	full := produceArtifact(t, Full(), nil, "2024-03-01T00:00:00.000Z")

	tests := []struct {
		name     string
		artifact []byte
		failOn   string
		step     string
	}{
		{"monthly range read", monthly, "diaries_in_range", "reading existing entries"},
		{"monthly delete", monthly, "delete_diaries", "deleting existing entries"},
		{"monthly upsert", monthly, "upsert_diaries", "writing entries"},
		{"full clear", full, "clear_diaries", "clearing entries"},
		{"full clear settings", full, "clear_settings", "clearing settings"},
		{"full upsert", full, "upsert_diaries", "writing entries"},
		{"full profile", full, "get_setting", "reloading profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			env.seed(t, "2024-03-10T00:00:00.000Z")
			env.store.failOn = tt.failOn

			r := NewRestorer(env.store, AutoConfirm)
			_, err := r.Restore(context.Background(), tt.artifact)

			var sme *StoreMutationError
			if !errors.As(err, &sme) {
				t.Fatalf("expected *StoreMutationError, got %v", err)
			}
			if sme.Step != tt.step {
				t.Errorf("Step = %q, want %q", sme.Step, tt.step)
			}
			if !errors.Is(err, errInjected) {
				t.Error("cause not wrapped")
			}
			if r.State() != StateFailed {
				t.Errorf("State() = %v", r.State())
			}
		})
	}
}

func TestRestore_PartialApplyIsNotRolledBack(t *testing.T) {
	t.Parallel()
	full := produceArtifact(t, Full(), nil, "2024-03-01T00:00:00.000Z")

	env := newTestEnv(t)
	env.seed(t, "2024-03-10T00:00:00.000Z", "2024-03-11T00:00:00.000Z")
	env.store.failOn = "upsert_diaries"

	_, err := NewRestorer(env.store, AutoConfirm).Restore(context.Background(), full)
	if err == nil {
		t.Fatal("expected failure")
	}
	if env.store.count() != 0 {
		t.Errorf("cleared entries were restored: %d", env.store.count())
	}
}

func TestRestore_ReloaderErrorIsMutationError(t *testing.T) {
	t.Parallel()
	full := produceArtifact(t, Full(), nil, "2024-03-01T00:00:00.000Z")
	env := newTestEnv(t)

	r := NewRestorer(env.store, AutoConfirm, WithProfileReloader(func(context.Context, models.Profile) error {
		return errInjected
	}))
	_, err := r.Restore(context.Background(), full)
	var sme *StoreMutationError
	if !errors.As(err, &sme) || sme.Step != "reloading profile" {
		t.Fatalf("expected profile reload failure, got %v", err)
	}
}

func TestRestore_BusyIsNoOp(t *testing.T) {
	t.Parallel()
	artifact := produceArtifact(t, Full(), nil, "2024-03-01T00:00:00.000Z")
	env := newTestEnv(t)
	env.seed(t, "2023-01-01T00:00:00.000Z")

	entered := make(chan struct{})
	proceed := make(chan struct{})
	r := NewRestorer(env.store, func(context.Context, Summary) (bool, error) {
		close(entered)
		<-proceed
		return true, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := r.Restore(context.Background(), artifact)
		done <- err
	}()

	<-entered
	if !r.Busy() {
		t.Error("Busy() = false during restore")
	}
	if _, err := r.Restore(context.Background(), artifact); !errors.Is(err, ErrBusy) {
		t.Errorf("second restore: expected ErrBusy, got %v", err)
	}
	if r.State() != StateAwaitingConfirmation {
		t.Errorf("State() changed by second call: %v", r.State())
	}
	close(proceed)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first restore: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first restore did not finish")
	}
	if r.Busy() {
		t.Error("guard not released")
	}
}

func TestRestore_ApplyIgnoresCancellationAfterConfirm(t *testing.T) {
	t.Parallel()
	artifact := produceArtifact(t, Monthly(2024, 3), nil, "2024-03-01T00:00:00.000Z")
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRestorer(env.store, func(context.Context, Summary) (bool, error) {
		cancel()
		return true, nil
	})
	if _, err := r.Restore(ctx, artifact); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if env.store.count() != 1 {
		t.Errorf("store has %d entries", env.store.count())
	}
}

func TestRestoreFrom_File(t *testing.T) {
	t.Parallel()
	artifact := produceArtifact(t, Monthly(2024, 3), nil, "2024-03-01T00:00:00.000Z")
	env := newTestEnv(t)

	path := filepath.Join(env.tempDir, "PinkDiary_Backup_2024-03.pdbak")
	if err := os.WriteFile(path, artifact, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r := NewRestorer(env.store, AutoConfirm)
	result, err := r.RestoreFrom(context.Background(), sink.Resolver{File: sink.FileSource{}}, path)
	if err != nil {
		t.Fatalf("RestoreFrom: %v", err)
	}
	if result.Restored != 1 {
		t.Errorf("Restored = %d", result.Restored)
	}

	_, err = r.RestoreFrom(context.Background(), sink.Resolver{File: sink.FileSource{}}, filepath.Join(env.tempDir, "missing.pdbak"))
	if !errors.Is(err, sink.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRestore_SharedGuardBlocksBackup(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.seed(t, "2024-03-01T00:00:00.000Z")
	guard := NewGuard(filepath.Join(env.tempDir, "pinkdiary.lock"))

	p, _ := env.newProducer(t, WithGuard(guard))
	release, err := guard.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	defer release()

	if _, err := p.Produce(context.Background(), Full()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if _, err := NewRestorer(env.store, AutoConfirm, WithGuard(guard)).Restore(context.Background(), nil); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
}
