// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/metrics"
	"github.com/AiChengYin/pinkdiary/internal/models"
)

// Key layout:
//
//	diary:<id, 20 digits>                  -> DiaryRecord JSON
//	idx:date:<YYYY-MM-DD>:<id, 20 digits>  -> empty
//	setting:<key>                          -> JSON value
//	meta:max_diary_id                      -> uint64 big endian
const (
	prefixDiary   = "diary:"
	prefixDateIdx = "idx:date:"
	prefixSetting = "setting:"
	keyMaxDiaryID = "meta:max_diary_id"
)

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	Path         string
	InMemory     bool
	SyncWrites   bool
	CloseTimeout time.Duration
}

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db   *badger.DB
	opts BadgerOptions

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens (or creates) a BadgerStore.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("badger store path is required")
	}
	if opts.CloseTimeout == 0 {
		opts.CloseTimeout = 30 * time.Second
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.SyncWrites = opts.SyncWrites
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", opts.Path).
		Bool("in_memory", opts.InMemory).
		Msg("Badger store opened")
	return &BadgerStore{db: db, opts: opts}, nil
}

// Driver implements Store.
func (s *BadgerStore) Driver() string { return DriverBadger }

func (s *BadgerStore) observe(op string, start time.Time, errp *error) {
	metrics.RecordStoreOperation(op, DriverBadger, time.Since(start), *errp)
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func diaryKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixDiary, id))
}

func dateIndexKey(dateKey string, id int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", prefixDateIdx, dateKey, id))
}

// parseDateIndexKey splits an index key into its date key and id.
func parseDateIndexKey(key []byte) (string, int64, bool) {
	rest := key[len(prefixDateIdx):]
	sep := bytes.LastIndexByte(rest, ':')
	if sep < 0 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(string(rest[sep+1:]), 10, 64)
	if err != nil {
		return "", 0, false
	}
	return string(rest[:sep]), id, true
}

// AllDiaries implements Store.
func (s *BadgerStore) AllDiaries(ctx context.Context) (records []models.DiaryRecord, err error) {
	defer s.observe("all_diaries", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return nil, err
	}
	return s.readRange(ctx, DateRange{})
}

// DiariesInRange implements Store. It walks the date index so only keys in
// range are visited.
func (s *BadgerStore) DiariesInRange(ctx context.Context, r DateRange) (records []models.DiaryRecord, err error) {
	defer s.observe("diaries_in_range", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return nil, err
	}
	return s.readRange(ctx, r)
}

func (s *BadgerStore) readRange(ctx context.Context, r DateRange) ([]models.DiaryRecord, error) {
	records := []models.DiaryRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixDateIdx)
		seek := prefix
		if r.Lower != "" {
			seek = []byte(prefixDateIdx + r.Lower)
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			dateKey, id, ok := parseDateIndexKey(it.Item().Key())
			if !ok {
				continue
			}
			if r.Upper != "" && dateKey > r.Upper {
				break
			}
			if !r.Contains(dateKey) {
				continue
			}

			rec, err := getDiary(txn, id)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read diaries in %s: %w", r, err)
	}
	return records, nil
}

func getDiary(txn *badger.Txn, id int64) (models.DiaryRecord, error) {
	var rec models.DiaryRecord
	item, err := txn.Get(diaryKey(id))
	if err != nil {
		return rec, fmt.Errorf("get diary %d: %w", id, err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return rec, fmt.Errorf("decode diary %d: %w", id, err)
	}
	rec.ID = id
	rec.Normalize()
	return rec, nil
}

func readMaxID(txn *badger.Txn) (int64, error) {
	item, err := txn.Get([]byte(keyMaxDiaryID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var maxID int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt %s value", keyMaxDiaryID)
		}
		maxID = int64(binary.BigEndian.Uint64(val)) //nolint:gosec // ids are positive
		return nil
	})
	return maxID, err
}

func writeMaxID(txn *badger.Txn, id int64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id)) //nolint:gosec // ids are positive
	return txn.Set([]byte(keyMaxDiaryID), buf)
}

// updateEach calls fn for every index in [0, n) inside write transactions.
// When a transaction reaches badger's size limit it is committed and fn is
// retried on a fresh one, so a failure part-way leaves earlier commits in place.
func (s *BadgerStore) updateEach(ctx context.Context, n int, fn func(txn *badger.Txn, i int) error) error {
	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(txn, i)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return err
			}
			txn = s.db.NewTransaction(true)
			err = fn(txn, i)
		}
		if err != nil {
			return err
		}
	}
	return txn.Commit()
}

// UpsertDiaries implements Store. Large inputs span several transactions.
func (s *BadgerStore) UpsertDiaries(ctx context.Context, records []models.DiaryRecord) (err error) {
	defer s.observe("upsert_diaries", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}

	var maxID int64
	if err = s.db.View(func(txn *badger.Txn) error {
		var readErr error
		maxID, readErr = readMaxID(txn)
		return readErr
	}); err != nil {
		return fmt.Errorf("upsert diaries: %w", err)
	}

	err = s.updateEach(ctx, len(records), func(txn *badger.Txn, i int) error {
		return upsertDiary(txn, &records[i], &maxID)
	})
	if err != nil {
		return fmt.Errorf("upsert diaries: %w", err)
	}
	return nil
}

// upsertDiary writes rec and its date index entry. The id high-water mark is
// written in the same transaction as the record that raised it.
func upsertDiary(txn *badger.Txn, rec *models.DiaryRecord, maxID *int64) error {
	if !rec.HasID() {
		*maxID++
		rec.ID = *maxID
	} else if rec.ID > *maxID {
		*maxID = rec.ID
	}
	if rec.ID == *maxID {
		if err := writeMaxID(txn, *maxID); err != nil {
			return err
		}
	}

	// Drop the old index entry when the date moved.
	old, err := getDiary(txn, rec.ID)
	switch {
	case err == nil:
		if old.DateKey() != rec.DateKey() {
			if err := txn.Delete(dateIndexKey(old.DateKey(), rec.ID)); err != nil {
				return err
			}
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return err
	}

	stored := *rec
	stored.Normalize()
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("encode diary %d: %w", rec.ID, err)
	}
	if err := txn.Set(diaryKey(rec.ID), data); err != nil {
		return err
	}
	return txn.Set(dateIndexKey(rec.DateKey(), rec.ID), nil)
}

// DeleteDiaries implements Store.
func (s *BadgerStore) DeleteDiaries(ctx context.Context, ids []int64) (err error) {
	defer s.observe("delete_diaries", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}

	err = s.updateEach(ctx, len(ids), func(txn *badger.Txn, i int) error {
		id := ids[i]
		rec, err := getDiary(txn, id)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := txn.Delete(dateIndexKey(rec.DateKey(), id)); err != nil {
			return err
		}
		return txn.Delete(diaryKey(id))
	})
	if err != nil {
		return fmt.Errorf("delete diaries: %w", err)
	}
	return nil
}

// ClearDiaries implements Store. The id high-water mark is kept so ids are
// never reused.
func (s *BadgerStore) ClearDiaries(ctx context.Context) (err error) {
	defer s.observe("clear_diaries", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}
	if err = s.db.DropPrefix([]byte(prefixDiary), []byte(prefixDateIdx)); err != nil {
		return fmt.Errorf("clear diaries: %w", err)
	}
	return nil
}

// AllSettings implements Store.
func (s *BadgerStore) AllSettings(ctx context.Context) (settings []models.AppSetting, err error) {
	defer s.observe("all_settings", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return nil, err
	}

	settings = []models.AppSetting{}
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixSetting)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(prefix):])

			var value any
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &value)
			}); err != nil {
				return fmt.Errorf("decode setting %q: %w", key, err)
			}
			settings = append(settings, models.AppSetting{Key: key, Value: value})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

// UpsertSettings implements Store.
func (s *BadgerStore) UpsertSettings(ctx context.Context, settings []models.AppSetting) (err error) {
	defer s.observe("upsert_settings", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}

	err = s.updateEach(ctx, len(settings), func(txn *badger.Txn, i int) error {
		data, err := json.Marshal(settings[i].Value)
		if err != nil {
			return fmt.Errorf("encode setting %q: %w", settings[i].Key, err)
		}
		return txn.Set([]byte(prefixSetting+settings[i].Key), data)
	})
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// ClearSettings implements Store.
func (s *BadgerStore) ClearSettings(ctx context.Context) (err error) {
	defer s.observe("clear_settings", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return err
	}
	if err = s.db.DropPrefix([]byte(prefixSetting)); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	return nil
}

// GetSetting implements Store.
func (s *BadgerStore) GetSetting(ctx context.Context, key string, def any) (value any, err error) {
	defer s.observe("get_setting", time.Now(), &err)
	if err = s.checkOpen(); err != nil {
		return nil, err
	}

	found := true
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixSetting + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &value)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read setting %q: %w", key, err)
	}
	if !found {
		return def, nil
	}
	return value, nil
}

// SetSetting implements Store.
func (s *BadgerStore) SetSetting(ctx context.Context, key string, value any) error {
	return s.UpsertSettings(ctx, []models.AppSetting{{Key: key, Value: value}})
}

// DefaultGCRatio is the discard ratio used by RunGC.
const DefaultGCRatio = 0.5

// RunGC reclaims value-log space, repeating until badger has nothing left
// to rewrite. In-memory stores have no value log and return nil.
func (s *BadgerStore) RunGC() (err error) {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.opts.InMemory {
		return nil
	}
	defer s.observe("run_gc", time.Now(), &err)

	for {
		err = s.db.RunValueLogGC(DefaultGCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}

// Close shuts the database down, giving up after CloseTimeout.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.opts.CloseTimeout
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Badger store closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
