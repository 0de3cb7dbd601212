// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
history.go - Backup History

This file keeps the list of produced artifacts in history.json next to the
backups, and applies count-based retention to it.

History Storage:
history.json contains:
  - Every recorded artifact (id, scope, name, location, sink, counts, size, checksum)
  - The last and next scheduled run times

Retention:
Prune keeps the newest N entries. Artifact names are deterministic, so a newer
backup of the same scope overwrites the older file; a pruned entry's file is
only deleted when no kept entry points at the same location, and only when a
remover owns that location (the local backup directory).

Thread Safety:
All operations are protected by a sync.RWMutex.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/sink"
)

// ErrHistoryNotFound is returned by History.Get for unknown ids.
var ErrHistoryNotFound = errors.New("backup history entry not found")

// HistoryEntry is one recorded artifact.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Scope     Scope     `json:"scope"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Sink      string    `json:"sink"`
	Records   int       `json:"records"`
	Settings  int       `json:"settings,omitempty"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryFilter selects entries for List.
type HistoryFilter struct {
	// Kind restricts to one scope kind; empty means all
	Kind ScopeKind

	// Limit caps the number of entries; zero means no limit
	Limit int
}

// ArtifactRemover deletes artifacts it owns. *sink.DirSink implements it.
type ArtifactRemover interface {
	Owns(location string) bool
	Remove(location string) error
}

type historyFile struct {
	Entries       []*HistoryEntry `json:"entries"`
	LastScheduled *time.Time      `json:"last_scheduled,omitempty"`
	NextScheduled *time.Time      `json:"next_scheduled,omitempty"`
}

// History persists the backup history.
type History struct {
	path string

	mu   sync.RWMutex
	data historyFile
}

// OpenHistory loads the history at path. A missing file starts an empty
// history; an empty path keeps the history in memory only.
func OpenHistory(path string) (*History, error) {
	h := &History{path: path, data: historyFile{Entries: make([]*HistoryEntry, 0)}}
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup history: %w", err)
	}

	if err := json.Unmarshal(data, &h.data); err != nil {
		return nil, fmt.Errorf("parse backup history %s: %w", path, err)
	}
	if h.data.Entries == nil {
		h.data.Entries = make([]*HistoryEntry, 0)
	}
	return h, nil
}

// Record appends an entry for a produced artifact and sets a.HistoryID.
func (h *History) Record(a *Artifact) (*HistoryEntry, error) {
	entry := &HistoryEntry{
		ID:        uuid.New().String(),
		Scope:     a.Scope,
		Name:      a.Name,
		Location:  a.Location,
		Sink:      a.Sink,
		Records:   a.Records,
		Settings:  a.Settings,
		Size:      a.Size,
		Checksum:  a.Checksum,
		CreatedAt: a.CreatedAt,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.data.Entries = append(h.data.Entries, entry)
	if err := h.saveLocked(); err != nil {
		h.data.Entries = h.data.Entries[:len(h.data.Entries)-1]
		return nil, err
	}

	a.HistoryID = entry.ID
	return entry, nil
}

// List returns matching entries, newest first.
func (h *History) List(filter HistoryFilter) []*HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*HistoryEntry, 0, len(h.data.Entries))
	for _, e := range h.data.Entries {
		if filter.Kind != "" && e.Scope.Kind != filter.Kind {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}

	sortNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// Get returns the entry with the given id.
func (h *History) Get(id string) (*HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range h.data.Entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrHistoryNotFound, id)
}

// Prune keeps the newest maxCount entries and returns the dropped ones.
// maxCount <= 0 disables pruning.
func (h *History) Prune(maxCount int, removers ...ArtifactRemover) ([]*HistoryEntry, error) {
	if maxCount <= 0 {
		return nil, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.data.Entries) <= maxCount {
		return nil, nil
	}

	sorted := make([]*HistoryEntry, len(h.data.Entries))
	copy(sorted, h.data.Entries)
	sortNewestFirst(sorted)

	kept, dropped := sorted[:maxCount], sorted[maxCount:]

	keptLocations := make(map[string]bool, len(kept))
	for _, e := range kept {
		keptLocations[e.Location] = true
	}

	var errs []error
	for _, e := range dropped {
		if keptLocations[e.Location] {
			continue
		}
		for _, r := range removers {
			if r == nil || !r.Owns(e.Location) {
				continue
			}
			if err := r.Remove(e.Location); err != nil {
				errs = append(errs, err)
			}
			break
		}
	}

	// Keep insertion order on disk.
	keepIDs := make(map[string]bool, len(kept))
	for _, e := range kept {
		keepIDs[e.ID] = true
	}
	remaining := make([]*HistoryEntry, 0, len(kept))
	for _, e := range h.data.Entries {
		if keepIDs[e.ID] {
			remaining = append(remaining, e)
		}
	}
	h.data.Entries = remaining

	if err := h.saveLocked(); err != nil {
		errs = append(errs, err)
	}

	logging.Info().Int("pruned", len(dropped)).Int("kept", len(kept)).Msg("Backup retention applied")
	return dropped, errors.Join(errs...)
}

// SetSchedule records the last and next scheduled run times.
func (h *History) SetSchedule(last, next *time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if last != nil {
		h.data.LastScheduled = last
	}
	h.data.NextScheduled = next
	return h.saveLocked()
}

// Schedule returns the last and next scheduled run times.
func (h *History) Schedule() (last, next *time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.data.LastScheduled, h.data.NextScheduled
}

// saveLocked writes history.json (must be called with lock held).
func (h *History) saveLocked() error {
	if h.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(&h.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o750); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	if err := sink.WriteFileAtomic(h.path, data); err != nil {
		return fmt.Errorf("write backup history: %w", err)
	}
	return nil
}

// sortNewestFirst expects insertion order; ties keep the later insert first.
func sortNewestFirst(entries []*HistoryEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
