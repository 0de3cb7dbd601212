// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package diary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/models"
	"github.com/AiChengYin/pinkdiary/internal/store"
	"github.com/AiChengYin/pinkdiary/internal/validation"
)

// DefaultLocation is stored when an entry has no location.
const DefaultLocation = "場所未設定"

// instantLayout is the layout entries are saved with.
const instantLayout = "2006-01-02T15:04:05.000Z07:00"

// Service applies the editor rules on top of a store.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService returns a diary service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Save normalises rec, validates it, and upserts it. rec.ID is set on insert.
func (s *Service) Save(ctx context.Context, rec *models.DiaryRecord) (int64, error) {
	if err := s.prepare(rec); err != nil {
		return 0, err
	}
	if err := validation.ValidateStruct(rec); err != nil {
		return 0, fmt.Errorf("invalid entry: %w", err)
	}

	batch := []models.DiaryRecord{*rec}
	if err := s.store.UpsertDiaries(ctx, batch); err != nil {
		return 0, fmt.Errorf("save entry: %w", err)
	}
	*rec = batch[0]

	logging.Ctx(ctx).Debug().Int64("id", rec.ID).Str("date", rec.DateKey()).Msg("Diary entry saved")
	return rec.ID, nil
}

// prepare applies the editor rules in place.
func (s *Service) prepare(rec *models.DiaryRecord) error {
	date, err := normalizeDate(rec.Date, s.now())
	if err != nil {
		return err
	}
	rec.Date = date

	t, err := models.ParseDate(date)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", date, err)
	}
	rec.Year = t.Year()

	if len(rec.Images) > models.MaxImages {
		rec.Images = rec.Images[:models.MaxImages]
	}
	rec.Tags = cleanTags(rec.Tags)

	rec.Location = strings.TrimSpace(rec.Location)
	if rec.Location == "" {
		rec.Location = DefaultLocation
	}
	if rec.Mood == "" {
		rec.Mood = models.MoodExcited
	}
	rec.Normalize()
	return nil
}

// Delete removes the entry with the given id. Unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteDiaries(ctx, []int64{id}); err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	return nil
}

// ListByYear returns the entries of year, newest first.
func (s *Service) ListByYear(ctx context.Context, year int) ([]models.DiaryRecord, error) {
	r := store.InclusiveRange(fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
	entries, err := s.store.DiariesInRange(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list entries of %d: %w", year, err)
	}

	out := entries[:0]
	for _, e := range entries {
		if e.Year == year {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out, nil
}

// Years returns the distinct entry years, newest first. An empty diary
// reports the current year.
func (s *Service) Years(ctx context.Context) ([]int, error) {
	entries, err := s.store.AllDiaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}

	seen := make(map[int]bool)
	years := make([]int, 0)
	for _, e := range entries {
		if !seen[e.Year] {
			seen[e.Year] = true
			years = append(years, e.Year)
		}
	}
	if len(years) == 0 {
		return []int{s.now().Year()}, nil
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

// Search returns the entries whose content or tags contain query, ignoring
// case. An empty query matches everything.
func Search(entries []models.DiaryRecord, query string) []models.DiaryRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}

	out := make([]models.DiaryRecord, 0)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Content), q) {
			out = append(out, e)
			continue
		}
		for _, tag := range e.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// normalizeDate turns a date or date-time into an instant with millisecond
// precision. The calendar date is kept as written.
func normalizeDate(date string, now time.Time) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return now.Format(instantLayout), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, date); err == nil {
		return t.Format(instantLayout), nil
	}
	if t, err := time.Parse("2006-01-02T15:04", date); err == nil {
		return t.Format(instantLayout), nil
	}
	if t, err := time.Parse(models.DateKeyLayout, date); err == nil {
		return t.Format(instantLayout), nil
	}
	return "", fmt.Errorf("invalid entry date %q", date)
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
