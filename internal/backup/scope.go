// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package backup

import (
	"fmt"
	"time"

	"github.com/AiChengYin/pinkdiary/internal/store"
	"github.com/AiChengYin/pinkdiary/internal/validation"
)

// ScopeKind discriminates Scope.
type ScopeKind string

const (
	ScopeFull    ScopeKind = "full"
	ScopeMonthly ScopeKind = "monthly"
)

// Monthly scope bounds.
const (
	MinYear = 2000
	MaxYear = 2100
)

// Scope is either Full or Monthly{Year, Month}. Year and Month are zero for Full.
type Scope struct {
	Kind  ScopeKind `json:"kind"`
	Year  int       `json:"year,omitempty"`
	Month int       `json:"month,omitempty"`
}

// monthBounds carries the validated fields of a monthly scope.
type monthBounds struct {
	Year  int `validate:"gte=2000,lte=2100"`
	Month int `validate:"gte=1,lte=12"`
}

// Full returns the full scope.
func Full() Scope {
	return Scope{Kind: ScopeFull}
}

// Monthly returns the scope of one calendar month. Call Validate before use.
func Monthly(year, month int) Scope {
	return Scope{Kind: ScopeMonthly, Year: year, Month: month}
}

// MonthOf returns the monthly scope containing t.
func MonthOf(t time.Time) Scope {
	return Monthly(t.Year(), int(t.Month()))
}

// PreviousMonth returns the monthly scope of the calendar month before t.
func PreviousMonth(t time.Time) Scope {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return MonthOf(first.AddDate(0, -1, 0))
}

// IsMonthly reports whether s is a monthly scope.
func (s Scope) IsMonthly() bool {
	return s.Kind == ScopeMonthly
}

// Validate checks the monthly bounds 2000 ≤ year ≤ 2100 and 1 ≤ month ≤ 12.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeFull:
		return nil
	case ScopeMonthly:
		if err := validation.ValidateStruct(monthBounds{Year: s.Year, Month: s.Month}); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidScope, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidScope, s.Kind)
	}
}

// Bounds returns the inclusive YYYY-MM-DD bounds of a monthly scope.
// Both bounds are empty for Full.
func (s Scope) Bounds() (first, last string) {
	if !s.IsMonthly() {
		return "", ""
	}
	lastDay := time.Date(s.Year, time.Month(s.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	first = fmt.Sprintf("%04d-%02d-01", s.Year, s.Month)
	last = fmt.Sprintf("%04d-%02d-%02d", s.Year, s.Month, lastDay)
	return first, last
}

// Range returns the store range the scope selects. Full is unbounded.
func (s Scope) Range() store.DateRange {
	if !s.IsMonthly() {
		return store.DateRange{}
	}
	return store.InclusiveRange(s.Bounds())
}

// ArtifactName returns the deterministic artifact file name.
func (s Scope) ArtifactName() string {
	if s.IsMonthly() {
		return fmt.Sprintf("%s%04d-%02d%s", ArtifactPrefix, s.Year, s.Month, ArtifactExt)
	}
	return ArtifactPrefix + "Full" + ArtifactExt
}

// Label is the scope kind as used in metric labels.
func (s Scope) Label() string {
	if s.Kind == "" {
		return string(ScopeFull)
	}
	return string(s.Kind)
}

func (s Scope) String() string {
	if s.IsMonthly() {
		return fmt.Sprintf("monthly %04d-%02d", s.Year, s.Month)
	}
	return string(ScopeFull)
}
