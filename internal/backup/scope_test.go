// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package backup

import (
	"errors"
	"testing"
	"time"
)

func TestScope_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scope   Scope
		wantErr bool
	}{
		{Full(), false},
		{Monthly(2000, 1), false},
		{Monthly(2100, 12), false},
		{Monthly(2024, 2), false},
		{Monthly(1999, 12), true},
		{Monthly(2101, 1), true},
		{Monthly(2024, 0), true},
		{Monthly(2024, 13), true},
		{Scope{Kind: "weekly"}, true},
	}

	for _, tt := range tests {
		err := tt.scope.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%v: Validate() = %v, wantErr %v", tt.scope, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidScope) {
			t.Errorf("%v: error does not match ErrInvalidScope: %v", tt.scope, err)
		}
	}
}

func TestScope_Bounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scope       Scope
		first, last string
	}{
		{Monthly(2024, 2), "2024-02-01", "2024-02-29"},
		{Monthly(2023, 2), "2023-02-01", "2023-02-28"},
		{Monthly(2100, 2), "2100-02-01", "2100-02-28"},
		{Monthly(2000, 2), "2000-02-01", "2000-02-29"},
		{Monthly(2024, 4), "2024-04-01", "2024-04-30"},
		{Monthly(2024, 12), "2024-12-01", "2024-12-31"},
		{Full(), "", ""},
	}

	for _, tt := range tests {
		first, last := tt.scope.Bounds()
		if first != tt.first || last != tt.last {
			t.Errorf("%v: Bounds() = (%s, %s), want (%s, %s)", tt.scope, first, last, tt.first, tt.last)
		}
	}
}

func TestScope_RangeUsesDatePrefix(t *testing.T) {
	t.Parallel()

	r := Monthly(2024, 3).Range()
	in := []string{"2024-03-01", "2024-03-01T00:00:00.000Z", "2024-03-31T23:59:59.999Z"}
	out := []string{"2024-02-29T23:59:59.999Z", "2024-04-01T00:00:00.000Z", "2023-03-15"}

	for _, d := range in {
		if !r.Contains(d) {
			t.Errorf("%s should be in March 2024", d)
		}
	}
	for _, d := range out {
		if r.Contains(d) {
			t.Errorf("%s should not be in March 2024", d)
		}
	}
	if Full().Range().Contains("1970-01-01") != true {
		t.Error("full range should contain everything")
	}
}

func TestScope_ArtifactName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scope Scope
		want  string
	}{
		{Monthly(2024, 3), "PinkDiary_Backup_2024-03.pdbak"},
		{Monthly(2024, 12), "PinkDiary_Backup_2024-12.pdbak"},
		{Full(), "PinkDiary_Backup_Full.pdbak"},
	}
	for _, tt := range tests {
		if got := tt.scope.ArtifactName(); got != tt.want {
			t.Errorf("%v: ArtifactName() = %q, want %q", tt.scope, got, tt.want)
		}
	}
}

func TestPreviousMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		now  time.Time
		want Scope
	}{
		{time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC), Monthly(2024, 2)},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Monthly(2023, 12)},
		{time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), Monthly(2024, 4)},
	}
	for _, tt := range tests {
		if got := PreviousMonth(tt.now); got != tt.want {
			t.Errorf("PreviousMonth(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestScope_String(t *testing.T) {
	t.Parallel()

	if got := Monthly(2024, 3).String(); got != "monthly 2024-03" {
		t.Errorf("String() = %q", got)
	}
	if got := Full().String(); got != "full" {
		t.Errorf("String() = %q", got)
	}
	if got := (Scope{}).Label(); got != "full" {
		t.Errorf("Label() of zero scope = %q", got)
	}
}
