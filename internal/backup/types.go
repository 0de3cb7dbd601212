// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package backup

import (
	"time"

	"github.com/AiChengYin/pinkdiary/internal/models"
)

// ArtifactExt is the file extension of backup artifacts.
const ArtifactExt = ".pdbak"

// ArtifactPrefix is the common base name of backup artifacts.
const ArtifactPrefix = "PinkDiary_Backup_"

// Artifact describes a backup produced by the Producer.
type Artifact struct {
	// Name is the deterministic artifact file name
	Name string `json:"name"`

	// Scope the artifact covers
	Scope Scope `json:"scope"`

	// Location is the path or handle the artifact was written to
	Location string `json:"location"`

	// Sink is the name of the sink that accepted the artifact
	Sink string `json:"sink"`

	// Records is the number of diary entries in the artifact
	Records int `json:"records"`

	// Settings is the number of settings in the artifact (full scope only)
	Settings int `json:"settings"`

	// Size of the encoded artifact in bytes
	Size int64 `json:"size"`

	// Checksum is the SHA-256 of the encoded artifact
	Checksum string `json:"checksum"`

	// CreatedAt matches the container timestamp
	CreatedAt time.Time `json:"created_at"`

	// Warnings from sinks that failed before Sink accepted the artifact
	Warnings []string `json:"warnings,omitempty"`

	// HistoryID is the backup history entry, when history is enabled
	HistoryID string `json:"history_id,omitempty"`
}

// Summary is shown to the user before a restore mutates anything.
type Summary struct {
	Scope Scope

	// Records is the number of diary entries that will be written
	Records int

	// Settings is the number of settings that will be written (full scope)
	Settings int

	// CreatedAt is the container timestamp as written by the producer;
	// empty when the artifact carries none
	CreatedAt string

	// Range is the inclusive date range that will be replaced (monthly scope)
	Range [2]string
}

// Result reports a completed restore.
type Result struct {
	Scope Scope

	// Restored is the number of diary entries written
	Restored int

	// Deleted is the number of existing entries removed before writing
	Deleted int

	// SettingsRestored is the number of settings written (full scope)
	SettingsRestored int

	// Profile is the reloaded profile (full scope)
	Profile *models.Profile

	Duration time.Duration
}

// State is a restore state machine state.
type State int

const (
	StateIdle State = iota
	StateDecoding
	StateValidating
	StateAwaitingConfirmation
	StateApplying
	StateDone
	StateCancelled
	StateFailed
)

var stateNames = [...]string{
	StateIdle:                 "idle",
	StateDecoding:             "decoding",
	StateValidating:           "validating",
	StateAwaitingConfirmation: "awaiting_confirmation",
	StateApplying:             "applying",
	StateDone:                 "done",
	StateCancelled:            "cancelled",
	StateFailed:               "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}
