// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package backup

import (
	"errors"
	"fmt"

	"github.com/AiChengYin/pinkdiary/internal/sink"
)

var (
	// ErrInvalidFormat matches every *FormatError.
	ErrInvalidFormat = errors.New("invalid backup format")

	// ErrEmptySelection means the requested scope has no entries; no artifact
	// was produced. It is informational, not a failure.
	ErrEmptySelection = errors.New("nothing to back up")

	// ErrSinkUnavailable means every sink in the chain failed.
	ErrSinkUnavailable = sink.ErrUnavailable

	// ErrBusy is returned when a backup or restore is already running.
	ErrBusy = errors.New("backup or restore already in progress")

	// ErrCancelled is returned when the user declines the restore.
	ErrCancelled = errors.New("restore cancelled")

	// ErrInvalidScope is returned for out-of-range monthly scopes.
	ErrInvalidScope = errors.New("invalid backup scope")
)

// CodecError reports a corrupt or truncated compressed payload.
type CodecError struct {
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// FormatError reports a decodable artifact whose JSON is structurally wrong.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrInvalidFormat, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrInvalidFormat, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidFormat) match.
func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// StoreMutationError reports a failure while a restore was applying. The
// store may hold a partially applied restore.
type StoreMutationError struct {
	Step  string
	Scope Scope
	Err   error
}

func (e *StoreMutationError) Error() string {
	return fmt.Sprintf("restore %s failed while %s: %v", e.Scope, e.Step, e.Err)
}

func (e *StoreMutationError) Unwrap() error { return e.Err }
