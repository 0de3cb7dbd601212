// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package sink

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned by Chain when every sink failed.
	ErrUnavailable = errors.New("no backup sink available")

	// ErrNotFound is returned by sources when the artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
)

// Location describes where an artifact was written.
type Location struct {
	// Sink is the name of the sink that accepted the artifact.
	Sink string `json:"sink"`

	// URI is a file path or an s3://bucket/key handle.
	URI string `json:"uri"`

	// Warnings lists failures of sinks tried before Sink.
	Warnings []string `json:"warnings,omitempty"`
}

// Sink accepts named backup artifacts.
type Sink interface {
	Name() string
	WriteArtifact(ctx context.Context, name string, data []byte) (Location, error)
}

// Source reads an artifact back by handle.
type Source interface {
	ReadArtifact(ctx context.Context, handle string) ([]byte, error)
}
