// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AiChengYin/pinkdiary/internal/logging"
)

// Sink names used in logs, metrics and history.
const (
	NameDir      = "dir"
	NameDownload = "download"
	NameObject   = "object"
)

// DirSink writes artifacts into a local directory.
// Files are written to a temp file and renamed into place.
type DirSink struct {
	name string
	dir  string
}

// NewDirSink creates the primary directory sink.
func NewDirSink(dir string) *DirSink {
	return &DirSink{name: NameDir, dir: dir}
}

// NewDownloadSink creates the download fallback sink. An empty dir resolves
// to ~/Downloads.
func NewDownloadSink(dir string) *DirSink {
	if dir == "" {
		dir = DefaultDownloadDir()
	}
	return &DirSink{name: NameDownload, dir: dir}
}

// DefaultDownloadDir returns ~/Downloads, or the working directory when the
// home directory cannot be resolved.
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// Name implements Sink.
func (s *DirSink) Name() string { return s.name }

// Dir returns the target directory.
func (s *DirSink) Dir() string { return s.dir }

// Path returns the full path an artifact name maps to.
func (s *DirSink) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteArtifact implements Sink.
func (s *DirSink) WriteArtifact(ctx context.Context, name string, data []byte) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return Location{}, fmt.Errorf("invalid artifact name %q", name)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return Location{}, fmt.Errorf("create %s directory: %w", s.name, err)
	}

	path := s.Path(name)
	if err := WriteFileAtomic(path, data); err != nil {
		return Location{}, fmt.Errorf("write artifact: %w", err)
	}

	logging.Debug().Str("sink", s.name).Str("path", path).Int("bytes", len(data)).Msg("Artifact written")
	return Location{Sink: s.name, URI: path}, nil
}

// Remove deletes an artifact previously written by this sink. Missing files
// are not an error.
func (s *DirSink) Remove(path string) error {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return fmt.Errorf("%s is outside %s", path, s.dir)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// Owns reports whether path lives in this sink's directory.
func (s *DirSink) Owns(path string) bool {
	rel, err := filepath.Rel(s.dir, path)
	return err == nil && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel) && !strings.ContainsRune(rel, filepath.Separator)
}

// WriteFileAtomic replaces path with data through a synced temp file in the
// same directory and a rename. Readers see either the old or the new file.
// The parent directory must exist.
func WriteFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
