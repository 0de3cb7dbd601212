// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultMaxArtifactBytes caps artifact reads at 1 GiB.
const DefaultMaxArtifactBytes = 1 << 30

// FileSource reads artifacts from user-picked local paths.
type FileSource struct {
	// MaxBytes rejects larger files. Zero means DefaultMaxArtifactBytes.
	MaxBytes int64
}

// ReadArtifact implements Source.
func (s FileSource) ReadArtifact(ctx context.Context, handle string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxArtifactBytes
	}

	f, err := os.Open(handle)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("artifact %s exceeds %d bytes", handle, limit)
	}
	return data, nil
}

// Resolver dispatches s3:// handles to Object and everything else to File.
type Resolver struct {
	File   Source
	Object Source
}

// ReadArtifact implements Source.
func (r Resolver) ReadArtifact(ctx context.Context, handle string) ([]byte, error) {
	if strings.HasPrefix(handle, ObjectScheme) {
		if r.Object == nil {
			return nil, fmt.Errorf("object storage is not configured for %s", handle)
		}
		return r.Object.ReadArtifact(ctx, handle)
	}
	if r.File == nil {
		return FileSource{}.ReadArtifact(ctx, handle)
	}
	return r.File.ReadArtifact(ctx, handle)
}
