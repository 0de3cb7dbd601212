// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
producer.go - Backup Producer

This file turns a Scope into an artifact: select records from the store, wrap
them in a version 2 container, encode, and hand the text to the sink chain.

Selection:
  - Full: every diary and every setting
  - Monthly: diaries whose YYYY-MM-DD prefix lies in [YYYY-MM-01, YYYY-MM-last]

The store already filters by range; the producer filters again on the same key
so a store with a looser range implementation cannot leak other months into a
monthly artifact.

Empty Selection:
A monthly scope with no matching entries returns ErrEmptySelection and writes
nothing. A full backup of an empty diary is still produced so the settings are
kept.

The store is only read during a backup.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/metrics"
	"github.com/AiChengYin/pinkdiary/internal/models"
	"github.com/AiChengYin/pinkdiary/internal/sink"
	"github.com/AiChengYin/pinkdiary/internal/store"
)

// Producer creates backup artifacts.
type Producer struct {
	store store.Store
	sink  sink.Sink
	opts  options
}

// NewProducer returns a producer reading from st and writing to sk
// (usually a *sink.Chain).
func NewProducer(st store.Store, sk sink.Sink, opts ...Option) *Producer {
	return &Producer{
		store: st,
		sink:  sk,
		opts:  applyOptions(opts),
	}
}

// Busy reports whether a backup is running.
func (p *Producer) Busy() bool {
	return p.opts.guard.Busy()
}

// Select builds the container for scope without encoding or writing it.
func (p *Producer) Select(ctx context.Context, scope Scope) (*Container, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	createdAt := p.opts.now()

	if !scope.IsMonthly() {
		diaries, err := p.store.AllDiaries(ctx)
		if err != nil {
			return nil, fmt.Errorf("read diaries: %w", err)
		}
		settings, err := p.store.AllSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
		return NewContainer(scope, createdAt, diaries, settings), nil
	}

	r := scope.Range()
	candidates, err := p.store.DiariesInRange(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("read diaries %s: %w", r, err)
	}

	selected := make([]models.DiaryRecord, 0, len(candidates))
	for i := range candidates {
		if r.Contains(candidates[i].Date) {
			selected = append(selected, candidates[i])
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no entries in %s", ErrEmptySelection, scope)
	}

	return NewContainer(scope, createdAt, selected, nil), nil
}

// Encode returns the artifact text for c.
func (p *Producer) Encode(c *Container) ([]byte, error) {
	raw, err := c.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode container: %w", err)
	}
	var out bytes.Buffer
	if err := p.opts.codec.Encode(&out, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Produce selects, encodes, and writes the artifact for scope.
//
// Returns ErrBusy while another backup runs, ErrEmptySelection for an empty
// month, and an error matching ErrSinkUnavailable when every sink failed.
func (p *Producer) Produce(ctx context.Context, scope Scope) (*Artifact, error) {
	release, err := p.opts.guard.TryAcquire()
	if err != nil {
		metrics.RecordBackup(scope.Label(), metrics.ResultBusy, 0, 0, 0)
		return nil, err
	}
	defer release()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := logging.Ctx(ctx).With().Str("scope", scope.String()).Logger()
	start := time.Now()

	artifact, err := p.produce(ctx, scope)
	duration := time.Since(start)

	switch {
	case errors.Is(err, ErrEmptySelection):
		logger.Info().Msg("Nothing to back up")
		metrics.RecordBackup(scope.Label(), metrics.ResultEmpty, duration, 0, 0)
		return nil, err
	case err != nil:
		logging.CtxErr(ctx, err).Str("scope", scope.String()).Msg("Backup failed")
		metrics.RecordBackup(scope.Label(), metrics.ResultFailed, duration, 0, 0)
		return nil, err
	}

	metrics.RecordBackup(scope.Label(), metrics.ResultSuccess, duration, artifact.Records, artifact.Size)
	logger.Info().
		Str("name", artifact.Name).
		Str("sink", artifact.Sink).
		Str("location", artifact.Location).
		Int("records", artifact.Records).
		Int64("size", artifact.Size).
		Dur("duration", duration).
		Msg("Backup created")
	return artifact, nil
}

func (p *Producer) produce(ctx context.Context, scope Scope) (*Artifact, error) {
	c, err := p.Select(ctx, scope)
	if err != nil {
		return nil, err
	}
	data, err := p.Encode(c)
	if err != nil {
		return nil, err
	}

	name := scope.ArtifactName()
	loc, err := p.sink.WriteArtifact(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}

	sum := sha256.Sum256(data)
	artifact := &Artifact{
		Name:      name,
		Scope:     scope,
		Location:  loc.URI,
		Sink:      loc.Sink,
		Records:   len(c.Diaries),
		Settings:  len(c.Settings),
		Size:      int64(len(data)),
		Checksum:  hex.EncodeToString(sum[:]),
		CreatedAt: c.CreatedAt(),
		Warnings:  loc.Warnings,
	}

	if p.opts.history != nil {
		if _, err := p.opts.history.Record(artifact); err != nil {
			// The artifact exists; a history write failure is only reported.
			logging.Ctx(ctx).Warn().Err(err).Str("name", name).Msg("Failed to record backup history")
			artifact.Warnings = append(artifact.Warnings, fmt.Sprintf("history: %v", err))
		}
	}
	return artifact, nil
}
