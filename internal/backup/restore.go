// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
restore.go - Restore Consumer

This file applies an artifact back onto the store.

State Machine:

	Idle → Decoding → Validating → AwaitingConfirmation → Applying → Done
	                                                    ↘ Cancelled
	any step before Done may end in Failed

Steps before Applying never touch the store. Once the user confirms, the apply
runs to completion even if ctx is cancelled, and a failure part way through is
reported as *StoreMutationError without rollback.

Monthly Apply:
  1. Re-derive [YYYY-MM-01, YYYY-MM-last] from the container year and month
  2. Delete every stored entry of that month that has an id
  3. Upsert every container entry
Other months and all settings are left as they are.

Full Apply:
  1. Clear diaries, then settings
  2. Upsert every container entry and setting
  3. Reload the profile settings and hand them to the ProfileReloader
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AiChengYin/pinkdiary/internal/diary"
	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/metrics"
	"github.com/AiChengYin/pinkdiary/internal/sink"
	"github.com/AiChengYin/pinkdiary/internal/store"
)

// Confirmer is asked before a restore mutates the store. Returning false
// cancels the restore.
type Confirmer func(ctx context.Context, summary Summary) (bool, error)

// AutoConfirm accepts every restore.
func AutoConfirm(context.Context, Summary) (bool, error) {
	return true, nil
}

// Restorer applies artifacts to a store.
type Restorer struct {
	store   store.Store
	confirm Confirmer
	opts    options

	mu    sync.Mutex
	state State
}

// NewRestorer returns a restorer. A nil confirm declines every restore.
func NewRestorer(st store.Store, confirm Confirmer, opts ...Option) *Restorer {
	return &Restorer{
		store:   st,
		confirm: confirm,
		opts:    applyOptions(opts),
	}
}

// State returns the current state. It stays at the terminal state of the
// last restore until the next one starts.
func (r *Restorer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Busy reports whether a restore is running.
func (r *Restorer) Busy() bool {
	return r.opts.guard.Busy()
}

// RestoreFrom reads the artifact behind handle from src and restores it.
func (r *Restorer) RestoreFrom(ctx context.Context, src sink.Source, handle string) (*Result, error) {
	if r.Busy() {
		metrics.RecordRestore("unknown", metrics.ResultBusy, 0)
		return nil, ErrBusy
	}
	data, err := src.ReadArtifact(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", handle, err)
	}
	return r.Restore(ctx, data)
}

// Restore decodes, validates, confirms, and applies an artifact.
//
// Errors: *CodecError, *FormatError (matches ErrInvalidFormat), ErrCancelled,
// ErrBusy, or *StoreMutationError once the store has been touched.
func (r *Restorer) Restore(ctx context.Context, artifact []byte) (*Result, error) {
	release, err := r.opts.guard.TryAcquire()
	if err != nil {
		if errors.Is(err, ErrBusy) {
			logging.Ctx(ctx).Debug().Msg("Restore already in progress, ignoring")
			metrics.RecordRestore("unknown", metrics.ResultBusy, 0)
		}
		return nil, err
	}
	defer release()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := time.Now()
	r.reset()

	c, err := r.prepare(ctx, artifact)
	if err != nil {
		r.transition(StateFailed)
		logging.Ctx(ctx).Warn().Err(err).Msg("Restore rejected")
		metrics.RecordRestore("unknown", metrics.ResultFailed, 0)
		return nil, err
	}
	scope := c.Scope()
	logger := logging.Ctx(ctx).With().Str("scope", scope.String()).Logger()

	r.transition(StateAwaitingConfirmation)
	summary := c.Summary()
	ok, err := r.ask(ctx, summary)
	if err != nil {
		r.transition(StateFailed)
		logger.Warn().Err(err).Msg("Restore confirmation failed")
		metrics.RecordRestore(scope.Label(), metrics.ResultFailed, 0)
		return nil, fmt.Errorf("confirm restore: %w", err)
	}
	if !ok {
		r.transition(StateCancelled)
		logger.Info().Msg("Restore cancelled")
		metrics.RecordRestore(scope.Label(), metrics.ResultCancelled, 0)
		return nil, ErrCancelled
	}

	r.transition(StateApplying)
	result, err := r.apply(context.WithoutCancel(ctx), c)
	if err != nil {
		r.transition(StateFailed)
		logging.CtxErr(ctx, err).Str("scope", scope.String()).Msg("Restore failed, store may be partially restored")
		metrics.RecordRestore(scope.Label(), metrics.ResultFailed, 0)
		return nil, err
	}
	result.Duration = time.Since(start)

	r.transition(StateDone)
	metrics.RecordRestore(scope.Label(), metrics.ResultSuccess, result.Restored)
	logger.Info().
		Int("restored", result.Restored).
		Int("deleted", result.Deleted).
		Int("settings", result.SettingsRestored).
		Dur("duration", result.Duration).
		Msg("Restore completed")
	return result, nil
}

// prepare runs Decoding and Validating.
func (r *Restorer) prepare(ctx context.Context, artifact []byte) (*Container, error) {
	r.transition(StateDecoding)
	var plain bytes.Buffer
	if err := r.opts.codec.Decode(&plain, bytes.NewReader(bytes.TrimSpace(artifact))); err != nil {
		return nil, err
	}

	r.transition(StateValidating)
	c, err := ParseContainer(plain.Bytes())
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().
		Int("version", c.Version).
		Str("scope", c.Scope().String()).
		Int("records", len(c.Diaries)).
		Msg("Backup container validated")
	return c, nil
}

func (r *Restorer) ask(ctx context.Context, summary Summary) (bool, error) {
	if r.confirm == nil {
		return false, nil
	}
	return r.confirm(ctx, summary)
}

func (r *Restorer) apply(ctx context.Context, c *Container) (*Result, error) {
	scope := c.Scope()
	if scope.IsMonthly() {
		return r.applyMonthly(ctx, c)
	}
	return r.applyFull(ctx, c)
}

func (r *Restorer) applyMonthly(ctx context.Context, c *Container) (*Result, error) {
	scope := c.Scope()
	rng := scope.Range()
	fail := func(step string, err error) (*Result, error) {
		return nil, &StoreMutationError{Step: step, Scope: scope, Err: err}
	}

	existing, err := r.store.DiariesInRange(ctx, rng)
	if err != nil {
		return fail("reading existing entries", err)
	}
	ids := make([]int64, 0, len(existing))
	for i := range existing {
		if existing[i].HasID() && rng.Contains(existing[i].Date) {
			ids = append(ids, existing[i].ID)
		}
	}

	if err := r.store.DeleteDiaries(ctx, ids); err != nil {
		return fail("deleting existing entries", err)
	}
	if err := r.store.UpsertDiaries(ctx, c.Diaries); err != nil {
		return fail("writing entries", err)
	}

	return &Result{
		Scope:    scope,
		Restored: len(c.Diaries),
		Deleted:  len(ids),
	}, nil
}

func (r *Restorer) applyFull(ctx context.Context, c *Container) (*Result, error) {
	scope := c.Scope()
	fail := func(step string, err error) (*Result, error) {
		return nil, &StoreMutationError{Step: step, Scope: scope, Err: err}
	}

	if err := r.store.ClearDiaries(ctx); err != nil {
		return fail("clearing entries", err)
	}
	if err := r.store.ClearSettings(ctx); err != nil {
		return fail("clearing settings", err)
	}
	if err := r.store.UpsertDiaries(ctx, c.Diaries); err != nil {
		return fail("writing entries", err)
	}
	if len(c.Settings) > 0 {
		if err := r.store.UpsertSettings(ctx, c.Settings); err != nil {
			return fail("writing settings", err)
		}
	}

	profile, err := diary.LoadProfile(ctx, r.store)
	if err != nil {
		return fail("reloading profile", err)
	}
	if r.opts.reloader != nil {
		if err := r.opts.reloader(ctx, profile); err != nil {
			return fail("reloading profile", err)
		}
	}

	return &Result{
		Scope:            scope,
		Restored:         len(c.Diaries),
		SettingsRestored: len(c.Settings),
		Profile:          &profile,
	}, nil
}

func (r *Restorer) reset() {
	r.mu.Lock()
	r.state = StateIdle
	r.mu.Unlock()
	metrics.SetRestoreState(int(StateIdle))
}

func (r *Restorer) transition(to State) {
	r.mu.Lock()
	from := r.state
	r.state = to
	r.mu.Unlock()

	metrics.SetRestoreState(int(to))
	if r.opts.observer != nil {
		r.opts.observer(from, to)
	}
}
