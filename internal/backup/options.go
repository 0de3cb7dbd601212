// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package backup

import (
	"context"
	"time"

	"github.com/AiChengYin/pinkdiary/internal/models"
)

// ProfileReloader receives the profile settings after a full restore.
type ProfileReloader func(ctx context.Context, profile models.Profile) error

// StateObserver is called on every restore state transition.
type StateObserver func(from, to State)

// options are shared by NewProducer and NewRestorer. Each constructor uses
// the fields relevant to it.
type options struct {
	codec    *Codec
	guard    *Guard
	history  *History
	now      func() time.Time
	reloader ProfileReloader
	observer StateObserver
}

// Option configures a Producer or Restorer.
type Option func(*options)

func defaultOptions() options {
	return options{
		codec: DefaultCodec,
		now:   time.Now,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.guard == nil {
		o.guard = NewGuard("")
	}
	return o
}

// WithCodec sets the artifact codec.
func WithCodec(c *Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithGuard sets the busy guard. Share one guard between a Producer and a
// Restorer to keep backup and restore mutually exclusive.
func WithGuard(g *Guard) Option {
	return func(o *options) { o.guard = g }
}

// WithHistory records produced artifacts in h.
func WithHistory(h *History) Option {
	return func(o *options) { o.history = h }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithProfileReloader sets the hook that receives the profile after a full restore.
func WithProfileReloader(r ProfileReloader) Option {
	return func(o *options) { o.reloader = r }
}

// WithStateObserver sets the restore state transition callback.
func WithStateObserver(fn StateObserver) Option {
	return func(o *options) { o.observer = fn }
}
