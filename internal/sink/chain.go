// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/metrics"
)

// Chain tries each sink in order and stops at the first success.
// Sinks are tried sequentially, never concurrently.
type Chain struct {
	sinks []Sink
}

// NewChain builds a chain from primary to last fallback. Nil sinks are skipped.
func NewChain(sinks ...Sink) *Chain {
	c := &Chain{}
	for _, s := range sinks {
		if s != nil {
			c.sinks = append(c.sinks, s)
		}
	}
	return c
}

// Name implements Sink.
func (c *Chain) Name() string { return "chain" }

// Sinks returns the chained sinks in order.
func (c *Chain) Sinks() []Sink { return c.sinks }

// WriteArtifact implements Sink. Failures of earlier sinks are reported as
// Location.Warnings; ErrUnavailable is returned only if every sink fails.
func (c *Chain) WriteArtifact(ctx context.Context, name string, data []byte) (Location, error) {
	var (
		warnings []string
		errs     []error
	)

	for _, s := range c.sinks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		loc, err := s.WriteArtifact(ctx, name, data)
		metrics.RecordSinkWrite(s.Name(), err)
		if err == nil {
			loc.Warnings = append(warnings, loc.Warnings...)
			return loc, nil
		}

		logging.Ctx(ctx).Warn().Err(err).
			Str("sink", s.Name()).
			Str("artifact", name).
			Msg("Sink write failed, trying next sink")
		warnings = append(warnings, fmt.Sprintf("%s: %v", s.Name(), err))
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}

	if len(errs) == 0 {
		return Location{}, fmt.Errorf("%w: no sinks configured", ErrUnavailable)
	}
	return Location{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}
