// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
)

// Guard admits one operation at a time. The in-process flag stops re-entrant
// calls; the optional lock file stops a second process.
type Guard struct {
	busy atomic.Bool
	lock *flock.Flock
}

// NewGuard returns a guard. An empty lockPath disables the cross-process lock.
func NewGuard(lockPath string) *Guard {
	g := &Guard{}
	if lockPath != "" {
		g.lock = flock.New(lockPath)
	}
	return g
}

// TryAcquire returns a release func, or ErrBusy when an operation is running.
func (g *Guard) TryAcquire() (release func(), err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	if g.lock != nil {
		if err := os.MkdirAll(filepath.Dir(g.lock.Path()), 0o750); err != nil {
			g.busy.Store(false)
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
		locked, err := g.lock.TryLock()
		if err != nil {
			g.busy.Store(false)
			return nil, fmt.Errorf("acquire lock %s: %w", g.lock.Path(), err)
		}
		if !locked {
			g.busy.Store(false)
			return nil, ErrBusy
		}
	}

	var once atomic.Bool
	return func() {
		if !once.CompareAndSwap(false, true) {
			return
		}
		if g.lock != nil {
			_ = g.lock.Unlock() //nolint:errcheck // lock released on process exit anyway
		}
		g.busy.Store(false)
	}, nil
}

// Busy reports whether an operation holds the guard in this process.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
