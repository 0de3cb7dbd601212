// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/AiChengYin/pinkdiary/internal/logging"
)

// GarbageCollector is satisfied by *store.BadgerStore.
type GarbageCollector interface {
	RunGC() error
}

// StoreMaintenanceService periodically reclaims badger value-log space.
//
//	if bs, ok := st.(*store.BadgerStore); ok {
//	    tree.AddDataService(services.NewStoreMaintenanceService(bs, time.Hour))
//	}
//
// A GC failure is logged and retried on the next tick.
type StoreMaintenanceService struct {
	gc       GarbageCollector
	interval time.Duration
	name     string
	log      zerolog.Logger

	runs     atomic.Int64
	failures atomic.Int64
}

// NewStoreMaintenanceService creates the service. A non-positive interval means 1h.
func NewStoreMaintenanceService(gc GarbageCollector, interval time.Duration) *StoreMaintenanceService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &StoreMaintenanceService{
		gc:       gc,
		interval: interval,
		name:     "store-maintenance",
		log:      logging.WithComponent("store-maintenance"),
	}
}

// Serve implements suture.Service.
func (s *StoreMaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *StoreMaintenanceService) runOnce() {
	s.runs.Add(1)
	start := time.Now()
	if err := s.gc.RunGC(); err != nil {
		s.failures.Add(1)
		s.log.Warn().Err(err).Msg("Store garbage collection failed")
		return
	}
	s.log.Debug().Dur("duration", time.Since(start)).Msg("Store garbage collection finished")
}

// Runs returns how many GC passes have been attempted.
func (s *StoreMaintenanceService) Runs() int64 { return s.runs.Load() }

// Failures returns how many GC passes failed.
func (s *StoreMaintenanceService) Failures() int64 { return s.failures.Load() }

// String implements fmt.Stringer for suture's event log.
func (s *StoreMaintenanceService) String() string {
	return s.name
}
