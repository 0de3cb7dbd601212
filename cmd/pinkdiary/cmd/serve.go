// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/AiChengYin/pinkdiary/internal/api"
	"github.com/AiChengYin/pinkdiary/internal/backup"
	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/store"
	"github.com/AiChengYin/pinkdiary/internal/supervisor"
	"github.com/AiChengYin/pinkdiary/internal/supervisor/services"
)

func newServeCommand(a *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled backups and the local status server",
		Long: `Run in the foreground until interrupted.

Services, each restarted independently when it fails:
  - backup scheduler (when backup.schedule.enabled is true)
  - badger value-log garbage collection (badger driver only)
  - HTTP server with /healthz, /metrics and /backups`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.MetricsAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "override server.metrics_addr")
	return cmd
}

func (a *App) serve(ctx context.Context) error {
	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = a.cfg.Server.ShutdownTimeout + 5*time.Second

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	if bs, ok := a.store.(*store.BadgerStore); ok {
		tree.AddDataService(services.NewStoreMaintenanceService(bs, time.Hour))
		logging.Info().Msg("Badger garbage collection added to supervisor tree")
	}

	producer := a.producer()
	if a.cfg.Backup.Schedule.Enabled {
		scheduler := backup.NewScheduler(producer, a.history, a.cfg.ScheduleSettings(), a.dirSink)
		tree.AddBackupService(scheduler)
		logging.Info().
			Dur("interval", a.cfg.Backup.Schedule.Interval).
			Int("preferred_hour", a.cfg.Backup.Schedule.PreferredHour).
			Bool("include_full", a.cfg.Backup.Schedule.IncludeFull).
			Msg("Backup scheduler added to supervisor tree")
	} else {
		logging.Info().Msg("Scheduled backups disabled (backup.schedule.enabled=false)")
	}

	server := &http.Server{
		Addr:              a.cfg.Server.MetricsAddr,
		Handler:           api.NewRouter(api.NewHandler(a.store, producer, a.history)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.Server.ShutdownTimeout))

	a.info("Serving on http://%s (Ctrl+C to stop)", a.cfg.Server.MetricsAddr)
	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// errCh receives exactly one value and is never closed.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for services to stop")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort after shutdown
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Stopped")
	return nil
}
