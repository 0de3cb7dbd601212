// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
Package supervisor runs the long-lived parts of `pinkdiary serve` under a
suture v4 supervisor tree.

# Overview

	RootSupervisor ("pinkdiary")
	├── DataSupervisor ("data-layer")
	│   └── StoreMaintenanceService (badger driver only)
	├── BackupSupervisor ("backup-layer")
	│   └── backup.Scheduler (if backup.schedule.enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (/metrics, /healthz, /backups)

Each layer restarts independently. A scheduler that keeps failing backs off
inside the backup layer while the HTTP server keeps serving.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddBackupService(scheduler)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)

# Configuration

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Zero values take the defaults above, which match suture's own.

# Service Interface

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning nil stops the service for good; returning an error restarts it.
Services return promptly once ctx is canceled.

Supervisor events go through sutureslog into the zerolog-backed slog handler
from the logging package.
*/
package supervisor
