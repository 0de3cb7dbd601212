// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

// Package backup provides monthly-partitioned backup and restore of the diary store.
//
// The package implements the full artifact pipeline:
//   - Full backups (every diary entry and every setting)
//   - Monthly backups (the entries of one calendar month)
//   - A gzip + base64 codec with a decompression-bomb cap
//   - A versioned JSON container (legacy version 1 and version 2)
//   - Month-scoped and total restore with a confirmation step
//   - Backup history, count-based retention and a scheduler
//
// Scopes:
//
//	Full:          all diaries and settings, artifact PinkDiary_Backup_Full.pdbak
//	Monthly(y, m): diaries dated inside y-m, artifact PinkDiary_Backup_YYYY-MM.pdbak
//
// Architecture:
//
//	┌──────────────┐     ┌──────────────┐     ┌──────────────┐
//	│  Scheduler   │────▶│   Producer   │────▶│  sink.Chain  │
//	└──────────────┘     └──────────────┘     └──────────────┘
//	                            │                     │
//	                            ▼                     ▼
//	                     ┌──────────────┐     ┌──────────────┐
//	                     │ store.Store  │◀────│   Restorer   │
//	                     └──────────────┘     └──────────────┘
//
// Artifact format:
//
// An artifact is one base64-encoded gzip-compressed JSON document:
//
//	{
//	  "version": 2,
//	  "type": "monthly",           // monthly only
//	  "year": 2024, "month": 3,    // monthly only
//	  "timestamp": "2024-04-01T03:00:00.000Z",
//	  "diaries": [ ... ],
//	  "settings": [ ... ]          // full only
//	}
//
// The scope is resolved once by ParseContainer: version 2 with type "monthly"
// is Monthly, everything else (including legacy version 1) is Full.
//
// Restore states:
//
//	Idle → Decoding → Validating → AwaitingConfirmation → {Cancelled | Applying} → {Done | Failed}
//
// Decode and validation failures never touch the store. Failures while
// applying are reported as *StoreMutationError and are not rolled back.
//
// Usage:
//
//	producer := backup.NewProducer(st, sink.NewChain(primary, download),
//	    backup.WithHistory(history))
//	artifact, err := producer.Produce(ctx, backup.Monthly(2024, 3))
//	if errors.Is(err, backup.ErrEmptySelection) {
//	    // nothing to back up
//	}
//
//	restorer := backup.NewRestorer(st, confirm, backup.WithProfileReloader(reload))
//	result, err := restorer.Restore(ctx, data)
package backup
