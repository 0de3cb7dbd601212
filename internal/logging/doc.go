// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

// Package logging provides centralized zerolog-based structured logging for PinkDiary.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once from the logging config section
//   - Console output for the interactive CLI, JSON output for `serve`
//   - Correlation IDs so each backup or restore run can be traced end to end
//   - An slog adapter for libraries that require *slog.Logger (sutureslog)
//
// # Usage
//
//	logging.Init(logging.Config{Level: "info", Format: "console"})
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Str("scope", "monthly").Msg("Backup started")
//
// Long-running services tag their lines with a component and hand that logger
// down through the context, so producer and sink lines written on their behalf
// carry the same tag:
//
//	ctx = logging.ContextWithLogger(ctx, logging.WithComponent("backup-scheduler"))
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event is
// never written.
package logging
