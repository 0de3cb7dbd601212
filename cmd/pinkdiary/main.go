// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

// Package main is the entry point for the pinkdiary command.
//
// # Commands
//
//	pinkdiary backup [--year Y --month M | --previous-month]
//	pinkdiary restore FILE [--yes]
//	pinkdiary history [--scope full|monthly] [--limit N] [--prune N]
//	pinkdiary diary add|list|delete|search|years
//	pinkdiary profile show|set
//	pinkdiary serve [--addr HOST:PORT]
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (PINKDIARY_*)
//   - Config file (--config, $PINKDIARY_CONFIG, ./config.yaml, ~/.config/pinkdiary/config.yaml)
//   - Built-in defaults
//
// Data lives under ~/Documents/PinkDiary by default.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running command. A restore that has already
// been confirmed finishes applying before the process exits; serve stops its
// services and waits for the HTTP server to drain.
package main

import "github.com/AiChengYin/pinkdiary/cmd/pinkdiary/cmd"

func main() {
	cmd.Execute()
}
