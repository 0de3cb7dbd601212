// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run a real MinIO server for the
// object storage sink, so upload, download and missing-key behaviour is
// tested against the S3 API rather than a mock.
//
// # Running
//
// All files carry the integration build tag:
//
//	go test -tags integration ./internal/sink/...
//
// Tests call SkipIfNoDocker first and are skipped when Docker is unavailable.
package testinfra
