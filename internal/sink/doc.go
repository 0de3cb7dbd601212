// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

// Package sink writes backup artifacts to their destinations and reads them back.
//
// Sinks:
//
//	DirSink (dir)         primary local backup directory
//	DirSink (download)    fallback into the user's Downloads directory
//	ObjectSink (object)   S3-compatible bucket via minio-go, behind a circuit breaker
//
// A Chain tries its sinks in order. A failed sink is logged, counted in
// pinkdiary_sink_fallbacks_total and reported as a warning on the returned
// Location; ErrUnavailable is returned only when every sink failed.
//
// Sources read artifacts for restore. Resolver sends s3:// handles to the
// object store and everything else to FileSource.
package sink
