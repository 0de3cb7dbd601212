// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
Package metrics provides Prometheus metrics for the backup pipeline.

Collectors are registered once at package init through promauto and exposed by
`pinkdiary serve` at /metrics. The package covers:
  - Backup attempts, durations and artifact sizes (by scope and result)
  - Sink writes and fallbacks
  - Restore attempts, restored record counts and the current restore state
  - Record store operation latency and errors (by operation and driver)
  - Scheduler last and next run timestamps

Label values for results are the Result* constants so producers, consumers and
dashboards agree on spelling.
*/
package metrics
