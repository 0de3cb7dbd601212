// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
Package api provides the local HTTP surface of `pinkdiary serve`.

Endpoints:

	GET  /healthz        liveness, store round trip, backup busy flag, schedule
	GET  /metrics        Prometheus metrics
	GET  /backups        backup history (?scope=full|monthly&limit=N)
	GET  /backups/{id}   one history entry
	POST /backups        produce a backup now; body {"year":Y,"month":M} or empty for full

Every JSON response uses the APIResponse envelope. The X-Request-ID header is
echoed, or generated when absent, and becomes the correlation id of every log
line written while serving the request.

Restore is not exposed over HTTP: it requires interactive confirmation and is
only available from the CLI.

Error mapping for POST /backups:

	invalid scope        400 BAD_REQUEST
	empty selection      422 EMPTY_SELECTION
	backup in progress   409 CONFLICT
	all sinks failed     503 SINK_UNAVAILABLE
	anything else        500 INTERNAL_ERROR
*/
package api
