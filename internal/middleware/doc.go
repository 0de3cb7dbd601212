// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
Package middleware provides the HTTP middleware of the serve command's router.

Middleware (outermost first):

	RequestID          X-Request-ID in, correlation id in context, X-Request-ID out
	RequestLogging     debug log line per request
	PrometheusMetrics  pinkdiary_http_* request metrics labelled by chi route pattern

All three use the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.PrometheusMetrics)

Route labels come from the chi route pattern (/backups/{id}), never the raw
path, so label cardinality stays bounded. Requests that match no route are
labelled "unmatched".
*/
package middleware
