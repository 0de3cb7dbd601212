// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package middleware

import (
	"net/http"

	"github.com/AiChengYin/pinkdiary/internal/logging"
)

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds ids accepted from clients.
const maxRequestIDLength = 64

// RequestID takes the id from X-Request-ID, or generates one, and stores it
// as the correlation id so every log line of the request carries it.
// The id is echoed in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = logging.GenerateCorrelationID()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := logging.ContextWithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
