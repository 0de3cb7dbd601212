// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/AiChengYin/pinkdiary/internal/backup"
	"github.com/AiChengYin/pinkdiary/internal/models"
)

// maxRequestBody bounds POST /backups bodies.
const maxRequestBody = 4 << 10

// BackupProducer is satisfied by *backup.Producer.
type BackupProducer interface {
	Produce(ctx context.Context, scope backup.Scope) (*backup.Artifact, error)
	Busy() bool
}

// HistoryReader is satisfied by *backup.History.
type HistoryReader interface {
	List(filter backup.HistoryFilter) []*backup.HistoryEntry
	Get(id string) (*backup.HistoryEntry, error)
	Schedule() (last, next *time.Time)
}

// StoreChecker is the part of store.Store the health check touches.
type StoreChecker interface {
	GetSetting(ctx context.Context, key string, def any) (any, error)
	Driver() string
}

// Handler serves the serve command's HTTP endpoints.
type Handler struct {
	store     StoreChecker
	producer  BackupProducer
	history   HistoryReader
	startTime time.Time
}

// NewHandler creates a Handler. producer and history may be nil, which
// disables the endpoints that need them.
func NewHandler(st StoreChecker, producer BackupProducer, history HistoryReader) *Handler {
	return &Handler{
		store:     st,
		producer:  producer,
		history:   history,
		startTime: time.Now(),
	}
}

// HealthStatus is the /healthz payload.
type HealthStatus struct {
	Status        string     `json:"status"`
	Driver        string     `json:"driver"`
	StoreOK       bool       `json:"store_ok"`
	BackupBusy    bool       `json:"backup_busy"`
	UptimeSeconds float64    `json:"uptime_seconds"`
	LastScheduled *time.Time `json:"last_scheduled,omitempty"`
	NextScheduled *time.Time `json:"next_scheduled,omitempty"`
}

// Health reports liveness plus a store round trip.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := HealthStatus{
		Status:        "healthy",
		Driver:        h.store.Driver(),
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	_, err := h.store.GetSetting(r.Context(), models.SettingUserName, nil)
	status.StoreOK = err == nil
	if h.producer != nil {
		status.BackupBusy = h.producer.Busy()
	}
	if h.history != nil {
		status.LastScheduled, status.NextScheduled = h.history.Schedule()
	}

	if !status.StoreOK {
		status.Status = "degraded"
		meta := rw.meta()
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: status, Meta: meta})
		return
	}
	rw.Success(status)
}

// ListBackups lists backup history, newest first.
// GET /backups?scope=monthly|full&limit=N
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.history == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "backup history is not enabled")
		return
	}

	filter, err := parseHistoryFilter(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	entries := h.history.List(filter)
	rw.Success(map[string]interface{}{
		"backups": entries,
		"count":   len(entries),
	})
}

// GetBackup returns one history entry.
// GET /backups/{id}
func (h *Handler) GetBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.history == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "backup history is not enabled")
		return
	}

	entry, err := h.history.Get(chi.URLParam(r, "id"))
	if errors.Is(err, backup.ErrHistoryNotFound) {
		rw.NotFound("backup not found")
		return
	}
	if err != nil {
		rw.InternalError(err)
		return
	}
	rw.Success(entry)
}

// CreateBackupRequest selects the scope of an on-demand backup.
// Year and month both zero means a full backup.
type CreateBackupRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Scope converts the request to a backup scope.
func (req CreateBackupRequest) Scope() backup.Scope {
	if req.Year == 0 && req.Month == 0 {
		return backup.Full()
	}
	return backup.Monthly(req.Year, req.Month)
}

// CreateBackup produces a backup now.
// POST /backups
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.producer == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "backups are not enabled")
		return
	}

	var req CreateBackupRequest
	if r.ContentLength != 0 {
		body := http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			rw.BadRequest("request body must be {\"year\": Y, \"month\": M} or empty")
			return
		}
	}

	artifact, err := h.producer.Produce(r.Context(), req.Scope())
	switch {
	case err == nil:
		rw.Created(artifact)
	case errors.Is(err, backup.ErrInvalidScope):
		rw.BadRequest(err.Error())
	case errors.Is(err, backup.ErrEmptySelection):
		rw.Error(http.StatusUnprocessableEntity, ErrCodeEmptySelection, err.Error())
	case errors.Is(err, backup.ErrBusy):
		rw.Conflict(err.Error())
	case errors.Is(err, backup.ErrSinkUnavailable):
		rw.ServiceUnavailable(ErrCodeSinkUnavailable, "no backup destination accepted the artifact")
	default:
		rw.InternalError(err)
	}
}

func parseHistoryFilter(r *http.Request) (backup.HistoryFilter, error) {
	var filter backup.HistoryFilter
	q := r.URL.Query()

	switch scope := q.Get("scope"); scope {
	case "":
	case string(backup.ScopeFull), string(backup.ScopeMonthly):
		filter.Kind = backup.ScopeKind(scope)
	default:
		return filter, errors.New("scope must be full or monthly")
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
