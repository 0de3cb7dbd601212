// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
container.go - Backup Container Format

This file defines the JSON document carried inside an artifact and the single
place where its version/type discriminator is turned into a Scope.

Versions:
  - 1: legacy full snapshot, no type field
  - 2: explicit type; "monthly" with year and month, otherwise full

Classification Rule:
version == 2 && type == "monthly" is Monthly{year, month}. Anything else,
including unknown versions and non-numeric version values, is Full.

Validation:
The document must be a JSON object with a "diaries" array. A monthly container
must carry a year and month inside the accepted scope bounds so the consumer
can re-derive the delete range.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/AiChengYin/pinkdiary/internal/models"
)

// Container versions and type markers.
const (
	ContainerVersion       = 2
	LegacyContainerVersion = 1
	TypeMonthly            = "monthly"
)

// TimestampLayout is the container timestamp layout (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Container is the document inside an artifact.
type Container struct {
	Version   int                  `json:"version"`
	Type      string               `json:"type,omitempty"`
	Year      int                  `json:"year,omitempty"`
	Month     int                  `json:"month,omitempty"`
	Timestamp string               `json:"timestamp"`
	Diaries   []models.DiaryRecord `json:"diaries"`
	Settings  []models.AppSetting  `json:"settings,omitempty"`

	scope Scope
}

// NewContainer builds a version 2 container for scope. Settings are dropped
// for monthly scopes.
func NewContainer(scope Scope, createdAt time.Time, diaries []models.DiaryRecord, settings []models.AppSetting) *Container {
	c := &Container{
		Version:   ContainerVersion,
		Timestamp: createdAt.UTC().Format(TimestampLayout),
		Diaries:   diaries,
		scope:     scope,
	}
	if c.Diaries == nil {
		c.Diaries = []models.DiaryRecord{}
	}
	for i := range c.Diaries {
		c.Diaries[i].Normalize()
	}

	if scope.IsMonthly() {
		c.Type = TypeMonthly
		c.Year = scope.Year
		c.Month = scope.Month
	} else {
		c.Settings = settings
		if c.Settings == nil {
			c.Settings = []models.AppSetting{}
		}
	}
	return c
}

// Scope returns the scope resolved at construction or parse time.
func (c *Container) Scope() Scope {
	if c.scope.Kind == "" {
		return Full()
	}
	return c.scope
}

// CreatedAt parses Timestamp. The zero time is returned when it is absent or
// not RFC 3339.
func (c *Container) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, c.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Summary describes what restoring c would do.
func (c *Container) Summary() Summary {
	s := Summary{
		Scope:     c.Scope(),
		Records:   len(c.Diaries),
		Settings:  len(c.Settings),
		CreatedAt: c.Timestamp,
	}
	if s.Scope.IsMonthly() {
		s.Range[0], s.Range[1] = s.Scope.Bounds()
	}
	return s
}

// Marshal returns the canonical JSON encoding of c.
func (c *Container) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// ParseContainer decodes and validates container JSON and resolves its scope.
// Every failure is a *FormatError.
func ParseContainer(data []byte) (*Container, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &FormatError{Reason: "not a JSON object", Err: err}
	}
	if fields == nil {
		return nil, &FormatError{Reason: "not a JSON object"}
	}

	rawDiaries, ok := fields["diaries"]
	if !ok {
		return nil, &FormatError{Reason: "missing diaries"}
	}
	if !isJSONArray(rawDiaries) {
		return nil, &FormatError{Reason: "diaries is not an array"}
	}

	c := &Container{}
	if err := json.Unmarshal(rawDiaries, &c.Diaries); err != nil {
		return nil, &FormatError{Reason: "malformed diary entry", Err: err}
	}

	if raw, ok := fields["settings"]; ok && !isJSONNull(raw) {
		if !isJSONArray(raw) {
			return nil, &FormatError{Reason: "settings is not an array"}
		}
		if err := json.Unmarshal(raw, &c.Settings); err != nil {
			return nil, &FormatError{Reason: "malformed setting", Err: err}
		}
	}

	// Discriminator fields are read leniently; a wrong type just means Full.
	var version float64
	if raw, ok := fields["version"]; ok && json.Unmarshal(raw, &version) == nil &&
		version == math.Trunc(version) && math.Abs(version) <= math.MaxInt32 {
		c.Version = int(version)
	}
	if raw, ok := fields["type"]; ok {
		_ = json.Unmarshal(raw, &c.Type) //nolint:errcheck // non-string type means full
	}
	if raw, ok := fields["timestamp"]; ok {
		_ = json.Unmarshal(raw, &c.Timestamp) //nolint:errcheck // timestamp is informational
	}

	c.scope = Full()
	if c.Version == ContainerVersion && c.Type == TypeMonthly {
		year, err := intField(fields, "year")
		if err != nil {
			return nil, err
		}
		month, err := intField(fields, "month")
		if err != nil {
			return nil, err
		}
		scope := Monthly(year, month)
		if err := scope.Validate(); err != nil {
			return nil, &FormatError{Reason: "monthly container out of range", Err: err}
		}
		c.Year, c.Month = year, month
		c.scope = scope
	}

	for i := range c.Diaries {
		c.Diaries[i].Normalize()
	}
	return c, nil
}

func intField(fields map[string]json.RawMessage, name string) (int, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, &FormatError{Reason: fmt.Sprintf("monthly container missing %s", name)}
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, &FormatError{Reason: fmt.Sprintf("monthly container %s is not an integer", name), Err: err}
	}
	return n, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
