// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package models

import (
	"strings"
	"time"
)

// Mood is one of the fixed mood markers an entry can carry.
type Mood string

const (
	MoodExcited Mood = "🥰"
	MoodHappy   Mood = "😊"
	MoodNormal  Mood = "😐"
	MoodSad     Mood = "😢"
	MoodAngry   Mood = "😡"
)

// Moods lists every mood marker in display order.
var Moods = []Mood{MoodExcited, MoodHappy, MoodNormal, MoodSad, MoodAngry}

// IsValid reports whether m is a known mood marker.
func (m Mood) IsValid() bool {
	for _, known := range Moods {
		if m == known {
			return true
		}
	}
	return false
}

// MaxImages is the maximum number of embedded images per entry.
const MaxImages = 9

// DateKeyLayout is the layout of the sortable date key (the YYYY-MM-DD prefix of Date).
const DateKeyLayout = "2006-01-02"

// DiaryRecord is a single diary entry.
//
// ID is zero until the store assigns one on first insert. Date holds an
// ISO-8601 date-time string and its YYYY-MM-DD prefix is the range query key.
type DiaryRecord struct {
	ID       int64    `json:"id,omitempty" db:"id"`
	Date     string   `json:"date" db:"date" validate:"required,isodate"`
	Year     int      `json:"year" db:"year" validate:"gte=1"`
	Content  string   `json:"content" db:"content"`
	Mood     Mood     `json:"mood" db:"mood" validate:"mood"`
	Images   []string `json:"images" db:"-" validate:"max=9"`
	Tags     []string `json:"tags" db:"-" validate:"dive,required"`
	Location string   `json:"location,omitempty" db:"location"`
}

// HasID reports whether the record has been persisted.
func (d *DiaryRecord) HasID() bool {
	return d.ID > 0
}

// DateKey returns the YYYY-MM-DD prefix of Date.
// Dates shorter than ten characters are returned unchanged.
func (d *DiaryRecord) DateKey() string {
	return DateKey(d.Date)
}

// DateKey returns the YYYY-MM-DD prefix of an ISO-8601 date or date-time string.
func DateKey(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < len(DateKeyLayout) {
		return date
	}
	return date[:len(DateKeyLayout)]
}

// ParseDate parses the date component of an ISO-8601 string.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateKeyLayout, DateKey(date))
}

// Normalize replaces nil slices with empty ones so the record encodes as
// `[]` rather than `null`.
func (d *DiaryRecord) Normalize() {
	if d.Images == nil {
		d.Images = []string{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
}
