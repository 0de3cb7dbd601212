// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

// Package validation provides struct validation using go-playground/validator v10.
//
// The package keeps one thread-safe validator instance (struct metadata is
// cached after first use) with two custom tags for diary data:
//
//	isodate  the field starts with a YYYY-MM-DD date
//	mood     the field is one of the mood markers in models.Moods
//
// Example:
//
//	if err := validation.ValidateStruct(&record); err != nil {
//	    return fmt.Errorf("invalid diary entry: %w", err)
//	}
package validation
