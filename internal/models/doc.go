// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
Package models defines the records PinkDiary stores and backs up.

Key Components:

  - DiaryRecord: one diary entry (date, mood, content, images, tags, location)
  - AppSetting: a key/value setting; any JSON value
  - Profile: the typed view of the profile settings

Date Keys:
DiaryRecord.Date holds an ISO-8601 date-time. Its YYYY-MM-DD prefix, returned
by DateKey, is the key every month and year range compares against. Range
checks compare these strings lexicographically, never parsed times.

JSON:
Field names match the backup container format. Normalize turns nil Images and
Tags into empty slices so they encode as [] rather than null.
*/
package models
