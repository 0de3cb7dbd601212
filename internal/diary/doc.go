// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
Package diary implements the editor rules and the profile settings on top of
the record store.

Editor Rules (Service.Save):
  - Dates are saved as instants with millisecond precision; a bare date is midnight UTC
  - The year is derived from the date
  - At most 9 images are kept
  - Tags are trimmed, empty tags dropped, duplicates removed in order
  - An empty location is saved as 場所未設定
  - The mood defaults to 🥰

Profile:
LoadProfile reads user_name, user_avatar, sqlite_path, default_bg_value and
bg_is_image with their defaults. A full restore calls it to refresh the
in-memory profile.
*/
package diary
