// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package models

// AppSetting is a key/value pair. Value may be any JSON-serializable scalar or object.
type AppSetting struct {
	Key   string `json:"key" db:"key" validate:"required"`
	Value any    `json:"value"`
}

// Profile setting keys read by the presentation layer.
const (
	SettingUserName        = "user_name"
	SettingUserAvatar      = "user_avatar"
	SettingSQLitePath      = "sqlite_path"
	SettingBackgroundValue = "default_bg_value"
	SettingBackgroundImage = "bg_is_image"
)

// ProfileKeys lists the profile setting keys in load order.
var ProfileKeys = []string{
	SettingUserName,
	SettingUserAvatar,
	SettingSQLitePath,
	SettingBackgroundValue,
	SettingBackgroundImage,
}

// Profile is the in-memory view of the profile settings.
type Profile struct {
	UserName        string `json:"user_name"`
	UserAvatar      string `json:"user_avatar"`
	SQLitePath      string `json:"sqlite_path"`
	BackgroundValue string `json:"default_bg_value"`
	BackgroundImage bool   `json:"bg_is_image"`
}

// DefaultProfile returns the profile used when no settings are stored.
func DefaultProfile() Profile {
	return Profile{
		UserName:        "ユーザー様",
		UserAvatar:      "🌸",
		SQLitePath:      "Documents/PinkDiary/Data/",
		BackgroundValue: "#ffffff",
		BackgroundImage: false,
	}
}
