// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package diary

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AiChengYin/pinkdiary/internal/models"
	"github.com/AiChengYin/pinkdiary/internal/store"
)

// SettingsStore is the subset of store.Store the profile needs.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string, def any) (any, error)
	SetSetting(ctx context.Context, key string, value any) error
}

var _ SettingsStore = (store.Store)(nil)

// LoadProfile reads every profile key, falling back to its default.
func LoadProfile(ctx context.Context, st SettingsStore) (models.Profile, error) {
	p := models.DefaultProfile()

	strs := []struct {
		key string
		dst *string
	}{
		{models.SettingUserName, &p.UserName},
		{models.SettingUserAvatar, &p.UserAvatar},
		{models.SettingSQLitePath, &p.SQLitePath},
		{models.SettingBackgroundValue, &p.BackgroundValue},
	}
	for _, f := range strs {
		v, err := st.GetSetting(ctx, f.key, *f.dst)
		if err != nil {
			return p, fmt.Errorf("load %s: %w", f.key, err)
		}
		*f.dst = asString(v, *f.dst)
	}

	v, err := st.GetSetting(ctx, models.SettingBackgroundImage, p.BackgroundImage)
	if err != nil {
		return p, fmt.Errorf("load %s: %w", models.SettingBackgroundImage, err)
	}
	p.BackgroundImage = asBool(v, p.BackgroundImage)
	return p, nil
}

// SaveProfile writes every profile key.
func SaveProfile(ctx context.Context, st SettingsStore, p models.Profile) error {
	values := []models.AppSetting{
		{Key: models.SettingUserName, Value: p.UserName},
		{Key: models.SettingUserAvatar, Value: p.UserAvatar},
		{Key: models.SettingSQLitePath, Value: p.SQLitePath},
		{Key: models.SettingBackgroundValue, Value: p.BackgroundValue},
		{Key: models.SettingBackgroundImage, Value: p.BackgroundImage},
	}
	for _, s := range values {
		if err := st.SetSetting(ctx, s.Key, s.Value); err != nil {
			return fmt.Errorf("save %s: %w", s.Key, err)
		}
	}
	return nil
}

// SetProfileField updates one profile key from its text form.
func SetProfileField(ctx context.Context, st SettingsStore, key, value string) error {
	switch key {
	case models.SettingUserName, models.SettingUserAvatar, models.SettingSQLitePath, models.SettingBackgroundValue:
		return st.SetSetting(ctx, key, value)
	case models.SettingBackgroundImage:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
		return st.SetSetting(ctx, key, b)
	default:
		return fmt.Errorf("unknown profile key %q", key)
	}
}

func asString(v any, def string) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return def
	default:
		return fmt.Sprint(s)
	}
}

// asBool accepts booleans and their text form; older settings stored "true".
func asBool(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}
