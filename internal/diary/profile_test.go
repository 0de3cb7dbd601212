// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package diary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AiChengYin/pinkdiary/internal/models"
	"github.com/AiChengYin/pinkdiary/internal/store"
)

func TestLoadProfile_Defaults(t *testing.T) {
	_, st := newTestService(t)

	p, err := LoadProfile(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProfile(), p)
}

func TestSaveAndLoadProfile(t *testing.T) {
	for _, driver := range []string{store.DriverSQLite, store.DriverBadger} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			path := ":memory:"
			if driver == store.DriverBadger {
				path = ""
			}
			st, err := store.Open(ctx, driver, path)
			require.NoError(t, err)
			t.Cleanup(func() { st.Close() })

			want := models.Profile{
				UserName:        "はな",
				UserAvatar:      "🐰",
				SQLitePath:      "/data/diary/",
				BackgroundValue: "linear-gradient(#fff, #fce)",
				BackgroundImage: true,
			}
			require.NoError(t, SaveProfile(ctx, st, want))

			got, err := LoadProfile(ctx, st)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadProfile_LegacyValueTypes(t *testing.T) {
	_, st := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.SetSetting(ctx, models.SettingBackgroundImage, "true"))
	require.NoError(t, st.SetSetting(ctx, models.SettingUserName, 42))

	p, err := LoadProfile(ctx, st)
	require.NoError(t, err)
	assert.True(t, p.BackgroundImage)
	assert.Equal(t, "42", p.UserName)
}

func TestSetProfileField(t *testing.T) {
	_, st := newTestService(t)
	ctx := context.Background()

	require.NoError(t, SetProfileField(ctx, st, models.SettingUserAvatar, "🦊"))
	require.NoError(t, SetProfileField(ctx, st, models.SettingBackgroundImage, "true"))
	assert.Error(t, SetProfileField(ctx, st, models.SettingBackgroundImage, "maybe"))
	assert.Error(t, SetProfileField(ctx, st, "theme", "dark"))

	p, err := LoadProfile(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, "🦊", p.UserAvatar)
	assert.True(t, p.BackgroundImage)
}
