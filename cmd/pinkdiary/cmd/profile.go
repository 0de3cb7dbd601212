// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/AiChengYin/pinkdiary/internal/diary"
	"github.com/AiChengYin/pinkdiary/internal/models"
)

func newProfileCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change profile settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := diary.LoadProfile(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(p)
			}
			a.field(models.SettingUserName, p.UserName)
			a.field(models.SettingUserAvatar, p.UserAvatar)
			a.field(models.SettingSQLitePath, p.SQLitePath)
			a.field(models.SettingBackgroundValue, p.BackgroundValue)
			a.field(models.SettingBackgroundImage, p.BackgroundImage)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one profile setting",
		Long:  "Change one profile setting. KEY is one of: " + strings.Join(models.ProfileKeys, ", "),
		Example: `  pinkdiary profile set user_name Sakura
  pinkdiary profile set bg_is_image true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := diary.SetProfileField(cmd.Context(), a.store, args[0], args[1]); err != nil {
				return err
			}
			a.success("%s updated", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
