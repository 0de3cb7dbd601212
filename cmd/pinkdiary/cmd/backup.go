// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/AiChengYin/pinkdiary/internal/backup"
	"github.com/AiChengYin/pinkdiary/internal/logging"
)

func newBackupCommand(a *App) *cobra.Command {
	var (
		year, month   int
		previousMonth bool
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup",
		Long: `Create a backup artifact.

Without flags every entry and every setting is backed up. With --year and
--month only the entries of that calendar month are included; a month
without entries produces nothing.`,
		Example: `  pinkdiary backup
  pinkdiary backup --year 2024 --month 3
  pinkdiary backup --previous-month`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scope := backup.Full()
			switch {
			case previousMonth:
				scope = backup.PreviousMonth(time.Now())
			case cmd.Flags().Changed("year") || cmd.Flags().Changed("month"):
				scope = backup.Monthly(year, month)
			}
			return a.runBackup(cmd, scope)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year of a monthly backup (2000-2100)")
	cmd.Flags().IntVar(&month, "month", 0, "month of a monthly backup (1-12)")
	cmd.Flags().BoolVar(&previousMonth, "previous-month", false, "back up the previous calendar month")
	cmd.MarkFlagsRequiredTogether("year", "month")
	cmd.MarkFlagsMutuallyExclusive("previous-month", "year")

	return cmd
}

func (a *App) runBackup(cmd *cobra.Command, scope backup.Scope) error {
	artifact, err := a.producer().Produce(cmd.Context(), scope)
	switch {
	case errors.Is(err, backup.ErrEmptySelection):
		a.info("Nothing to back up for %s.", scope)
		return nil
	case errors.Is(err, backup.ErrBusy):
		logging.Debug().Msg("Backup skipped, another backup or restore is running")
		return nil
	case err != nil:
		return err
	}

	if a.json {
		return a.printJSON(artifact)
	}
	for _, w := range artifact.Warnings {
		a.warn("%s", w)
	}
	a.success("Backup created: %s", artifact.Location)
	a.field("Scope", artifact.Scope)
	a.field("Entries", artifact.Records)
	if artifact.Scope.Kind == backup.ScopeFull {
		a.field("Settings", artifact.Settings)
	}
	a.field("Size", humanSize(artifact.Size))
	a.field("Destination", artifact.Sink)
	return nil
}
