// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AiChengYin/pinkdiary/internal/backup"
	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/sink"
)

// User-facing restore failures. Details go to the log.
var (
	errCorruptArtifact = errors.New("backup file is corrupted or wrong format")
	errInvalidArtifact = errors.New("invalid backup file")
	errPartialRestore  = errors.New("restore failed; data may be partially restored")
)

func newRestoreCommand(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Restore a backup",
		Long: `Restore a backup artifact.

FILE is a local path or, when object storage is configured, an
s3://bucket/key handle. A monthly backup replaces the entries of its month
and leaves everything else alone. A full backup replaces every entry and
every setting.

The backup is checked and summarised before anything changes; answer y to
apply it.`,
		Example: `  pinkdiary restore ~/Documents/PinkDiary/Backups/PinkDiary_Backup_2024-03.pdbak
  pinkdiary restore --yes s3://pinkdiary-backups/PinkDiary_Backup_Full.pdbak`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm := a.promptConfirm
			if yes {
				confirm = backup.AutoConfirm
			}
			return a.runRestore(cmd.Context(), args[0], confirm)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "restore without asking")
	return cmd
}

func (a *App) runRestore(ctx context.Context, handle string, confirm backup.Confirmer) error {
	result, err := a.restorer(confirm).RestoreFrom(ctx, a.source(), handle)
	if err != nil {
		return a.restoreError(handle, err)
	}

	if a.json {
		return a.printJSON(result)
	}
	a.success("Restored %d entries (%s)", result.Restored, result.Scope)
	if result.Deleted > 0 {
		a.field("Replaced", result.Deleted)
	}
	if result.Scope.Kind == backup.ScopeFull {
		a.field("Settings", result.SettingsRestored)
		if result.Profile != nil {
			a.field("Profile", result.Profile.UserAvatar+" "+result.Profile.UserName)
		}
	}
	return nil
}

// restoreError maps restore failures to the messages shown to the user.
func (a *App) restoreError(handle string, err error) error {
	var (
		codecErr    *backup.CodecError
		mutationErr *backup.StoreMutationError
	)
	switch {
	case errors.Is(err, backup.ErrCancelled):
		a.info("Restore cancelled. Nothing was changed.")
		return nil
	case errors.Is(err, backup.ErrBusy):
		logging.Debug().Msg("Restore skipped, another backup or restore is running")
		return nil
	case errors.Is(err, sink.ErrNotFound):
		return fmt.Errorf("backup file not found: %s", handle)
	case errors.As(err, &codecErr):
		logging.Warn().Err(err).Str("handle", handle).Msg("Backup could not be decoded")
		return errCorruptArtifact
	case errors.Is(err, backup.ErrInvalidFormat):
		logging.Warn().Err(err).Str("handle", handle).Msg("Backup rejected")
		return errInvalidArtifact
	case errors.As(err, &mutationErr):
		return errPartialRestore
	default:
		return err
	}
}

// promptConfirm shows the restore summary and reads y/N from the input.
func (a *App) promptConfirm(_ context.Context, s backup.Summary) (bool, error) {
	warnColor.Fprintln(a.out, "About to restore:")
	a.field("Scope", s.Scope)
	if s.CreatedAt != "" {
		a.field("Created", s.CreatedAt)
	}
	a.field("Entries", s.Records)
	if s.Scope.IsMonthly() {
		a.field("Replaces", fmt.Sprintf("every entry from %s to %s", s.Range[0], s.Range[1]))
	} else {
		a.field("Settings", s.Settings)
		a.field("Replaces", "every entry and every setting")
	}
	fmt.Fprint(a.out, "Continue? [y/N] ")

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
