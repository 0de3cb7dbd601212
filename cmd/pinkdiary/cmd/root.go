// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/AiChengYin/pinkdiary/internal/config"
	"github.com/AiChengYin/pinkdiary/internal/logging"
)

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configFile string
	logLevel   string
	noColor    bool
	jsonOutput bool
}

// NewRootCommand builds the command tree. The returned app owns the store
// opened by the first command run; call its Close when done.
func NewRootCommand() (*cobra.Command, *App) {
	a := &App{}
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "pinkdiary",
		Short: "PinkDiary - personal diary with monthly backup and restore",
		Long: `PinkDiary keeps a personal diary in a local store and backs it up as
compressed artifacts, either one calendar month at a time or as a full
snapshot of every entry and setting.

Backups go to the backup directory first, then to object storage when
configured, and finally to the Downloads folder. Restore asks for
confirmation before it touches the store.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: ./config.yaml or ~/.config/pinkdiary/config.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newBackupCommand(a),
		newRestoreCommand(a),
		newHistoryCommand(a),
		newDiaryCommand(a),
		newProfileCommand(a),
		newServeCommand(a),
	)

	return root, a
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	root, a := NewRootCommand()
	err := root.ExecuteContext(ctx)
	a.Close()
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func (a *App) setup(cmd *cobra.Command, flags *rootFlags) error {
	if flags.noColor {
		color.NoColor = true
	}
	a.out = cmd.OutOrStdout()
	a.in = cmd.InOrStdin()
	a.json = flags.jsonOutput

	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadFile(flags.configFile)
	} else {
		cfg, err = config.LoadWithKoanf()
	}
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if flags.logLevel != "" {
		if !logging.ValidLevel(flags.logLevel) {
			return fmt.Errorf("invalid --log-level %q", flags.logLevel)
		}
		cfg.Logging.Level = flags.logLevel
	}

	logging.Init(cfg.LoggingSettings())
	a.cfg = cfg

	return a.open(cmd.Context())
}
