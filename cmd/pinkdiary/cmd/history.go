// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AiChengYin/pinkdiary/internal/backup"
)

func newHistoryCommand(a *App) *cobra.Command {
	var (
		scope string
		limit int
		prune int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List produced backups",
		Long: `List the backups recorded in the backup history, newest first.

--prune N keeps the newest N entries and deletes the dropped artifacts from
the backup directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := backup.HistoryFilter{Limit: limit}
			switch scope {
			case "", "all":
			case string(backup.ScopeFull), string(backup.ScopeMonthly):
				filter.Kind = backup.ScopeKind(scope)
			default:
				return fmt.Errorf("--scope must be full, monthly or all, got %q", scope)
			}

			if cmd.Flags().Changed("prune") {
				removed, err := a.history.Prune(prune, a.dirSink)
				if err != nil {
					return err
				}
				a.info("Pruned %d history entries.", len(removed))
			}

			entries := a.history.List(filter)
			if a.json {
				return a.printJSON(entries)
			}
			return a.printHistory(entries)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "filter by scope: full, monthly or all")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries (0 for all)")
	cmd.Flags().IntVar(&prune, "prune", 0, "keep only the newest N entries")

	return cmd
}

func (a *App) printHistory(entries []*backup.HistoryEntry) error {
	if len(entries) == 0 {
		a.info("No backups recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSCOPE\tENTRIES\tSIZE\tSINK\tLOCATION")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Scope,
			e.Records,
			humanSize(e.Size),
			e.Sink,
			e.Location,
		)
	}
	return w.Flush()
}
