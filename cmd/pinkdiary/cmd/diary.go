// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AiChengYin/pinkdiary/internal/diary"
	"github.com/AiChengYin/pinkdiary/internal/models"
)

func newDiaryCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diary",
		Short: "Write and browse diary entries",
	}
	cmd.AddCommand(
		newDiaryAddCommand(a),
		newDiaryListCommand(a),
		newDiaryDeleteCommand(a),
		newDiarySearchCommand(a),
		newDiaryYearsCommand(a),
	)
	return cmd
}

func newDiaryAddCommand(a *App) *cobra.Command {
	var (
		id       int64
		date     string
		mood     string
		location string
		tags     []string
		images   []string
	)

	cmd := &cobra.Command{
		Use:   "add CONTENT",
		Short: "Add or update an entry",
		Long: `Add a diary entry, or replace entry --id when given.

--date accepts YYYY-MM-DD, YYYY-MM-DDTHH:MM, or an RFC 3339 time and
defaults to now. Up to 9 images are kept.`,
		Example: `  pinkdiary diary add "Cherry blossoms by the river" --tag spring --tag walk
  pinkdiary diary add "Rainy day" --date 2024-03-02 --mood 😢`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := &models.DiaryRecord{
				ID:       id,
				Date:     date,
				Content:  args[0],
				Mood:     models.Mood(mood),
				Tags:     tags,
				Images:   images,
				Location: location,
			}
			newID, err := a.diaries().Save(cmd.Context(), rec)
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(rec)
			}
			a.success("Saved entry %d for %s", newID, rec.DateKey())
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "replace the entry with this id")
	cmd.Flags().StringVar(&date, "date", "", "entry date (default now)")
	cmd.Flags().StringVar(&mood, "mood", "", fmt.Sprintf("mood, one of %s (default %s)", moodList(), models.MoodExcited))
	cmd.Flags().StringVar(&location, "location", "", "where it happened")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringArrayVar(&images, "image", nil, "image reference, path or data URI (repeatable)")

	return cmd
}

func newDiaryListCommand(a *App) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the entries of a year, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if year == 0 {
				year = time.Now().Year()
			}
			entries, err := a.diaries().ListByYear(cmd.Context(), year)
			if err != nil {
				return err
			}
			return a.printEntries(entries)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year to list (default current year)")
	return cmd
}

func newDiaryDeleteCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			if err := a.diaries().Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.success("Deleted entry %d", id)
			return nil
		},
	}
}

func newDiarySearchCommand(a *App) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find entries by content or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				entries []models.DiaryRecord
				err     error
			)
			if year != 0 {
				entries, err = a.diaries().ListByYear(cmd.Context(), year)
			} else {
				entries, err = a.store.AllDiaries(cmd.Context())
			}
			if err != nil {
				return err
			}
			return a.printEntries(diary.Search(entries, args[0]))
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "limit the search to one year")
	return cmd
}

func newDiaryYearsCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List the years that have entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			years, err := a.diaries().Years(cmd.Context())
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(years)
			}
			for _, y := range years {
				fmt.Fprintln(a.out, y)
			}
			return nil
		},
	}
}

func (a *App) printEntries(entries []models.DiaryRecord) error {
	if a.json {
		return a.printJSON(entries)
	}
	if len(entries) == 0 {
		a.info("No entries found.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tMOOD\tLOCATION\tTAGS\tCONTENT")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.DateKey(),
			e.Mood,
			truncate(e.Location, 16),
			strings.Join(e.Tags, ","),
			truncate(strings.ReplaceAll(e.Content, "\n", " "), 40),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%d entries\n", len(entries))
	return nil
}

func moodList() string {
	moods := make([]string, len(models.Moods))
	for i, m := range models.Moods {
		moods[i] = string(m)
	}
	return strings.Join(moods, " ")
}
