// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	okColor    = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
	infoColor  = color.New(color.FgCyan)
	labelColor = color.New(color.FgMagenta)
)

func (a *App) success(format string, args ...any) {
	okColor.Fprint(a.out, "✓ ")
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) warn(format string, args ...any) {
	warnColor.Fprintf(a.out, "! "+format+"\n", args...)
}

func (a *App) info(format string, args ...any) {
	infoColor.Fprintf(a.out, format+"\n", args...)
}

func (a *App) field(label string, value any) {
	labelColor.Fprintf(a.out, "%-18s", label)
	fmt.Fprintf(a.out, " %v\n", value)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
