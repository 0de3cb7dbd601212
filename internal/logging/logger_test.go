// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected default format 'console', got '%s'", cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

// Init mutates the global logger, so these tests do not run in parallel.
func TestInit(t *testing.T) {
	var buf bytes.Buffer
	defer Init(DefaultConfig())

	Init(Config{
		Level:     "debug",
		Format:    "json",
		Timestamp: true,
		Output:    &buf,
	})

	Info().Str("artifact", "PinkDiary_Backup_2024-03.pdbak").Msg("backup written")

	output := buf.String()
	if !strings.Contains(output, "backup written") {
		t.Errorf("expected output to contain message, got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected output to contain level, got: %s", output)
	}
	if !strings.Contains(output, `"artifact":"PinkDiary_Backup_2024-03.pdbak"`) {
		t.Errorf("expected output to contain artifact field, got: %s", output)
	}
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	defer Init(DefaultConfig())

	Init(Config{Level: "warn", Format: "json", Output: &buf})

	Info().Msg("hidden")
	Warn().Msg("shown")
	Err(errors.New("boom")).Msg("failed")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info message should be filtered at warn level: %s", output)
	}
	if !strings.Contains(output, "shown") || !strings.Contains(output, `"error":"boom"`) {
		t.Errorf("expected warn and error messages, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"debug", "INFO", "warning", "disabled"} {
		if !ValidLevel(ok) {
			t.Errorf("ValidLevel(%q) = false, want true", ok)
		}
	}
	for _, bad := range []string{"", "verbose", "information"} {
		if ValidLevel(bad) {
			t.Errorf("ValidLevel(%q) = true, want false", bad)
		}
	}
}

func TestNewTestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Info().Msg("captured")

	if !strings.Contains(buf.String(), "captured") {
		t.Errorf("expected captured output, got: %s", buf.String())
	}
}
