// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()

	if len(id1) != 8 {
		t.Errorf("expected 8-character correlation ID, got %d", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique correlation IDs")
	}
}

func TestCorrelationIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if id := CorrelationIDFromContext(ctx); id != "" {
		t.Errorf("expected empty correlation ID, got %s", id)
	}

	ctx = ContextWithCorrelationID(ctx, "abcd1234")
	if id := CorrelationIDFromContext(ctx); id != "abcd1234" {
		t.Errorf("expected 'abcd1234', got %s", id)
	}
}

func TestContextWithNewCorrelationID_KeepsExisting(t *testing.T) {
	t.Parallel()

	ctx := ContextWithCorrelationID(context.Background(), "keepme01")
	ctx = ContextWithNewCorrelationID(ctx)

	if id := CorrelationIDFromContext(ctx); id != "keepme01" {
		t.Errorf("existing correlation ID replaced, got %s", id)
	}

	fresh := ContextWithNewCorrelationID(context.Background())
	if CorrelationIDFromContext(fresh) == "" {
		t.Error("expected a generated correlation ID")
	}
}

func TestCtx_AddsCorrelationID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "corr0001")

	Ctx(ctx).Info().Msg("restore applied")

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"corr0001"`) {
		t.Errorf("expected correlation_id in output, got: %s", out)
	}
	if !strings.Contains(out, "restore applied") {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestLoggerFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	logger := LoggerFromContext(context.Background())
	if g := global(); logger.GetLevel() != g.GetLevel() {
		t.Error("expected global logger when context carries none")
	}
}

func TestCtxErr_UsesContextLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf).With().Str("component", "restore").Logger())
	ctx = ContextWithCorrelationID(ctx, "corr0002")

	CtxErr(ctx, errors.New("disk full")).Msg("Restore failed")

	out := buf.String()
	for _, want := range []string{`"level":"error"`, `"error":"disk full"`, `"component":"restore"`, `"correlation_id":"corr0002"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got: %s", want, out)
		}
	}
}

// WithComponent reads the global logger, so this test does not run in parallel.
func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	logger := WithComponent("backup-scheduler")
	logger.Info().Msg("tick")

	if !strings.Contains(buf.String(), `"component":"backup-scheduler"`) {
		t.Errorf("expected component field, got: %s", buf.String())
	}
}

