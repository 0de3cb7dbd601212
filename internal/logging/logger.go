// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error, fatal, panic.
	// Default: info
	Level string

	// Format is the output format: json or console.
	// Default: console (the CLI is interactive)
	Format string

	// Caller includes caller file and line number in logs.
	Caller bool

	// Timestamp enables timestamps in log output.
	// Default: true
	Timestamp bool

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "console",
		Caller:    false,
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

// levels maps accepted level names to zerolog levels.
var levels = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"panic":    zerolog.PanicLevel,
	"disabled": zerolog.Disabled,
}

//nolint:gochecknoinits // commands may log before configuration is loaded
func init() {
	log = build(DefaultConfig())
}

// Init reconfigures the global logger. Each command calls it once the
// configuration is loaded; calling it again replaces the previous setup.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	log = l
	mu.Unlock()
}

func build(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// parseLevel falls back to info for unknown or empty names.
func parseLevel(level string) zerolog.Level {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	_, ok := levels[strings.ToLower(level)]
	return ok
}

// global returns a copy of the current global logger.
func global() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug starts a new message with debug level.
func Debug() *zerolog.Event {
	l := global()
	return l.Debug()
}

// Info starts a new message with info level.
//
//	logging.Info().Str("artifact", name).Msg("Backup written")
func Info() *zerolog.Event {
	l := global()
	return l.Info()
}

// Warn starts a new message with warning level.
func Warn() *zerolog.Event {
	l := global()
	return l.Warn()
}

// Error starts a new message with error level.
func Error() *zerolog.Event {
	l := global()
	return l.Error()
}

// Err starts an error level message carrying err. A nil err logs at info.
//
//	logging.Err(err).Msg("Supervisor tree error")
func Err(err error) *zerolog.Event {
	l := global()
	return l.Err(err)
}

// NewTestLogger creates a logger that writes JSON to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
