// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package config

import (
	"time"

	"github.com/AiChengYin/pinkdiary/internal/backup"
	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/sink"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values rooted at the user's PinkDiary data directory
//  2. Config File: optional YAML file (config.yaml or $PINKDIARY_CONFIG)
//  3. Environment Variables: PINKDIARY_* overrides
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	Backup      BackupConfig      `koanf:"backup"`
	ObjectStore ObjectStoreConfig `koanf:"object_store"`
	Logging     LoggingConfig     `koanf:"logging"`
	Server      ServerConfig      `koanf:"server"`
}

// DatabaseConfig selects the record store.
type DatabaseConfig struct {
	// Driver is sqlite or badger.
	Driver string `koanf:"driver" validate:"oneof=sqlite badger"`

	// Path is the sqlite database file or the badger directory.
	Path string `koanf:"path"`
}

// BackupConfig holds artifact, history and scheduling settings.
type BackupConfig struct {
	// Dir is the primary sink directory.
	Dir string `koanf:"dir"`

	// DownloadDir is the fallback sink directory. Empty disables the fallback.
	DownloadDir string `koanf:"download_dir"`

	// HistoryPath is the history.json file. Empty keeps history in memory.
	HistoryPath string `koanf:"history_path"`

	// LockPath is the cross-process busy lock. Empty guards in-process only.
	LockPath string `koanf:"lock_path"`

	// MaxDecodedBytes caps decompressed artifacts.
	MaxDecodedBytes int64 `koanf:"max_decoded_bytes" validate:"gte=0"`

	Schedule  ScheduleConfig  `koanf:"schedule"`
	Retention RetentionConfig `koanf:"retention"`
}

// ScheduleConfig controls the backup scheduler run by serve.
type ScheduleConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Interval      time.Duration `koanf:"interval"`
	PreferredHour int           `koanf:"preferred_hour" validate:"gte=0,lte=23"`
	IncludeFull   bool          `koanf:"include_full"`
}

// RetentionConfig bounds the number of remembered artifacts.
type RetentionConfig struct {
	// MaxCount is the number of history entries kept. Zero keeps everything.
	MaxCount int `koanf:"max_count" validate:"gte=0"`
}

// ObjectStoreConfig configures the optional S3-compatible sink.
type ObjectStoreConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Endpoint  string        `koanf:"endpoint"`
	AccessKey string        `koanf:"access_key"`
	SecretKey string        `koanf:"secret_key"`
	UseSSL    bool          `koanf:"use_ssl"`
	Bucket    string        `koanf:"bucket"`
	Region    string        `koanf:"region"`
	Prefix    string        `koanf:"prefix"`
	Breaker   BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the object sink.
type BreakerConfig struct {
	MaxFailures uint32        `koanf:"max_failures"`
	OpenTimeout time.Duration `koanf:"open_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: console
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// ServerConfig holds the serve command's HTTP settings.
type ServerConfig struct {
	// MetricsAddr is the listen address for /metrics, /healthz and /backups.
	MetricsAddr string `koanf:"metrics_addr" validate:"required"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingSettings converts to the logging package configuration.
func (c *Config) LoggingSettings() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}

// Codec returns the artifact codec for the configured size cap.
func (c *Config) Codec() *backup.Codec {
	return &backup.Codec{MaxDecodedBytes: c.Backup.MaxDecodedBytes}
}

// ScheduleSettings converts to the scheduler configuration.
func (c *Config) ScheduleSettings() backup.ScheduleConfig {
	return backup.ScheduleConfig{
		Interval:          c.Backup.Schedule.Interval,
		PreferredHour:     c.Backup.Schedule.PreferredHour,
		IncludeFull:       c.Backup.Schedule.IncludeFull,
		RetentionMaxCount: c.Backup.Retention.MaxCount,
	}
}

// ObjectSettings converts to the object sink configuration.
func (c *Config) ObjectSettings() sink.ObjectConfig {
	o := c.ObjectStore
	return sink.ObjectConfig{
		Endpoint:    o.Endpoint,
		AccessKey:   o.AccessKey,
		SecretKey:   o.SecretKey,
		UseSSL:      o.UseSSL,
		Bucket:      o.Bucket,
		Region:      o.Region,
		Prefix:      o.Prefix,
		MaxFailures: o.Breaker.MaxFailures,
		OpenTimeout: o.Breaker.OpenTimeout,
	}
}
