// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/AiChengYin/pinkdiary/internal/backup"
	"github.com/AiChengYin/pinkdiary/internal/sink"
	"github.com/AiChengYin/pinkdiary/internal/store"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used. A leading ~ expands to the home directory.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"~/.config/pinkdiary/config.yaml",
	"~/.config/pinkdiary/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "PINKDIARY_CONFIG"

// DataDir returns the default PinkDiary data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "PinkDiary")
	}
	return filepath.Join(home, "Documents", "PinkDiary")
}

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	data := DataDir()
	return &Config{
		Database: DatabaseConfig{
			Driver: store.DriverSQLite,
			Path:   filepath.Join(data, "Data", "pinkdiary.db"),
		},
		Backup: BackupConfig{
			Dir:             filepath.Join(data, "Backups"),
			DownloadDir:     sink.DefaultDownloadDir(),
			HistoryPath:     filepath.Join(data, "Backups", "history.json"),
			LockPath:        filepath.Join(data, "pinkdiary.lock"),
			MaxDecodedBytes: backup.DefaultMaxDecodedBytes,
			Schedule: ScheduleConfig{
				Enabled:       false,
				Interval:      24 * time.Hour,
				PreferredHour: 2,
				IncludeFull:   false,
			},
			Retention: RetentionConfig{
				MaxCount: 24,
			},
		},
		ObjectStore: ObjectStoreConfig{
			Enabled: false,
			UseSSL:  true,
			Bucket:  "pinkdiary-backups",
			Breaker: BreakerConfig{
				MaxFailures: 3,
				OpenTimeout: time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
		Server: ServerConfig{
			MetricsAddr:     "127.0.0.1:9464",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile loads configuration from an explicit YAML path instead of searching.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// PINKDIARY_DB_PATH -> database.path
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(expandHome(envPath)); err == nil {
			return expandHome(envPath)
		}
	}

	for _, path := range DefaultConfigPaths {
		path = expandHome(path)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func (c *Config) expandPaths() {
	for _, p := range []*string{
		&c.Database.Path,
		&c.Backup.Dir,
		&c.Backup.DownloadDir,
		&c.Backup.HistoryPath,
		&c.Backup.LockPath,
	} {
		*p = expandHome(*p)
	}
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	"pinkdiary_db_driver": "database.driver",
	"pinkdiary_db_path":   "database.path",

	"pinkdiary_backup_dir":              "backup.dir",
	"pinkdiary_download_dir":            "backup.download_dir",
	"pinkdiary_history_path":            "backup.history_path",
	"pinkdiary_lock_path":               "backup.lock_path",
	"pinkdiary_max_decoded_bytes":       "backup.max_decoded_bytes",
	"pinkdiary_schedule_enabled":        "backup.schedule.enabled",
	"pinkdiary_schedule_interval":       "backup.schedule.interval",
	"pinkdiary_schedule_preferred_hour": "backup.schedule.preferred_hour",
	"pinkdiary_schedule_include_full":   "backup.schedule.include_full",
	"pinkdiary_retention_max_count":     "backup.retention.max_count",

	"pinkdiary_object_store_enabled":      "object_store.enabled",
	"pinkdiary_object_store_endpoint":     "object_store.endpoint",
	"pinkdiary_object_store_access_key":   "object_store.access_key",
	"pinkdiary_object_store_secret_key":   "object_store.secret_key",
	"pinkdiary_object_store_use_ssl":      "object_store.use_ssl",
	"pinkdiary_object_store_bucket":       "object_store.bucket",
	"pinkdiary_object_store_region":       "object_store.region",
	"pinkdiary_object_store_prefix":       "object_store.prefix",
	"pinkdiary_object_store_max_failures": "object_store.breaker.max_failures",
	"pinkdiary_object_store_open_timeout": "object_store.breaker.open_timeout",

	"pinkdiary_log_level":  "logging.level",
	"pinkdiary_log_format": "logging.format",
	"pinkdiary_log_caller": "logging.caller",

	"pinkdiary_metrics_addr":     "server.metrics_addr",
	"pinkdiary_shutdown_timeout": "server.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PINKDIARY_DB_PATH -> database.path
//   - PINKDIARY_SCHEDULE_INTERVAL -> backup.schedule.interval
//   - PINKDIARY_LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	return ""
}
