// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/AiChengYin/pinkdiary/internal/backup"
	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateBackup(); err != nil {
		return err
	}

	if err := c.validateObjectStore(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if err := validation.ValidateStruct(&c.Database); err != nil {
		return fmt.Errorf("database.driver must be sqlite or badger, got %q", c.Database.Driver)
	}
	if c.Database.Path == "" && c.Database.Driver == "sqlite" {
		return fmt.Errorf("database.path is required for the sqlite driver")
	}
	return nil
}

func (c *Config) validateBackup() error {
	if strings.TrimSpace(c.Backup.Dir) == "" {
		return fmt.Errorf("backup.dir is required")
	}
	if c.Backup.MaxDecodedBytes < 0 {
		return fmt.Errorf("backup.max_decoded_bytes must not be negative, got %d", c.Backup.MaxDecodedBytes)
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if c.Backup.Retention.MaxCount < 0 {
		return fmt.Errorf("backup.retention.max_count must not be negative, got %d", c.Backup.Retention.MaxCount)
	}
	return nil
}

func (c *Config) validateSchedule() error {
	s := c.Backup.Schedule
	if s.PreferredHour < 0 || s.PreferredHour > 23 {
		return fmt.Errorf("backup.schedule.preferred_hour must be between 0 and 23, got %d", s.PreferredHour)
	}
	if !s.Enabled {
		return nil
	}
	if s.Interval < backup.MinScheduleSpacing {
		return fmt.Errorf("backup.schedule.interval must be at least %s, got %s", backup.MinScheduleSpacing, s.Interval)
	}
	return nil
}

func (c *Config) validateObjectStore() error {
	o := c.ObjectStore
	if !o.Enabled {
		return nil
	}
	if o.Endpoint == "" {
		return fmt.Errorf("object_store.endpoint is required when object_store.enabled=true")
	}
	if strings.Contains(o.Endpoint, "://") {
		return fmt.Errorf("object_store.endpoint must be host[:port] without a scheme, got %q", o.Endpoint)
	}
	if o.Bucket == "" {
		return fmt.Errorf("object_store.bucket is required when object_store.enabled=true")
	}
	if o.Breaker.OpenTimeout < 0 {
		return fmt.Errorf("object_store.breaker.open_timeout must not be negative, got %s", o.Breaker.OpenTimeout)
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.MetricsAddr); err != nil {
		return fmt.Errorf("server.metrics_addr must be host:port, got %q", c.Server.MetricsAddr)
	}
	if c.Server.ShutdownTimeout < 0 || c.Server.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("server.shutdown_timeout must be between 0 and 5m, got %s", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if err := validation.ValidateStruct(&c.Logging); err != nil {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
