// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
Package config provides centralized configuration management for PinkDiary.

Configuration is layered with Koanf v2. Built-in defaults are loaded first,
then an optional YAML file, then PINKDIARY_* environment variables.

# Configuration File

The first existing file wins:
  - $PINKDIARY_CONFIG
  - config.yaml / config.yml in the working directory
  - ~/.config/pinkdiary/config.yaml / config.yml

Example:

	database:
	  driver: sqlite          # sqlite or badger
	  path: ~/Documents/PinkDiary/Data/pinkdiary.db
	backup:
	  dir: ~/Documents/PinkDiary/Backups
	  schedule:
	    enabled: true
	    interval: 24h
	    preferred_hour: 2
	    include_full: true
	  retention:
	    max_count: 24
	object_store:
	  enabled: false
	  endpoint: minio.local:9000
	  bucket: pinkdiary-backups

# Environment Variables

Database:
  - PINKDIARY_DB_DRIVER: sqlite or badger (default: sqlite)
  - PINKDIARY_DB_PATH: database file or badger directory

Backup:
  - PINKDIARY_BACKUP_DIR: primary artifact directory
  - PINKDIARY_DOWNLOAD_DIR: fallback artifact directory
  - PINKDIARY_HISTORY_PATH: history.json location
  - PINKDIARY_LOCK_PATH: cross-process busy lock file
  - PINKDIARY_MAX_DECODED_BYTES: decompression cap (default: 1GiB)
  - PINKDIARY_SCHEDULE_ENABLED, PINKDIARY_SCHEDULE_INTERVAL,
    PINKDIARY_SCHEDULE_PREFERRED_HOUR, PINKDIARY_SCHEDULE_INCLUDE_FULL
  - PINKDIARY_RETENTION_MAX_COUNT: history entries kept (0 keeps all)

Object store:
  - PINKDIARY_OBJECT_STORE_ENABLED, PINKDIARY_OBJECT_STORE_ENDPOINT,
    PINKDIARY_OBJECT_STORE_BUCKET, PINKDIARY_OBJECT_STORE_ACCESS_KEY,
    PINKDIARY_OBJECT_STORE_SECRET_KEY, PINKDIARY_OBJECT_STORE_USE_SSL,
    PINKDIARY_OBJECT_STORE_REGION, PINKDIARY_OBJECT_STORE_PREFIX
  - PINKDIARY_OBJECT_STORE_MAX_FAILURES, PINKDIARY_OBJECT_STORE_OPEN_TIMEOUT

Logging and server:
  - PINKDIARY_LOG_LEVEL, PINKDIARY_LOG_FORMAT, PINKDIARY_LOG_CALLER
  - PINKDIARY_METRICS_ADDR (default: 127.0.0.1:9464)
  - PINKDIARY_SHUTDOWN_TIMEOUT (default: 10s)

# Validation

Validate reports the first invalid setting by its config key, for example
"backup.schedule.preferred_hour must be between 0 and 23, got 24".
*/
package config
