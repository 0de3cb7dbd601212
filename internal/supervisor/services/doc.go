// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

/*
Package services provides suture.Service wrappers for PinkDiary components
that do not already have a Serve(ctx) method.

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the ListenAndServe pattern to Serve

Store Maintenance (StoreMaintenanceService):
  - Runs badger value-log GC on a fixed interval
  - Logs failures and keeps running

The backup scheduler implements suture.Service itself and is added to the
tree directly.
*/
package services
