// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/AiChengYin/pinkdiary/internal/backup"
	"github.com/AiChengYin/pinkdiary/internal/config"
	"github.com/AiChengYin/pinkdiary/internal/diary"
	"github.com/AiChengYin/pinkdiary/internal/logging"
	"github.com/AiChengYin/pinkdiary/internal/models"
	"github.com/AiChengYin/pinkdiary/internal/sink"
	"github.com/AiChengYin/pinkdiary/internal/store"
)

// App holds what the commands share: configuration, the open store, and the
// backup pipeline built from them.
type App struct {
	cfg   *config.Config
	store store.Store

	history *backup.History
	guard   *backup.Guard
	dirSink *sink.DirSink
	object  *sink.ObjectSink
	chain   *sink.Chain

	out  io.Writer
	in   io.Reader
	json bool
}

// open connects the store and builds the sink chain. Object storage that
// fails to initialise is logged and left out of the chain.
func (a *App) open(ctx context.Context) error {
	st, err := store.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open %s store: %w", a.cfg.Database.Driver, err)
	}
	a.store = st

	history, err := backup.OpenHistory(a.cfg.Backup.HistoryPath)
	if err != nil {
		return err
	}
	a.history = history
	a.guard = backup.NewGuard(a.cfg.Backup.LockPath)

	a.dirSink = sink.NewDirSink(a.cfg.Backup.Dir)
	sinks := []sink.Sink{a.dirSink}
	if a.cfg.ObjectStore.Enabled {
		obj, err := sink.NewObjectSink(a.cfg.ObjectSettings())
		if err != nil {
			logging.Warn().Err(err).Msg("Object storage disabled")
		} else {
			a.object = obj
			sinks = append(sinks, obj)
		}
	}
	sinks = append(sinks, sink.NewDownloadSink(a.cfg.Backup.DownloadDir))
	a.chain = sink.NewChain(sinks...)

	logging.Debug().
		Str("driver", st.Driver()).
		Str("db_path", a.cfg.Database.Path).
		Int("sinks", len(sinks)).
		Msg("Store opened")
	return nil
}

// Close releases the store. Safe to call when setup never ran.
func (a *App) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logging.Err(err).Msg("Error closing store")
	}
	a.store = nil
}

func (a *App) options() []backup.Option {
	return []backup.Option{
		backup.WithCodec(a.cfg.Codec()),
		backup.WithGuard(a.guard),
		backup.WithHistory(a.history),
	}
}

func (a *App) producer() *backup.Producer {
	return backup.NewProducer(a.store, a.chain, a.options()...)
}

func (a *App) restorer(confirm backup.Confirmer) *backup.Restorer {
	opts := append(a.options(), backup.WithProfileReloader(a.reloadProfile))
	return backup.NewRestorer(a.store, confirm, opts...)
}

// source resolves restore handles: local paths, plus s3:// when object
// storage is configured.
func (a *App) source() sink.Source {
	r := sink.Resolver{File: sink.FileSource{}}
	if a.object != nil {
		r.Object = a.object
	}
	return r
}

func (a *App) diaries() *diary.Service {
	return diary.NewService(a.store)
}

func (a *App) reloadProfile(ctx context.Context, p models.Profile) error {
	logging.Ctx(ctx).Info().Str("user_name", p.UserName).Msg("Profile reloaded")
	return nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
