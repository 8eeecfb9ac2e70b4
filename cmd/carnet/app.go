package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"carnet/internal/config"
	"carnet/internal/media"
	"carnet/internal/notes"
	"carnet/internal/record"
	"carnet/internal/storage"
	"carnet/internal/tasks"
)

// kvStore is what both storage backends offer.
type kvStore interface {
	record.KV
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// app carries the state shared by every command of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg   config.Config
	log   *log.Logger
	kv    kvStore
	media *media.Dir
	tasks *tasks.Store
	notes *notes.Store

	closers []io.Closer
}

func openKV(cfg config.Config) (kvStore, error) {
	switch cfg.Backend {
	case config.BackendDir:
		return storage.OpenDir(cfg.DataDir)
	case config.BackendSQLite, "":
		return storage.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// open builds the stores once; later calls are no-ops.
func (a *app) open() error {
	if a.kv != nil {
		return nil
	}
	loc, err := notes.LookupLocale(a.cfg.Locale)
	if err != nil {
		return err
	}
	kv, err := openKV(a.cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", a.cfg.Backend, err)
	}
	dir, err := media.Open(a.cfg.MediaDir)
	if err != nil {
		kv.Close()
		return fmt.Errorf("open media dir: %w", err)
	}

	a.kv = kv
	a.media = dir
	a.tasks = tasks.NewStore(kv, tasks.WithLogger(a.log))
	a.notes = notes.NewStore(kv, dir, notes.WithLocale(loc), notes.WithLogger(a.log))
	a.log.Debug("stores ready", "backend", a.cfg.Backend, "media", dir.Root())
	return nil
}

// withStores opens the stores, runs fn and closes everything it opened.
func (a *app) withStores(cmd *cobra.Command, fn func(ctx context.Context) error) (err error) {
	if err := a.open(); err != nil {
		return errors.Join(err, a.close())
	}
	defer func() {
		err = errors.Join(err, a.close())
	}()
	return fn(cmd.Context())
}

func (a *app) close() error {
	var errs []error
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
		a.kv = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
