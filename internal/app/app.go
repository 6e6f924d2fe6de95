// Package app assembles the stores, storage and sync coordinator for one
// running client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/backup"
	"github.com/alexanderramin/boardsync/internal/catalog"
	"github.com/alexanderramin/boardsync/internal/clock"
	"github.com/alexanderramin/boardsync/internal/config"
	"github.com/alexanderramin/boardsync/internal/coordinator"
	"github.com/alexanderramin/boardsync/internal/db"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/logging"
	"github.com/alexanderramin/boardsync/internal/repository"
	"github.com/alexanderramin/boardsync/internal/state"
	"github.com/alexanderramin/boardsync/internal/storage"
)

// Context is everything a command works with. Build it with New and
// release it with Close.
type Context struct {
	Config  config.Config
	Log     logrus.FieldLogger
	Clock   clock.Clock
	Board   *state.BoardStore
	Users   *state.UserStore
	Prefs   *state.Preferences
	Adapter storage.Adapter
	Sync    *coordinator.Coordinator
	Backup  *backup.Manager
	Images  []string

	closers []io.Closer
}

type Option func(*options)

type options struct {
	clock   clock.Clock
	log     logrus.FieldLogger
	adapter storage.Adapter
	drive   backup.Drive
}

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithAdapter replaces the adapter selected by the configuration.
func WithAdapter(a storage.Adapter) Option {
	return func(o *options) { o.adapter = a }
}

// WithDrive replaces the backup drive selected by the configuration.
func WithDrive(d backup.Drive) Option {
	return func(o *options) { o.drive = d }
}

// New opens storage, loads the persisted state and starts syncing.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Context, error) {
	o := options{clock: clock.Real{}}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrDiscard(o.log)

	a := &Context{Config: cfg, Log: log, Clock: o.clock}
	ok := false
	defer func() {
		if !ok {
			a.closeAll()
		}
	}()

	// Settings and backup state always live on this device.
	local, err := db.OpenDB(cfg.Storage.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("opening local storage: %w", err)
	}
	a.closers = append(a.closers, local)
	localAdapter := storage.NewLocal(local, o.clock, log)

	switch {
	case o.adapter != nil:
		a.Adapter = o.adapter
	case storage.Kind(cfg.Storage.Kind) == storage.KindLocal:
		a.Adapter = localAdapter
	default:
		adapter, closer, err := storage.Open(ctx, cfg.Storage, log)
		if err != nil {
			return nil, err
		}
		a.Adapter = adapter
		a.closers = append(a.closers, closer)
	}

	stateOpts := []state.Option{state.WithClock(o.clock), state.WithLogger(log)}
	a.Board = state.NewBoardStore(domain.DefaultBoard(), stateOpts...)
	a.Users = state.NewUserStore(domain.EmptyRoster(), stateOpts...)
	a.Prefs = state.NewPreferences()

	a.Images = loadImages(cfg.Images, log)

	a.Sync = coordinator.New(a.Board, a.Users, a.Prefs, a.Adapter,
		coordinator.WithClock(o.clock),
		coordinator.WithLogger(log),
		coordinator.WithDebounce(cfg.Sync.Debounce),
		coordinator.WithEchoGrace(cfg.Sync.EchoGrace),
		coordinator.WithSweepInterval(cfg.Sync.SweepInterval),
		coordinator.WithSettingsStore(localAdapter),
	)

	drive := o.drive
	if drive == nil {
		host, _ := os.Hostname()
		store, err := storage.NewHTTPDocStore(cfg.Storage.HTTP.BaseURL, cfg.Storage.HTTP.Secret, host, log)
		if err != nil {
			return nil, fmt.Errorf("configuring backup drive: %w", err)
		}
		a.closers = append(a.closers, store)
		drive = backup.NewHTTPDrive(store)
	}
	a.Backup = backup.NewManager(a.Stores(), drive,
		backup.WithClock(o.clock),
		backup.WithLogger(log),
		backup.WithStateRepo(repository.NewSQLiteKVRepo(local)),
		backup.WithFilePrefix(cfg.Backup.DrivePrefix),
	)
	if err := a.Backup.Load(ctx); err != nil {
		return nil, err
	}

	if err := a.Sync.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting sync: %w", err)
	}
	ok = true
	return a, nil
}

func loadImages(cfg config.ImagesConfig, log logrus.FieldLogger) []string {
	var (
		paths []string
		err   error
	)
	switch {
	case cfg.Manifest != "":
		paths, err = catalog.LoadManifestFile(cfg.Manifest)
	case cfg.Dir != "":
		paths, err = catalog.ScanDir(cfg.Dir)
	default:
		return nil
	}
	if err != nil {
		log.WithError(err).Warn("image catalog unavailable")
		return nil
	}
	return paths
}

// Stores groups the stores for backups.
func (a *Context) Stores() backup.Stores {
	return backup.Stores{Board: a.Board, Users: a.Users, Prefs: a.Prefs}
}

// Close writes pending changes, stops syncing and releases storage.
func (a *Context) Close() error {
	if a.Sync != nil {
		a.Sync.Flush()
	}
	return a.closeAll()
}

func (a *Context) closeAll() error {
	if a.Backup != nil {
		a.Backup.StopAuto()
	}
	if a.Sync != nil {
		a.Sync.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
