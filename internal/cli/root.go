package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/boardsync/internal/app"
	"github.com/alexanderramin/boardsync/internal/config"
	"github.com/alexanderramin/boardsync/internal/logging"
)

// App holds the hooks commands use to reach the outside world. Open is
// called lazily, so commands that never touch the board (serve, help) do
// not open storage.
type App struct {
	Open          func(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*app.Context, error)
	IsInteractive func() bool
	// Confirm asks a yes/no question. Defaults to a huh form.
	Confirm func(title string) (bool, error)

	configPath string
	cfg        config.Config
	log        logrus.FieldLogger
	logCloser  io.Closer
	opened     *app.Context
}

// DefaultOpen builds an app.Context from the configuration.
func DefaultOpen(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*app.Context, error) {
	return app.New(ctx, cfg, app.WithLogger(log))
}

// NewRootCmd creates the top-level "boardsync" command and registers all
// subcommands against the provided App.
func NewRootCmd(a *App) *cobra.Command {
	if a.Open == nil {
		a.Open = DefaultOpen
	}
	if a.IsInteractive == nil {
		a.IsInteractive = func() bool { return false }
	}
	if a.Confirm == nil {
		a.Confirm = confirmForm
	}

	root := &cobra.Command{
		Use:           "boardsync",
		Short:         "Shared kanban board with live sync and backups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.boardsync/config.yaml)")

	root.AddCommand(
		newBoardCmd(a),
		newColumnCmd(a),
		newTaskCmd(a),
		newUserCmd(a),
		newImportCmd(a),
		newDeleteBatchCmd(a),
		newBackupCmd(a),
		newPrefsCmd(a),
		newSweepCmd(a),
		newStatusCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *App) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, closer, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	a.log, a.logCloser = log, closer
	return nil
}

// client opens the board on first use.
func (a *App) client(ctx context.Context) (*app.Context, error) {
	if a.opened != nil {
		return a.opened, nil
	}
	c, err := a.Open(ctx, a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("opening board: %w", err)
	}
	a.opened = c
	return c, nil
}

// teardown flushes pending saves. It also runs when a command fails, via
// Execute.
func (a *App) teardown() error {
	var err error
	if a.opened != nil {
		err = a.opened.Close()
		a.opened = nil
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
	return err
}

// Execute runs root and releases the board even when the command failed,
// since cobra skips the post-run hook on error.
func Execute(ctx context.Context, a *App, args []string, out io.Writer) error {
	root := NewRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	err := root.ExecuteContext(ctx)
	if cerr := a.teardown(); err == nil {
		err = cerr
	}
	return err
}
