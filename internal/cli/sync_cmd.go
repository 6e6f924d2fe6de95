package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/boardsync/internal/cli/formatter"
	"github.com/alexanderramin/boardsync/internal/db"
	"github.com/alexanderramin/boardsync/internal/docserver"
	"github.com/alexanderramin/boardsync/internal/domain"
)

func newSweepCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the auto-delete and daily reset sweeps now",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res := c.Sync.RunSweeps(c.Clock.Now())
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired task(s), reset %d daily task(s)\n", len(res.Deleted), len(res.Reset))
			return nil
		},
	}
}

func newStatusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync and backup state",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			enabled, hours := c.Backup.AutoBackup()
			bs := formatter.BackupStatus{
				Authenticated: c.Backup.IsAuthenticated(),
				AutoEnabled:   enabled,
				IntervalHours: hours,
			}
			if t, ok := c.Backup.LastBackupTime(); ok {
				bs.LastBackup = t
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStatus(c.Sync.Status(), bs, c.Clock.Now()))
			return nil
		},
	}
}

func newWatchCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show the live board, re-rendered on every change, and run sweeps and auto backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			if enabled, _ := c.Backup.AutoBackup(); enabled {
				if err := signedIn(ctx, c); err != nil {
					c.Log.WithError(err).Warn("auto backup disabled for this session")
				} else {
					c.Backup.StartAuto(ctx)
				}
			}

			render := func() string {
				return formatter.RenderBoard(c.Board.Snapshot(), c.Users.Snapshot(), c.Prefs.Snapshot(), c.Clock.Now())
			}
			opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout())}
			if a.IsInteractive() {
				opts = append(opts, tea.WithAltScreen())
			} else {
				opts = append(opts, tea.WithInput(nil))
			}
			p := tea.NewProgram(newWatchModel(render), opts...)

			unsubBoard := c.Board.Subscribe(func(domain.Board) { p.Send(boardChangedMsg{}) })
			defer unsubBoard()
			unsubUsers := c.Users.Subscribe(func(domain.Roster) { p.Send(boardChangedMsg{}) })
			defer unsubUsers()

			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, tea.ErrInterrupted) {
				return fmt.Errorf("watching board: %w", err)
			}
			return nil
		},
	}
}

func newServeCmd(a *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the document server that remote clients and drive backups talk to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			database, err := db.OpenDB(a.cfg.Server.DBPath)
			if err != nil {
				return fmt.Errorf("opening server database: %w", err)
			}
			defer database.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := docserver.New(database, docserver.Options{
				Secret: a.cfg.Server.JWTSecret,
				Logger: a.log,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
