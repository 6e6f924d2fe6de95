package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/boardsync/internal/app"
	"github.com/alexanderramin/boardsync/internal/backup"
	"github.com/alexanderramin/boardsync/internal/cli/formatter"
)

func newBackupCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, restore and sync backups",
	}
	cmd.AddCommand(
		newBackupExportCmd(a),
		newBackupRestoreCmd(a),
		newBackupPushCmd(a),
		newBackupPullCmd(a),
		newBackupInfoCmd(a),
		newBackupAutoCmd(a),
	)
	return cmd
}

func newBackupExportCmd(a *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the board, users and settings to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			now := c.Clock.Now()
			f := backup.Export(c.Stores(), now)
			if out == "-" {
				return backup.Write(cmd.OutOrStdout(), f)
			}
			if out == "" {
				out = backup.FileName(now)
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := backup.Write(file, f); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, or - for stdout (default boardsync-backup-DATE.json)")
	return cmd
}

func newBackupRestoreCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Replace the board, users and settings from a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer file.Close()
				r = file
			}
			f, err := backup.Read(r)
			if err != nil {
				return err
			}
			ok, err := a.confirm(yes, "Replace the board, users and settings with this backup?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			backup.Apply(c.Stores(), f)
			fmt.Fprintf(cmd.OutOrStdout(), "Backup from %s restored\n", f.Timestamp)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Restore without asking")
	return cmd
}

// signedIn signs in to the backup drive when needed.
func signedIn(ctx context.Context, c *app.Context) error {
	if c.Backup.IsAuthenticated() {
		return nil
	}
	if err := c.Backup.Init(ctx); err != nil {
		return fmt.Errorf("backup drive unavailable: %w", err)
	}
	return c.Backup.Authenticate(ctx)
}

func newBackupPushCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload a backup to the drive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			if err := signedIn(ctx, c); err != nil {
				return err
			}
			if err := c.Backup.CreateBackup(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Backup uploaded")
			return nil
		},
	}
}

func newBackupPullCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Restore the latest backup from the drive",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			if err := signedIn(ctx, c); err != nil {
				return err
			}
			ok, err := a.confirm(yes, "Replace local data with the drive backup?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			n, err := c.Backup.RestoreBackup(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d of 3 part(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Restore without asking")
	return cmd
}

func newBackupInfoCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show what the drive holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			if err := signedIn(ctx, c); err != nil {
				return err
			}
			info, err := c.Backup.Info(ctx)
			if err != nil {
				return err
			}
			row := func(name string, md *backup.Metadata) []string {
				if md == nil {
					return []string{name, formatter.Dim("missing"), ""}
				}
				return []string{name, md.Timestamp, formatter.Dim(md.DeviceInfo)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderTable(
				[]string{"PART", "SAVED", "DEVICE"},
				[][]string{row("board", info.Board), row("users", info.Users), row("settings", info.Config)},
			))
			return nil
		},
	}
}

func newBackupAutoCmd(a *App) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:       "auto [on|off]",
		Short:     "Show or change automatic backups",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			enabled, current := c.Backup.AutoBackup()
			if len(args) == 1 || cmd.Flags().Changed("hours") {
				if len(args) == 1 {
					enabled = args[0] == "on"
				}
				if cmd.Flags().Changed("hours") {
					current = hours
				}
				c.Backup.SetAutoBackup(ctx, enabled, current)
				enabled, current = c.Backup.AutoBackup()
			}
			if !enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Automatic backups are off")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Automatic backups every %dh\n", current)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", backup.DefaultIntervalHours, "Interval between backups")
	return cmd
}
