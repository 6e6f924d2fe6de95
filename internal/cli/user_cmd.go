package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/boardsync/internal/cli/formatter"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/state"
)

func newUserCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage collaborators",
	}
	cmd.AddCommand(
		newUserAddCmd(a),
		newUserEditCmd(a),
		newUserRemoveCmd(a),
		newUserUseCmd(a),
		newUserListCmd(a),
	)
	return cmd
}

func newUserAddCmd(a *App) *cobra.Command {
	var color, icon string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a collaborator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if color == "" {
				color = domain.RandomColor()
			}
			if icon == "" {
				icon = domain.RandomIcon()
			}
			name := strings.Join(args, " ")
			id := c.Users.AddUser(name, color, icon)
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s [%s]\n", icon, formatter.Badge(name, color), formatter.ShortID(id))
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "Hex colour (default: random)")
	cmd.Flags().StringVar(&icon, "icon", "", "Emoji icon (default: random)")
	return cmd
}

func newUserEditCmd(a *App) *cobra.Command {
	var name, color, icon string

	cmd := &cobra.Command{
		Use:   "edit USER",
		Short: "Change a collaborator's name, colour or icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			id, err := resolveUser(c.Users.Snapshot(), args[0])
			if err != nil {
				return err
			}
			var patch state.UserPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}
			if cmd.Flags().Changed("icon") {
				patch.Icon = &icon
			}
			if patch == (state.UserPatch{}) {
				return errors.New("nothing to change; pass --name, --color or --icon")
			}
			if err := c.Users.UpdateUser(id, patch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "User updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New hex colour")
	cmd.Flags().StringVar(&icon, "icon", "", "New emoji icon")
	return cmd
}

func newUserRemoveCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm USER",
		Short: "Remove a collaborator; their tasks keep the assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			r := c.Users.Snapshot()
			id, err := resolveUser(r, args[0])
			if err != nil {
				return err
			}
			if err := c.Users.DeleteUser(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", r.Users[id].Name)
			return nil
		},
	}
}

func newUserUseCmd(a *App) *cobra.Command {
	var none bool

	cmd := &cobra.Command{
		Use:   "use [USER]",
		Short: "Select who is using this device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if none {
				if err := c.Users.SetCurrentUser(nil); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "No current user")
				return nil
			}
			if len(args) == 0 {
				return errors.New("name a user, or pass --none")
			}
			r := c.Users.Snapshot()
			id, err := resolveUser(r, args[0])
			if err != nil {
				return err
			}
			if err := c.Users.SetCurrentUser(&id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now using %s\n", r.Users[id].Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&none, "none", false, "Clear the current user")
	return cmd
}

func newUserListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collaborators",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderUsers(c.Users.Snapshot()))
			return nil
		},
	}
}
