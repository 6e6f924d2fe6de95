package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/boardsync/internal/state"
)

func newPrefsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change device preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			v := c.Prefs.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "auto-delete: %s\nedit-mode:   %s\n", hoursLabel(v.AutoDeleteHours), onOff(v.EditMode))
			return nil
		},
	}
	cmd.AddCommand(newPrefsAutoDeleteCmd(a), newPrefsEditModeCmd(a))
	return cmd
}

func hoursLabel(h int) string {
	if h == 0 {
		return "off"
	}
	return fmt.Sprintf("%dh after done", h)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func newPrefsAutoDeleteCmd(a *App) *cobra.Command {
	choices := make([]string, len(state.AutoDeleteChoices))
	for i, h := range state.AutoDeleteChoices {
		choices[i] = strconv.Itoa(h)
	}

	return &cobra.Command{
		Use:   "auto-delete HOURS",
		Short: "Delete done tasks this many hours after they were finished (0 disables)",
		Long:  "Common choices: " + strings.Join(choices, ", ") + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := strconv.Atoi(strings.TrimSuffix(args[0], "h"))
			if err != nil {
				return fmt.Errorf("invalid hours %q", args[0])
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Prefs.SetAutoDeleteHours(hours); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auto-delete %s\n", hoursLabel(hours))
			return nil
		},
	}
}

func newPrefsEditModeCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:       "edit-mode on|off",
		Short:     "Toggle edit mode",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			c.Prefs.SetEditMode(args[0] == "on")
			fmt.Fprintf(cmd.OutOrStdout(), "Edit mode %s\n", args[0])
			return nil
		},
	}
}
