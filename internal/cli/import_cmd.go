package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/boardsync/internal/cli/formatter"
	"github.com/alexanderramin/boardsync/internal/importer"
)

// readInput returns the contents of the named file, or stdin when no file
// is given or the name is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

func newImportCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import [FILE]",
		Short: "Add one task per line to the To Do column",
		Long: `Reads a list of tasks, one per line, from FILE or stdin. Bullets,
numbering, checkboxes and time estimates are stripped and the text is
sentence-cased. Tasks already on the board are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := importer.Import(c.Board, text, c.Images)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message())
			return nil
		},
	}
}

var errNeedsConfirmation = errors.New("refusing to continue without confirmation; pass --yes")

// confirm asks title unless yes is set. Without a terminal it fails
// rather than assuming an answer.
func (a *App) confirm(yes bool, title string) (bool, error) {
	if yes {
		return true, nil
	}
	if !a.IsInteractive() {
		return false, errNeedsConfirmation
	}
	return a.Confirm(title)
}

func newDeleteBatchCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-batch [FILE]",
		Short: "Delete every task whose text matches one of the given lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			matches, err := importer.MatchForDelete(c.Board.Snapshot(), text)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "No matching tasks found.")
				return nil
			}

			rows := make([][]string, len(matches))
			for i, m := range matches {
				rows[i] = []string{formatter.ShortID(m.TaskID), m.Content, formatter.Dim(m.ColumnTitle)}
			}
			fmt.Fprintln(out, formatter.RenderTable([]string{"ID", "TASK", "COLUMN"}, rows))

			ok, err := a.confirm(yes, fmt.Sprintf("Delete %d task(s)?", len(matches)))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			fmt.Fprintln(out, importer.DeleteMessage(importer.Delete(c.Board, matches)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}
