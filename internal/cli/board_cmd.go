package cli

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/boardsync/internal/catalog"
	"github.com/alexanderramin/boardsync/internal/cli/formatter"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/state"
)

func newBoardCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the board",
	}
	cmd.AddCommand(newBoardShowCmd(a))
	return cmd
}

func newBoardShowCmd(a *App) *cobra.Command {
	var users []string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print every column and its tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			roster := c.Users.Snapshot()
			filter, err := resolveUsers(roster, users)
			if err != nil {
				return err
			}
			view := c.Prefs.Snapshot()
			if len(filter) > 0 {
				view.Mode = state.FilterGlobal
				view.Global = filter
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderBoard(c.Board.Snapshot(), roster, view, c.Clock.Now()))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&users, "user", nil, "Only show tasks assigned to these users")
	return cmd
}

// --- columns ---

func newColumnCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage columns",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add TITLE",
			Short: "Append a column",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.client(cmd.Context())
				if err != nil {
					return err
				}
				title := strings.Join(args, " ")
				id := c.Board.AddColumn(title)
				fmt.Fprintf(cmd.OutOrStdout(), "Added column %s [%s]\n", title, formatter.ShortID(id))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename COLUMN TITLE",
			Short: "Rename a column",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.client(cmd.Context())
				if err != nil {
					return err
				}
				id, err := resolveColumn(c.Board.Snapshot(), args[0])
				if err != nil {
					return err
				}
				title := strings.Join(args[1:], " ")
				if err := c.Board.UpdateColumn(id, state.ColumnPatch{Title: &title}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed column to %s\n", title)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm COLUMN",
			Short: "Delete a column and every task in it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.client(cmd.Context())
				if err != nil {
					return err
				}
				b := c.Board.Snapshot()
				id, err := resolveColumn(b, args[0])
				if err != nil {
					return err
				}
				if err := c.Board.DeleteColumn(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted column %s and %d task(s)\n", b.Columns[id].Title, len(b.Columns[id].TaskIDs))
				return nil
			},
		},
		&cobra.Command{
			Use:   "reorder COLUMN...",
			Short: "Set the column order; every column must be named once",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.client(cmd.Context())
				if err != nil {
					return err
				}
				b := c.Board.Snapshot()
				order, err := columnOrder(b, args)
				if err != nil {
					return err
				}
				c.Board.ReorderColumns(order)
				fmt.Fprintln(cmd.OutOrStdout(), "Columns reordered")
				return nil
			},
		},
	)
	return cmd
}

// columnOrder resolves args into a permutation of the board's columns.
func columnOrder(b domain.Board, args []string) ([]string, error) {
	if len(args) != len(b.ColumnOrder) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(b.ColumnOrder), len(args))
	}
	seen := make(map[string]bool, len(args))
	order := make([]string, 0, len(args))
	for _, in := range args {
		id, err := resolveColumn(b, in)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("column %q named twice", in)
		}
		seen[id] = true
		order = append(order, id)
	}
	return order, nil
}

// --- tasks ---

func newTaskCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskEditCmd(a),
		newTaskMoveCmd(a),
		newTaskRemoveCmd(a),
		newTaskAssignCmd(a),
		newTaskIconCmd(a),
		newTaskProgressCmd(a),
	)
	return cmd
}

func defaultColumn(b domain.Board) (string, error) {
	if col, ok := b.FindColumnByTitle(domain.TitleToDo, domain.TitleTodo); ok {
		return col.ID, nil
	}
	if cols := b.OrderedColumns(); len(cols) > 0 {
		return cols[0].ID, nil
	}
	return "", errors.New("the board has no columns; add one with 'column add'")
}

func newTaskAddCmd(a *App) *cobra.Command {
	var (
		column, image string
		icons         iconsValue
	)

	cmd := &cobra.Command{
		Use:   "add CONTENT",
		Short: "Add a task to the end of a column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			b := c.Board.Snapshot()
			var colID string
			if column != "" {
				colID, err = resolveColumn(b, column)
			} else {
				colID, err = defaultColumn(b)
			}
			if err != nil {
				return err
			}
			if image == "" {
				image = catalog.Random(c.Images)
			}
			content := strings.Join(args, " ")
			id, err := c.Board.AddTask(colID, content, image)
			if err != nil {
				return err
			}
			if len(icons) > 0 {
				tags := []string(icons)
				if err := c.Board.UpdateTask(id, state.TaskPatch{Icons: &tags}); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s [%s]\n", content, b.Columns[colID].Title, formatter.ShortID(id))
			return nil
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Column id or title (default: To Do)")
	cmd.Flags().StringVar(&image, "image", "", "Background image path or gradient (default: random from the catalog)")
	iconsFlag(cmd.Flags(), &icons)
	return cmd
}

func newTaskEditCmd(a *App) *cobra.Command {
	var content, image string

	cmd := &cobra.Command{
		Use:   "edit TASK",
		Short: "Change a task's text or background",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			id, err := resolveTask(c.Board.Snapshot(), args[0])
			if err != nil {
				return err
			}
			var patch state.TaskPatch
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if cmd.Flags().Changed("image") {
				patch.BackgroundImageURL = &image
			}
			if patch.Content == nil && patch.BackgroundImageURL == nil {
				return errors.New("nothing to change; pass --content or --image")
			}
			if err := c.Board.UpdateTask(id, patch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Task updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "New task text")
	cmd.Flags().StringVar(&image, "image", "", "New background reference")
	return cmd
}

func newTaskMoveCmd(a *App) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "move TASK COLUMN",
		Short: "Move a task to another column or position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			b := c.Board.Snapshot()
			id, err := resolveTask(b, args[0])
			if err != nil {
				return err
			}
			dst, err := resolveColumn(b, args[1])
			if err != nil {
				return err
			}
			src, _ := b.ColumnOf(id)
			pos := index
			if pos < 0 {
				pos = math.MaxInt
			}
			if err := c.Board.MoveTask(id, src, dst, pos); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved to %s\n", b.Columns[dst].Title)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "Position in the column, from 0 (default: end)")
	return cmd
}

func newTaskRemoveCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm TASK...",
		Short: "Delete tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			b := c.Board.Snapshot()
			ids := make([]string, 0, len(args))
			for _, in := range args {
				id, err := resolveTask(b, in)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			n := c.Board.DeleteTasks(ids)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d task(s)\n", n)
			return nil
		},
	}
}

func newTaskAssignCmd(a *App) *cobra.Command {
	var unassign bool

	cmd := &cobra.Command{
		Use:   "assign TASK [USER...]",
		Short: "Set who a task is assigned to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			id, err := resolveTask(c.Board.Snapshot(), args[0])
			if err != nil {
				return err
			}
			users := []string{}
			if !unassign {
				if len(args) < 2 {
					return errors.New("name at least one user, or pass --clear")
				}
				if users, err = resolveUsers(c.Users.Snapshot(), args[1:]); err != nil {
					return err
				}
			}
			if err := c.Board.UpdateTask(id, state.TaskPatch{AssignedUserIDs: &users}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %d user(s)\n", len(users))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unassign, "clear", false, "Remove every assignee")
	return cmd
}

func newTaskIconCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "icon TASK ICON",
		Short: "Toggle an icon tag (energy, effort, calm, daily)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			icon := strings.ToLower(args[1])
			if !domain.ValidIcons[icon] {
				return fmt.Errorf("unknown icon %q", args[1])
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			b := c.Board.Snapshot()
			id, err := resolveTask(b, args[0])
			if err != nil {
				return err
			}
			t := b.Tasks[id]
			icons := make([]string, 0, len(t.Icons)+1)
			on := !t.HasIcon(icon)
			for _, i := range t.Icons {
				if i != icon {
					icons = append(icons, i)
				}
			}
			if on {
				icons = append(icons, icon)
			}
			if err := c.Board.UpdateTask(id, state.TaskPatch{Icons: &icons}); err != nil {
				return err
			}
			verb := "removed"
			if on {
				verb = "added"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Icon %s %s\n", icon, verb)
			return nil
		},
	}
}

func newTaskProgressCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "progress TASK PERCENT",
		Short: "Set task progress (0-100)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err != nil {
				return fmt.Errorf("invalid progress %q", args[1])
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			id, err := resolveTask(c.Board.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := c.Board.UpdateTask(id, state.TaskPatch{Progress: &pct}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Progress %s\n", formatter.ProgressBar(c.Board.Snapshot().Tasks[id].Progress, 10))
			return nil
		},
	}
}
