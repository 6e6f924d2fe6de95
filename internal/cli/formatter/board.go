package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/state"
)

// ShortID trims generated ids for display. Commands accept any unique
// prefix.
func ShortID(id string) string {
	for _, p := range []string{"column-", "user-"} {
		id = strings.TrimPrefix(id, p)
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RenderBoard draws every column in order with the tasks the view lets
// through.
func RenderBoard(b domain.Board, r domain.Roster, v state.View, now time.Time) string {
	cols := b.OrderedColumns()
	if len(cols) == 0 {
		return Dim("The board has no columns.")
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, renderColumn(b, r, v, col, now))
	}
	return strings.Join(parts, "\n\n")
}

func renderColumn(b domain.Board, r domain.Roster, v state.View, col domain.Column, now time.Time) string {
	visible := v.VisibleTasks(b, col.ID)
	title := fmt.Sprintf("%s %s", Header(col.Title), Dim(fmt.Sprintf("(%s, %d)", ShortID(col.ID), len(col.TaskIDs))))
	if len(visible) < len(col.TaskIDs) {
		title += Dim(fmt.Sprintf(" showing %d", len(visible)))
	}
	if len(visible) == 0 {
		return title + "\n" + Dim("  no tasks")
	}
	lines := []string{title}
	for _, id := range visible {
		lines = append(lines, renderTask(b.Tasks[id], r, now))
	}
	return strings.Join(lines, "\n")
}

func renderTask(t domain.Task, r domain.Roster, now time.Time) string {
	var names []string
	for _, id := range t.AssignedUserIDs {
		if u, ok := r.Users[id]; ok {
			names = append(names, Badge(u.Name, u.Color))
		}
	}
	marker := StyleDim.Render("●")
	if len(names) > 0 {
		marker = lipgloss.NewStyle().Foreground(lipgloss.Color(AssigneeColor(r, t.AssignedUserIDs))).Render("●")
	}

	line := fmt.Sprintf("  %s %s %s  %s", marker, Dim(ShortID(t.ID)), t.Content, ProgressBar(t.Progress, 10))
	if icons := Icons(t.Icons); icons != "" {
		line += "  " + icons
	}
	if len(names) > 0 {
		line += "  " + strings.Join(names, ", ")
	}
	if t.MovedToDoneAt != nil {
		line += "  " + Dim("done "+Ago(domain.FromMillis(*t.MovedToDoneAt), now))
	}
	return line
}

// Ago is a coarse relative time.
func Ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// RenderUsers lists the roster with the current user marked.
func RenderUsers(r domain.Roster) string {
	if len(r.Users) == 0 {
		return "No users yet."
	}
	rows := make([][]string, 0, len(r.Users))
	for _, u := range r.SortedUsers() {
		cur := ""
		if r.CurrentUserID != nil && *r.CurrentUserID == u.ID {
			cur = StyleGreen.Render("*")
		}
		rows = append(rows, []string{cur, ShortID(u.ID), Badge(u.Name, u.Color), u.Icon, u.Color})
	}
	return RenderTable([]string{"", "ID", "NAME", "ICON", "COLOR"}, rows)
}
