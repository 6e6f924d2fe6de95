package domain

import (
	"slices"
	"strings"
	"time"
)

// Column titles with special meaning to the board.
const (
	TitleToDo = "to do"
	TitleTodo = "todo"
	TitleDone = "done"
)

type Task struct {
	ID                 string   `json:"id"`
	Content            string   `json:"content"`
	BackgroundImageURL string   `json:"backgroundImageUrl,omitempty"`
	AssignedUserIDs    []string `json:"assignedUserIds"`
	Progress           int      `json:"progress"`
	MovedToDoneAt      *int64   `json:"movedToDoneAt,omitempty"`
	Icons              []string `json:"icons"`
	LastUpdated        *int64   `json:"lastUpdated,omitempty"`

	// LegacyAssignedUserID is the single-assignee field written by older
	// clients. It is rewritten into AssignedUserIDs on load.
	LegacyAssignedUserID string `json:"assignedUserId,omitempty"`
}

// HasIcon reports whether the task carries the given icon tag.
func (t *Task) HasIcon(icon string) bool {
	return slices.Contains(t.Icons, icon)
}

// IsAssigned reports whether userID is among the task's assignees.
func (t *Task) IsAssigned(userID string) bool {
	return slices.Contains(t.AssignedUserIDs, userID)
}

func (t Task) clone() Task {
	c := t
	if t.AssignedUserIDs != nil {
		c.AssignedUserIDs = slices.Clone(t.AssignedUserIDs)
	}
	if t.Icons != nil {
		c.Icons = slices.Clone(t.Icons)
	}
	if t.MovedToDoneAt != nil {
		v := *t.MovedToDoneAt
		c.MovedToDoneAt = &v
	}
	if t.LastUpdated != nil {
		v := *t.LastUpdated
		c.LastUpdated = &v
	}
	return c
}

type Column struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	TaskIDs []string `json:"taskIds"`
}

// HasTitle reports whether the column title matches any of titles,
// ignoring case and surrounding whitespace.
func (c *Column) HasTitle(titles ...string) bool {
	title := strings.ToLower(strings.TrimSpace(c.Title))
	for _, t := range titles {
		if title == strings.ToLower(t) {
			return true
		}
	}
	return false
}

// Board is the unit of persistence: tasks, columns and the column order
// always travel together.
type Board struct {
	Tasks       map[string]Task   `json:"tasks"`
	Columns     map[string]Column `json:"columns"`
	ColumnOrder []string          `json:"columnOrder"`
}

// EmptyBoard returns a board with initialised, empty containers.
func EmptyBoard() Board {
	return Board{
		Tasks:       map[string]Task{},
		Columns:     map[string]Column{},
		ColumnOrder: []string{},
	}
}

// DefaultBoard returns the three-column board shown on first start.
func DefaultBoard() Board {
	b := EmptyBoard()
	for i, title := range []string{"To Do", "In Progress", "Done"} {
		id := "column-" + string(rune('1'+i))
		b.Columns[id] = Column{ID: id, Title: title, TaskIDs: []string{}}
		b.ColumnOrder = append(b.ColumnOrder, id)
	}
	return b
}

// Clone returns a deep copy that shares no mutable state with b.
func (b Board) Clone() Board {
	c := Board{}
	if b.Tasks != nil {
		c.Tasks = make(map[string]Task, len(b.Tasks))
		for id, t := range b.Tasks {
			c.Tasks[id] = t.clone()
		}
	}
	if b.Columns != nil {
		c.Columns = make(map[string]Column, len(b.Columns))
		for id, col := range b.Columns {
			col.TaskIDs = slices.Clone(col.TaskIDs)
			c.Columns[id] = col
		}
	}
	if b.ColumnOrder != nil {
		c.ColumnOrder = slices.Clone(b.ColumnOrder)
	}
	return c
}

// ColumnOf returns the id of the column whose sequence holds taskID.
func (b Board) ColumnOf(taskID string) (string, bool) {
	for id, col := range b.Columns {
		if slices.Contains(col.TaskIDs, taskID) {
			return id, true
		}
	}
	return "", false
}

// FindColumnByTitle returns the first column, in column order, whose title
// matches one of titles case-insensitively. Columns missing from the order
// are searched afterwards so an inconsistent order cannot hide them.
func (b Board) FindColumnByTitle(titles ...string) (Column, bool) {
	seen := make(map[string]bool, len(b.ColumnOrder))
	for _, id := range b.ColumnOrder {
		seen[id] = true
		if col, ok := b.Columns[id]; ok && col.HasTitle(titles...) {
			return col, true
		}
	}
	ids := make([]string, 0, len(b.Columns))
	for id := range b.Columns {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		if col := b.Columns[id]; col.HasTitle(titles...) {
			return col, true
		}
	}
	return Column{}, false
}

// OrderedColumns returns the columns in display order, skipping ids that
// have no column.
func (b Board) OrderedColumns() []Column {
	cols := make([]Column, 0, len(b.ColumnOrder))
	for _, id := range b.ColumnOrder {
		if col, ok := b.Columns[id]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

// IsEmpty reports whether the board holds neither tasks nor columns.
func (b Board) IsEmpty() bool {
	return len(b.Tasks) == 0 && len(b.Columns) == 0
}

// Millis converts t to epoch milliseconds, the timestamp unit used in
// persisted payloads.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds back to a time.Time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
