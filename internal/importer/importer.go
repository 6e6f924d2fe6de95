package importer

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/boardsync/internal/catalog"
	"github.com/alexanderramin/boardsync/internal/domain"
)

var (
	ErrNoTasks      = errors.New("no valid tasks found to import")
	ErrNoTodoColumn = errors.New(`could not find "To Do" column`)
	ErrNoTerms      = errors.New("no tasks specified for deletion")
)

// Board is the slice of the board store the importer needs.
type Board interface {
	Snapshot() domain.Board
	AddTask(columnID, content, backgroundRef string) (string, error)
	DeleteTasks(taskIDs []string) int
}

type ImportResult struct {
	// Imported holds the new task ids in input order.
	Imported   []string
	Duplicates int
}

func (r ImportResult) Message() string {
	msg := fmt.Sprintf("Successfully imported %d task(s).", len(r.Imported))
	if r.Duplicates > 0 {
		msg += fmt.Sprintf(" %d duplicate(s) were skipped.", r.Duplicates)
	}
	return msg
}

// Import adds every task parsed from text to the To Do column. Tasks whose
// content already exists on the board, ignoring case, are skipped, as are
// repeats within text. Each new task gets a random image from images when
// there are any.
func Import(board Board, text string, images []string) (ImportResult, error) {
	var res ImportResult
	tasks := ParseTasks(text)
	if len(tasks) == 0 {
		return res, ErrNoTasks
	}

	b := board.Snapshot()
	todo, ok := b.FindColumnByTitle(domain.TitleToDo, domain.TitleTodo)
	if !ok {
		return res, ErrNoTodoColumn
	}

	seen := make(map[string]bool, len(b.Tasks)+len(tasks))
	for _, t := range b.Tasks {
		seen[normalize(t.Content)] = true
	}

	for _, content := range tasks {
		key := normalize(content)
		if seen[key] {
			res.Duplicates++
			continue
		}
		id, err := board.AddTask(todo.ID, content, catalog.Random(images))
		if err != nil {
			return res, fmt.Errorf("adding %q: %w", content, err)
		}
		seen[key] = true
		res.Imported = append(res.Imported, id)
	}
	return res, nil
}

// Match is a task named by a deletion list.
type Match struct {
	TaskID      string
	Content     string
	ColumnTitle string
}

// MatchForDelete finds the tasks whose content equals a parsed line of
// text, ignoring case and surrounding space. Tasks not listed in any
// column are not matched. Matches follow board order.
func MatchForDelete(b domain.Board, text string) ([]Match, error) {
	terms := ParseTasks(text)
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}
	wanted := make(map[string]bool, len(terms))
	for _, term := range terms {
		wanted[normalize(term)] = true
	}

	var matches []Match
	for _, col := range b.OrderedColumns() {
		for _, id := range col.TaskIDs {
			t, ok := b.Tasks[id]
			if !ok || !wanted[normalize(t.Content)] {
				continue
			}
			matches = append(matches, Match{TaskID: id, Content: t.Content, ColumnTitle: col.Title})
		}
	}
	return matches, nil
}

// Delete removes the matched tasks in one board update and returns how
// many were removed.
func Delete(board Board, matches []Match) int {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.TaskID)
	}
	return board.DeleteTasks(ids)
}

// DeleteMessage reports a finished batch deletion.
func DeleteMessage(n int) string {
	return fmt.Sprintf("Successfully deleted %d task(s).", n)
}
