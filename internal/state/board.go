package state

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/logging"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrColumnNotFound = errors.New("column not found")
)

// TaskPatch lists the task fields to change. Nil fields are left alone.
type TaskPatch struct {
	Content            *string
	BackgroundImageURL *string
	AssignedUserIDs    *[]string
	Progress           *int
	Icons              *[]string
	MovedToDoneAt      *int64
	// ClearMovedToDone drops the done stamp. It wins over MovedToDoneAt.
	ClearMovedToDone bool
}

type ColumnPatch struct {
	Title   *string
	TaskIDs *[]string
}

// BoardStore owns the board aggregate.
type BoardStore struct {
	mu    sync.Mutex
	board domain.Board
	cfg   config
	subs  listeners[domain.Board]
}

// NewBoardStore returns a store holding a copy of initial. Nil containers
// are replaced by empty ones.
func NewBoardStore(initial domain.Board, opts ...Option) *BoardStore {
	s := &BoardStore{cfg: buildConfig(opts)}
	s.board = normalize(initial.Clone())
	return s
}

func normalize(b domain.Board) domain.Board {
	if b.Tasks == nil {
		b.Tasks = map[string]domain.Task{}
	}
	if b.Columns == nil {
		b.Columns = map[string]domain.Column{}
	}
	if b.ColumnOrder == nil {
		b.ColumnOrder = []string{}
	}
	return b
}

// Snapshot returns a deep copy of the current board.
func (s *BoardStore) Snapshot() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *BoardStore) Subscribe(fn func(domain.Board)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// mutate runs fn under the lock and, when it succeeds, notifies
// subscribers with the resulting board.
func (s *BoardStore) mutate(fn func(b *domain.Board) error) error {
	s.mu.Lock()
	err := fn(&s.board)
	var snap domain.Board
	if err == nil {
		snap = s.board.Clone()
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.subs.notify(snap)
	return nil
}

func (s *BoardStore) now() int64 {
	return domain.Millis(s.cfg.clock.Now())
}

func (s *BoardStore) missing(err error, op string, fields logrus.Fields) error {
	s.cfg.log.WithFields(fields).WithFields(logrus.Fields{
		"event": logging.EventStateMissingRef,
		"op":    op,
	}).Warn(err.Error())
	return err
}

// AddTask appends a new task to the end of columnID and returns its id.
// It returns ErrColumnNotFound without mutating when the column is absent.
func (s *BoardStore) AddTask(columnID, content, backgroundRef string) (string, error) {
	var id string
	err := s.mutate(func(b *domain.Board) error {
		col, ok := b.Columns[columnID]
		if !ok {
			return s.missing(ErrColumnNotFound, "add_task", logrus.Fields{"column": columnID})
		}

		id = s.cfg.newID()
		now := s.now()
		b.Tasks[id] = domain.Task{
			ID:                 id,
			Content:            content,
			BackgroundImageURL: backgroundRef,
			AssignedUserIDs:    []string{},
			Progress:           0,
			Icons:              []string{},
			LastUpdated:        &now,
		}
		col.TaskIDs = append(slices.Clone(col.TaskIDs), id)
		b.Columns[columnID] = col
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateTask merges patch into the task and refreshes its lastUpdated
// stamp.
func (s *BoardStore) UpdateTask(taskID string, patch TaskPatch) error {
	return s.mutate(func(b *domain.Board) error {
		t, ok := b.Tasks[taskID]
		if !ok {
			return s.missing(ErrTaskNotFound, "update_task", logrus.Fields{"task": taskID})
		}

		if patch.Content != nil {
			t.Content = *patch.Content
		}
		if patch.BackgroundImageURL != nil {
			t.BackgroundImageURL = *patch.BackgroundImageURL
		}
		if patch.AssignedUserIDs != nil {
			t.AssignedUserIDs = uniq(*patch.AssignedUserIDs)
		}
		if patch.Progress != nil {
			t.Progress = min(max(*patch.Progress, 0), 100)
		}
		if patch.Icons != nil {
			t.Icons = uniq(*patch.Icons)
		}
		if patch.MovedToDoneAt != nil {
			v := *patch.MovedToDoneAt
			t.MovedToDoneAt = &v
		}
		if patch.ClearMovedToDone {
			t.MovedToDoneAt = nil
		}

		now := s.now()
		t.LastUpdated = &now
		b.Tasks[taskID] = t
		return nil
	})
}

// uniq returns a copy of ids without duplicates, keeping first occurrences.
func uniq(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// DeleteTask removes the task and scrubs its id from every column.
func (s *BoardStore) DeleteTask(taskID string) error {
	return s.mutate(func(b *domain.Board) error {
		if _, ok := b.Tasks[taskID]; !ok {
			return s.missing(ErrTaskNotFound, "delete_task", logrus.Fields{"task": taskID})
		}
		delete(b.Tasks, taskID)
		scrub(b, taskID)
		return nil
	})
}

// DeleteTasks removes several tasks in one change. Unknown ids are
// skipped. It returns how many tasks were removed.
func (s *BoardStore) DeleteTasks(taskIDs []string) int {
	removed := 0
	_ = s.mutate(func(b *domain.Board) error {
		for _, id := range taskIDs {
			if _, ok := b.Tasks[id]; !ok {
				continue
			}
			delete(b.Tasks, id)
			scrub(b, id)
			removed++
		}
		if removed == 0 {
			return errNoChange
		}
		return nil
	})
	return removed
}

var errNoChange = errors.New("no change")

func scrub(b *domain.Board, taskID string) {
	for id, col := range b.Columns {
		if !slices.Contains(col.TaskIDs, taskID) {
			continue
		}
		col.TaskIDs = slices.DeleteFunc(slices.Clone(col.TaskIDs), func(t string) bool { return t == taskID })
		b.Columns[id] = col
	}
}

// MoveTask moves taskID from srcColumnID to position destIndex of
// dstColumnID. destIndex is clamped into range. Entering a column titled
// "done" from another column stamps movedToDoneAt.
func (s *BoardStore) MoveTask(taskID, srcColumnID, dstColumnID string, destIndex int) error {
	return s.mutate(func(b *domain.Board) error {
		src, ok := b.Columns[srcColumnID]
		if !ok {
			return s.missing(ErrColumnNotFound, "move_task", logrus.Fields{"column": srcColumnID})
		}
		dst, ok := b.Columns[dstColumnID]
		if !ok {
			return s.missing(ErrColumnNotFound, "move_task", logrus.Fields{"column": dstColumnID})
		}
		pos := slices.Index(src.TaskIDs, taskID)
		if pos < 0 {
			return s.missing(ErrTaskNotFound, "move_task", logrus.Fields{"task": taskID, "column": srcColumnID})
		}

		srcIDs := slices.Delete(slices.Clone(src.TaskIDs), pos, pos+1)
		dstIDs := srcIDs
		if srcColumnID != dstColumnID {
			dstIDs = slices.Clone(dst.TaskIDs)
		}
		destIndex = min(max(destIndex, 0), len(dstIDs))
		dstIDs = slices.Insert(dstIDs, destIndex, taskID)

		if srcColumnID == dstColumnID {
			src.TaskIDs = dstIDs
			b.Columns[srcColumnID] = src
		} else {
			src.TaskIDs = srcIDs
			dst.TaskIDs = dstIDs
			b.Columns[srcColumnID] = src
			b.Columns[dstColumnID] = dst
		}

		if t, ok := b.Tasks[taskID]; ok {
			now := s.now()
			t.LastUpdated = &now
			if srcColumnID != dstColumnID && strings.EqualFold(dst.Title, domain.TitleDone) {
				stamp := now
				t.MovedToDoneAt = &stamp
			}
			b.Tasks[taskID] = t
		}
		return nil
	})
}

// AddColumn appends an empty column and returns its id.
func (s *BoardStore) AddColumn(title string) string {
	var id string
	_ = s.mutate(func(b *domain.Board) error {
		id = "column-" + s.cfg.newID()
		b.Columns[id] = domain.Column{ID: id, Title: title, TaskIDs: []string{}}
		b.ColumnOrder = append(slices.Clone(b.ColumnOrder), id)
		return nil
	})
	return id
}

func (s *BoardStore) UpdateColumn(columnID string, patch ColumnPatch) error {
	return s.mutate(func(b *domain.Board) error {
		col, ok := b.Columns[columnID]
		if !ok {
			return s.missing(ErrColumnNotFound, "update_column", logrus.Fields{"column": columnID})
		}
		if patch.Title != nil {
			col.Title = *patch.Title
		}
		if patch.TaskIDs != nil {
			col.TaskIDs = slices.Clone(*patch.TaskIDs)
		}
		b.Columns[columnID] = col
		return nil
	})
}

// DeleteColumn deletes the column, every task it holds and its entry in
// the column order.
func (s *BoardStore) DeleteColumn(columnID string) error {
	return s.mutate(func(b *domain.Board) error {
		col, ok := b.Columns[columnID]
		if !ok {
			return s.missing(ErrColumnNotFound, "delete_column", logrus.Fields{"column": columnID})
		}
		for _, id := range col.TaskIDs {
			delete(b.Tasks, id)
		}
		delete(b.Columns, columnID)
		b.ColumnOrder = slices.DeleteFunc(slices.Clone(b.ColumnOrder), func(id string) bool { return id == columnID })
		return nil
	})
}

// ReorderColumns replaces the column order as given. The caller is
// responsible for passing a permutation of the column ids.
func (s *BoardStore) ReorderColumns(order []string) {
	_ = s.mutate(func(b *domain.Board) error {
		b.ColumnOrder = slices.Clone(order)
		return nil
	})
}

// SetBoardState replaces the board wholesale. A nil container in next
// keeps the current one. This is the only entry point for loaded or
// synced data.
func (s *BoardStore) SetBoardState(next domain.Board) {
	next = next.Clone()
	_ = s.mutate(func(b *domain.Board) error {
		if next.Tasks != nil {
			b.Tasks = next.Tasks
		}
		if next.Columns != nil {
			b.Columns = next.Columns
		}
		if next.ColumnOrder != nil {
			b.ColumnOrder = next.ColumnOrder
		}
		return nil
	})
}

// FindTasksByContent returns the ids of tasks whose content equals content
// ignoring case and surrounding whitespace.
func (s *BoardStore) FindTasksByContent(content string) []string {
	want := strings.ToLower(strings.TrimSpace(content))
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, t := range s.board.Tasks {
		if strings.ToLower(strings.TrimSpace(t.Content)) == want {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
