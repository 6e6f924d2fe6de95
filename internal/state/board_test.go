package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/boardsync/internal/clock"
	"github.com/alexanderramin/boardsync/internal/domain"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestBoardStore(t *testing.T) (*BoardStore, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(t0)
	return NewBoardStore(domain.DefaultBoard(), WithClock(clk), WithIDGenerator(seqIDs())), clk
}

func TestAddTask(t *testing.T) {
	s, _ := newTestBoardStore(t)

	id, err := s.AddTask("column-1", "Write report", "linear-gradient(red, blue)")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	b := s.Snapshot()
	task := b.Tasks[id]
	assert.Equal(t, "Write report", task.Content)
	assert.Equal(t, 0, task.Progress)
	assert.Empty(t, task.AssignedUserIDs)
	require.NotNil(t, task.LastUpdated)
	assert.Equal(t, t0.UnixMilli(), *task.LastUpdated)
	assert.Equal(t, []string{id}, b.Columns["column-1"].TaskIDs)
}

func TestAddTask_MissingColumn(t *testing.T) {
	s, _ := newTestBoardStore(t)
	before := s.Snapshot()

	_, err := s.AddTask("nope", "x", "")
	assert.ErrorIs(t, err, ErrColumnNotFound)
	assert.Equal(t, before, s.Snapshot())
}

func TestUpdateTask_MergesAndRefreshesTimestamp(t *testing.T) {
	s, clk := newTestBoardStore(t)
	id, _ := s.AddTask("column-1", "a", "")
	clk.Advance(time.Minute)

	progress := 150
	icons := []string{domain.IconDaily, domain.IconCalm, domain.IconDaily}
	require.NoError(t, s.UpdateTask(id, TaskPatch{Progress: &progress, Icons: &icons}))

	task := s.Snapshot().Tasks[id]
	assert.Equal(t, "a", task.Content)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, []string{domain.IconDaily, domain.IconCalm}, task.Icons)
	assert.Equal(t, t0.Add(time.Minute).UnixMilli(), *task.LastUpdated)

	assert.ErrorIs(t, s.UpdateTask("ghost", TaskPatch{}), ErrTaskNotFound)
}

func TestDeleteTask_ScrubsEveryColumn(t *testing.T) {
	s, _ := newTestBoardStore(t)
	id, _ := s.AddTask("column-1", "a", "")

	// Inconsistent state: the id also sits in another column.
	dup := []string{id}
	require.NoError(t, s.UpdateColumn("column-2", ColumnPatch{TaskIDs: &dup}))

	require.NoError(t, s.DeleteTask(id))
	b := s.Snapshot()
	assert.NotContains(t, b.Tasks, id)
	for _, col := range b.Columns {
		assert.NotContains(t, col.TaskIDs, id)
	}
	assert.ErrorIs(t, s.DeleteTask(id), ErrTaskNotFound)
}

func TestMoveTask_StampsDoneOnlyAcrossColumns(t *testing.T) {
	s, clk := newTestBoardStore(t)
	id, _ := s.AddTask("column-1", "a", "")

	clk.Advance(time.Hour)
	require.NoError(t, s.MoveTask(id, "column-1", "column-3", 0))

	task := s.Snapshot().Tasks[id]
	require.NotNil(t, task.MovedToDoneAt)
	assert.Equal(t, t0.Add(time.Hour).UnixMilli(), *task.MovedToDoneAt)

	// Reordering inside Done does not restamp.
	other, _ := s.AddTask("column-1", "b", "")
	require.NoError(t, s.MoveTask(other, "column-1", "column-3", 5))
	clk.Advance(time.Hour)
	require.NoError(t, s.MoveTask(id, "column-3", "column-3", 1))

	b := s.Snapshot()
	assert.Equal(t, t0.Add(time.Hour).UnixMilli(), *b.Tasks[id].MovedToDoneAt)
	assert.Equal(t, t0.Add(2*time.Hour).UnixMilli(), *b.Tasks[id].LastUpdated)
	assert.Equal(t, []string{other, id}, b.Columns["column-3"].TaskIDs)
}

func TestMoveTask_DoneTitleIsCaseInsensitive(t *testing.T) {
	s, _ := newTestBoardStore(t)
	col := s.AddColumn("DONE")
	id, _ := s.AddTask("column-1", "a", "")

	require.NoError(t, s.MoveTask(id, "column-1", col, 0))
	assert.NotNil(t, s.Snapshot().Tasks[id].MovedToDoneAt)
}

func TestMoveTask_Misses(t *testing.T) {
	s, _ := newTestBoardStore(t)
	id, _ := s.AddTask("column-1", "a", "")
	before := s.Snapshot()

	assert.ErrorIs(t, s.MoveTask(id, "nope", "column-2", 0), ErrColumnNotFound)
	assert.ErrorIs(t, s.MoveTask(id, "column-1", "nope", 0), ErrColumnNotFound)
	assert.ErrorIs(t, s.MoveTask(id, "column-2", "column-3", 0), ErrTaskNotFound)
	assert.Equal(t, before, s.Snapshot())
}

func TestMoveTask_PreservesMembershipInvariant(t *testing.T) {
	s, _ := newTestBoardStore(t)
	var ids []string
	for i := 0; i < 4; i++ {
		id, _ := s.AddTask("column-1", fmt.Sprintf("t%d", i), "")
		ids = append(ids, id)
	}
	require.NoError(t, s.MoveTask(ids[0], "column-1", "column-1", 3))
	require.NoError(t, s.MoveTask(ids[1], "column-1", "column-2", -4))
	require.NoError(t, s.MoveTask(ids[2], "column-1", "column-3", 99))

	b := s.Snapshot()
	seen := map[string]int{}
	for _, col := range b.Columns {
		for _, id := range col.TaskIDs {
			seen[id]++
			assert.Contains(t, b.Tasks, id)
		}
	}
	for _, id := range ids {
		assert.Equal(t, 1, seen[id], id)
	}
	assert.Equal(t, []string{ids[3], ids[0]}, b.Columns["column-1"].TaskIDs)
}

func TestDeleteColumn_Cascades(t *testing.T) {
	s, _ := newTestBoardStore(t)
	a, _ := s.AddTask("column-2", "a", "")
	keep, _ := s.AddTask("column-1", "keep", "")

	require.NoError(t, s.DeleteColumn("column-2"))
	b := s.Snapshot()
	assert.NotContains(t, b.Columns, "column-2")
	assert.NotContains(t, b.Tasks, a)
	assert.Contains(t, b.Tasks, keep)
	assert.Equal(t, []string{"column-1", "column-3"}, b.ColumnOrder)
}

func TestReorderColumns_NoValidation(t *testing.T) {
	s, _ := newTestBoardStore(t)
	s.ReorderColumns([]string{"column-3", "ghost"})
	assert.Equal(t, []string{"column-3", "ghost"}, s.Snapshot().ColumnOrder)
}

func TestSetBoardState_PartialKeepsMissingContainers(t *testing.T) {
	s, _ := newTestBoardStore(t)
	s.SetBoardState(domain.Board{ColumnOrder: []string{"column-2", "column-1", "column-3"}})

	b := s.Snapshot()
	assert.Len(t, b.Columns, 3)
	assert.NotNil(t, b.Tasks)
	assert.Equal(t, []string{"column-2", "column-1", "column-3"}, b.ColumnOrder)
}

func TestSetBoardState_CopiesInput(t *testing.T) {
	s, _ := newTestBoardStore(t)
	in := domain.DefaultBoard()
	s.SetBoardState(in)
	in.ColumnOrder[0] = "mutated"
	assert.Equal(t, "column-1", s.Snapshot().ColumnOrder[0])
}

func TestSubscribe_NotifiesAfterUnlock(t *testing.T) {
	s, _ := newTestBoardStore(t)
	var got []int
	unsub := s.Subscribe(func(b domain.Board) {
		// Reading back from inside the callback must not deadlock.
		got = append(got, len(s.Snapshot().Tasks))
	})

	_, _ = s.AddTask("column-1", "a", "")
	_, _ = s.AddTask("nope", "b", "")
	unsub()
	_, _ = s.AddTask("column-1", "c", "")

	assert.Equal(t, []int{1}, got)
}

func TestDeleteTasksAndFindByContent(t *testing.T) {
	s, _ := newTestBoardStore(t)
	a, _ := s.AddTask("column-1", "Buy milk", "")
	b, _ := s.AddTask("column-2", "  buy MILK ", "")
	_, _ = s.AddTask("column-1", "other", "")

	assert.ElementsMatch(t, []string{a, b}, s.FindTasksByContent("buy milk"))
	assert.Equal(t, 2, s.DeleteTasks([]string{a, b, "ghost"}))
	assert.Len(t, s.Snapshot().Tasks, 1)
	assert.Equal(t, 0, s.DeleteTasks([]string{"ghost"}))
}

func TestBoardLifecycle_FromEmpty(t *testing.T) {
	clk := clock.NewFake(t0)
	s := NewBoardStore(domain.EmptyBoard(), WithClock(clk), WithIDGenerator(seqIDs()))

	todo := s.AddColumn("To Do")
	id, err := s.AddTask(todo, "Buy milk", "")
	require.NoError(t, err)

	task := s.Snapshot().Tasks[id]
	assert.Equal(t, "Buy milk", task.Content)
	assert.Zero(t, task.Progress)
	assert.Empty(t, task.AssignedUserIDs)
	assert.Nil(t, task.MovedToDoneAt)

	clk.Advance(time.Minute)
	done := s.AddColumn("Done")
	require.NoError(t, s.MoveTask(id, todo, done, 0))
	moved := s.Snapshot().Tasks[id]
	require.NotNil(t, moved.MovedToDoneAt)
	assert.Equal(t, domain.Millis(t0.Add(time.Minute)), *moved.MovedToDoneAt)

	require.NoError(t, s.DeleteTask(id))
	b := s.Snapshot()
	assert.NotContains(t, b.Tasks, id)
	assert.Empty(t, b.Columns[done].TaskIDs)
	assert.Empty(t, b.Columns[todo].TaskIDs)
}
