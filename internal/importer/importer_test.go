package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/state"
	"github.com/alexanderramin/boardsync/internal/testutil"
)

func newStore(b domain.Board) *state.BoardStore {
	n := 0
	return state.NewBoardStore(b, state.WithIDGenerator(func() string {
		n++
		return "new-" + string(rune('0'+n))
	}))
}

func task(id, content string) domain.Task {
	return domain.Task{ID: id, Content: content, AssignedUserIDs: []string{}, Icons: []string{}}
}

func TestImport(t *testing.T) {
	store := newStore(testutil.NewBoard(testutil.WithTask("column-2", task("t1", "Buy milk"))))

	res, err := Import(store, "- Buy MILK\n- [ ] Review PR (30 min)\n* review pr\n3. Call mom", []string{"/images/a.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new-1", "new-2"}, res.Imported)
	assert.Equal(t, 2, res.Duplicates)
	assert.Equal(t, "Successfully imported 2 task(s). 2 duplicate(s) were skipped.", res.Message())

	b := store.Snapshot()
	assert.Equal(t, []string{"new-1", "new-2"}, b.Columns["column-1"].TaskIDs)
	assert.Equal(t, "Review pr", b.Tasks["new-1"].Content)
	assert.Equal(t, "/images/a.png", b.Tasks["new-1"].BackgroundImageURL)
	assert.Equal(t, "Call mom", b.Tasks["new-2"].Content)
}

func TestImport_Errors(t *testing.T) {
	store := newStore(domain.DefaultBoard())
	_, err := Import(store, "\n  \n", nil)
	assert.ErrorIs(t, err, ErrNoTasks)

	noTodo := newStore(testutil.NewBoard(func(b *domain.Board) {
		col := b.Columns["column-1"]
		col.Title = "Backlog"
		b.Columns["column-1"] = col
	}))
	_, err = Import(noTodo, "Something", nil)
	assert.ErrorIs(t, err, ErrNoTodoColumn)
}

func TestImport_TodoTitleVariant(t *testing.T) {
	store := newStore(testutil.NewBoard(testutil.WithColumn("column-9", "TODO"), func(b *domain.Board) {
		delete(b.Columns, "column-1")
		b.ColumnOrder = b.ColumnOrder[1:]
	}))
	res, err := Import(store, "Stretch", nil)
	require.NoError(t, err)
	assert.Equal(t, "Successfully imported 1 task(s).", res.Message())
	assert.Equal(t, res.Imported, store.Snapshot().Columns["column-9"].TaskIDs)
	assert.Empty(t, store.Snapshot().Tasks[res.Imported[0]].BackgroundImageURL)
}

func TestMatchForDeleteAndDelete(t *testing.T) {
	store := newStore(testutil.NewBoard(
		testutil.WithTask("column-1", task("t1", "Buy milk")),
		testutil.WithTask("column-3", task("t2", "  buy milk ")),
		testutil.WithTask("column-2", task("t3", "Call mom")),
		testutil.WithTask("column-2", task("t4", "Keep me")),
		func(b *domain.Board) { b.Tasks["orphan"] = task("orphan", "Call mom") },
	))

	matches, err := MatchForDelete(store.Snapshot(), "- buy milk\n- Call Mom\n- Nothing like this")
	require.NoError(t, err)
	assert.Equal(t, []Match{
		{TaskID: "t1", Content: "Buy milk", ColumnTitle: "To Do"},
		{TaskID: "t3", Content: "Call mom", ColumnTitle: "In Progress"},
		{TaskID: "t2", Content: "  buy milk ", ColumnTitle: "Done"},
	}, matches)

	assert.Equal(t, 3, Delete(store, matches))
	assert.Equal(t, "Successfully deleted 3 task(s).", DeleteMessage(3))
	b := store.Snapshot()
	assert.Contains(t, b.Tasks, "t4")
	assert.NotContains(t, b.Tasks, "t1")
	assert.Empty(t, b.Columns["column-3"].TaskIDs)

	_, err = MatchForDelete(b, "")
	assert.ErrorIs(t, err, ErrNoTerms)
}
