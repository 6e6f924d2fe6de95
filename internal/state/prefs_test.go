package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/boardsync/internal/domain"
)

func TestPreferences_Settings(t *testing.T) {
	p := NewPreferences()
	require.NoError(t, p.SetAutoDeleteHours(24))
	p.SetEditMode(true)

	assert.Equal(t, domain.Settings{AutoDeleteHours: 24, IsEditMode: true}, p.Settings())
	assert.ErrorIs(t, p.SetAutoDeleteHours(-1), ErrNegativeHours)
	assert.Equal(t, 24, p.AutoDeleteHours())

	p.ApplySettings(domain.Settings{AutoDeleteHours: -5})
	assert.Equal(t, domain.Settings{}, p.Settings())
}

func TestPreferences_Subscribe(t *testing.T) {
	p := NewPreferences()
	var calls int
	p.Subscribe(func(View) { calls++ })

	p.SetEditMode(true)
	_ = p.SetAutoDeleteHours(-1)
	assert.Equal(t, 1, calls)
}

func TestVisibleTasks(t *testing.T) {
	b := domain.DefaultBoard()
	b.Tasks["a"] = domain.Task{ID: "a", AssignedUserIDs: []string{"u1"}}
	b.Tasks["b"] = domain.Task{ID: "b", AssignedUserIDs: []string{"u2", "u3"}}
	b.Tasks["c"] = domain.Task{ID: "c"}
	col := b.Columns["column-1"]
	col.TaskIDs = []string{"a", "b", "c"}
	b.Columns["column-1"] = col

	p := NewPreferences()
	assert.Equal(t, []string{"a", "b", "c"}, p.Snapshot().VisibleTasks(b, "column-1"))

	p.ToggleUserFilter("", "u3")
	assert.Equal(t, []string{"b"}, p.Snapshot().VisibleTasks(b, "column-1"))

	p.ToggleUserFilter("column-1", "u1")
	assert.Equal(t, []string{"b"}, p.Snapshot().VisibleTasks(b, "column-1"), "global mode ignores column filters")

	p.SetFilterMode(FilterPerColumn)
	assert.Equal(t, []string{"a"}, p.Snapshot().VisibleTasks(b, "column-1"))

	p.ApplyGlobalToAllColumns(b)
	assert.Equal(t, []string{"b"}, p.Snapshot().VisibleTasks(b, "column-1"))

	p.ClearUserFilters("column-1")
	assert.Equal(t, []string{"a", "b", "c"}, p.Snapshot().VisibleTasks(b, "column-1"))

	p.ToggleUserFilter("", "u3")
	assert.Empty(t, p.Snapshot().Global)
}
