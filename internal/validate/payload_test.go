package validate

import (
	"testing"

	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardWithOneTask() domain.Board {
	b := domain.DefaultBoard()
	b.Tasks["t1"] = domain.Task{ID: "t1", Content: "Buy milk"}
	col := b.Columns["column-1"]
	col.TaskIDs = []string{"t1"}
	b.Columns["column-1"] = col
	return b
}

func TestIsValidBoard_EmptyButWellShaped(t *testing.T) {
	b := domain.EmptyBoard()
	assert.True(t, IsValidBoard(&b))
}

func TestIsValidBoard_MissingContainers(t *testing.T) {
	assert.False(t, IsValidBoard(nil))
	assert.False(t, IsValidBoard(&domain.Board{Tasks: map[string]domain.Task{}, Columns: map[string]domain.Column{}}))
	assert.False(t, IsValidBoard(&domain.Board{Tasks: map[string]domain.Task{}, ColumnOrder: []string{}}))
}

func TestIsValidRoster(t *testing.T) {
	r := domain.EmptyRoster()
	assert.True(t, IsValidRoster(&r))
	assert.False(t, IsValidRoster(&domain.Roster{}))
	assert.False(t, IsValidRoster(nil))
}

func TestWouldLoseData_FullWipeBlocked(t *testing.T) {
	current := boardWithOneTask()
	empty := domain.EmptyBoard()
	assert.True(t, WouldLoseData(current, &empty))
}

func TestWouldLoseData_ColumnsPreservedAllowed(t *testing.T) {
	current := boardWithOneTask()
	incoming := current.Clone()
	incoming.Tasks = map[string]domain.Task{}
	for id, col := range incoming.Columns {
		col.TaskIDs = []string{}
		incoming.Columns[id] = col
	}
	assert.False(t, WouldLoseData(current, &incoming))
}

func TestWouldLoseData_InvalidIncomingBlocked(t *testing.T) {
	current := domain.EmptyBoard()
	assert.True(t, WouldLoseData(current, nil))
	assert.True(t, WouldLoseData(current, &domain.Board{}))
}

func TestWouldLoseData_EmptyCurrentAcceptsEmpty(t *testing.T) {
	current := domain.DefaultBoard()
	empty := domain.EmptyBoard()
	assert.False(t, WouldLoseData(current, &empty), "no tasks on current board, nothing to lose")
}

func TestWouldLoseData_SmallEditsAllowed(t *testing.T) {
	current := boardWithOneTask()
	incoming := current.Clone()
	task := incoming.Tasks["t1"]
	task.Progress = 50
	incoming.Tasks["t1"] = task
	assert.False(t, WouldLoseData(current, &incoming))
}

func TestCheckBoardJSON(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"empty board", `{"tasks":{},"columns":{},"columnOrder":[]}`, true},
		{"null", `null`, false},
		{"array", `[]`, false},
		{"missing columnOrder", `{"tasks":{},"columns":{}}`, false},
		{"columnOrder as object", `{"tasks":{},"columns":{},"columnOrder":{}}`, false},
		{"tasks as array", `{"tasks":[],"columns":{},"columnOrder":[]}`, false},
		{"null tasks", `{"tasks":null,"columns":{},"columnOrder":[]}`, false},
		{"garbage", `{"tasks":`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckBoardJSON([]byte(tc.raw))
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidBoard)
			}
		})
	}
}

func TestDecodeRoster(t *testing.T) {
	r, err := DecodeRoster([]byte(`{"users":{"u1":{"id":"u1","name":"Ana","color":"#FF6B6B"}},"currentUserId":"u1"}`))
	require.NoError(t, err)
	require.NotNil(t, r.CurrentUserID)
	assert.Equal(t, "u1", *r.CurrentUserID)
	assert.Equal(t, "Ana", r.Users["u1"].Name)

	_, err = DecodeRoster([]byte(`{"users":[]}`))
	assert.ErrorIs(t, err, ErrInvalidUsers)
}

func TestDecodeBoard_LegacyFieldSurvivesDecode(t *testing.T) {
	raw := `{"tasks":{"t1":{"id":"t1","content":"x","assignedUserId":"u1"}},"columns":{},"columnOrder":[]}`
	b, err := DecodeBoard([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "u1", b.Tasks["t1"].LegacyAssignedUserID)
}
