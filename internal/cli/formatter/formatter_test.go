package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/boardsync/internal/coordinator"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/state"
	"github.com/alexanderramin/boardsync/internal/storage"
)

func sampleBoard() (domain.Board, domain.Roster) {
	b := domain.DefaultBoard()
	done := domain.Millis(time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC))
	b.Tasks["0f3c1a9e-aaaa"] = domain.Task{
		ID: "0f3c1a9e-aaaa", Content: "Water plants", Progress: 40,
		AssignedUserIDs: []string{"user-a"}, Icons: []string{domain.IconDaily, domain.IconCalm},
	}
	b.Tasks["77aa0000-bbbb"] = domain.Task{
		ID: "77aa0000-bbbb", Content: "Pay rent", Progress: 100,
		AssignedUserIDs: []string{"user-b"}, MovedToDoneAt: &done,
	}
	col := b.Columns["column-1"]
	col.TaskIDs = []string{"0f3c1a9e-aaaa"}
	b.Columns["column-1"] = col
	col = b.Columns["column-3"]
	col.TaskIDs = []string{"77aa0000-bbbb"}
	b.Columns["column-3"] = col

	r := domain.EmptyRoster()
	r.Users["user-a"] = domain.User{ID: "user-a", Name: "Ana", Color: "#FF6B6B"}
	r.Users["user-b"] = domain.User{ID: "user-b", Name: "Ben", Color: "#45B7D1"}
	cur := "user-a"
	r.CurrentUserID = &cur
	return b, r
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "1", ShortID("column-1"))
	assert.Equal(t, "0f3c1a9e", ShortID("0f3c1a9e-aaaa"))
	assert.Equal(t, "abc", ShortID("user-abc"))
}

func TestRenderBoard(t *testing.T) {
	b, r := sampleBoard()
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)

	out := RenderBoard(b, r, state.View{}, now)

	assert.Contains(t, out, "TO DO")
	assert.Contains(t, out, "IN PROGRESS")
	assert.Contains(t, out, "no tasks")
	assert.Contains(t, out, "Water plants")
	assert.Contains(t, out, "Ana")
	assert.Contains(t, out, "🌿 🔁")
	assert.Contains(t, out, "done 3h ago")
	assert.Less(t, strings.Index(out, "TO DO"), strings.Index(out, "DONE"))
}

func TestRenderBoard_Filtered(t *testing.T) {
	b, r := sampleBoard()
	v := state.View{Mode: state.FilterGlobal, Global: []string{"user-a"}}

	out := RenderBoard(b, r, v, time.Now())

	assert.Contains(t, out, "Water plants")
	assert.NotContains(t, out, "Pay rent")
	assert.Contains(t, out, "showing 0")
}

func TestRenderBoard_NoColumns(t *testing.T) {
	out := RenderBoard(domain.EmptyBoard(), domain.EmptyRoster(), state.View{}, time.Now())
	assert.Contains(t, out, "no columns")
}

func TestRenderUsers(t *testing.T) {
	_, r := sampleBoard()
	out := RenderUsers(r)
	assert.Less(t, strings.Index(out, "Ana"), strings.Index(out, "Ben"))
	assert.Contains(t, out, "*")
	assert.Equal(t, "No users yet.", RenderUsers(domain.EmptyRoster()))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, 10+5, lipgloss.Width(ProgressBar(50, 10)))
	assert.Contains(t, ProgressBar(150, 4), "100%")
	assert.Contains(t, ProgressBar(-3, 4), "  0%")
}

func TestIcons_StableOrder(t *testing.T) {
	assert.Equal(t, "⚡ 🔁", Icons([]string{domain.IconDaily, "bogus", domain.IconEnergy}))
	assert.Empty(t, Icons(nil))
}

func TestRenderTable_Aligns(t *testing.T) {
	out := RenderTable([]string{"A", "B"}, [][]string{{"long value", "x"}, {"s", "y"}})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, strings.Index(lines[2], "x"), strings.Index(lines[3], "y"))
}

func TestAgo(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"seconds", 10 * time.Second, "just now"},
		{"minutes", 5 * time.Minute, "5m ago"},
		{"hours", 30 * time.Hour, "30h ago"},
		{"days", 72 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ago(now.Add(-tt.d), now))
		})
	}
}

func TestFormatStatus(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	s := coordinator.Status{
		Kind: storage.KindLocal, Initialized: true,
		LastBoardSave: now.Add(-2 * time.Minute), BlockedUpdates: 1,
	}

	out := FormatStatus(s, BackupStatus{AutoEnabled: true, IntervalHours: 12}, now)

	assert.Contains(t, out, "local")
	assert.Contains(t, out, "2m ago")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "every 12h")
	assert.Contains(t, out, "wiped local data")
}
