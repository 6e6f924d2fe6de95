package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/boardsync/internal/domain"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func ms(d time.Duration) *int64 {
	v := domain.Millis(now.Add(-d))
	return &v
}

func boardWithDone(tasks ...domain.Task) domain.Board {
	b := domain.DefaultBoard()
	done := b.Columns["column-3"]
	for _, t := range tasks {
		b.Tasks[t.ID] = t
		done.TaskIDs = append(done.TaskIDs, t.ID)
	}
	b.Columns["column-3"] = done
	return b
}

func TestExpiredDoneTasks(t *testing.T) {
	b := boardWithDone(
		domain.Task{ID: "old", MovedToDoneAt: ms(25 * time.Hour)},
		domain.Task{ID: "old-daily", MovedToDoneAt: ms(25 * time.Hour), Icons: []string{domain.IconDaily}},
		domain.Task{ID: "fresh", MovedToDoneAt: ms(23 * time.Hour)},
		domain.Task{ID: "exact", MovedToDoneAt: ms(24 * time.Hour)},
		domain.Task{ID: "unstamped"},
	)

	assert.Equal(t, []string{"old"}, ExpiredDoneTasks(b, 24, now))
	assert.Nil(t, ExpiredDoneTasks(b, 0, now))
}

func TestExpiredDoneTasks_OnlyDoneColumn(t *testing.T) {
	b := domain.DefaultBoard()
	b.Tasks["t"] = domain.Task{ID: "t", MovedToDoneAt: ms(100 * time.Hour)}
	col := b.Columns["column-2"]
	col.TaskIDs = []string{"t"}
	b.Columns["column-2"] = col

	assert.Empty(t, ExpiredDoneTasks(b, 1, now))
}

func TestDueRecurringTasks(t *testing.T) {
	daily := []string{domain.IconDaily}
	b := boardWithDone(
		domain.Task{ID: "due", Icons: daily, LastUpdated: ms(25 * time.Hour), MovedToDoneAt: ms(25 * time.Hour)},
		domain.Task{ID: "recent", Icons: daily, LastUpdated: ms(time.Hour)},
		domain.Task{ID: "boundary", Icons: daily, LastUpdated: ms(24 * time.Hour)},
		domain.Task{ID: "plain", LastUpdated: ms(48 * time.Hour)},
	)

	assert.Equal(t, []Reset{
		{TaskID: "due", From: "column-3", To: "column-1"},
		{TaskID: "boundary", From: "column-3", To: "column-1"},
	}, DueRecurringTasks(b, now))
}

func TestDueRecurringTasks_NeedsBothColumns(t *testing.T) {
	b := boardWithDone(domain.Task{ID: "due", Icons: []string{domain.IconDaily}, LastUpdated: ms(48 * time.Hour)})
	delete(b.Columns, "column-1")
	assert.Nil(t, DueRecurringTasks(b, now))
}
