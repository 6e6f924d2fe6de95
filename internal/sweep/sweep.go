// Package sweep computes the periodic board maintenance actions. The
// functions only read a board snapshot; callers apply the results through
// the board store.
package sweep

import (
	"time"

	"github.com/alexanderramin/boardsync/internal/domain"
)

// RecurEvery is how long a daily task stays in Done before it cycles back.
const RecurEvery = 24 * time.Hour

// ExpiredDoneTasks returns the tasks in the Done column that entered it
// more than hours ago. Daily tasks and tasks without a done stamp are
// kept. hours <= 0 disables the sweep.
func ExpiredDoneTasks(b domain.Board, hours int, now time.Time) []string {
	if hours <= 0 {
		return nil
	}
	done, ok := b.FindColumnByTitle(domain.TitleDone)
	if !ok {
		return nil
	}
	threshold := time.Duration(hours) * time.Hour

	var ids []string
	for _, id := range done.TaskIDs {
		t, ok := b.Tasks[id]
		if !ok || t.MovedToDoneAt == nil || t.HasIcon(domain.IconDaily) {
			continue
		}
		if now.Sub(domain.FromMillis(*t.MovedToDoneAt)) > threshold {
			ids = append(ids, id)
		}
	}
	return ids
}

// Reset moves a recurring task from the Done column back to To Do.
type Reset struct {
	TaskID string
	From   string
	To     string
}

// DueRecurringTasks returns the daily tasks in Done whose last update is
// at least RecurEvery old. It returns nil unless both a To Do and a Done
// column exist.
func DueRecurringTasks(b domain.Board, now time.Time) []Reset {
	todo, ok := b.FindColumnByTitle(domain.TitleToDo)
	if !ok {
		return nil
	}
	done, ok := b.FindColumnByTitle(domain.TitleDone)
	if !ok || done.ID == todo.ID {
		return nil
	}

	var resets []Reset
	for _, id := range done.TaskIDs {
		t, ok := b.Tasks[id]
		if !ok || t.LastUpdated == nil || !t.HasIcon(domain.IconDaily) {
			continue
		}
		if now.Sub(domain.FromMillis(*t.LastUpdated)) >= RecurEvery {
			resets = append(resets, Reset{TaskID: id, From: done.ID, To: todo.ID})
		}
	}
	return resets
}
