package testutil

import (
	"time"

	"github.com/alexanderramin/boardsync/internal/domain"
)

// BoardOption mutates a board under construction.
type BoardOption func(*domain.Board)

// NewBoard builds the default three-column board and applies opts.
func NewBoard(opts ...BoardOption) domain.Board {
	b := domain.DefaultBoard()
	for _, o := range opts {
		o(&b)
	}
	return b
}

// WithTask adds t to the tail of columnID.
func WithTask(columnID string, t domain.Task) BoardOption {
	return func(b *domain.Board) {
		b.Tasks[t.ID] = t
		col := b.Columns[columnID]
		col.TaskIDs = append(col.TaskIDs, t.ID)
		b.Columns[columnID] = col
	}
}

// WithColumn appends an empty column.
func WithColumn(id, title string) BoardOption {
	return func(b *domain.Board) {
		b.Columns[id] = domain.Column{ID: id, Title: title, TaskIDs: []string{}}
		b.ColumnOrder = append(b.ColumnOrder, id)
	}
}

// NewRoster builds a roster of users named after their ids. The first
// user is current.
func NewRoster(ids ...string) domain.Roster {
	r := domain.EmptyRoster()
	for i, id := range ids {
		r.Users[id] = domain.User{ID: id, Name: id, Color: domain.DefaultColors[i%len(domain.DefaultColors)]}
	}
	if len(ids) > 0 {
		cur := ids[0]
		r.CurrentUserID = &cur
	}
	return r
}

// Ms returns a pointer to t in epoch milliseconds.
func Ms(t time.Time) *int64 {
	v := domain.Millis(t)
	return &v
}
