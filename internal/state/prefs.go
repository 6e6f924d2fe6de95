package state

import (
	"errors"
	"slices"
	"sync"

	"github.com/alexanderramin/boardsync/internal/domain"
)

var ErrNegativeHours = errors.New("auto-delete hours must not be negative")

// FilterMode selects which user filter applies to a column.
type FilterMode string

const (
	// FilterGlobal applies the global filter to every column.
	FilterGlobal FilterMode = "global"
	// FilterPerColumn applies each column's own filter.
	FilterPerColumn FilterMode = "column"
)

// AutoDeleteChoices are the thresholds offered by the CLI, in hours.
var AutoDeleteChoices = []int{0, 1, 2, 4, 8, 12, 24, 48, 72, 168}

// View is a snapshot of the preferences.
type View struct {
	EditMode        bool
	AutoDeleteHours int
	Mode            FilterMode
	Global          []string
	Columns         map[string][]string
}

// Preferences holds view-only state. Only the auto-delete threshold and
// edit mode are persisted, through Settings.
type Preferences struct {
	mu   sync.Mutex
	v    View
	subs listeners[View]
}

func NewPreferences() *Preferences {
	return &Preferences{v: View{Mode: FilterGlobal, Global: []string{}, Columns: map[string][]string{}}}
}

func (p *Preferences) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v.clone()
}

func (v View) clone() View {
	c := v
	c.Global = slices.Clone(v.Global)
	c.Columns = make(map[string][]string, len(v.Columns))
	for k, ids := range v.Columns {
		c.Columns[k] = slices.Clone(ids)
	}
	return c
}

func (p *Preferences) Subscribe(fn func(View)) (unsubscribe func()) {
	return p.subs.add(fn)
}

func (p *Preferences) update(fn func(v *View) error) error {
	p.mu.Lock()
	err := fn(&p.v)
	snap := p.v.clone()
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.subs.notify(snap)
	return nil
}

func (p *Preferences) AutoDeleteHours() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v.AutoDeleteHours
}

// SetAutoDeleteHours sets the threshold; 0 disables the sweep.
func (p *Preferences) SetAutoDeleteHours(hours int) error {
	if hours < 0 {
		return ErrNegativeHours
	}
	return p.update(func(v *View) error {
		v.AutoDeleteHours = hours
		return nil
	})
}

func (p *Preferences) SetEditMode(on bool) {
	_ = p.update(func(v *View) error {
		v.EditMode = on
		return nil
	})
}

func (p *Preferences) SetFilterMode(mode FilterMode) {
	_ = p.update(func(v *View) error {
		v.Mode = mode
		return nil
	})
}

// ToggleUserFilter adds or removes userID from the filter of columnID, or
// from the global filter when columnID is empty.
func (p *Preferences) ToggleUserFilter(columnID, userID string) {
	_ = p.update(func(v *View) error {
		ids := v.Global
		if columnID != "" {
			ids = v.Columns[columnID]
		}
		if i := slices.Index(ids, userID); i >= 0 {
			ids = slices.Delete(slices.Clone(ids), i, i+1)
		} else {
			ids = append(slices.Clone(ids), userID)
		}
		if columnID == "" {
			v.Global = ids
		} else {
			v.Columns[columnID] = ids
		}
		return nil
	})
}

// ClearUserFilters empties the filter of columnID, or the global one.
func (p *Preferences) ClearUserFilters(columnID string) {
	_ = p.update(func(v *View) error {
		if columnID == "" {
			v.Global = []string{}
		} else {
			delete(v.Columns, columnID)
		}
		return nil
	})
}

// ApplyGlobalToAllColumns copies the global filter into every column of
// b and switches to per-column mode.
func (p *Preferences) ApplyGlobalToAllColumns(b domain.Board) {
	_ = p.update(func(v *View) error {
		for id := range b.Columns {
			v.Columns[id] = slices.Clone(v.Global)
		}
		v.Mode = FilterPerColumn
		return nil
	})
}

// Settings returns the persisted subset.
func (p *Preferences) Settings() domain.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.Settings{AutoDeleteHours: p.v.AutoDeleteHours, IsEditMode: p.v.EditMode}
}

// ApplySettings restores the persisted subset. Negative thresholds are
// treated as disabled.
func (p *Preferences) ApplySettings(s domain.Settings) {
	_ = p.update(func(v *View) error {
		v.AutoDeleteHours = max(s.AutoDeleteHours, 0)
		v.EditMode = s.IsEditMode
		return nil
	})
}

// VisibleTasks returns the task ids of column that pass the active filter,
// in column order. An empty filter shows everything; otherwise a task is
// shown when any of its assignees is in the filter.
func (v View) VisibleTasks(b domain.Board, columnID string) []string {
	col, ok := b.Columns[columnID]
	if !ok {
		return nil
	}
	filter := v.Global
	if v.Mode == FilterPerColumn {
		filter = v.Columns[columnID]
	}
	var out []string
	for _, id := range col.TaskIDs {
		t, ok := b.Tasks[id]
		if !ok {
			continue
		}
		if len(filter) == 0 || slices.ContainsFunc(filter, t.IsAssigned) {
			out = append(out, id)
		}
	}
	return out
}
