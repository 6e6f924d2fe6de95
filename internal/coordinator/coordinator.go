// Package coordinator keeps the in-memory stores and a storage adapter in
// step: it loads and migrates persisted state on start, applies guarded
// remote pushes, writes local changes back with a debounce and runs the
// periodic board sweeps.
package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/clock"
	"github.com/alexanderramin/boardsync/internal/debounce"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/logging"
	"github.com/alexanderramin/boardsync/internal/state"
	"github.com/alexanderramin/boardsync/internal/storage"
	"github.com/alexanderramin/boardsync/internal/sweep"
	"github.com/alexanderramin/boardsync/internal/validate"
)

// Default timings.
const (
	DefaultDebounce      = 500 * time.Millisecond
	DefaultEchoGrace     = time.Second
	DefaultSweepInterval = time.Minute
)

var (
	ErrAlreadyStarted = errors.New("coordinator already started")
	ErrClosed         = errors.New("coordinator closed")
)

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(co *Coordinator) { co.log = logging.OrDiscard(l) }
}

// WithDebounce sets the quiet period before a local change is saved.
func WithDebounce(d time.Duration) Option {
	return func(co *Coordinator) { co.debounceDelay = d }
}

// WithEchoGrace sets how long local changes stay unsaved after a remote
// update was applied.
func WithEchoGrace(d time.Duration) Option {
	return func(co *Coordinator) { co.echoGrace = d }
}

// WithSettingsStore persists preferences somewhere other than the adapter,
// typically a local store when the board itself is remote.
func WithSettingsStore(ss storage.SettingsStore) Option {
	return func(co *Coordinator) { co.settings = ss }
}

func WithSweepInterval(d time.Duration) Option {
	return func(co *Coordinator) { co.sweepInterval = d }
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	Kind           storage.Kind
	Initialized    bool
	Live           bool
	Closed         bool
	LastBoardSave  time.Time
	LastUsersSave  time.Time
	BlockedUpdates int
	AppliedUpdates int
	PendingSaves   bool
}

// SweepResult lists what one sweep pass changed.
type SweepResult struct {
	Deleted []string
	Reset   []string
}

// echoGuard suppresses outbound saves for a while after a remote update.
type echoGuard struct {
	active bool
	gen    uint64
	timer  clock.Timer
}

type Coordinator struct {
	board    *state.BoardStore
	users    *state.UserStore
	prefs    *state.Preferences
	adapter  storage.Adapter
	settings storage.SettingsStore

	clock         clock.Clock
	log           logrus.FieldLogger
	debounceDelay time.Duration
	echoGrace     time.Duration
	sweepInterval time.Duration

	boardSave    *debounce.Debouncer
	usersSave    *debounce.Debouncer
	settingsSave *debounce.Debouncer

	mu          sync.Mutex
	ctx         context.Context
	started     bool
	initialized bool
	live        bool
	closed      bool
	boardEcho   echoGuard
	usersEcho   echoGuard
	status      Status
	stops       []func()
}

// New wires a coordinator to the stores and adapter. Nothing happens until
// Start.
func New(board *state.BoardStore, users *state.UserStore, prefs *state.Preferences, adapter storage.Adapter, opts ...Option) *Coordinator {
	c := &Coordinator{
		board:         board,
		users:         users,
		prefs:         prefs,
		adapter:       adapter,
		clock:         clock.Real{},
		log:           logging.Discard(),
		debounceDelay: DefaultDebounce,
		echoGrace:     DefaultEchoGrace,
		sweepInterval: DefaultSweepInterval,
		ctx:           context.Background(),
	}
	if ss, ok := adapter.(storage.SettingsStore); ok {
		c.settings = ss
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.WithField("component", "coordinator")
	c.boardSave = debounce.New(c.clock, c.debounceDelay, c.saveBoard)
	c.usersSave = debounce.New(c.clock, c.debounceDelay, c.saveUsers)
	c.settingsSave = debounce.New(c.clock, c.debounceDelay, c.saveSettings)
	return c
}

// Start loads persisted state, then begins mirroring local changes,
// listening for remote ones when the adapter supports it, and sweeping.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	// Saves outlive the caller's context: pending writes are flushed on
	// shutdown after it may have been cancelled.
	c.ctx = context.WithoutCancel(ctx)
	c.mu.Unlock()

	c.load(ctx)

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	stops := []func(){
		c.board.Subscribe(c.onBoardChange),
		c.users.Subscribe(c.onUsersChange),
		c.prefs.Subscribe(c.onPrefsChange),
	}

	live := false
	if sub, ok := c.adapter.(storage.Subscriber); ok {
		live = true
		if stop, err := sub.SubscribeBoard(ctx, c.applyRemoteBoard); err != nil {
			live = false
			c.log.WithError(err).WithField("event", logging.EventSyncSubscribeFailed).Warn("live board sync unavailable")
		} else {
			stops = append(stops, stop)
		}
		if stop, err := sub.SubscribeUsers(ctx, c.applyRemoteUsers); err != nil {
			live = false
			c.log.WithError(err).WithField("event", logging.EventSyncSubscribeFailed).Warn("live user sync unavailable")
		} else {
			stops = append(stops, stop)
		}
	}

	stops = append(stops, clock.Every(c.clock, c.sweepInterval, func() { c.RunSweeps(c.clock.Now()) }))

	c.mu.Lock()
	c.live = live
	c.stops = stops
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) load(ctx context.Context) {
	if b := c.adapter.LoadBoard(ctx); b != nil {
		if validate.IsValidBoard(b) {
			if n := validate.MigrateBoard(b); n > 0 {
				c.log.WithFields(logrus.Fields{"event": logging.EventSyncMigrated, "tasks": n}).Info("migrated legacy assignees")
			}
			c.board.SetBoardState(*b)
			c.log.WithFields(logrus.Fields{
				"event":   logging.EventSyncLoaded,
				"tasks":   len(b.Tasks),
				"columns": len(b.Columns),
			}).Info("board loaded")
		} else {
			c.log.WithField("event", logging.EventSyncInvalidPayload).Warn("stored board is malformed, keeping defaults")
		}
	}

	if r := c.adapter.LoadUsers(ctx); r != nil {
		if validate.IsValidRoster(r) {
			c.users.SetRoster(*r)
		} else {
			c.log.WithField("event", logging.EventSyncInvalidPayload).Warn("stored users are malformed, keeping defaults")
		}
	}

	if c.settings != nil {
		if s := c.settings.LoadSettings(ctx); s != nil {
			c.prefs.ApplySettings(*s)
		}
	}
}

func (c *Coordinator) shouldSave(g *echoGuard) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized && !c.closed && !g.active
}

func (c *Coordinator) onBoardChange(domain.Board) {
	if c.shouldSave(&c.boardEcho) {
		c.boardSave.Trigger()
	}
}

func (c *Coordinator) onUsersChange(domain.Roster) {
	if c.shouldSave(&c.usersEcho) {
		c.usersSave.Trigger()
	}
}

func (c *Coordinator) onPrefsChange(state.View) {
	c.mu.Lock()
	ok := c.initialized && !c.closed && c.settings != nil
	c.mu.Unlock()
	if ok {
		c.settingsSave.Trigger()
	}
}

func (c *Coordinator) saveBoard() {
	if c.isClosed() {
		return
	}
	c.adapter.SaveBoard(c.context(), c.board.Snapshot())
	c.mu.Lock()
	c.status.LastBoardSave = c.clock.Now()
	c.mu.Unlock()
}

func (c *Coordinator) saveUsers() {
	if c.isClosed() {
		return
	}
	c.adapter.SaveUsers(c.context(), c.users.Snapshot())
	c.mu.Lock()
	c.status.LastUsersSave = c.clock.Now()
	c.mu.Unlock()
}

func (c *Coordinator) saveSettings() {
	if c.isClosed() {
		return
	}
	if c.settings != nil {
		c.settings.SaveSettings(c.context(), c.prefs.Settings())
	}
}

func (c *Coordinator) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// receive raises g for the echo grace window. A new arrival restarts the
// window.
func (c *Coordinator) receive(g *echoGuard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.active = true
	g.gen++
	gen := g.gen
	g.timer = c.clock.AfterFunc(c.echoGrace, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if g.gen == gen {
			g.active = false
			g.timer = nil
		}
	})
}

// applyRemoteBoard replaces the local board with a pushed one unless the
// push would wipe local data or is malformed. A push equal to the current
// board is dropped before the echo window opens: it is our own save coming
// back, and opening the window for it would swallow the next local edit.
// Every other applied push restarts the 1s window.
func (c *Coordinator) applyRemoteBoard(incoming *domain.Board) {
	if c.isClosed() {
		return
	}
	current := c.board.Snapshot()
	if validate.WouldLoseData(current, incoming) {
		c.mu.Lock()
		c.status.BlockedUpdates++
		c.mu.Unlock()

		if incoming == nil || !validate.IsValidBoard(incoming) {
			c.log.WithField("event", logging.EventSyncInvalidPayload).Warn("ignoring malformed remote board")
			return
		}
		c.log.WithFields(logrus.Fields{
			"event":   logging.EventSyncBlockedDataLoss,
			"tasks":   len(current.Tasks),
			"columns": len(current.Columns),
		}).Warn("ignoring remote board that would erase local data")
		return
	}

	if n := validate.MigrateBoard(incoming); n > 0 {
		c.log.WithFields(logrus.Fields{"event": logging.EventSyncMigrated, "tasks": n}).Info("migrated legacy assignees")
	}
	if sameJSON(current, incoming) {
		return
	}
	c.receive(&c.boardEcho)
	c.board.SetBoardState(*incoming)

	c.mu.Lock()
	c.status.AppliedUpdates++
	c.mu.Unlock()
	c.log.WithField("event", logging.EventSyncRemoteApplied).Debug("remote board applied")
}

// applyRemoteUsers is applyRemoteBoard for the roster, without the data
// loss guard. Equal pushes are dropped before the echo window opens.
func (c *Coordinator) applyRemoteUsers(incoming *domain.Roster) {
	if c.isClosed() {
		return
	}
	if !validate.IsValidRoster(incoming) {
		c.mu.Lock()
		c.status.BlockedUpdates++
		c.mu.Unlock()
		c.log.WithField("event", logging.EventSyncInvalidPayload).Warn("ignoring malformed remote users")
		return
	}
	if sameJSON(c.users.Snapshot(), incoming) {
		return
	}
	c.receive(&c.usersEcho)
	c.users.SetRoster(*incoming)

	c.mu.Lock()
	c.status.AppliedUpdates++
	c.mu.Unlock()
}

// sameJSON reports whether a and b encode identically. Map keys are sorted
// by encoding/json so equal documents compare equal.
func sameJSON(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// RunSweeps runs the auto-delete and recurring sweeps once against the
// current board.
func (c *Coordinator) RunSweeps(now time.Time) SweepResult {
	var res SweepResult
	if c.isClosed() {
		return res
	}

	if ids := sweep.ExpiredDoneTasks(c.board.Snapshot(), c.prefs.AutoDeleteHours(), now); len(ids) > 0 {
		c.board.DeleteTasks(ids)
		res.Deleted = ids
		c.log.WithFields(logrus.Fields{"event": logging.EventSweepDeleted, "tasks": len(ids)}).Info("auto-deleted finished tasks")
	}

	zero := 0
	for _, r := range sweep.DueRecurringTasks(c.board.Snapshot(), now) {
		if err := c.board.UpdateTask(r.TaskID, state.TaskPatch{Progress: &zero, ClearMovedToDone: true}); err != nil {
			continue
		}
		if err := c.board.MoveTask(r.TaskID, r.From, r.To, math.MaxInt); err != nil {
			continue
		}
		res.Reset = append(res.Reset, r.TaskID)
	}
	if len(res.Reset) > 0 {
		c.log.WithFields(logrus.Fields{"event": logging.EventSweepRecurred, "tasks": len(res.Reset)}).Info("recurring tasks reset")
	}
	return res
}

// Flush runs any pending saves now. It reports whether anything was
// written.
func (c *Coordinator) Flush() bool {
	b := c.boardSave.Flush()
	u := c.usersSave.Flush()
	s := c.settingsSave.Flush()
	return b || u || s
}

// Close stops everything. Pending saves are dropped; call Flush first to
// keep them. Close is idempotent.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stops := c.stops
	c.stops = nil
	for _, g := range []*echoGuard{&c.boardEcho, &c.usersEcho} {
		if g.timer != nil {
			g.timer.Stop()
			g.timer = nil
		}
	}
	c.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	c.boardSave.Cancel()
	c.usersSave.Cancel()
	c.settingsSave.Cancel()
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	s.Kind = storage.KindOf(c.adapter)
	s.Initialized = c.initialized
	s.Live = c.live
	s.Closed = c.closed
	s.PendingSaves = c.boardSave.Pending() || c.usersSave.Pending() || c.settingsSave.Pending()
	return s
}
