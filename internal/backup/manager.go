package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/clock"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/logging"
	"github.com/alexanderramin/boardsync/internal/repository"
	"github.com/alexanderramin/boardsync/internal/validate"
)

// ErrNoBackupData means the drive held nothing that could be restored.
var ErrNoBackupData = errors.New("no valid backup data found")

// Keys under which the manager remembers its state between runs.
const (
	KeyLastBackup   = "boardsync-last-backup"
	KeyAutoBackup   = "boardsync-auto-backup"
	KeyAutoInterval = "boardsync-backup-interval"
)

// DefaultIntervalHours is the auto-backup period when none is set.
const DefaultIntervalHours = 24

// Metadata describes one uploaded part.
type Metadata struct {
	Version    string `json:"version"`
	Timestamp  string `json:"timestamp"`
	DeviceInfo string `json:"deviceInfo"`
}

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Metadata Metadata        `json:"metadata"`
}

// Info holds the metadata of each part on the drive; nil when missing.
type Info struct {
	Board  *Metadata
	Users  *Metadata
	Config *Metadata
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

func WithClock(c clock.Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

func WithLogger(l logrus.FieldLogger) ManagerOption {
	return func(m *Manager) { m.log = logging.OrDiscard(l) }
}

// WithStateRepo persists the last backup time and auto-backup settings.
func WithStateRepo(kv repository.KVRepo) ManagerOption {
	return func(m *Manager) { m.kv = kv }
}

// WithFilePrefix sets the prefix of the drive file names.
func WithFilePrefix(p string) ManagerOption {
	return func(m *Manager) { m.prefix = p }
}

// Manager backs the stores up to a Drive, by hand or on a timer.
type Manager struct {
	stores Stores
	drive  Drive
	clock  clock.Clock
	log    logrus.FieldLogger
	kv     repository.KVRepo
	prefix string

	mu         sync.Mutex
	stopAuto   func()
	lastBackup time.Time
	autoOn     bool
	autoHours  int
}

func NewManager(stores Stores, drive Drive, opts ...ManagerOption) *Manager {
	m := &Manager{
		stores:    stores,
		drive:     drive,
		clock:     clock.Real{},
		log:       logging.Discard(),
		prefix:    "boardsync",
		autoHours: DefaultIntervalHours,
	}
	for _, o := range opts {
		o(m)
	}
	m.log = m.log.WithField("component", "backup")
	return m
}

func (m *Manager) boardFile() string  { return m.prefix + "-board-backup.json" }
func (m *Manager) usersFile() string  { return m.prefix + "-users-backup.json" }
func (m *Manager) configFile() string { return m.prefix + "-config-backup.json" }

// Load reads the remembered state.
func (m *Manager) Load(ctx context.Context) error {
	if m.kv == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok, err := m.get(ctx, KeyLastBackup); err != nil {
		return err
	} else if ok {
		if t, err := time.Parse(TimestampLayout, v); err == nil {
			m.lastBackup = t
		}
	}
	if v, ok, err := m.get(ctx, KeyAutoBackup); err != nil {
		return err
	} else if ok {
		m.autoOn = v == "true"
	}
	if v, ok, err := m.get(ctx, KeyAutoInterval); err != nil {
		return err
	} else if ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			m.autoHours = n
		}
	}
	return nil
}

func (m *Manager) get(ctx context.Context, key string) (string, bool, error) {
	e, err := m.kv.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (m *Manager) put(ctx context.Context, key, value string) {
	if m.kv == nil {
		return
	}
	if err := m.kv.Put(ctx, key, value); err != nil {
		m.log.WithError(err).WithField("key", key).Warn("remembering backup state")
	}
}

func (m *Manager) Init(ctx context.Context) error {
	return m.drive.Init(ctx)
}

func (m *Manager) Authenticate(ctx context.Context) error {
	return m.drive.RequestAccess(ctx)
}

func (m *Manager) IsAuthenticated() bool {
	return m.drive.IsAuthenticated()
}

// SignOut stops auto backups and forgets the drive session.
func (m *Manager) SignOut() {
	m.StopAuto()
	m.drive.SignOut()
}

func (m *Manager) metadata() Metadata {
	return Metadata{
		Version:    domain.BackupVersion,
		Timestamp:  m.clock.Now().UTC().Format(TimestampLayout),
		DeviceInfo: "boardsync/" + runtime.GOOS + "-" + runtime.GOARCH,
	}
}

func (m *Manager) upload(ctx context.Context, name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope{Data: raw, Metadata: m.metadata()})
	if err != nil {
		return err
	}
	return m.drive.Upload(ctx, name, body)
}

// CreateBackup uploads the board, users and settings as three files.
func (m *Manager) CreateBackup(ctx context.Context) error {
	if !m.drive.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	parts := []struct {
		name string
		data any
	}{
		{m.boardFile(), m.stores.Board.Snapshot()},
		{m.usersFile(), m.stores.Users.Snapshot()},
		{m.configFile(), m.stores.Prefs.Settings()},
	}
	for _, p := range parts {
		if err := m.upload(ctx, p.name, p.data); err != nil {
			m.log.WithError(err).WithField("event", logging.EventBackupFailed).Error("backup failed")
			return fmt.Errorf("backing up %s: %w", p.name, err)
		}
	}

	now := m.clock.Now()
	m.mu.Lock()
	m.lastBackup = now
	m.mu.Unlock()
	m.put(ctx, KeyLastBackup, now.UTC().Format(TimestampLayout))
	m.log.WithField("event", logging.EventBackupCreated).Info("backup created")
	return nil
}

func (m *Manager) download(ctx context.Context, name string) (*envelope, error) {
	raw, err := m.drive.Download(ctx, name)
	if errors.Is(err, ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		m.log.WithError(err).WithField("file", name).Warn("unreadable backup file")
		return nil, nil
	}
	return &env, nil
}

// RestoreBackup downloads every part and applies each one that is valid.
// It returns how many parts were applied.
func (m *Manager) RestoreBackup(ctx context.Context) (int, error) {
	if !m.drive.IsAuthenticated() {
		return 0, ErrNotAuthenticated
	}
	restored := 0

	env, err := m.download(ctx, m.boardFile())
	if err != nil {
		return 0, err
	}
	if env != nil {
		if b, err := validate.DecodeBoard(env.Data); err == nil {
			validate.MigrateBoard(b)
			m.stores.Board.SetBoardState(*b)
			restored++
		}
	}

	if env, err = m.download(ctx, m.usersFile()); err != nil {
		return restored, err
	}
	if env != nil {
		if u, err := validate.DecodeRoster(env.Data); err == nil {
			m.stores.Users.SetRoster(*u)
			restored++
		}
	}

	if env, err = m.download(ctx, m.configFile()); err != nil {
		return restored, err
	}
	if env != nil {
		var s struct {
			AutoDeleteHours *int `json:"autoDeleteHours"`
		}
		if err := json.Unmarshal(env.Data, &s); err == nil {
			if s.AutoDeleteHours != nil && *s.AutoDeleteHours >= 0 {
				_ = m.stores.Prefs.SetAutoDeleteHours(*s.AutoDeleteHours)
			}
			restored++
		}
	}

	if restored == 0 {
		return 0, ErrNoBackupData
	}
	m.log.WithFields(logrus.Fields{"event": logging.EventBackupRestored, "parts": restored}).Info("backup restored")
	return restored, nil
}

// Info reads the metadata of each part without applying anything.
func (m *Manager) Info(ctx context.Context) (Info, error) {
	var info Info
	for _, p := range []struct {
		name string
		dst  **Metadata
	}{
		{m.boardFile(), &info.Board},
		{m.usersFile(), &info.Users},
		{m.configFile(), &info.Config},
	} {
		env, err := m.download(ctx, p.name)
		if err != nil {
			return Info{}, err
		}
		if env != nil {
			md := env.Metadata
			*p.dst = &md
		}
	}
	return info, nil
}

// LastBackupTime reports when the last successful backup finished.
func (m *Manager) LastBackupTime() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastBackup, !m.lastBackup.IsZero()
}

// AutoBackup reports the auto-backup setting.
func (m *Manager) AutoBackup() (enabled bool, hours int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoOn, m.autoHours
}

// SetAutoBackup stores the auto-backup setting. hours <= 0 selects the
// default. A running schedule is not changed until StartAuto.
func (m *Manager) SetAutoBackup(ctx context.Context, enabled bool, hours int) {
	if hours <= 0 {
		hours = DefaultIntervalHours
	}
	m.mu.Lock()
	m.autoOn = enabled
	m.autoHours = hours
	m.mu.Unlock()
	m.put(ctx, KeyAutoBackup, strconv.FormatBool(enabled))
	m.put(ctx, KeyAutoInterval, strconv.Itoa(hours))
}

// StartAuto schedules periodic backups when they are enabled and the
// drive is signed in. It reports whether a schedule is running. Calling
// it again restarts the schedule.
func (m *Manager) StartAuto(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.autoOn || !m.drive.IsAuthenticated() {
		return false
	}
	if m.stopAuto != nil {
		m.stopAuto()
	}
	ctx = context.WithoutCancel(ctx)
	m.stopAuto = clock.Every(m.clock, time.Duration(m.autoHours)*time.Hour, func() {
		if err := m.CreateBackup(ctx); err != nil {
			m.log.WithError(err).WithField("event", logging.EventBackupFailed).Warn("auto backup failed")
		}
	})
	return true
}

func (m *Manager) StopAuto() {
	m.mu.Lock()
	stop := m.stopAuto
	m.stopAuto = nil
	m.mu.Unlock()
	if stop != nil {
		stop()
	}
}
