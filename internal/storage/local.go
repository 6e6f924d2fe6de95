package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/clock"
	"github.com/alexanderramin/boardsync/internal/db"
	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/logging"
	"github.com/alexanderramin/boardsync/internal/repository"
	"github.com/alexanderramin/boardsync/internal/validate"
)

// Keys of the local key/value store.
const (
	KeyBoard    = "boardsync-board"
	KeyUsers    = "boardsync-users"
	KeySettings = "boardsync-settings"
)

// MaxBackups is how many timestamped copies are kept per key.
const MaxBackups = 5

const backupInfix = "-backup-"

// Local keeps everything in a per-device SQLite key/value table. Every
// save first copies the previous value to a timestamped backup key.
type Local struct {
	db    *sql.DB
	uow   db.UnitOfWork
	clock clock.Clock
	log   logrus.FieldLogger
}

func NewLocal(database *sql.DB, clk clock.Clock, log logrus.FieldLogger) *Local {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Local{
		db:    database,
		uow:   db.NewSQLiteUnitOfWork(database),
		clock: clk,
		log:   logging.OrDiscard(log).WithField("adapter", "local"),
	}
}

// BackupKey returns the backup key for key taken at the clock's now.
// Colons and dots of the ISO timestamp are replaced by dashes.
func (l *Local) BackupKey(key string) string {
	stamp := l.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return key + backupInfix + stamp
}

func (l *Local) LoadBoard(ctx context.Context) *domain.Board {
	return loadDecoded(ctx, l, KeyBoard, validate.DecodeBoard)
}

func (l *Local) SaveBoard(ctx context.Context, b domain.Board) {
	if !validate.IsValidBoard(&b) {
		l.log.WithField("event", logging.EventStorageInvalid).Error("refusing to save malformed board")
		return
	}
	l.save(ctx, KeyBoard, b, true)
}

func (l *Local) LoadUsers(ctx context.Context) *domain.Roster {
	return loadDecoded(ctx, l, KeyUsers, validate.DecodeRoster)
}

func (l *Local) SaveUsers(ctx context.Context, r domain.Roster) {
	if !validate.IsValidRoster(&r) {
		l.log.WithField("event", logging.EventStorageInvalid).Error("refusing to save malformed users")
		return
	}
	l.save(ctx, KeyUsers, r, true)
}

func (l *Local) LoadSettings(ctx context.Context) *domain.Settings {
	return loadDecoded(ctx, l, KeySettings, decodeSettings)
}

func decodeSettings(raw []byte) (*domain.Settings, error) {
	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &s, nil
}

func (l *Local) SaveSettings(ctx context.Context, s domain.Settings) {
	l.save(ctx, KeySettings, s, false)
}

// Backups returns the backup keys of key, newest first.
func (l *Local) Backups(ctx context.Context, key string) ([]string, error) {
	entries, err := repository.NewSQLiteKVRepo(l.db).ListByPrefix(ctx, key+backupInfix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	slices.Reverse(keys)
	return keys, nil
}

// loadDecoded returns the primary value of key when it decodes, otherwise
// the newest backup that does.
func loadDecoded[T any](ctx context.Context, l *Local, key string, decode func([]byte) (*T, error)) *T {
	var out *T
	l.load(ctx, key, func(raw []byte) error {
		v, err := decode(raw)
		if err == nil {
			out = v
		}
		return err
	})
	return out
}

// load returns the primary value of key when it passes check, otherwise
// the newest backup that does.
func (l *Local) load(ctx context.Context, key string, check func([]byte) error) []byte {
	repo := repository.NewSQLiteKVRepo(l.db)
	log := l.log.WithField("key", key)

	entry, err := repo.Get(ctx, key)
	switch {
	case err == nil:
		if cerr := check([]byte(entry.Value)); cerr == nil {
			return []byte(entry.Value)
		} else {
			log.WithError(cerr).WithField("event", logging.EventStorageInvalid).Warn("stored value is invalid")
		}
	case errors.Is(err, repository.ErrNotFound):
	default:
		log.WithError(err).WithField("event", logging.EventStorageLoadFailed).Error("loading value")
		return nil
	}

	entries, err := repo.ListByPrefix(ctx, key+backupInfix)
	if err != nil {
		log.WithError(err).WithField("event", logging.EventStorageLoadFailed).Error("listing backups")
		return nil
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if check([]byte(entries[i].Value)) == nil {
			log.WithFields(logrus.Fields{
				"event":  logging.EventStorageFallback,
				"backup": entries[i].Key,
			}).Warn("restored from backup")
			return []byte(entries[i].Value)
		}
	}
	return nil
}

// save writes v under key. With backup set, the previous value is copied
// to a backup key and old backups are pruned in the same transaction.
func (l *Local) save(ctx context.Context, key string, v any, backup bool) {
	data, err := json.Marshal(v)
	if err != nil {
		l.log.WithError(err).WithField("event", logging.EventStorageSaveFailed).Error("encoding value")
		return
	}

	err = l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteKVRepo(tx)
		if backup {
			if err := l.rotate(ctx, repo, key); err != nil {
				return err
			}
		}
		return repo.Put(ctx, key, string(data))
	})
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"event": logging.EventStorageSaveFailed,
			"key":   key,
		}).Error("saving value")
	}
}

func (l *Local) rotate(ctx context.Context, repo repository.KVRepo, key string) error {
	prev, err := repo.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := repo.Put(ctx, l.BackupKey(key), prev.Value); err != nil {
		return err
	}

	entries, err := repo.ListByPrefix(ctx, key+backupInfix)
	if err != nil {
		return err
	}
	for i := 0; i < len(entries)-MaxBackups; i++ {
		if err := repo.Delete(ctx, entries[i].Key); err != nil {
			return fmt.Errorf("pruning backup: %w", err)
		}
	}
	return nil
}
