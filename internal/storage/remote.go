package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/domain"
	"github.com/alexanderramin/boardsync/internal/logging"
	"github.com/alexanderramin/boardsync/internal/validate"
)

// Collections of the shared document store.
const (
	CollectionBoards  = "boards"
	CollectionUsers   = "users"
	CollectionBackups = "backups"
)

// Docs names the shared documents. There is one board per deployment.
type Docs struct {
	Board  string
	Users  string
	Backup string
}

// DefaultDocs returns the document ids used when none are configured.
func DefaultDocs() Docs {
	return Docs{Board: "default-board", Users: "default-users", Backup: "latest-backup"}
}

// Remote keeps the board and roster in a shared DocumentStore and streams
// remote changes to subscribers.
type Remote struct {
	store DocumentStore
	docs  Docs
	log   logrus.FieldLogger
}

func NewRemote(store DocumentStore, docs Docs, log logrus.FieldLogger) *Remote {
	return &Remote{
		store: store,
		docs:  docs,
		log:   logging.OrDiscard(log).WithField("adapter", "remote"),
	}
}

func (r *Remote) LoadBoard(ctx context.Context) *domain.Board {
	raw := r.get(ctx, CollectionBoards, r.docs.Board)
	if raw == nil {
		return nil
	}
	b, err := validate.DecodeBoard(raw)
	if err != nil {
		r.log.WithError(err).WithField("event", logging.EventStorageInvalid).Warn("decoding board")
		return nil
	}
	return b
}

func (r *Remote) SaveBoard(ctx context.Context, b domain.Board) {
	if !validate.IsValidBoard(&b) {
		r.log.WithField("event", logging.EventStorageInvalid).Error("refusing to save malformed board")
		return
	}
	r.put(ctx, CollectionBoards, r.docs.Board, r.docs.Backup+"-board", b)
}

func (r *Remote) LoadUsers(ctx context.Context) *domain.Roster {
	raw := r.get(ctx, CollectionUsers, r.docs.Users)
	if raw == nil {
		return nil
	}
	u, err := validate.DecodeRoster(raw)
	if err != nil {
		r.log.WithError(err).WithField("event", logging.EventStorageInvalid).Warn("decoding users")
		return nil
	}
	return u
}

func (r *Remote) SaveUsers(ctx context.Context, u domain.Roster) {
	if !validate.IsValidRoster(&u) {
		r.log.WithField("event", logging.EventStorageInvalid).Error("refusing to save malformed users")
		return
	}
	r.put(ctx, CollectionUsers, r.docs.Users, r.docs.Backup+"-users", u)
}

// SubscribeBoard streams every change of the board document to fn. The
// snapshot is decoded without validation; missing containers stay nil so
// the receiver can reject it.
func (r *Remote) SubscribeBoard(ctx context.Context, fn func(*domain.Board)) (func(), error) {
	stop, err := r.store.Watch(ctx, CollectionBoards, r.docs.Board, func(raw json.RawMessage) {
		var b domain.Board
		if err := json.Unmarshal(raw, &b); err != nil {
			r.log.WithError(err).WithField("event", logging.EventStorageInvalid).Warn("undecodable board snapshot")
			fn(nil)
			return
		}
		fn(&b)
	})
	if err != nil {
		return nil, fmt.Errorf("watching board: %w", err)
	}
	return stop, nil
}

func (r *Remote) SubscribeUsers(ctx context.Context, fn func(*domain.Roster)) (func(), error) {
	stop, err := r.store.Watch(ctx, CollectionUsers, r.docs.Users, func(raw json.RawMessage) {
		var u domain.Roster
		if err := json.Unmarshal(raw, &u); err != nil {
			r.log.WithError(err).WithField("event", logging.EventStorageInvalid).Warn("undecodable users snapshot")
			fn(nil)
			return
		}
		fn(&u)
	})
	if err != nil {
		return nil, fmt.Errorf("watching users: %w", err)
	}
	return stop, nil
}

func (r *Remote) get(ctx context.Context, collection, id string) []byte {
	raw, err := r.store.Get(ctx, collection, id)
	if err != nil {
		entry := r.log.WithError(err).WithFields(logrus.Fields{"collection": collection, "id": id})
		if errors.Is(err, ErrDocNotFound) {
			entry.Debug("document does not exist yet")
		} else {
			entry.WithField("event", logging.EventStorageLoadFailed).Error("loading document")
		}
		return nil
	}
	return raw
}

// put writes v to the backup document and then to the primary one. A
// failed backup write does not stop the primary write.
func (r *Remote) put(ctx context.Context, collection, id, backupID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.WithError(err).WithField("event", logging.EventStorageSaveFailed).Error("encoding document")
		return
	}
	log := r.log.WithFields(logrus.Fields{"event": logging.EventStorageSaveFailed, "collection": collection})
	if err := r.store.Put(ctx, CollectionBackups, backupID, data); err != nil {
		log.WithError(err).Warn("writing backup document")
	}
	if err := r.store.Put(ctx, collection, id, data); err != nil {
		log.WithError(err).Error("saving document")
	}
}

// Close releases the underlying document store.
func (r *Remote) Close() error {
	return r.store.Close()
}
