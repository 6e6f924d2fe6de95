// Package storage persists the board and roster. An Adapter never returns
// errors: failures are logged at this boundary and degrade to a nil load or
// a skipped save, so callers keep working on possibly stale state.
package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/alexanderramin/boardsync/internal/domain"
)

// Adapter loads and saves the board and roster.
type Adapter interface {
	LoadBoard(ctx context.Context) *domain.Board
	SaveBoard(ctx context.Context, b domain.Board)
	LoadUsers(ctx context.Context) *domain.Roster
	SaveUsers(ctx context.Context, r domain.Roster)
}

// Subscriber is implemented by adapters that push remote changes. Each
// callback receives the full document; nil means the pushed document
// could not be decoded at all.
type Subscriber interface {
	SubscribeBoard(ctx context.Context, fn func(*domain.Board)) (unsubscribe func(), err error)
	SubscribeUsers(ctx context.Context, fn func(*domain.Roster)) (unsubscribe func(), err error)
}

// SettingsStore is implemented by adapters that keep per-device
// preferences.
type SettingsStore interface {
	LoadSettings(ctx context.Context) *domain.Settings
	SaveSettings(ctx context.Context, s domain.Settings)
}

// Kind tags which adapter variant is in use.
type Kind string

const (
	KindLocal  Kind = "local"
	KindRemote Kind = "remote"
)

// KindOf reports the variant of a.
func KindOf(a Adapter) Kind {
	if _, ok := a.(Subscriber); ok {
		return KindRemote
	}
	return KindLocal
}

// ErrDocNotFound is returned by a DocumentStore for a missing document.
var ErrDocNotFound = errors.New("document not found")

// DocumentStore is a shared store of JSON documents addressed by
// collection and id.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	Put(ctx context.Context, collection, id string, doc json.RawMessage) error
	// Watch calls fn with the full document after every change until stop
	// is called or ctx is done.
	Watch(ctx context.Context, collection, id string, fn func(json.RawMessage)) (stop func(), err error)
	Close() error
}
