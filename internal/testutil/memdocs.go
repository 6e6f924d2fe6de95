package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrMemDocNotFound is returned by MemDocStore.Get for missing documents.
// Callers compare it through the storage package's wrapping.
var ErrMemDocNotFound = errors.New("document not found")

// MemDocStore is an in-memory document store. Watchers are called
// synchronously from Put, which keeps tests deterministic.
type MemDocStore struct {
	mu       sync.Mutex
	docs     map[string]json.RawMessage
	watchers map[string]map[int]func(json.RawMessage)
	next     int

	// FailGets and FailPuts make the matching calls return an error.
	FailGets bool
	FailPuts bool
	// Puts records every written "collection/id" in order.
	Puts []string
}

func NewMemDocStore() *MemDocStore {
	return &MemDocStore{
		docs:     map[string]json.RawMessage{},
		watchers: map[string]map[int]func(json.RawMessage){},
	}
}

func docKey(collection, id string) string { return collection + "/" + id }

func (m *MemDocStore) Get(_ context.Context, collection, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGets {
		return nil, errors.New("memdocs: get unavailable")
	}
	doc, ok := m.docs[docKey(collection, id)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", docKey(collection, id), ErrMemDocNotFound)
	}
	return slices.Clone(doc), nil
}

func (m *MemDocStore) Put(_ context.Context, collection, id string, doc json.RawMessage) error {
	m.mu.Lock()
	if m.FailPuts {
		m.mu.Unlock()
		return errors.New("memdocs: put unavailable")
	}
	key := docKey(collection, id)
	m.docs[key] = slices.Clone(doc)
	m.Puts = append(m.Puts, key)
	fns := m.watchersOf(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(doc))
	}
	return nil
}

// Push delivers doc to the watchers of collection/id without storing it,
// as if another client had written a value the store then lost.
func (m *MemDocStore) Push(collection, id string, doc json.RawMessage) {
	m.mu.Lock()
	fns := m.watchersOf(docKey(collection, id))
	m.mu.Unlock()
	for _, fn := range fns {
		fn(slices.Clone(doc))
	}
}

func (m *MemDocStore) watchersOf(key string) []func(json.RawMessage) {
	ids := make([]int, 0, len(m.watchers[key]))
	for id := range m.watchers[key] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(json.RawMessage), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.watchers[key][id])
	}
	return fns
}

func (m *MemDocStore) Watch(_ context.Context, collection, id string, fn func(json.RawMessage)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := docKey(collection, id)
	if m.watchers[key] == nil {
		m.watchers[key] = map[int]func(json.RawMessage){}
	}
	wid := m.next
	m.next++
	m.watchers[key][wid] = fn
	return func() {
		m.mu.Lock()
		delete(m.watchers[key], wid)
		m.mu.Unlock()
	}, nil
}

// Watchers returns how many watchers are registered on collection/id.
func (m *MemDocStore) Watchers(collection, id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers[docKey(collection, id)])
}

// Doc returns the stored document, or nil.
func (m *MemDocStore) Doc(collection, id string) json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.docs[docKey(collection, id)])
}

func (m *MemDocStore) Close() error { return nil }
