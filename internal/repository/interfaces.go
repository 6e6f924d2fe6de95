package repository

import (
	"context"
	"time"
)

// Entry is one stored key with its value and last write time.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// KVRepo is a flat string key/value store.
type KVRepo interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// ListByPrefix returns the entries whose key starts with prefix,
	// sorted by key.
	ListByPrefix(ctx context.Context, prefix string) ([]Entry, error)
}
