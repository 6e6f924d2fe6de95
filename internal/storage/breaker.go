package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/alexanderramin/boardsync/internal/logging"
)

// breakerDocStore guards a remote DocumentStore with a circuit breaker so
// an unreachable backend fails fast instead of stalling every save.
type breakerDocStore struct {
	next DocumentStore
	cb   *gobreaker.CircuitBreaker
}

// BreakerSettings returns the breaker configuration for a backend.
func BreakerSettings(name string, log logrus.FieldLogger) gobreaker.Settings {
	log = logging.OrDiscard(log)
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			// A missing document is an answer, not an outage.
			return err == nil || errors.Is(err, ErrDocNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"event":   logging.EventBreakerStateChange,
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker changed state")
		},
	}
}

// WithBreaker wraps store in a circuit breaker built from settings.
func WithBreaker(store DocumentStore, settings gobreaker.Settings) DocumentStore {
	return &breakerDocStore{next: store, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerDocStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, collection, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

func (b *breakerDocStore) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Put(ctx, collection, id, doc)
	})
	return err
}

// Watch is not guarded: a subscription is long-lived and reconnects on
// its own.
func (b *breakerDocStore) Watch(ctx context.Context, collection, id string, fn func(json.RawMessage)) (func(), error) {
	return b.next.Watch(ctx, collection, id, fn)
}

func (b *breakerDocStore) Close() error {
	return b.next.Close()
}

// State reports the breaker state, for status output.
func (b *breakerDocStore) State() gobreaker.State {
	return b.cb.State()
}
