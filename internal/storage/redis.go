package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/logging"
)

// RedisDocStore keeps each document under the key "<collection>:<id>" and
// publishes every write on a channel of the same name.
type RedisDocStore struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, opts *redis.Options, log logrus.FieldLogger) (*RedisDocStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return NewRedisDocStore(client, log), nil
}

func NewRedisDocStore(client *redis.Client, log logrus.FieldLogger) *RedisDocStore {
	return &RedisDocStore{client: client, log: logging.OrDiscard(log).WithField("backend", "redis")}
}

func redisKey(collection, id string) string {
	return collection + ":" + id
}

func (r *RedisDocStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	data, err := r.client.Get(ctx, redisKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", redisKey(collection, id), ErrDocNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", redisKey(collection, id), err)
	}
	return data, nil
}

func (r *RedisDocStore) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	key := redisKey(collection, id)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, []byte(doc), 0)
		pipe.Publish(ctx, key, []byte(doc))
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (r *RedisDocStore) Watch(ctx context.Context, collection, id string, fn func(json.RawMessage)) (func(), error) {
	key := redisKey(collection, id)
	sub := r.client.Subscribe(ctx, key)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", key, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range sub.Channel() {
			fn(json.RawMessage(msg.Payload))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Close(); err != nil {
				r.log.WithError(err).WithField("key", key).Debug("closing subscription")
			}
			<-done
		})
	}, nil
}

func (r *RedisDocStore) Close() error {
	return r.client.Close()
}
