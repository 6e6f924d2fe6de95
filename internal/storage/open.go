package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/clock"
	"github.com/alexanderramin/boardsync/internal/config"
	"github.com/alexanderramin/boardsync/internal/db"
)

// Open builds the adapter selected by cfg. The returned closer releases
// the database or remote connection.
func Open(ctx context.Context, cfg config.StorageConfig, log logrus.FieldLogger) (Adapter, io.Closer, error) {
	switch Kind(cfg.Kind) {
	case KindLocal:
		database, err := db.OpenDB(cfg.LocalPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening local storage: %w", err)
		}
		return NewLocal(database, clock.Real{}, log), database, nil

	case KindRemote:
		store, err := openDocStore(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		store = WithBreaker(store, BreakerSettings(cfg.Backend+"-docstore", log))
		docs := Docs{Board: cfg.BoardID, Users: cfg.UsersID, Backup: cfg.BackupID}
		remote := NewRemote(store, docs, log)
		return remote, remote, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
	}
}

func openDocStore(ctx context.Context, cfg config.StorageConfig, log logrus.FieldLogger) (DocumentStore, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		return DialMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
	case config.BackendRedis:
		return DialRedis(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
	case config.BackendHTTP:
		host, _ := os.Hostname()
		return NewHTTPDocStore(cfg.HTTP.BaseURL, cfg.HTTP.Secret, host, log)
	default:
		return nil, fmt.Errorf("unknown remote backend %q", cfg.Backend)
	}
}
