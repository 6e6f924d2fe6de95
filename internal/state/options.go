package state

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/clock"
	"github.com/alexanderramin/boardsync/internal/logging"
)

type config struct {
	clock clock.Clock
	log   logrus.FieldLogger
	newID func() string
}

func defaultConfig() config {
	return config{
		clock: clock.Real{},
		log:   logging.Discard(),
		newID: uuid.NewString,
	}
}

// Option configures a store.
type Option func(*config)

// WithClock sets the clock used for lastUpdated and movedToDoneAt stamps.
func WithClock(c clock.Clock) Option {
	return func(cfg *config) { cfg.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) { cfg.log = logging.OrDiscard(l) }
}

// WithIDGenerator replaces the uuid generator. Tests use it for stable ids.
func WithIDGenerator(fn func() string) Option {
	return func(cfg *config) { cfg.newID = fn }
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
