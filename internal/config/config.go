// Package config loads boardsync settings from defaults, an optional YAML
// file, an optional .env file and BOARDSYNC_* environment variables, in
// that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage kinds.
const (
	StorageLocal  = "local"
	StorageRemote = "remote"
)

// Remote backends.
const (
	BackendMongo = "mongo"
	BackendRedis = "redis"
	BackendHTTP  = "http"
)

// Config is the complete runtime configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Images  ImagesConfig  `mapstructure:"images"`
}

type StorageConfig struct {
	Kind      string      `mapstructure:"kind"`
	LocalPath string      `mapstructure:"local_path"`
	Backend   string      `mapstructure:"backend"`
	BoardID   string      `mapstructure:"board_id"`
	UsersID   string      `mapstructure:"users_id"`
	BackupID  string      `mapstructure:"backup_id"`
	Mongo     MongoConfig `mapstructure:"mongo"`
	Redis     RedisConfig `mapstructure:"redis"`
	HTTP      HTTPConfig  `mapstructure:"http"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type HTTPConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Secret  string `mapstructure:"secret"`
}

// SyncConfig holds the coordinator timings.
type SyncConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	EchoGrace     time.Duration `mapstructure:"echo_grace"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	DBPath    string `mapstructure:"db_path"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type BackupConfig struct {
	DrivePrefix   string `mapstructure:"drive_prefix"`
	AutoEnabled   bool   `mapstructure:"auto_enabled"`
	IntervalHours int    `mapstructure:"interval_hours"`
}

type ImagesConfig struct {
	Manifest string `mapstructure:"manifest"`
	Dir      string `mapstructure:"dir"`
}

// Default returns a Config with sensible defaults: local storage under
// ~/.boardsync, 500ms save debounce, 1s echo grace and 60s sweeps.
func Default() Config {
	dir := Dir()
	return Config{
		Storage: StorageConfig{
			Kind:      StorageLocal,
			LocalPath: filepath.Join(dir, "boardsync.db"),
			Backend:   BackendMongo,
			BoardID:   "default-board",
			UsersID:   "default-users",
			BackupID:  "latest-backup",
			Mongo:     MongoConfig{URI: "mongodb://localhost:27017", Database: "boardsync"},
			Redis:     RedisConfig{Addr: "localhost:6379"},
			HTTP:      HTTPConfig{BaseURL: "http://localhost:8080"},
		},
		Sync: SyncConfig{
			Debounce:      500 * time.Millisecond,
			EchoGrace:     time.Second,
			SweepInterval: time.Minute,
		},
		Log:    LogConfig{Level: "info"},
		Server: ServerConfig{Addr: ":8080", DBPath: filepath.Join(dir, "server.db")},
		Backup: BackupConfig{DrivePrefix: "boardsync", IntervalHours: 24},
	}
}

// Dir returns the per-user state directory.
func Dir() string {
	if v := os.Getenv("BOARDSYNC_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".boardsync"
	}
	return filepath.Join(home, ".boardsync")
}

// DefaultPath returns the config file consulted when none is given.
func DefaultPath() string {
	if v := os.Getenv("BOARDSYNC_CONFIG"); v != "" {
		return v
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Load builds the configuration. A missing file at path is not an error;
// an unreadable or malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	if err := loadFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("reading .env: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				*dst = d
			}
		}
	}

	str("BOARDSYNC_STORAGE", &cfg.Storage.Kind)
	str("BOARDSYNC_LOCAL_PATH", &cfg.Storage.LocalPath)
	str("BOARDSYNC_BACKEND", &cfg.Storage.Backend)
	str("BOARDSYNC_BOARD_ID", &cfg.Storage.BoardID)
	str("BOARDSYNC_USERS_ID", &cfg.Storage.UsersID)
	str("BOARDSYNC_MONGO_URI", &cfg.Storage.Mongo.URI)
	str("BOARDSYNC_MONGO_DATABASE", &cfg.Storage.Mongo.Database)
	str("BOARDSYNC_REDIS_ADDR", &cfg.Storage.Redis.Addr)
	str("BOARDSYNC_REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	if v := os.Getenv("BOARDSYNC_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Storage.Redis.DB = n
		}
	}
	str("BOARDSYNC_HTTP_URL", &cfg.Storage.HTTP.BaseURL)
	str("BOARDSYNC_HTTP_SECRET", &cfg.Storage.HTTP.Secret)

	dur("BOARDSYNC_DEBOUNCE", &cfg.Sync.Debounce)
	dur("BOARDSYNC_ECHO_GRACE", &cfg.Sync.EchoGrace)
	dur("BOARDSYNC_SWEEP_INTERVAL", &cfg.Sync.SweepInterval)

	str("BOARDSYNC_LOG_LEVEL", &cfg.Log.Level)
	str("BOARDSYNC_LOG_FILE", &cfg.Log.File)

	str("BOARDSYNC_SERVER_ADDR", &cfg.Server.Addr)
	str("BOARDSYNC_SERVER_DB", &cfg.Server.DBPath)
	str("BOARDSYNC_JWT_SECRET", &cfg.Server.JWTSecret)

	str("BOARDSYNC_DRIVE_PREFIX", &cfg.Backup.DrivePrefix)
	if v := os.Getenv("BOARDSYNC_AUTO_BACKUP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Backup.AutoEnabled = b
		}
	}
	if v := os.Getenv("BOARDSYNC_BACKUP_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Backup.IntervalHours = n
		}
	}

	str("BOARDSYNC_IMAGE_MANIFEST", &cfg.Images.Manifest)
	str("BOARDSYNC_IMAGE_DIR", &cfg.Images.Dir)
}
