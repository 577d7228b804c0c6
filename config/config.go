// Package config loads runtime settings. Values are layered: built-in defaults, then
// config/<environment>.yaml, then APP_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	berr "github.com/next-trace/stashit/contract/errors"
)

const (
	EnvPrefix = "APP_"

	Development = "development"
	Production  = "production"
	Test        = "test"

	// DevelopmentSecret signs tokens outside production when no secret is configured.
	DevelopmentSecret = "stashit-development-secret"
)

type Config struct {
	Environment string `yaml:"environment" env:"ENVIRONMENT"`

	Log      Log      `yaml:"log"      envPrefix:"LOG_"`
	Bus      Bus      `yaml:"bus"      envPrefix:"BUS_"`
	Storage  Storage  `yaml:"storage"  envPrefix:"STORAGE_"`
	Sessions Sessions `yaml:"sessions" envPrefix:"SESSIONS_"`
	JWT      JWT      `yaml:"jwt"      envPrefix:"JWT_"`
	NATS     NATS     `yaml:"nats"     envPrefix:"NATS_"`
	Kafka    Kafka    `yaml:"kafka"    envPrefix:"KAFKA_"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq" envPrefix:"RABBITMQ_"`
	Tracing  Tracing  `yaml:"tracing"  envPrefix:"TRACING_"`
}

type Log struct {
	Level  string `yaml:"level"  env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Bus configures dispatch and the broker relay. Relay is none, memory, nats, kafka or rabbitmq.
type Bus struct {
	MaxDepth    int    `yaml:"max_depth"    env:"MAX_DEPTH"`
	Relay       string `yaml:"relay"        env:"RELAY"`
	TopicPrefix string `yaml:"topic_prefix" env:"TOPIC_PREFIX"`
}

// Storage selects the stash and ledger store: memory or sqlite.
type Storage struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn"    env:"DSN"`
}

// Sessions selects the session store: memory or redis.
type Sessions struct {
	Driver    string        `yaml:"driver"    env:"DRIVER"`
	Addr      string        `yaml:"addr"      env:"ADDR"`
	Password  string        `yaml:"password"  env:"PASSWORD"`
	DB        int           `yaml:"db"        env:"DB"`
	Retention time.Duration `yaml:"retention" env:"RETENTION"`
}

type JWT struct {
	Secret   string        `yaml:"secret"   env:"SECRET"`
	Issuer   string        `yaml:"issuer"   env:"ISSUER"`
	Audience string        `yaml:"audience" env:"AUDIENCE"`
	TTL      time.Duration `yaml:"ttl"      env:"TTL"`
}

type NATS struct {
	URL  string `yaml:"url"  env:"URL"`
	Name string `yaml:"name" env:"NAME"`
}

type Kafka struct {
	Brokers     []string `yaml:"brokers"     env:"BROKERS" envSeparator:","`
	ClientID    string   `yaml:"client_id"   env:"CLIENT_ID"`
	Acks        string   `yaml:"acks"        env:"ACKS"`
	Compression string   `yaml:"compression" env:"COMPRESSION"`
}

type RabbitMQ struct {
	URL      string `yaml:"url"      env:"URL"`
	Exchange string `yaml:"exchange" env:"EXCHANGE"`
}

// Tracing exports bus spans. Exporter is stdout or none.
type Tracing struct {
	Enabled  bool   `yaml:"enabled"  env:"ENABLED"`
	Exporter string `yaml:"exporter" env:"EXPORTER"`
}

// Default returns the built-in settings: in-memory everything, no relay, text logs at info.
func Default() Config {
	return Config{
		Environment: Development,
		Log:         Log{Level: "info", Format: "text"},
		Bus:         Bus{MaxDepth: 16, Relay: "none", TopicPrefix: "stashit"},
		Storage:     Storage{Driver: "memory"},
		Sessions:    Sessions{Driver: "memory", Retention: time.Hour},
		JWT: JWT{
			Issuer:   "auth.stash.it",
			Audience: "users.stash.it",
			TTL:      24 * time.Hour,
		},
		NATS:     NATS{Name: "stashit"},
		Kafka:    Kafka{ClientID: "stashit", Acks: "all"},
		RabbitMQ: RabbitMQ{Exchange: "stashit.integration"},
		Tracing:  Tracing{Exporter: "none"},
	}
}

// Load reads dir/<environment>.yaml, where the environment comes from APP_ENVIRONMENT
// (development when unset). A missing file leaves the defaults in place.
func Load(dir string) (Config, error) {
	environment := os.Getenv(EnvPrefix + "ENVIRONMENT")
	if environment == "" {
		environment = Development
	}

	cfg, err := load(filepath.Join(dir, environment+".yaml"), true)
	if err != nil {
		return Config{}, err
	}

	cfg.Environment = environment

	return finish(cfg)
}

// LoadFile reads the given file, which must exist, then applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg, err := load(path, false)
	if err != nil {
		return Config{}, err
	}

	return finish(cfg)
}

func load(path string, optional bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, errors.Join(berr.ErrInvalidValue, err))
	}

	return cfg, nil
}

func finish(cfg Config) (Config, error) {
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", errors.Join(berr.ErrInvalidValue, err))
	}

	if cfg.JWT.Secret == "" && cfg.Environment != Production {
		cfg.JWT.Secret = DevelopmentSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	oneOf := func(field, v string, allowed ...string) {
		check(slices.Contains(allowed, v), "%s %q: want one of %s", field, v, strings.Join(allowed, ", "))
	}

	oneOf("environment", c.Environment, Development, Production, Test)
	oneOf("log.level", c.Log.Level, "debug", "info", "warn", "error")
	oneOf("log.format", c.Log.Format, "text", "json")
	oneOf("bus.relay", c.Bus.Relay, "none", "memory", "nats", "kafka", "rabbitmq")
	oneOf("storage.driver", c.Storage.Driver, "memory", "sqlite")
	oneOf("sessions.driver", c.Sessions.Driver, "memory", "redis")
	oneOf("tracing.exporter", c.Tracing.Exporter, "stdout", "none")

	check(c.Bus.MaxDepth >= 1, "bus.max_depth %d: must be at least 1", c.Bus.MaxDepth)
	check(c.Bus.Relay != "nats" || c.NATS.URL != "", "nats.url required by bus.relay=nats")
	check(c.Bus.Relay != "kafka" || len(c.Kafka.Brokers) > 0, "kafka.brokers required by bus.relay=kafka")
	check(c.Bus.Relay != "rabbitmq" || c.RabbitMQ.URL != "", "rabbitmq.url required by bus.relay=rabbitmq")
	check(c.Storage.Driver != "sqlite" || c.Storage.DSN != "", "storage.dsn required by storage.driver=sqlite")
	check(c.Sessions.Driver != "redis" || c.Sessions.Addr != "", "sessions.addr required by sessions.driver=redis")
	check(c.JWT.Secret != "", "jwt.secret required")
	check(c.Environment != Production || c.JWT.Secret != DevelopmentSecret, "jwt.secret must be set in production")
	check(c.JWT.TTL > 0, "jwt.ttl must be positive")
	check(!c.Tracing.Enabled || c.Tracing.Exporter != "none", "tracing.exporter required when tracing is enabled")

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("invalid config: %w", errors.Join(append([]error{berr.ErrInvalidValue}, errs...)...))
}
