// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the full set of settings shared by every command.
type Config struct {
	Port       string `env:"PORT" env-default:"8000" env-description:"HTTP listen port"`
	BackendURL string `env:"FXRATEMANAGER_BACKEND_URL" env-default:"http://localhost:8000" env-description:"backend base URL used by watch"`

	DB          DB
	Rates       Rates
	Cron        Cron
	Poller      Poller
	CORSOrigins []string `env:"CORS_ORIGINS" env-default:"*" env-separator:"," env-description:"allowed CORS origins"`
	Publisher   Publisher
}

// DB selects the storage backend.
type DB struct {
	Driver      string `env:"FXRATEMANAGER_DB_DRIVER" env-default:"memory" env-description:"memory, sqlite, postgres or postgrespool"`
	DSN         string `env:"FXRATEMANAGER_DB_DSN" env-default:"fxratemanager.db"`
	AutoMigrate bool   `env:"FXRATEMANAGER_AUTO_MIGRATE" env-default:"false"`
}

// Rates tunes snapshot collection.
type Rates struct {
	CacheTTL     time.Duration `env:"FXRATEMANAGER_CACHE_TTL" env-default:"5s"`
	FetchTimeout time.Duration `env:"FXRATEMANAGER_FETCH_TIMEOUT" env-default:"10s"`
	Concurrency  int           `env:"FXRATEMANAGER_FETCH_CONCURRENCY" env-default:"4"`
	ReferenceURL string        `env:"FXRATEMANAGER_REFERENCE_URL" env-default:"https://api.exchangerate-api.com/v4/latest/TRY"`
	GoldSpotURL  string        `env:"FXRATEMANAGER_GOLD_SPOT_URL" env-default:"https://api.gold-api.com/price/XAU"`
}

// Cron sets the background refresh cadence.
type Cron struct {
	Interval string `env:"FXRATEMANAGER_CRON_INTERVAL" env-default:"60" env-description:"seconds or a cron expression"`
}

// Poller configures the watch command's snapshot poller.
type Poller struct {
	Interval    time.Duration `env:"FXRATEMANAGER_POLL_INTERVAL" env-default:"1s"`
	AutoRefresh bool          `env:"FXRATEMANAGER_AUTO_REFRESH" env-default:"true"`
	Epsilon     float64       `env:"FXRATEMANAGER_COMPARE_EPSILON" env-default:"0"`
}

// Publisher selects where new snapshots are published.
type Publisher struct {
	Backend      string   `env:"FXRATEMANAGER_PUBLISHER" env-default:"none" env-description:"none, nats or kafka"`
	NATSURL      string   `env:"NATS_URL" env-default:"nats://127.0.0.1:4222"`
	NATSSubject  string   `env:"NATS_SUBJECT" env-default:"fxrates.snapshot"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"fxrates.snapshot"`
}

var drivers = map[string]bool{"memory": true, "sqlite": true, "postgres": true, "postgrespool": true}

var publishers = map[string]bool{"none": true, "nats": true, "kafka": true}

// FromEnv loads .env from the working directory when present, then reads
// the environment. Values already set in the environment take precedence
// over the file.
func FromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	if !drivers[c.DB.Driver] {
		return fmt.Errorf("config: unsupported FXRATEMANAGER_DB_DRIVER %q", c.DB.Driver)
	}
	c.Publisher.Backend = strings.ToLower(strings.TrimSpace(c.Publisher.Backend))
	if c.Publisher.Backend == "" {
		c.Publisher.Backend = "none"
	}
	if !publishers[c.Publisher.Backend] {
		return fmt.Errorf("config: unsupported FXRATEMANAGER_PUBLISHER %q", c.Publisher.Backend)
	}
	if c.Rates.Concurrency < 1 {
		c.Rates.Concurrency = 1
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("config: FXRATEMANAGER_POLL_INTERVAL must be positive")
	}
	if c.Poller.Epsilon < 0 {
		return fmt.Errorf("config: FXRATEMANAGER_COMPARE_EPSILON must not be negative")
	}
	c.CORSOrigins = trimAll(c.CORSOrigins)
	c.Publisher.KafkaBrokers = trimAll(c.Publisher.KafkaBrokers)
	return nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Usage describes every supported variable.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
