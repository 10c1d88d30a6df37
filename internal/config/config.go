package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the combat server.
type Server struct {
	LogLevel  string `yaml:"log_level" env:"COMBAT_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"COMBAT_LOG_FORMAT"` // text | json

	HTTP     HTTPConfig     `yaml:"http" envPrefix:"COMBAT_HTTP_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"COMBAT_DB_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"COMBAT_REDIS_"`
	NATS     NATSConfig     `yaml:"nats" envPrefix:"COMBAT_NATS_"`
	Metrics  MetricsConfig  `yaml:"metrics" envPrefix:"COMBAT_METRICS_"`
	Sweeper  SweeperConfig  `yaml:"sweeper" envPrefix:"COMBAT_SWEEPER_"`
	Admin    AdminConfig    `yaml:"admin"`

	Characters CharactersConfig `yaml:"characters" envPrefix:"COMBAT_CHARACTERS_"`

	Combat    Combat    `yaml:"combat"`
	Abilities Abilities `yaml:"abilities" envPrefix:"COMBAT_ABILITIES_"`
}

// HTTPConfig configures the echo transport.
type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
// When Enabled is false definitions live in memory only.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
	MaxConns int32  `yaml:"max_conns" env:"MAX_CONNS"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// RedisConfig configures the Redis-backed caller allowlist.
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Addr      string `yaml:"addr" env:"ADDR"`
	Password  string `yaml:"password" env:"PASSWORD"`
	DB        int    `yaml:"db" env:"DB"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// NATSConfig configures outcome notification publishing.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	URL           string `yaml:"url" env:"URL"`
	SubjectPrefix string `yaml:"subject_prefix" env:"SUBJECT_PREFIX"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// SweeperConfig configures the background compaction of expired effects.
type SweeperConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Schedule string `yaml:"schedule" env:"SCHEDULE"`
}

// CharactersConfig points at the static roster served when the database
// is disabled.
type CharactersConfig struct {
	CatalogFile string `yaml:"catalog_file" env:"CATALOG_FILE"`
}

// AdminConfig lists privileged API keys (bcrypt hashes) and the initial
// triggerMove allowlist.
type AdminConfig struct {
	Keys              []AdminKey `yaml:"keys"`
	AuthorizedCallers []string   `yaml:"authorized_callers"`
}

// AdminKey is one privileged credential.
type AdminKey struct {
	Name string `yaml:"name"`
	Hash string `yaml:"hash"`
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:  "info",
		LogFormat: "text",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "combat",
			Password: "combat",
			DBName:   "combat",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "combat",
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "combat",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Sweeper: SweeperConfig{
			Enabled:  true,
			Schedule: "@every 1m",
		},
		Characters: CharactersConfig{
			CatalogFile: "config/characters.yaml",
		},
		Combat:    DefaultCombat(),
		Abilities: DefaultAbilities(),
	}
}

// Load loads server config from a YAML file and applies COMBAT_* environment
// overrides. If the file doesn't exist, defaults are used.
func Load(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing env overrides: %w", err)
	}

	if err := cfg.Combat.Validate(); err != nil {
		return cfg, fmt.Errorf("combat config: %w", err)
	}
	if err := cfg.Abilities.Validate(); err != nil {
		return cfg, fmt.Errorf("abilities config: %w", err)
	}

	return cfg, nil
}
