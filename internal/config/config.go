package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Data backends selectable with DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env               string        `env:"APP_ENV"             envDefault:"development"`
	LogLevel          string        `env:"LOG_LEVEL"`
	HTTPPort          int           `env:"HTTP_PORT"           envDefault:"8000"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"    envDefault:"10s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT"     envDefault:"30s"`

	DataBackend string `env:"DATA_BACKEND" envDefault:"memory"`

	DatabaseDriver    string        `env:"DATABASE_DRIVER"       envDefault:"pgx"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"     envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"     envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME"  envDefault:"1h"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	DBConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS"   envDefault:"5"`
	DBRetryDelay      time.Duration `env:"DB_RETRY_DELAY"        envDefault:"2s"`

	MongoURL string `env:"URL_MONGO"`
	DBName   string `env:"DB_NAME" envDefault:"bibliotheca"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// JWTSecret enables bearer-token authorization when set.
	JWTSecret string        `env:"JWT_SECRET"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
}

// Load reads an optional .env file, then configuration values from the
// environment, applying defaults where necessary.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort)
	}

	switch c.DataBackend {
	case BackendMemory:
		// no-op
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	case BackendMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("URL_MONGO is required when DATA_BACKEND=mongo")
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND value: %s", c.DataBackend)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// AuthEnabled reports whether routes are protected by bearer tokens.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}
