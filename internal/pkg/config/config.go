package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	. "github.com/go-ozzo/ozzo-validation"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	// application settings
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	ServiceName string `env:"SERVICE_NAME" env-default:"observ"`

	// logging configuration
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat    string `env:"LOG_FORMAT" env-default:"text"`
	LogAddSource bool   `env:"LOG_ADD_SOURCE" env-default:"false"`

	// storage backend; memory keeps everything in process and is seeded
	// from MEMORY_USERS
	StorageDriver string   `env:"STORAGE_DRIVER" env-default:"postgres"`
	MemoryUsers   []string `env:"MEMORY_USERS" env-separator:","`

	// database connection settings
	DatabaseHost     string `env:"DATABASE_HOST" env-default:"localhost"`
	DatabasePort     int    `env:"DATABASE_PORT" env-default:"5432"`
	DatabaseUser     string `env:"DATABASE_USER" env-default:"postgres"`
	DatabasePassword string `env:"DATABASE_PASSWORD"`
	DatabaseName     string `env:"DATABASE_NAME" env-default:"observ"`
	DatabaseSchema   string `env:"DATABASE_SCHEMA" env-default:"public"`
	DatabaseSSLMode  string `env:"DATABASE_SSL_MODE" env-default:"require"`

	// database connection pool settings
	DatabaseMaxConns          int32         `env:"DATABASE_MAX_CONNS" env-default:"25"`
	DatabaseMinConns          int32         `env:"DATABASE_MIN_CONNS" env-default:"5"`
	DatabaseMaxConnLifetime   time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" env-default:"1h"`
	DatabaseMaxConnIdleTime   time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	DatabaseHealthCheckPeriod time.Duration `env:"DATABASE_HEALTH_CHECK_PERIOD" env-default:"1m"`
	DatabaseConnectTimeout    time.Duration `env:"DATABASE_CONNECT_TIMEOUT" env-default:"30s"`
	DatabaseAcquireTimeout    time.Duration `env:"DATABASE_ACQUIRE_TIMEOUT" env-default:"10s"`

	// database migrations settings
	DatabaseMigrationEnabled bool          `env:"DATABASE_MIGRATION_ENABLED" env-default:"true"`
	DatabaseMigrationTimeout time.Duration `env:"DATABASE_MIGRATION_TIMEOUT" env-default:"5m"`
	DatabaseMigrationTable   string        `env:"DATABASE_MIGRATION_TABLE" env-default:"schema_version"`

	// http server configuration
	ServerHost           string        `env:"SERVER_HOST" env-default:"0.0.0.0"`
	ServerPort           int           `env:"SERVER_PORT" env-default:"8081"`
	ServerReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	ServerWriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	ServerIdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ServerRequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" env-default:"45s"`
	ServerCORSOrigins    []string      `env:"SERVER_CORS_ORIGINS" env-separator:","`

	// bearer tokens
	AuthJWTSecret   string        `env:"AUTH_JWT_SECRET" env-required:"true"`
	AuthTokenIssuer string        `env:"AUTH_TOKEN_ISSUER" env-default:"observ"`
	AuthTokenTTL    time.Duration `env:"AUTH_TOKEN_TTL" env-default:"24h"`

	// github commit api client
	GitHubAPIToken       string        `env:"GITHUB_API_TOKEN"`
	GitHubTimeout        time.Duration `env:"GITHUB_TIMEOUT" env-default:"30s"`
	GitHubRateLimit      float64       `env:"GITHUB_RATE_LIMIT" env-default:"10"`
	GitHubRateBurst      int           `env:"GITHUB_RATE_BURST" env-default:"5"`
	GitHubMaxConcurrency int           `env:"GITHUB_MAX_CONCURRENCY" env-default:"8"`

	MetricsEnabled bool `env:"METRICS_ENABLED" env-default:"true"`
}

// UserSeed is one MEMORY_USERS entry in "id:username:tier" form.
type UserSeed struct {
	ID       int64
	Username string
	Tier     int
}

func New() (*Config, error) {
	var cfg Config

	// read from .env file if exists (optional)
	if err := cleanenv.ReadConfig(".env", &cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read dotenv file: %w", err)
	}

	// read from environment variables (required)
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return ValidateStruct(c,
		Field(&c.StorageDriver, Required, In(StorageDriverPostgres, StorageDriverMemory)),
		Field(&c.MemoryUsers, By(validateSeeds)),
		Field(&c.ServerPort, Required, Min(1), Max(65535)),
		Field(&c.ServerRequestTimeout, Min(time.Duration(0))),
		Field(&c.GitHubMaxConcurrency, Required, Min(1), Max(64)),
	)
}

// UserSeeds parses MEMORY_USERS.
func (c *Config) UserSeeds() ([]UserSeed, error) {
	seeds := make([]UserSeed, 0, len(c.MemoryUsers))
	for _, raw := range c.MemoryUsers {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		seed, err := parseSeed(raw)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

func parseSeed(raw string) (UserSeed, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return UserSeed{}, fmt.Errorf("user seed %q: want id:username:tier", raw)
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return UserSeed{}, fmt.Errorf("user seed %q: bad id", raw)
	}
	if parts[1] == "" {
		return UserSeed{}, fmt.Errorf("user seed %q: empty username", raw)
	}
	tier, err := strconv.Atoi(parts[2])
	if err != nil || tier < 0 {
		return UserSeed{}, fmt.Errorf("user seed %q: bad tier", raw)
	}

	return UserSeed{ID: id, Username: parts[1], Tier: tier}, nil
}

func validateSeeds(value interface{}) error {
	raws, ok := value.([]string)
	if !ok {
		return fmt.Errorf("memory users must be a list")
	}
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := parseSeed(strings.TrimSpace(raw)); err != nil {
			return err
		}
	}
	return nil
}
