package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Auth providers
const (
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	Env      string `env:"ENV" env-default:"development"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	StoreDriver   string `env:"STORE_DRIVER" env-default:"postgres"`
	PostgresURL   string `env:"POSTGRES_CONN_STR"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" env-default:"socialmedia"`
	// MemorySeedFile is a JSON fixture of users and entities for the memory
	// driver. Without it the memory stores start empty and every toggle is a 404.
	MemorySeedFile string `env:"MEMORY_SEED_FILE"`

	AuthProvider            string `env:"AUTH_PROVIDER" env-default:"jwt"`
	JWTSecret               string `env:"JWT_SECRET"`
	FirebaseCredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`

	Reactions ReactionConfig
}

// ReactionConfig tunes the reaction core
type ReactionConfig struct {
	AdapterTimeout   time.Duration `env:"ADAPTER_TIMEOUT" env-default:"2s"`
	SearchMatchLimit int           `env:"SEARCH_MATCH_LIMIT" env-default:"500"`
	DefaultPageSize  int           `env:"DEFAULT_PAGE_SIZE" env-default:"20"`
	MaxPageSize      int           `env:"MAX_PAGE_SIZE" env-default:"100"`
	StatsWindowDays  int           `env:"STATS_WINDOW_DAYS" env-default:"7"`
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverPostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_CONN_STR environment variable not set"))
		}
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI environment variable not set"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %s or %s, got %q", DriverPostgres, DriverMemory, c.StoreDriver))
	}

	switch c.AuthProvider {
	case AuthJWT:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET environment variable not set"))
		}
	case AuthFirebase:
		if c.FirebaseCredentialsPath == "" {
			errs = append(errs, errors.New("FIREBASE_CREDENTIALS_PATH environment variable not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER must be %s or %s, got %q", AuthJWT, AuthFirebase, c.AuthProvider))
	}

	r := c.Reactions
	if r.SearchMatchLimit <= 0 {
		errs = append(errs, errors.New("SEARCH_MATCH_LIMIT must be positive"))
	}
	if r.DefaultPageSize <= 0 || r.MaxPageSize < r.DefaultPageSize {
		errs = append(errs, errors.New("DEFAULT_PAGE_SIZE must be positive and not above MAX_PAGE_SIZE"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the server runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
