package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
	DialectFile     = "file"
)

// Config holds the application configuration.
type Config struct {
	// GeminiAPIKey enables event generation. Empty means offline play.
	GeminiAPIKey      string
	Model             string
	GenerationTimeout time.Duration
	Addr              string
	DBDialect         string
	SQLitePath        string
	PostgresDSN       string
	SaveDir           string
}

// Offline reports whether no generator is configured.
func (c *Config) Offline() bool {
	return c.GeminiAPIKey == ""
}

// LoadConfig loads the configuration from environment variables, reading a .env file
// in the working directory first when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:             envOr("KW_MODEL", "gemini-2.5-flash"),
		GenerationTimeout: 8 * time.Second,
		Addr:              envOr("KW_ADDR", ":8080"),
		DBDialect:         strings.ToLower(envOr("DB_DIALECT", DialectSQLite)),
		SQLitePath:        envOr("DB_SQLITE_PATH", filepath.Join("tmp", "kitchen_wars.sqlite")),
		PostgresDSN:       envOr("DB_POSTGRES_DSN", strings.TrimSpace(os.Getenv("DATABASE_URL"))),
		SaveDir:           envOr("KW_SAVE_DIR", ".saves"),
	}

	if raw := strings.TrimSpace(os.Getenv("KW_GENERATION_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("KW_GENERATION_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("KW_GENERATION_TIMEOUT must be positive, got %s", raw)
		}
		cfg.GenerationTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the storage settings for the selected dialect.
func (c *Config) Validate() error {
	switch c.DBDialect {
	case DialectSQLite, DialectFile:
	case DialectPostgres:
		if c.PostgresDSN == "" {
			return errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported DB_DIALECT %q", c.DBDialect)
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
