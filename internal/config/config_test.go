package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "KW_MODEL", "KW_GENERATION_TIMEOUT", "KW_ADDR", "DB_DIALECT",
		"DB_SQLITE_PATH", "DB_POSTGRES_DSN", "DATABASE_URL", "KW_SAVE_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !cfg.Offline() {
		t.Error("expected offline without GEMINI_API_KEY")
	}
	if cfg.GenerationTimeout != 8*time.Second || cfg.Addr != ":8080" || cfg.DBDialect != DialectSQLite {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.SaveDir != ".saves" || cfg.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("KW_GENERATION_TIMEOUT", "250ms")
	t.Setenv("DB_DIALECT", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/kw")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Offline() || cfg.GenerationTimeout != 250*time.Millisecond {
		t.Errorf("overrides ignored: %+v", cfg)
	}
	if cfg.DBDialect != DialectPostgres || cfg.PostgresDSN != "postgres://localhost/kw" {
		t.Errorf("postgres settings wrong: %+v", cfg)
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"bad timeout", "KW_GENERATION_TIMEOUT", "soon", "KW_GENERATION_TIMEOUT"},
		{"negative timeout", "KW_GENERATION_TIMEOUT", "-1s", "must be positive"},
		{"unknown dialect", "DB_DIALECT", "mongo", "unsupported DB_DIALECT"},
		{"postgres without dsn", "DB_DIALECT", "postgres", "requires DB_POSTGRES_DSN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
