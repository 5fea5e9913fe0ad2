package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/room-booking/internal/availability"
)

var configKeys = []string{
	"ROOMBOOKING_ENV_FILE",
	"ROOMBOOKING_HTTP_PORT",
	"ROOMBOOKING_SQLITE_PATH",
	"ROOMBOOKING_SESSION_TTL",
	"ROOMBOOKING_LOG_LEVEL",
	"ROOMBOOKING_SEMESTER_START",
	"ROOMBOOKING_SEMESTER_END",
	"ROOMBOOKING_LATE_CUTOFF",
	"ROOMBOOKING_CACHE_TTL",
	"ROOMBOOKING_REDIS_ADDR",
	"ROOMBOOKING_ADMIN_EMAIL",
	"ROOMBOOKING_ADMIN_PASSWORD",
}

// clearEnv unsets every configuration key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		previous, ok := os.LookupEnv(key)
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
		key := key
		t.Cleanup(func() {
			if ok {
				os.Setenv(key, previous)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

func setSemester(t *testing.T) {
	t.Helper()
	t.Setenv("ROOMBOOKING_SEMESTER_START", "2025-09-01")
	t.Setenv("ROOMBOOKING_SEMESTER_END", "2025-12-19")
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when optional variables are missing", func(t *testing.T) {
		clearEnv(t)
		setSemester(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLitePath != "roombooking.db" {
			t.Fatalf("unexpected default SQLite path: %q", cfg.SQLitePath)
		}
		if cfg.SessionTTL != 24*time.Hour || cfg.CacheTTL != 30*time.Second {
			t.Fatalf("unexpected default TTLs: session=%s cache=%s", cfg.SessionTTL, cfg.CacheTTL)
		}
		if cfg.LateCutoff != availability.DefaultLateCutoff {
			t.Fatalf("expected 18:00 cutoff, got %s", cfg.LateCutoff)
		}
		if cfg.LogLevel != slog.LevelInfo {
			t.Fatalf("expected info level, got %v", cfg.LogLevel)
		}

		policy := cfg.Policy()
		if !policy.Semester.Contains(time.Date(2025, time.December, 19, 0, 0, 0, 0, time.UTC)) {
			t.Fatal("expected the semester end date to be inclusive")
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "config: missing required environment variables: ROOMBOOKING_SEMESTER_START, ROOMBOOKING_SEMESTER_END"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports missing and invalid values together", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_SEMESTER_START", "2025-09-01")
		t.Setenv("ROOMBOOKING_HTTP_PORT", "http")
		t.Setenv("ROOMBOOKING_LATE_CUTOFF", "25:00")
		t.Setenv("ROOMBOOKING_ADMIN_EMAIL", "admin@example.edu")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error")
		}
		msg := err.Error()
		for _, want := range []string{"ROOMBOOKING_SEMESTER_END", "ROOMBOOKING_ADMIN_PASSWORD", "ROOMBOOKING_HTTP_PORT", "ROOMBOOKING_LATE_CUTOFF"} {
			if !strings.Contains(msg, want) {
				t.Fatalf("expected %s in %q", want, msg)
			}
		}
	})

	t.Run("rejects a semester that ends before it starts", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ROOMBOOKING_SEMESTER_START", "2025-12-19")
		t.Setenv("ROOMBOOKING_SEMESTER_END", "2025-09-01")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "invalid environment variable values: ROOMBOOKING_SEMESTER_END") {
			t.Fatalf("expected invalid semester end, got %v", err)
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnv(t)
		setSemester(t)
		t.Setenv("ROOMBOOKING_HTTP_PORT", "9090")
		t.Setenv("ROOMBOOKING_SQLITE_PATH", "/tmp/roombooking.db")
		t.Setenv("ROOMBOOKING_SESSION_TTL", "8h")
		t.Setenv("ROOMBOOKING_LATE_CUTOFF", "17:30")
		t.Setenv("ROOMBOOKING_CACHE_TTL", "0s")
		t.Setenv("ROOMBOOKING_LOG_LEVEL", "debug")
		t.Setenv("ROOMBOOKING_REDIS_ADDR", "localhost:6379")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.SQLitePath != "/tmp/roombooking.db" {
			t.Fatalf("unexpected port or path: %d %q", cfg.HTTPPort, cfg.SQLitePath)
		}
		if cfg.SessionTTL != 8*time.Hour || cfg.CacheTTL != 0 {
			t.Fatalf("unexpected TTLs: session=%s cache=%s", cfg.SessionTTL, cfg.CacheTTL)
		}
		if cfg.LateCutoff != availability.Clock(17, 30) {
			t.Fatalf("expected 17:30 cutoff, got %s", cfg.LateCutoff)
		}
		if cfg.LogLevel != slog.LevelDebug || cfg.RedisAddr != "localhost:6379" {
			t.Fatalf("unexpected level or redis address: %v %q", cfg.LogLevel, cfg.RedisAddr)
		}
	})

	t.Run("seeds values from a dotenv file without overriding the environment", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "roombooking.env")
		content := "ROOMBOOKING_SEMESTER_START=2025-09-01\nROOMBOOKING_SEMESTER_END=2025-12-19\nROOMBOOKING_HTTP_PORT=7000\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("ROOMBOOKING_ENV_FILE", path)
		t.Setenv("ROOMBOOKING_HTTP_PORT", "7100")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 7100 {
			t.Fatalf("expected the process environment to win, got %d", cfg.HTTPPort)
		}
		if cfg.Semester.Start.Format(time.DateOnly) != "2025-09-01" {
			t.Fatalf("expected the semester from the env file, got %v", cfg.Semester)
		}
	})

	t.Run("fails when an explicit env file is missing", func(t *testing.T) {
		clearEnv(t)
		setSemester(t)
		t.Setenv("ROOMBOOKING_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

		if _, err := Load(); err == nil {
			t.Fatal("expected error for a missing explicit env file")
		}
	})
}
