package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/logging"
)

const defaultEnvFile = ".env"

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort   int
	SQLitePath string
	SessionTTL time.Duration
	LogLevel   slog.Level

	Semester   availability.Window
	LateCutoff availability.TimeOfDay

	CacheTTL  time.Duration
	RedisAddr string

	AdminEmail    string
	AdminPassword string
}

// Policy returns the availability policy derived from the configured semester and cutoff.
func (c Config) Policy() availability.Policy {
	return availability.Policy{Semester: c.Semester, LateCutoff: c.LateCutoff}
}

// Load parses configuration values from the current process environment.
//
// Variables are first seeded from the dotenv file named by ROOMBOOKING_ENV_FILE,
// or from .env when that file exists. Values already present in the
// environment win over the file. Missing and invalid values are reported together.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort:   8080,
		SQLitePath: "roombooking.db",
		SessionTTL: 24 * time.Hour,
		LogLevel:   slog.LevelInfo,
		LateCutoff: availability.DefaultLateCutoff,
		CacheTTL:   30 * time.Second,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if portValue := env("ROOMBOOKING_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ROOMBOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := env("ROOMBOOKING_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if ttlValue := env("ROOMBOOKING_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROOMBOOKING_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if levelValue := env("ROOMBOOKING_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "ROOMBOOKING_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	start, startOK := parseDate("ROOMBOOKING_SEMESTER_START", &missing, &invalid)
	end, endOK := parseDate("ROOMBOOKING_SEMESTER_END", &missing, &invalid)
	if startOK && endOK {
		if end.Before(start) {
			invalid = append(invalid, "ROOMBOOKING_SEMESTER_END")
		} else {
			cfg.Semester = availability.Window{Start: start, End: end}
		}
	}

	if cutoffValue := env("ROOMBOOKING_LATE_CUTOFF"); cutoffValue != "" {
		cutoff, err := availability.ParseTimeOfDay(cutoffValue)
		if err != nil || cutoff <= 0 || cutoff >= availability.MinutesPerDay {
			invalid = append(invalid, "ROOMBOOKING_LATE_CUTOFF")
		} else {
			cfg.LateCutoff = cutoff
		}
	}

	if ttlValue := env("ROOMBOOKING_CACHE_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl < 0 {
			invalid = append(invalid, "ROOMBOOKING_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	cfg.RedisAddr = env("ROOMBOOKING_REDIS_ADDR")

	cfg.AdminEmail = env("ROOMBOOKING_ADMIN_EMAIL")
	cfg.AdminPassword = os.Getenv("ROOMBOOKING_ADMIN_PASSWORD")
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		missing = append(missing, "ROOMBOOKING_ADMIN_PASSWORD")
	}
	if cfg.AdminEmail == "" && cfg.AdminPassword != "" {
		missing = append(missing, "ROOMBOOKING_ADMIN_EMAIL")
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variable values: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

func loadEnvFile() error {
	path := env("ROOMBOOKING_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseDate(key string, missing, invalid *[]string) (time.Time, bool) {
	value := env(key)
	if value == "" {
		*missing = append(*missing, key)
		return time.Time{}, false
	}
	date, err := time.Parse(time.DateOnly, value)
	if err != nil {
		*invalid = append(*invalid, key)
		return time.Time{}, false
	}
	return date, true
}
