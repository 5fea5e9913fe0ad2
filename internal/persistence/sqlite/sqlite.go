package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	// Fixed width keeps stored timestamps comparable as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout      = "2006-01-02"
)

// Storage bundles the SQLite backed repositories that share one connection pool.
type Storage struct {
	pool *ConnectionPool

	Users     *UserRepository
	Rooms     *RoomRepository
	Schedules *FixedScheduleRepository
	Bookings  *BookingRepository
	Sessions  *SessionRepository
}

// Open connects to the database described by config. Call Migrate before use
// when the schema may be missing.
func Open(ctx context.Context, config migration.SQLiteConfig) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Storage{
		pool:      pool,
		Users:     NewUserRepository(pool),
		Rooms:     NewRoomRepository(pool),
		Schedules: NewFixedScheduleRepository(pool),
		Bookings:  NewBookingRepository(pool),
		Sessions:  NewSessionRepository(pool),
	}, nil
}

// Pool exposes the connection pool shared by the repositories.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Migrate applies the bundled schema migrations.
func (s *Storage) Migrate(ctx context.Context, logger *slog.Logger) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migration.DefaultMigrationConfig(),
		logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseTimePtr(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseTimestamp(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.UTC)
}

// timestampsOrNow returns createdAt and updatedAt, replacing zero values with now.
func timestampsOrNow(createdAt, updatedAt time.Time) (time.Time, time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return createdAt.UTC(), updatedAt.UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
