package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-booking/internal/adapters"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database for integration-style tests.
type SQLiteHarness struct {
	Storage      *sqlite.Storage
	Repositories adapters.Repositories

	tb      testing.TB
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a database file inside tb.TempDir and applies every
// migration. Close is registered with tb automatically.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "bookings.db")
	ctx := context.Background()

	storage, err := sqlite.Open(ctx, migration.TempFileTestSQLiteConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(ctx, nil); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Repositories: adapters.FromStorage(storage),
		tb:           tb,
		cleanup: func() {
			_ = storage.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// SeedUser inserts the fixture directly into storage.
func (h *SQLiteHarness) SeedUser(fixture UserFixture) UserFixture {
	h.tb.Helper()
	if err := h.Storage.Users.CreateUser(context.Background(), fixture.Persistence()); err != nil {
		h.tb.Fatalf("seed user %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedRoom inserts the fixture directly into storage.
func (h *SQLiteHarness) SeedRoom(fixture RoomFixture) RoomFixture {
	h.tb.Helper()
	if err := h.Storage.Rooms.CreateRoom(context.Background(), fixture.Persistence()); err != nil {
		h.tb.Fatalf("seed room %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedEntry inserts the fixture directly into storage.
func (h *SQLiteHarness) SeedEntry(fixture EntryFixture) EntryFixture {
	h.tb.Helper()
	if err := h.Storage.Schedules.CreateEntry(context.Background(), fixture.Persistence()); err != nil {
		h.tb.Fatalf("seed fixed schedule entry %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedBooking inserts the fixture without any conflict check.
func (h *SQLiteHarness) SeedBooking(fixture BookingFixture) BookingFixture {
	h.tb.Helper()
	if err := h.Storage.Bookings.CreateBooking(context.Background(), fixture.Persistence(), nil); err != nil {
		h.tb.Fatalf("seed booking %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedSession inserts the fixture directly into storage.
func (h *SQLiteHarness) SeedSession(fixture SessionFixture) SessionFixture {
	h.tb.Helper()
	if _, err := h.Storage.Sessions.CreateSession(context.Background(), fixture.Persistence()); err != nil {
		h.tb.Fatalf("seed session %s: %v", fixture.ID, err)
	}
	return fixture
}
