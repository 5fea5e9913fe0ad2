package migration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type mockFileScanner struct {
	migrations []Migration
	scanError  error
}

func (m *mockFileScanner) ScanMigrations() ([]Migration, error) {
	if m.scanError != nil {
		return nil, m.scanError
	}
	return m.migrations, nil
}

func (m *mockFileScanner) ValidateFileName(filename string) error {
	return nil
}

type mockExecutor struct {
	applied        []AppliedMigration
	executionError error
	recordError    error
	initError      error
	executed       []string
	recorded       []string
}

func (m *mockExecutor) ExecuteMigration(ctx context.Context, migration Migration) error {
	m.executed = append(m.executed, migration.Version)
	return m.executionError
}

func (m *mockExecutor) InitializeVersionTable(ctx context.Context) error {
	return m.initError
}

func (m *mockExecutor) RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error {
	if m.recordError != nil {
		return m.recordError
	}
	m.recorded = append(m.recorded, migration.Version)
	m.applied = append(m.applied, AppliedMigration{Version: migration.Version, Checksum: migration.Checksum})
	return nil
}

func (m *mockExecutor) GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	return m.applied, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMigrationManager_RunMigrations(t *testing.T) {
	available := []Migration{
		{Version: "001", Description: "Initial schema", SQL: "CREATE TABLE users (id INTEGER);", Checksum: "a"},
		{Version: "002", Description: "Add indexes", SQL: "CREATE INDEX idx_users ON users(id);", Checksum: "b"},
		{Version: "003", Description: "Add rooms", SQL: "CREATE TABLE rooms (id INTEGER);", Checksum: "c"},
	}

	t.Run("applies only pending migrations in order", func(t *testing.T) {
		executor := &mockExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "a"}}}
		manager := NewMigrationManager(&mockFileScanner{migrations: available}, executor, DefaultMigrationConfig(), discardLogger())

		if err := manager.RunMigrations(context.Background()); err != nil {
			t.Fatalf("RunMigrations returned error: %v", err)
		}
		if len(executor.executed) != 2 || executor.executed[0] != "002" || executor.executed[1] != "003" {
			t.Fatalf("unexpected execution order: %v", executor.executed)
		}
		if len(executor.recorded) != 2 {
			t.Fatalf("expected two recorded migrations, got %v", executor.recorded)
		}
	})

	t.Run("stops at the first failing migration", func(t *testing.T) {
		executor := &mockExecutor{executionError: errors.New("boom")}
		manager := NewMigrationManager(&mockFileScanner{migrations: available}, executor, DefaultMigrationConfig(), discardLogger())

		err := manager.RunMigrations(context.Background())
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}
		if len(executor.executed) != 1 || len(executor.recorded) != 0 {
			t.Fatalf("expected to stop after the first failure, executed=%v recorded=%v", executor.executed, executor.recorded)
		}
	})

	t.Run("detects gaps in the sequence", func(t *testing.T) {
		gapped := []Migration{available[0], available[2]}
		manager := NewMigrationManager(&mockFileScanner{migrations: gapped}, &mockExecutor{}, DefaultMigrationConfig(), discardLogger())

		if err := manager.RunMigrations(context.Background()); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("detects applied versions without files", func(t *testing.T) {
		executor := &mockExecutor{applied: []AppliedMigration{{Version: "007"}}}
		manager := NewMigrationManager(&mockFileScanner{migrations: available}, executor, DefaultMigrationConfig(), discardLogger())

		if err := manager.RunMigrations(context.Background()); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})

	t.Run("detects edited migrations when verifying checksums", func(t *testing.T) {
		executor := &mockExecutor{applied: []AppliedMigration{{Version: "001", Checksum: "changed"}}}
		manager := NewMigrationManager(&mockFileScanner{migrations: available}, executor, DefaultMigrationConfig(), discardLogger())

		if err := manager.RunMigrations(context.Background()); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
	})

	t.Run("disabled configuration is a no-op", func(t *testing.T) {
		executor := &mockExecutor{}
		manager := NewMigrationManager(&mockFileScanner{migrations: available}, executor, MigrationConfig{}, discardLogger())

		if err := manager.RunMigrations(context.Background()); err != nil {
			t.Fatalf("RunMigrations returned error: %v", err)
		}
		if len(executor.executed) != 0 {
			t.Fatalf("expected no migrations to run, got %v", executor.executed)
		}
	})
}

func TestMigrationManager_GetMigrationStatus(t *testing.T) {
	available := []Migration{{Version: "001"}, {Version: "002"}}
	executor := &mockExecutor{applied: []AppliedMigration{{Version: "001"}}}
	manager := NewMigrationManager(&mockFileScanner{migrations: available}, executor, DefaultMigrationConfig(), discardLogger())

	status, err := manager.GetMigrationStatus(context.Background())
	if err != nil {
		t.Fatalf("GetMigrationStatus returned error: %v", err)
	}
	if status.CurrentVersion != "001" || status.PendingCount != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
}
