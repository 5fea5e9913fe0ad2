// Package migration applies versioned schema changes to SQLite databases.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g. "001_initial_schema.sql") and may start with a "-- Description: ..."
// comment. Files are read from any fs.FS, so migrations bundled with go:embed
// and directories on disk are handled the same way.
//
// Applied versions are tracked in the schema_migrations table together with
// the file checksum. Each migration runs in its own transaction.
//
// Example usage:
//
//	scanner := migration.NewFileScanner(migrationsFS, "migrations")
//	executor := migration.NewSQLiteExecutor(db)
//	manager := migration.NewMigrationManager(scanner, executor, migration.DefaultMigrationConfig(), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
