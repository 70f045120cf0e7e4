// Package database opens the SQLite file that backs the sqlite settings
// store and applies its schema migrations.
//
// The connection is tuned for a single writer: one open connection, WAL
// journaling when enabled and a busy timeout so a concurrent reader (an
// operator poking at the file with sqlite3) does not fail a save.
//
// Migrations are plain .sql files named YYYYMMDD_HHMMSS_description.up.sql
// (optionally paired with a .down.sql). They are read from any fs.FS, in
// practice the embedded migrations package, and applied oldest first, each
// in its own transaction. Applied versions are recorded in
// schema_migrations.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
