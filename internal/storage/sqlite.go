package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/temptick-core/internal/infrastructure/database"
	"github.com/nerrad567/temptick-core/migrations"
)

const sqliteBusyTimeout = 5 // seconds

// SQLiteStore keeps settings in the single row of device_settings.
type SQLiteStore struct {
	db *database.DB
}

// OpenSQLite opens the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := database.Open(database.Config{
		Path:        path,
		WALMode:     true,
		BusyTimeout: sqliteBusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("migrating settings database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the settings row.
func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM device_settings WHERE id = 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings row: %w", err)
	}
	return data, nil
}

// Save upserts the settings row.
func (s *SQLiteStore) Save(ctx context.Context, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_settings (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		data, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing settings row: %w", err)
	}
	return nil
}

// Remove deletes the settings row.
func (s *SQLiteStore) Remove(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM device_settings WHERE id = 1"); err != nil {
		return fmt.Errorf("deleting settings row: %w", err)
	}
	return nil
}

// HealthCheck verifies the database answers.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
