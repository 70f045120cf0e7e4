package storage

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Store persists one settings blob.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
	Close() error
}

// Config selects and locates a backend.
type Config struct {
	Backend string
	Path    string
}

// Open creates the store for cfg.Backend. An empty backend means file.
//
// Parameters:
//   - ctx: Context for schema setup
//   - cfg: Backend name and path
//
// Returns:
//   - Store: Opened store; the caller must Close it
//   - error: ErrUnknownBackend or a backend open error
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendFile:
		return NewFileStore(cfg.Path)
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case BackendBolt:
		return OpenBolt(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
