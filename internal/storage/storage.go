package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"herald/internal/engine"
	logx "herald/pkg/logx"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Config selects and configures a backend.
//
// Driver values:
//   - "file": single JSON snapshot, written atomically
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the record persistence API used by the run driver.
//
// Load returns an empty map (not an error) when the backing file does not
// exist yet. A corrupt store also degrades to an empty map with a logged
// warning: the engine then treats every event as newly seen, which is
// acceptable (a burst of duplicate notifications, never lost state).
type Store interface {
	Load(ctx context.Context) (map[string]*engine.EventRecord, error)
	Save(ctx context.Context, records map[string]*engine.EventRecord) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}
