package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"herald/internal/engine"
	logx "herald/pkg/logx"
)

// fileStore is the dependency-free backend: one JSON snapshot holding the
// whole record map, replaced atomically on save (write tmp, rename).
type fileStore struct {
	log  logx.Logger
	mu   sync.Mutex
	path string
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Load(ctx context.Context) (map[string]*engine.EventRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*engine.EventRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	var records map[string]*engine.EventRecord
	if err := json.Unmarshal(b, &records); err != nil {
		// Degrade to empty rather than refusing to run; the next save
		// rewrites the snapshot.
		s.log.Warn("record snapshot corrupt; starting empty", logx.String("path", s.path), logx.Err(err))
		return map[string]*engine.EventRecord{}, nil
	}
	if records == nil {
		records = map[string]*engine.EventRecord{}
	}
	return records, nil
}

func (s *fileStore) Save(ctx context.Context, records map[string]*engine.EventRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
