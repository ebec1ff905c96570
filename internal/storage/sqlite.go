package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"herald/internal/engine"
	logx "herald/pkg/logx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS event_records (
	id       TEXT PRIMARY KEY,
	start_at INTEGER NOT NULL,
	end_at   INTEGER NOT NULL,
	venue    TEXT NOT NULL DEFAULT '',
	notified TEXT NOT NULL DEFAULT '{}'
);
`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (map[string]*engine.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, start_at, end_at, venue, notified FROM event_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := map[string]*engine.EventRecord{}
	for rows.Next() {
		var (
			rec          engine.EventRecord
			notifiedJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Start, &rec.End, &rec.VenueID, &notifiedJSON); err != nil {
			return nil, err
		}
		if notifiedJSON != "" && notifiedJSON != "{}" {
			if err := json.Unmarshal([]byte(notifiedJSON), &rec.Notified); err != nil {
				// One bad row is not worth refusing the whole run.
				s.log.Warn("bad notified history; dropping", logx.String("id", rec.ID), logx.Err(err))
				rec.Notified = nil
			}
		}
		records[rec.ID] = &rec
	}
	return records, rows.Err()
}

func (s *sqliteStore) Save(ctx context.Context, records map[string]*engine.EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO event_records(id, start_at, end_at, venue, notified) VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   start_at=excluded.start_at, end_at=excluded.end_at,
		   venue=excluded.venue, notified=excluded.notified`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		notifiedJSON := "{}"
		if len(rec.Notified) > 0 {
			b, err := json.Marshal(rec.Notified)
			if err != nil {
				return err
			}
			notifiedJSON = string(b)
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Start, rec.End, rec.VenueID, notifiedJSON); err != nil {
			return err
		}
	}
	return tx.Commit()
}
