// Package history keeps a SQLite log of fan and mode transitions.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sweeney/fanshim-mqtt/internal/logger"
)

// Kind distinguishes fan switches from mode switches.
type Kind string

const (
	KindFan  Kind = "fan"
	KindMode Kind = "mode"
)

// SchemaVersion is bumped on incompatible schema changes.
const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_versions (
	version    INTEGER PRIMARY KEY,
	applied_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transitions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	at          INTEGER NOT NULL,
	kind        TEXT    NOT NULL,
	armed       INTEGER NOT NULL,
	enabled     INTEGER NOT NULL,
	temperature REAL    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transitions_at ON transitions(at);
`

var ErrClosed = errors.New("history: recorder closed")

// Entry is one recorded transition.
type Entry struct {
	Time        time.Time `json:"time"`
	Kind        Kind      `json:"kind"`
	Armed       bool      `json:"armed"`
	Enabled     bool      `json:"enabled"`
	Temperature float64   `json:"temperature"`
}

// Recorder stores transitions.
type Recorder interface {
	Record(e Entry) error
	// Recent returns up to n entries, newest first.
	Recent(n int) ([]Entry, error)
	Close() error
}

// Store is a Recorder backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// Single writer; keeps WAL checkpoints on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_versions (version, applied_at) VALUES (?, ?)`,
		SchemaVersion, time.Now().Unix()); err != nil {
		db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	logger.Info().Str("path", path).Int("schema_version", SchemaVersion).Msg("history database opened")
	return &Store{db: db}, nil
}

// Record inserts e.
func (s *Store) Record(e Entry) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.Exec(
		`INSERT INTO transitions (at, kind, armed, enabled, temperature) VALUES (?, ?, ?, ?, ?)`,
		e.Time.UnixMilli(), string(e.Kind), e.Armed, e.Enabled, e.Temperature,
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(
		`SELECT at, kind, armed, enabled, temperature FROM transitions ORDER BY at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		var (
			at   int64
			kind string
			e    Entry
		)
		if err := rows.Scan(&at, &kind, &e.Armed, &e.Enabled, &e.Temperature); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		e.Time = time.UnixMilli(at).UTC()
		e.Kind = Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		logger.Warn().Err(err).Msg("history checkpoint failed")
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Nop discards everything. Used when no database path is configured.
type Nop struct{}

func (Nop) Record(Entry) error { return nil }

func (Nop) Recent(int) ([]Entry, error) { return nil, nil }

func (Nop) Close() error { return nil }
