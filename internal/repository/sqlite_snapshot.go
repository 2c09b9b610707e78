package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/yourorg/affiliateportal/internal/domain"
)

// snapshotKey is the fixed storage key the whole document lives under.
const snapshotKey = "appstate"

// SQLiteSnapshotStore implements domain.SnapshotStore on a single-row sqlite
// table: the device-local durable cache. Load runs synchronously at boot so
// the portal renders from local data before any network round trip; Save runs
// synchronously after every mutation, before any network activity.
type SQLiteSnapshotStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteSnapshotStore opens (or creates) the snapshot database at path.
// Use ":memory:" for throwaway stores.
func NewSQLiteSnapshotStore(path string, logger *slog.Logger) (*SQLiteSnapshotStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot db: %w", err)
	}
	// The store is written from one serialized update path.
	db.SetMaxOpenConns(1)

	schema := `CREATE TABLE IF NOT EXISTS snapshots (
		key        TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return &SQLiteSnapshotStore{db: db, logger: logger}, nil
}

// Load reads the snapshot under the fixed key. A missing row, an unreadable
// payload, or any storage error all report the snapshot as absent; the
// caller falls back to the seed document and the failure is only logged.
func (s *SQLiteSnapshotStore) Load() (*domain.AppState, bool) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM snapshots WHERE key = ?`, snapshotKey).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("snapshot load failed, treating as absent", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var st domain.AppState
	if err := json.Unmarshal(payload, &st); err != nil {
		s.logger.Warn("snapshot payload corrupted, treating as absent",
			slog.Int("bytes", len(payload)),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return &st, true
}

// Save persists the whole document under the fixed key. Failures are logged
// and swallowed: a broken local disk degrades persistence, never the running
// process.
func (s *SQLiteSnapshotStore) Save(state *domain.AppState) {
	payload, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("snapshot marshal failed", slog.String("error", err.Error()))
		return
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshots (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		snapshotKey, payload, time.Now().UTC(),
	)
	if err != nil {
		s.logger.Error("snapshot save failed", slog.String("error", err.Error()))
	}
}

// Close releases the underlying database handle.
func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
