package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists journal entries to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite journal store.
// The path should be a file path (e.g., "./journal.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS journal_entries (
			run_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (run_id, node_id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_entries_run_id
		ON journal_entries(run_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(runID, nodeID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	// Sequence is max + 1 for this run; upsert handles repeated nodes
	_, err := s.db.Exec(`
		INSERT INTO journal_entries (run_id, node_id, sequence, timestamp, data)
		VALUES (
			?, ?,
			COALESCE((SELECT MAX(sequence) FROM journal_entries WHERE run_id = ?), 0) + 1,
			?, ?
		)
		ON CONFLICT(run_id, node_id) DO UPDATE SET
			sequence = (SELECT MAX(sequence) FROM journal_entries WHERE run_id = excluded.run_id) + 1,
			timestamp = excluded.timestamp,
			data = excluded.data
	`, runID, nodeID, runID, time.Now().UTC().Format(time.RFC3339Nano), data)

	if err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(runID, nodeID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRow(`
		SELECT data FROM journal_entries
		WHERE run_id = ? AND node_id = ?
	`, runID, nodeID).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load journal entry: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *SQLiteStore) List(runID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT node_id, sequence, timestamp, LENGTH(data)
		FROM journal_entries
		WHERE run_id = ?
		ORDER BY sequence
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var info Info
		var ts string
		info.RunID = runID
		if err := rows.Scan(&info.NodeID, &info.Sequence, &ts, &info.Size); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			info.Timestamp = t
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}

	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(runID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`
		DELETE FROM journal_entries WHERE run_id = ? AND node_id = ?
	`, runID, nodeID); err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	return nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`
		DELETE FROM journal_entries WHERE run_id = ?
	`, runID); err != nil {
		return fmt.Errorf("delete run journal: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
