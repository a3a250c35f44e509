// Package journal provides persistent run journaling for workflow execution.
//
// A journal records the state snapshot after each node completes, giving an
// auditable trace of a run. Entries are observational: the engine never
// reads them back during execution.
package journal

import (
	"errors"
	"time"
)

// Store persists journal entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores an entry for a run at a specific node.
	// Overwrites if an entry for (runID, nodeID) already exists.
	Save(runID, nodeID string, data []byte) error

	// Load retrieves an entry.
	// Returns ErrNotFound if the entry doesn't exist.
	Load(runID, nodeID string) ([]byte, error)

	// List returns all entries for a run, ordered by sequence.
	// Returns empty slice (not error) if the run has no entries.
	List(runID string) ([]Info, error)

	// Delete removes a specific entry.
	// Returns nil if the entry doesn't exist.
	Delete(runID, nodeID string) error

	// DeleteRun removes all entries for a run.
	// Returns nil if the run has no entries.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides entry metadata without loading the full state.
type Info struct {
	RunID     string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for journal operations.
var (
	// ErrNotFound indicates an entry doesn't exist.
	ErrNotFound = errors.New("journal entry not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)
