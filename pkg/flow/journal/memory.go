package journal

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory journal store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]storedEntry // runID -> nodeID -> entry
	closed bool
}

// storedEntry holds entry data with metadata for List().
type storedEntry struct {
	data      []byte
	sequence  int
	timestamp time.Time
}

// NewMemoryStore creates a new in-memory journal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]storedEntry),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(runID, nodeID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if m.data[runID] == nil {
		m.data[runID] = make(map[string]storedEntry)
	}

	// Determine sequence number
	seq := 1
	for _, e := range m.data[runID] {
		if e.sequence >= seq {
			seq = e.sequence + 1
		}
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	m.data[runID][nodeID] = storedEntry{
		data:      stored,
		sequence:  seq,
		timestamp: time.Now().UTC(),
	}

	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(runID, nodeID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	run, ok := m.data[runID]
	if !ok {
		return nil, ErrNotFound
	}

	e, ok := run[nodeID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy so callers can't mutate stored data
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// List implements Store.
func (m *MemoryStore) List(runID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	run, ok := m.data[runID]
	if !ok {
		return []Info{}, nil
	}

	infos := make([]Info, 0, len(run))
	for nodeID, e := range run {
		infos = append(infos, Info{
			RunID:     runID,
			NodeID:    nodeID,
			Sequence:  e.sequence,
			Timestamp: e.timestamp,
			Size:      int64(len(e.data)),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Sequence < infos[j].Sequence
	})

	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(runID, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if run, ok := m.data[runID]; ok {
		delete(run, nodeID)
		if len(run) == 0 {
			delete(m.data, runID)
		}
	}
	return nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}
