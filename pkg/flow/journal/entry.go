package journal

import (
	"encoding/json"
	"time"
)

// Version is the current entry format version.
// Increment when making breaking changes to the entry structure.
const Version = 1

// Entry is the persisted snapshot of execution state after a node completed.
type Entry struct {
	// Metadata
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`
	Sequence  int       `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	// Execution state
	State    json.RawMessage `json:"state"`
	NextNode string          `json:"next_node"`

	// PrevNode is the node executed before this one, for tracing.
	PrevNode string `json:"prev_node,omitempty"`
}

// Marshal serializes an entry to JSON.
func (e *Entry) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal deserializes an entry from JSON.
func Unmarshal(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// NewEntry creates a new entry with the given parameters.
// State must already be JSON-serialized.
func NewEntry(runID, nodeID string, sequence int, state []byte, nextNode string) *Entry {
	return &Entry{
		Version:   Version,
		RunID:     runID,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
		State:     state,
		NextNode:  nextNode,
	}
}

// WithPrevNode sets the previous node ID for tracing.
func (e *Entry) WithPrevNode(prevNode string) *Entry {
	e.PrevNode = prevNode
	return e
}
