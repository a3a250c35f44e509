package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSQLiteStore opens a store backed by a temp file.
func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// TestSQLiteStore_SaveLoad round-trips entry data through the database.
func TestSQLiteStore_SaveLoad(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save("run-1", "parse", []byte(`{"step":1}`)))

	data, err := store.Load("run-1", "parse")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"step":1}`), data)
}

// TestSQLiteStore_LoadNotFound returns ErrNotFound for unknown keys.
func TestSQLiteStore_LoadNotFound(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Load("run-1", "parse")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteStore_List returns entries ordered by save sequence and scoped
// to the requested run.
func TestSQLiteStore_List(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save("run-1", "parse", []byte("aa")))
	require.NoError(t, store.Save("run-1", "flights", []byte("bbbb")))
	require.NoError(t, store.Save("run-2", "parse", []byte("zz")))

	infos, err := store.List("run-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "parse", infos[0].NodeID)
	assert.Equal(t, "flights", infos[1].NodeID)
	assert.Equal(t, 1, infos[0].Sequence)
	assert.Equal(t, 2, infos[1].Sequence)
	assert.Equal(t, int64(4), infos[1].Size)
	assert.False(t, infos[0].Timestamp.IsZero())
}

// TestSQLiteStore_Upsert replaces the entry and assigns a fresh sequence.
func TestSQLiteStore_Upsert(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save("run-1", "parse", []byte("v1")))
	require.NoError(t, store.Save("run-1", "flights", []byte("x")))
	require.NoError(t, store.Save("run-1", "parse", []byte("v2")))

	data, err := store.Load("run-1", "parse")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	infos, err := store.List("run-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "flights", infos[0].NodeID)
	assert.Equal(t, "parse", infos[1].NodeID)
}

// TestSQLiteStore_Delete removes a single entry.
func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save("run-1", "parse", []byte("x")))
	require.NoError(t, store.Save("run-1", "flights", []byte("y")))

	require.NoError(t, store.Delete("run-1", "parse"))

	_, err := store.Load("run-1", "parse")
	assert.ErrorIs(t, err, ErrNotFound)

	infos, err := store.List("run-1")
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

// TestSQLiteStore_DeleteRun removes every entry for a run.
func TestSQLiteStore_DeleteRun(t *testing.T) {
	store := newTestSQLiteStore(t)

	require.NoError(t, store.Save("run-1", "parse", []byte("x")))
	require.NoError(t, store.Save("run-2", "parse", []byte("z")))

	require.NoError(t, store.DeleteRun("run-1"))

	infos, err := store.List("run-1")
	require.NoError(t, err)
	assert.Empty(t, infos)

	data, err := store.Load("run-2", "parse")
	require.NoError(t, err)
	assert.Equal(t, []byte("z"), data)
}

// TestSQLiteStore_Closed rejects operations after Close.
func TestSQLiteStore_Closed(t *testing.T) {
	store := newTestSQLiteStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close()) // idempotent

	assert.ErrorIs(t, store.Save("run-1", "parse", nil), ErrStoreClosed)
	_, err := store.Load("run-1", "parse")
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.List("run-1")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Delete("run-1", "parse"), ErrStoreClosed)
	assert.ErrorIs(t, store.DeleteRun("run-1"), ErrStoreClosed)
}

// TestSQLiteStore_Reopen persists data across store instances.
func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save("run-1", "parse", []byte("persisted")))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Load("run-1", "parse")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), data)
}
