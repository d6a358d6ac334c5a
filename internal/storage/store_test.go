package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	return New(path, zap.NewNop()), path
}

func TestStoreLoad(t *testing.T) {
	t.Run("missing file returns defaults and creates it", func(t *testing.T) {
		store, path := newTestStore(t)

		doc := testDoc{Name: "default", Count: 7}
		require.NoError(t, store.Load(&doc))
		assert.Equal(t, "default", doc.Name)
		assert.Equal(t, 7, doc.Count)

		// The defaults were written out for the next reader.
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		store, _ := newTestStore(t)

		require.NoError(t, store.Save(&testDoc{Name: "saved", Count: 3}))

		var doc testDoc
		require.NoError(t, store.Load(&doc))
		assert.Equal(t, testDoc{Name: "saved", Count: 3}, doc)
	})

	t.Run("malformed file keeps defaults", func(t *testing.T) {
		store, path := newTestStore(t)
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		doc := testDoc{Name: "default"}
		err := store.Load(&doc)
		assert.ErrorIs(t, err, ErrMalformedData)
		assert.Equal(t, "default", doc.Name)

		// The corrupt file is overwritten by the next successful save.
		require.NoError(t, store.Save(&doc))
		var reloaded testDoc
		require.NoError(t, store.Load(&reloaded))
		assert.Equal(t, "default", reloaded.Name)
	})
}

func TestStoreSaveReplacesWholesale(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.Save(&testDoc{Name: "first", Count: 1}))
	require.NoError(t, store.Save(&testDoc{Name: "second", Count: 2}))

	var doc testDoc
	require.NoError(t, store.Load(&doc))
	assert.Equal(t, "second", doc.Name)

	// No temp files should linger after successful renames.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreWriteFailure(t *testing.T) {
	// A directory at the target path makes the rename fail.
	dir := t.TempDir()
	path := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(path, 0o755))

	store := New(path, zap.NewNop())
	err := store.Save(&testDoc{Name: "x"})
	assert.ErrorIs(t, err, ErrWriteFailed)
}
