package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "carnet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "carnet.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_GetMissingKey(t *testing.T) {
	s := openTestStore(t)

	value, found, err := s.Get(context.Background(), "tasks")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestStore_SetReplacesValue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tasks", []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "tasks", []byte(`[1,2]`)))

	value, found, err := s.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[1,2]`, string(value))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks"}, keys)
}

func TestStore_SetEmptyKey(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Set(context.Background(), "", []byte("x")))
}

func TestStore_DeleteAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tasks", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "notes", []byte(`[]`)))

	require.NoError(t, s.Delete(ctx, "tasks"))
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, keys)

	require.NoError(t, s.Clear(ctx))
	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carnet.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "notes", []byte(`[{"id":"1"}]`)))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	value, found, err := s2.Get(ctx, "notes")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, string(value))
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file:memdb?mode=memory", sqliteDSN("file:memdb?mode=memory"))

	dsn := sqliteDSN("/tmp/carnet.db")
	assert.Contains(t, dsn, "file:///tmp/carnet.db")
	assert.Contains(t, dsn, "mode=rwc")
}
