package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDir(dir)
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	_, found, err := d.Get(ctx, "notes")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, d.Set(ctx, "notes", []byte(`[]`)))
	require.NoError(t, d.Set(ctx, "notes", []byte(`[{"id":"2"}]`)))

	value, found, err := d.Get(ctx, "notes")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":"2"}]`, string(value))

	_, err = os.Stat(filepath.Join(dir, "notes.json"))
	assert.NoError(t, err)
}

func TestDirStore_ClearKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDir(dir)
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	require.NoError(t, d.Set(ctx, "tasks", []byte(`[]`)))
	require.NoError(t, d.Set(ctx, "notes", []byte(`[]`)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644))

	keys, err := d.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes", "tasks"}, keys)

	require.NoError(t, d.Clear(ctx))

	keys, err = d.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	_, err = os.Stat(filepath.Join(dir, "readme.txt"))
	assert.NoError(t, err)
}

func TestDirStore_RejectsPathKeys(t *testing.T) {
	d, err := OpenDir(t.TempDir())
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		assert.Error(t, d.Set(ctx, key, []byte("x")), "key %q", key)
	}
}

func TestDirStore_CanceledContext(t *testing.T) {
	d, err := OpenDir(t.TempDir())
	require.NoError(t, err)
	defer d.Close()

	other, err := OpenDir(d.dir)
	require.NoError(t, err)
	defer other.Close()

	locked, err := other.flk.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.flk.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, d.Set(ctx, "tasks", []byte(`[]`)))
}

func TestDirStore_ConcurrentUse(t *testing.T) {
	d, err := OpenDir(t.TempDir())
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := range 20 {
		key := fmt.Sprintf("k%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Set(ctx, key, []byte(key)); err != nil {
				errs <- err
				return
			}
			if _, _, err := d.Get(ctx, key); err != nil {
				errs <- err
			}
			if _, err := d.Keys(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	keys, err := d.Keys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 20)
	for i := range 20 {
		key := fmt.Sprintf("k%d", i)
		value, found, err := d.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, key, string(value))
	}
}

func TestDirStore_HeldLockBlocksSameHandle(t *testing.T) {
	d, err := OpenDir(t.TempDir())
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	unlock, err := d.lock(ctx, false)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- d.Set(ctx, "tasks", []byte(`[]`)) }()

	select {
	case <-done:
		t.Fatal("write went through while the store was locked")
	case <-time.After(100 * time.Millisecond):
	}
	unlock()
	require.NoError(t, <-done)
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	err := writeFileAtomic(filepath.Join(t.TempDir(), "missing", "x.json"), []byte("x"), 0o644)
	assert.Error(t, err)
}
