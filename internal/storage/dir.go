package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	valueExt     = ".json"
	lockFileName = ".carnet.lock"
	tempPrefix   = "carnet-tmp-"

	lockRetryDelay = 20 * time.Millisecond
)

// DirStore keeps one file per key under a directory. Writes go through a temp
// file and a rename; an advisory lock serialises access across processes.
// The lock file handle is shared, so mu serialises its use within this one.
type DirStore struct {
	dir string
	mu  sync.Mutex
	flk *flock.Flock
}

func OpenDir(dir string) (*DirStore, error) {
	if dir == "" {
		return nil, errors.New("data dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{
		dir: dir,
		flk: flock.New(filepath.Join(dir, lockFileName)),
	}, nil
}

func (d *DirStore) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flk.Close()
}

// lock takes mu and then the file lock, shared or exclusive. The returned
// func releases both.
func (d *DirStore) lock(ctx context.Context, shared bool) (func(), error) {
	d.mu.Lock()
	var err error
	if shared {
		_, err = d.flk.TryRLockContext(ctx, lockRetryDelay)
	} else {
		_, err = d.flk.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("lock %s: %w", d.dir, err)
	}
	return func() {
		d.flk.Unlock()
		d.mu.Unlock()
	}, nil
}

func (d *DirStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, false, err
	}
	unlock, err := d.lock(ctx, true)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return data, true, nil
}

func (d *DirStore) Set(ctx context.Context, key string, value []byte) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	unlock, err := d.lock(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	if err := writeFileAtomic(path, value, 0o644); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (d *DirStore) Clear(ctx context.Context) error {
	unlock, err := d.lock(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	keys, err := d.keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := os.Remove(filepath.Join(d.dir, k+valueExt)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (d *DirStore) Keys(ctx context.Context) ([]string, error) {
	unlock, err := d.lock(ctx, true)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return d.keys()
}

func (d *DirStore) keys() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, valueExt) || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, valueExt))
	}
	sort.Strings(keys)
	return keys, nil
}

func (d *DirStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(d.dir, key+valueExt), nil
}

// writeFileAtomic writes to a temp file in the target directory and renames it
// over filename, so readers never observe a partial value.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", filename, err)
	}
	return nil
}
