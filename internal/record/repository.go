// Package record persists a whole collection of records as one JSON value
// under one key of a key-value store.
//
// A Repository never fails a read: a missing, unreadable or malformed value
// yields an empty collection and a warning in the log. Writes replace the whole
// value and are serialised per key inside the process, so two overlapping
// read-modify-write sequences on the same collection cannot drop each other's
// changes.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"carnet/internal/logging"
)

// KV is the durable key-value store a Repository writes to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context) error
}

var (
	// ErrPersist wraps every failure to write a collection.
	ErrPersist = errors.New("could not save data")

	// ErrUnchanged is returned by an Update mutator to skip the write.
	ErrUnchanged = errors.New("collection unchanged")
)

var keyLocks sync.Map // map[string]*sync.Mutex

func lockFor(key string) *sync.Mutex {
	mu, _ := keyLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Repository loads and saves a []T stored under a single key.
type Repository[T any] struct {
	kv  KV
	key string
	log *log.Logger
}

// New binds a repository to key in kv. A nil logger uses the default logger.
func New[T any](kv KV, key string, logger *log.Logger) *Repository[T] {
	return &Repository[T]{kv: kv, key: key, log: logging.OrDefault(logger)}
}

// Key returns the storage key of the collection.
func (r *Repository[T]) Key() string {
	return r.key
}

// Load returns the stored collection, or an empty one if it cannot be read.
func (r *Repository[T]) Load(ctx context.Context) []T {
	data, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		r.log.Warn("read failed, using empty collection", "key", r.key, "err", err)
		return []T{}
	}
	if !found || len(data) == 0 {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		r.log.Warn("stored collection is malformed, using empty collection", "key", r.key, "err", err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// Save replaces the stored collection with items.
func (r *Repository[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersist, r.key, err)
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		r.log.Error("write failed", "key", r.key, "err", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	r.log.Debug("collection saved", "key", r.key, "records", len(items), "bytes", len(data))
	return nil
}

// Update loads the collection, applies fn and saves the result, holding the
// key's lock for the whole sequence. When fn returns ErrUnchanged the loaded
// collection is returned and nothing is written. Any other error from fn
// aborts without writing.
func (r *Repository[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) ([]T, error) {
	mu := lockFor(r.key)
	mu.Lock()
	defer mu.Unlock()

	items := r.Load(ctx)
	next, err := fn(items)
	if errors.Is(err, ErrUnchanged) {
		return items, nil
	}
	if err != nil {
		return items, err
	}
	if err := r.Save(ctx, next); err != nil {
		return items, err
	}
	return next, nil
}
