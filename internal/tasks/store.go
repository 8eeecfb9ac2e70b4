// Package tasks owns the todo list: the reconciling operations on the task
// collection and their persistence.
package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"carnet/internal/logging"
	"carnet/internal/record"
)

// Store is the only mutation entry point for the task collection. Every
// operation that changes the collection saves it in full before returning.
type Store struct {
	repo *record.Repository[Task]
	now  func() time.Time
	log  *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, which stamps new task ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a task store persisting to kv.
func NewStore(kv record.KV, opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDefault(s.log)
	s.repo = record.New[Task](kv, StorageKey, s.log)
	return s
}

// Load returns the stored tasks in stored order.
func (s *Store) Load(ctx context.Context) []Task {
	return s.repo.Load(ctx)
}

// Add appends a task for text. Blank text is ignored: ok is false and nothing
// is written.
func (s *Store) Add(ctx context.Context, text string) (created Task, ok bool, err error) {
	_, err = s.repo.Update(ctx, func(list []Task) ([]Task, error) {
		next, t, added := add(list, text, s.now())
		if !added {
			return nil, record.ErrUnchanged
		}
		created, ok = t, true
		return next, nil
	})
	if err != nil {
		return Task{}, false, err
	}
	if ok {
		s.log.Debug("task added", "id", created.ID)
	}
	return created, ok, nil
}

// Delete removes the task with id. An unknown id leaves the collection as is.
func (s *Store) Delete(ctx context.Context, id string) ([]Task, error) {
	return s.repo.Update(ctx, func(list []Task) ([]Task, error) {
		next, removed := remove(list, id)
		if !removed {
			return nil, record.ErrUnchanged
		}
		return next, nil
	})
}

// ToggleComplete flips the completion of the task with id and moves completed
// tasks after the open ones.
func (s *Store) ToggleComplete(ctx context.Context, id string) ([]Task, error) {
	return s.repo.Update(ctx, func(list []Task) ([]Task, error) {
		next, found := toggle(list, id)
		if !found {
			return nil, record.ErrUnchanged
		}
		return next, nil
	})
}

// ClearAll empties the task collection.
func (s *Store) ClearAll(ctx context.Context) error {
	_, err := s.repo.Update(ctx, func([]Task) ([]Task, error) {
		return []Task{}, nil
	})
	if err == nil {
		s.log.Info("task list cleared")
	}
	return err
}
