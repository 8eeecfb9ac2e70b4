// Package notes owns the notebook: saving, deleting and listing notes, and
// keeping the attachment files on disk in step with the notes that reference
// them.
//
// Every mutation persists the whole note collection first and then lets the
// Janitor delete the files the change orphaned. Cleanup is best effort: a file
// that cannot be deleted is logged and never fails the operation. Sweep
// catches whatever such failures leave behind.
package notes

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"carnet/internal/logging"
	"carnet/internal/media"
	"carnet/internal/record"
)

// Name prefixes of imported attachments. Sweep only ever looks at files
// carrying one of them.
const (
	imagePrefix = "image"
	audioPrefix = "audio"
)

var importedGlobs = []string{imagePrefix + "_*", audioPrefix + "_*"}

// Files is the file storage the store needs: deleting attachments, importing
// captured media and listing what is on disk.
type Files interface {
	Remover
	Import(src, prefix, ext string) (string, error)
	Files(patterns ...string) ([]string, error)
}

// Store is the only mutation entry point for the note collection.
type Store struct {
	repo    *record.Repository[Note]
	files   Files
	janitor *Janitor
	locale  Locale
	now     func() time.Time
	log     *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocale sets the display date locale. French is the default.
func WithLocale(l Locale) Option {
	return func(s *Store) { s.locale = l }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a note store persisting to kv and owning files.
func NewStore(kv record.KV, files Files, opts ...Option) *Store {
	s := &Store{
		files:  files,
		locale: French,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDefault(s.log)
	s.repo = record.New[Note](kv, StorageKey, s.log)
	s.janitor = NewJanitor(files, s.log)
	return s
}

// Locale returns the display date locale.
func (s *Store) Locale() Locale {
	return s.locale
}

// Save persists a draft. With existingID empty a new note is appended;
// otherwise the note with that id is replaced (or appended if it has vanished)
// and the attachments the edit dropped are deleted. A draft with neither title
// nor content is ignored: saved is false and nothing is written.
func (s *Store) Save(ctx context.Context, d Draft, existingID string) (n Note, saved bool, err error) {
	if d.Empty() {
		return Note{}, false, nil
	}
	now := s.now()

	var prev Note
	var replaced bool
	_, err = s.repo.Update(ctx, func(list []Note) ([]Note, error) {
		id := existingID
		if id == "" {
			id = newID(list, now)
		}
		n = build(d, id, now, s.locale)
		var next []Note
		next, prev, replaced = upsert(list, n)
		return next, nil
	})
	if err != nil {
		return Note{}, false, err
	}
	if existingID != "" && !replaced {
		s.log.Warn("edited note no longer stored, saved as new", "id", existingID)
	}
	if replaced {
		s.janitor.Clean(prev, n)
	}
	s.log.Debug("note saved", "id", n.ID, "images", len(n.Images), "audio", len(n.AudioPaths))
	return n, true, nil
}

// Delete removes the note with id and then its attachment files. An unknown
// id is a no-op and reports false.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var removed Note
	var ok bool
	_, err := s.repo.Update(ctx, func(list []Note) ([]Note, error) {
		var next []Note
		next, removed, ok = remove(list, id)
		if !ok {
			return nil, record.ErrUnchanged
		}
		return next, nil
	})
	if err != nil || !ok {
		return false, err
	}
	s.janitor.Clean(removed, Note{})
	return true, nil
}

// ClearAll empties the note collection, then deletes the attachments of every
// note it held. Tasks are not touched. When the save fails no file is deleted.
func (s *Store) ClearAll(ctx context.Context) error {
	var cleared []Note
	_, err := s.repo.Update(ctx, func(list []Note) ([]Note, error) {
		cleared = list
		return []Note{}, nil
	})
	if err != nil {
		return err
	}
	for _, n := range cleared {
		s.janitor.Clean(n, Note{})
	}
	s.log.Info("notebook cleared", "notes", len(cleared))
	return nil
}

// Load returns the notes in stored order.
func (s *Store) Load(ctx context.Context) []Note {
	return s.repo.Load(ctx)
}

// LoadAndSort returns the notes newest first. Notes without a date show the
// current one; storage is left as is.
func (s *Store) LoadAndSort(ctx context.Context) []Note {
	now := s.now()
	list := backfill(s.repo.Load(ctx), now, s.locale)
	return sortNewestFirst(list, now, s.locale)
}

// Search returns the notes matching query, newest first.
func (s *Store) Search(ctx context.Context, query string) []Note {
	return Search(s.LoadAndSort(ctx), query)
}

// Get returns the note with id.
func (s *Store) Get(ctx context.Context, id string) (Note, bool) {
	list := s.repo.Load(ctx)
	i := slices.IndexFunc(list, func(n Note) bool { return n.ID == id })
	if i < 0 {
		return Note{}, false
	}
	return list[i], true
}

// ImportImage copies a captured image into media storage and returns the path
// reference to put in a draft.
func (s *Store) ImportImage(src string) (string, error) {
	return s.files.Import(src, imagePrefix, ".jpg")
}

// ImportAudio copies a recorded memo into media storage, keeping its extension.
func (s *Store) ImportAudio(src string) (string, error) {
	return s.files.Import(src, audioPrefix, "")
}

// Orphans lists the imported media files that no stored note references.
// Files that Import did not name are never reported.
func (s *Store) Orphans(ctx context.Context) ([]string, error) {
	onDisk, err := s.files.Files(importedGlobs...)
	if err != nil {
		return nil, err
	}
	referenced := references(s.repo.Load(ctx))

	var orphans []string
	for _, path := range onDisk {
		if _, ok := referenced[filepath.Clean(path)]; !ok {
			orphans = append(orphans, path)
		}
	}
	return orphans, nil
}

// Sweep deletes the files Orphans reports and returns the ones it removed.
func (s *Store) Sweep(ctx context.Context) ([]string, error) {
	orphans, err := s.Orphans(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, path := range orphans {
		if err := s.files.Delete(path, true); err != nil {
			s.log.Error("orphan cleanup failed", "path", path, "err", err)
			continue
		}
		removed = append(removed, path)
	}
	if len(removed) > 0 {
		s.log.Info("orphaned attachments removed", "count", len(removed))
	}
	return removed, nil
}

// Discard deletes files imported for a draft that is not going to be saved.
// References a stored note still holds are kept.
func (s *Store) Discard(ctx context.Context, refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	stored := references(s.repo.Load(ctx))
	var unsaved Note
	for _, ref := range refs {
		if _, ok := stored[cleanRef(ref)]; !ok {
			unsaved.Images = append(unsaved.Images, ref)
		}
	}
	return s.janitor.Clean(unsaved, Note{})
}

func references(list []Note) map[string]struct{} {
	out := map[string]struct{}{}
	for _, n := range list {
		for _, ref := range n.Images {
			out[cleanRef(ref)] = struct{}{}
		}
		for _, a := range n.AudioPaths {
			out[cleanRef(a.URI)] = struct{}{}
		}
	}
	return out
}

func cleanRef(ref string) string {
	return filepath.Clean(media.LocalPath(ref))
}
