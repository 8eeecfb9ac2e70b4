package notes

import (
	"github.com/charmbracelet/log"

	"carnet/internal/logging"
)

// Remover deletes attachment files. With idempotent set, deleting a file that
// is already gone succeeds.
type Remover interface {
	Delete(ref string, idempotent bool) error
}

// Janitor deletes the attachment files a note no longer references.
type Janitor struct {
	files Remover
	log   *log.Logger
}

// NewJanitor returns a janitor deleting through files. A nil logger uses the
// default logger.
func NewJanitor(files Remover, logger *log.Logger) *Janitor {
	return &Janitor{files: files, log: logging.OrDefault(logger)}
}

// Diff lists the attachment references of old that next no longer holds,
// images first, then voice memos. A removed note is diffed against Note{}.
func Diff(old, next Note) []string {
	keepImages := make(map[string]struct{}, len(next.Images))
	for _, ref := range next.Images {
		keepImages[ref] = struct{}{}
	}
	keepAudio := make(map[string]struct{}, len(next.AudioPaths))
	for _, a := range next.AudioPaths {
		keepAudio[a.URI] = struct{}{}
	}

	seen := map[string]struct{}{}
	var out []string
	collect := func(ref string, keep map[string]struct{}) {
		if ref == "" {
			return
		}
		if _, ok := keep[ref]; ok {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	for _, ref := range old.Images {
		collect(ref, keepImages)
	}
	for _, a := range old.AudioPaths {
		collect(a.URI, keepAudio)
	}
	return out
}

// Clean deletes every file Diff(old, next) returns. A failed deletion is
// logged and the remaining files are still attempted. It returns the
// references that were deleted.
func (j *Janitor) Clean(old, next Note) []string {
	var deleted []string
	for _, ref := range Diff(old, next) {
		if err := j.files.Delete(ref, true); err != nil {
			j.log.Error("attachment cleanup failed", "note", old.ID, "path", ref, "err", err)
			continue
		}
		deleted = append(deleted, ref)
	}
	if len(deleted) > 0 {
		j.log.Debug("attachments removed", "note", old.ID, "count", len(deleted))
	}
	return deleted
}
