package notes

import (
	"fmt"
	"slices"
	"strings"
)

// StorageKey is the key the note collection is stored under.
const StorageKey = "notes"

// Note is a saved note with its attachments.
type Note struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	Content    string   `json:"content" yaml:"content"`
	Date       string   `json:"date" yaml:"date"`
	UpdatedAt  int64    `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
	Images     []string `json:"images" yaml:"images,omitempty"`
	AudioPaths []Audio  `json:"audioPaths" yaml:"audio,omitempty"`
}

// Audio is a recorded voice memo attached to a note.
type Audio struct {
	URI      string `json:"uri" yaml:"uri"`
	Duration int    `json:"duration" yaml:"duration"`
}

// Draft is what the editor hands over on save.
type Draft struct {
	Title      string
	Content    string
	Images     []string
	AudioPaths []Audio
}

// DraftOf starts an edit from a saved note.
func DraftOf(n Note) Draft {
	return Draft{
		Title:      n.Title,
		Content:    n.Content,
		Images:     slices.Clone(n.Images),
		AudioPaths: slices.Clone(n.AudioPaths),
	}
}

// Empty reports whether the draft has neither title nor content.
func (d Draft) Empty() bool {
	return strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == ""
}

// AddImage appends an image reference.
func (d *Draft) AddImage(ref string) {
	d.Images = append(d.Images, ref)
}

// RemoveImage drops the image at i and returns its reference. The file itself
// is removed when the note is saved without it.
func (d *Draft) RemoveImage(i int) (string, bool) {
	if i < 0 || i >= len(d.Images) {
		return "", false
	}
	ref := d.Images[i]
	d.Images = slices.Delete(slices.Clone(d.Images), i, i+1)
	return ref, true
}

// AddAudio appends a voice memo of the given length in seconds.
func (d *Draft) AddAudio(ref string, seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	d.AudioPaths = append(d.AudioPaths, Audio{URI: ref, Duration: seconds})
}

// RemoveAudio drops the voice memo at i and returns its reference.
func (d *Draft) RemoveAudio(i int) (string, bool) {
	if i < 0 || i >= len(d.AudioPaths) {
		return "", false
	}
	ref := d.AudioPaths[i].URI
	d.AudioPaths = slices.Delete(slices.Clone(d.AudioPaths), i, i+1)
	return ref, true
}

// Preview is the one-line label of a note in a list.
func Preview(n Note) string {
	if n.Title != "" {
		return n.Title
	}
	if n.Content != "" {
		return truncate(n.Content, 20) + "..."
	}
	return "Sans titre"
}

// Excerpt is the content teaser shown under the label.
func Excerpt(n Note) string {
	if n.Content == "" {
		return "Pas de texte"
	}
	return truncate(n.Content, 50) + "..."
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FormatDuration renders seconds as mm:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
