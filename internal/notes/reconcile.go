package notes

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"carnet/internal/record"
)

func noteID(n Note) string { return n.ID }

// build turns a draft into the note to persist. id is reused when editing.
func build(d Draft, id string, now time.Time, loc Locale) Note {
	return Note{
		ID:         id,
		Title:      strings.TrimSpace(d.Title),
		Content:    strings.TrimSpace(d.Content),
		Date:       loc.Format(now),
		UpdatedAt:  now.UnixMilli(),
		Images:     nonNil(slices.Clone(d.Images)),
		AudioPaths: nonNil(slices.Clone(d.AudioPaths)),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// upsert replaces the note with the same id, or appends it. prev is the
// replaced version when there was one.
func upsert(list []Note, n Note) (next []Note, prev Note, replaced bool) {
	i := slices.IndexFunc(list, func(x Note) bool { return x.ID == n.ID })
	next = slices.Clone(list)
	if i < 0 {
		return append(next, n), Note{}, false
	}
	prev = next[i]
	next[i] = n
	return next, prev, true
}

func remove(list []Note, id string) (next []Note, removed Note, ok bool) {
	i := slices.IndexFunc(list, func(x Note) bool { return x.ID == id })
	if i < 0 {
		return list, Note{}, false
	}
	removed = list[i]
	return slices.Delete(slices.Clone(list), i, i+1), removed, true
}

func newID(list []Note, now time.Time) string {
	return record.NewID(now, record.IDSet(list, noteID))
}

// backfill gives notes without a date the display date of now. Only the
// returned view changes.
func backfill(list []Note, now time.Time, loc Locale) []Note {
	out := slices.Clone(list)
	for i := range out {
		if strings.TrimSpace(out[i].Date) == "" {
			out[i].Date = loc.Format(now)
		}
	}
	return out
}

// sortKey is the note's recency: updatedAt when recorded, otherwise the
// parsed display date. Unreadable dates get the Unix epoch.
func sortKey(n Note, now time.Time, loc Locale) time.Time {
	if n.UpdatedAt > 0 {
		return time.UnixMilli(n.UpdatedAt)
	}
	t, _ := loc.Parse(n.Date, now.Year(), now.Location())
	return t
}

// sortNewestFirst orders notes by recency, most recent first. Ties keep the
// stored order.
func sortNewestFirst(list []Note, now time.Time, loc Locale) []Note {
	type keyed struct {
		n   Note
		key time.Time
	}
	ks := make([]keyed, len(list))
	for i, n := range list {
		ks[i] = keyed{n: n, key: sortKey(n, now, loc)}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return b.key.Compare(a.key)
	})
	out := make([]Note, len(ks))
	for i, k := range ks {
		out[i] = k.n
	}
	return out
}

// Search keeps the notes whose title or content contains query, ignoring
// case. An empty query keeps everything.
func Search(list []Note, query string) []Note {
	if query == "" {
		return list
	}
	q := fold(query)
	var out []Note
	for _, n := range list {
		if strings.Contains(fold(n.Title), q) || strings.Contains(fold(n.Content), q) {
			out = append(out, n)
		}
	}
	return nonNil(out)
}

func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
