package notes

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(list []Note) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func TestSearch(t *testing.T) {
	list := []Note{
		{ID: "1", Title: "Courses", Content: "lait, œufs"},
		{ID: "2", Title: "", Content: "Appeler ÉLISE demain"},
		{ID: "3", Title: "Idées", Content: ""},
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Search(list, "")))
	assert.Equal(t, []string{"1"}, ids(Search(list, "COURSES")))
	assert.Equal(t, []string{"2"}, ids(Search(list, "élise")))
	assert.Equal(t, []string{"3"}, ids(Search(list, "idé")))
	assert.Equal(t, []string{"1"}, ids(Search(list, "ŒUFS")))
	assert.Empty(t, Search(list, "zzz"))
	assert.NotNil(t, Search(list, "zzz"))
}

func TestSortNewestFirst(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	list := []Note{
		{ID: "garbage", Date: "n'importe quoi"},
		{ID: "legacy-jan", Date: "3 janv. à 10:00"},
		{ID: "modern", Date: "ignored", UpdatedAt: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{ID: "legacy-sep", Date: "14 sept. à 08:30"},
		{ID: "missing"},
	}

	got := sortNewestFirst(list, now, French)
	assert.Equal(t, []string{"legacy-sep", "modern", "legacy-jan", "garbage", "missing"}, ids(got))
	assert.Equal(t, "garbage", list[0].ID, "input is not reordered")
}

func TestSortNewestFirst_TiesKeepStoredOrder(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	list := []Note{{ID: "a", Date: "bad"}, {ID: "b", Date: "bad"}, {ID: "c", Date: "bad"}}
	assert.Equal(t, []string{"a", "b", "c"}, ids(sortNewestFirst(list, now, French)))
}

func TestBackfill(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	list := []Note{{ID: "a"}, {ID: "b", Date: "1 mai à 10:00"}}

	got := backfill(list, now, French)
	assert.Equal(t, "19 oct. à 12:00", got[0].Date)
	assert.Equal(t, "1 mai à 10:00", got[1].Date)
	assert.Empty(t, list[0].Date)
}

func TestUpsert(t *testing.T) {
	list := []Note{{ID: "a", Title: "old"}, {ID: "b"}}

	next, prev, replaced := upsert(list, Note{ID: "a", Title: "new"})
	assert.True(t, replaced)
	assert.Equal(t, "old", prev.Title)
	assert.Equal(t, "new", next[0].Title)
	assert.Equal(t, "old", list[0].Title)

	next, _, replaced = upsert(list, Note{ID: "c"})
	assert.False(t, replaced)
	assert.Equal(t, []string{"a", "b", "c"}, ids(next))
}

func TestBuild_TrimsAndStamps(t *testing.T) {
	now := time.Date(2026, time.March, 8, 7, 5, 0, 0, time.UTC)
	n := build(Draft{Title: "  Titre ", Content: "\ncorps\n"}, "42", now, French)

	assert.Equal(t, "42", n.ID)
	assert.Equal(t, "Titre", n.Title)
	assert.Equal(t, "corps", n.Content)
	assert.Equal(t, "8 mars à 07:05", n.Date)
	assert.Equal(t, now.UnixMilli(), n.UpdatedAt)
	assert.NotNil(t, n.Images)
	assert.NotNil(t, n.AudioPaths)
}

func TestDraftAttachments(t *testing.T) {
	d := DraftOf(Note{Images: []string{"a.jpg", "b.jpg"}, AudioPaths: []Audio{{URI: "m.m4a", Duration: 4}}})

	ref, ok := d.RemoveImage(0)
	assert.True(t, ok)
	assert.Equal(t, "a.jpg", ref)
	assert.Equal(t, []string{"b.jpg"}, d.Images)

	_, ok = d.RemoveImage(5)
	assert.False(t, ok)

	d.AddAudio("n.m4a", -3)
	ref, ok = d.RemoveAudio(0)
	assert.True(t, ok)
	assert.Equal(t, "m.m4a", ref)
	assert.Equal(t, []Audio{{URI: "n.m4a", Duration: 0}}, d.AudioPaths)

	assert.True(t, Draft{Title: " ", Content: "\t"}.Empty())
	assert.False(t, Draft{Content: "x"}.Empty())
}

func TestPreviewAndExcerpt(t *testing.T) {
	assert.Equal(t, "Titre", Preview(Note{Title: "Titre", Content: "x"}))
	assert.Equal(t, strings.Repeat("é", 20)+"...", Preview(Note{Content: strings.Repeat("é", 23)}))
	assert.Equal(t, "Sans titre", Preview(Note{}))
	assert.Equal(t, "Pas de texte", Excerpt(Note{}))
	assert.Equal(t, "court...", Excerpt(Note{Content: "court"}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:07", FormatDuration(7))
	assert.Equal(t, "01:05", FormatDuration(65))
	assert.Equal(t, "00:00", FormatDuration(-1))
}
