package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"carnet/internal/notes"
)

type editorField int

const (
	fieldTitle editorField = iota
	fieldContent
	fieldAttach
)

var audioExts = map[string]bool{
	".m4a": true, ".mp3": true, ".aac": true, ".wav": true, ".ogg": true, ".caf": true,
}

// editor holds the note being written. id is empty for a new note.
type editor struct {
	id       string
	draft    notes.Draft
	imported []string
	field    editorField
	title    textinput.Model
	content  textarea.Model
	attach   textinput.Model
}

func newEditor(id string, d notes.Draft) *editor {
	title := textinput.New()
	title.Placeholder = "Titre"
	title.CharLimit = 200
	title.SetValue(d.Title)

	content := textarea.New()
	content.Placeholder = "Commencez à écrire..."
	content.SetWidth(60)
	content.SetHeight(8)
	content.SetValue(d.Content)

	attach := textinput.New()
	attach.Placeholder = "/path/to/photo.jpg or memo.m4a"

	return &editor{id: id, draft: d, title: title, content: content, attach: attach}
}

func (e *editor) focus(f editorField) tea.Cmd {
	e.field = f
	e.title.Blur()
	e.content.Blur()
	e.attach.Blur()
	switch f {
	case fieldContent:
		return e.content.Focus()
	case fieldAttach:
		return e.attach.Focus()
	default:
		return e.title.Focus()
	}
}

func (e *editor) collect() notes.Draft {
	d := e.draft
	d.Title = e.title.Value()
	d.Content = e.content.Value()
	return d
}

func (m Model) visibleNotes() []notes.Note {
	return notes.Search(m.noteList, m.query)
}

func (m Model) currentNote() (notes.Note, bool) {
	visible := m.visibleNotes()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return notes.Note{}, false
	}
	return visible[m.cursor], true
}

func (m Model) updateNotesList(key string) (tea.Model, tea.Cmd) {
	if moved, ok := m.moveCursor(key); ok {
		return moved, nil
	}
	k := m.cfg.Keys
	switch key {
	case k.Add:
		m.editor = newEditor("", notes.Draft{})
		m.status = "New note: tab next field, ctrl+s save, esc cancel."
		return m, m.editor.focus(fieldTitle)
	case k.Edit, k.Open:
		n, ok := m.currentNote()
		if !ok {
			return m, nil
		}
		m.editor = newEditor(n.ID, notes.DraftOf(n))
		m.status = "Editing: tab next field, ctrl+s save, esc cancel."
		return m, m.editor.focus(fieldContent)
	case k.Search:
		m.mode = modeSearch
		m.input.Placeholder = "Rechercher..."
		m.input.SetValue(m.query)
		m.status = "Type to filter. Enter to keep, esc to clear."
		return m, m.input.Focus()
	case k.Delete:
		n, ok := m.currentNote()
		if !ok {
			return m, nil
		}
		label := notes.Preview(n)
		m.confirm = &pending{kind: confirmDeleteNote, id: n.ID, label: label}
		m.status = fmt.Sprintf("Delete note %q and its attachments? (y/n)", label)
	case k.ClearAll:
		if len(m.noteList) == 0 {
			m.status = "Nothing to clear"
			return m, nil
		}
		m.confirm = &pending{kind: confirmClearNotes}
		m.status = fmt.Sprintf("Delete all %d notes and their attachments? (y/n)", len(m.noteList))
	}
	return m, nil
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "ctrl+c":
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.query = ""
		m.cursor = 0
		m.status = "Search cleared"
		return m, nil
	case "enter":
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.status = fmt.Sprintf("%d notes match %q", len(m.visibleNotes()), m.query)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.query = m.input.Value()
	m.cursor = clampCursor(m.cursor, m.visibleLen())
	return m, cmd
}

func (m Model) updateEditor(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.editor
	switch key {
	case m.cfg.Keys.Cancel:
		if e.field == fieldAttach {
			e.attach.SetValue("")
			return m, e.focus(fieldContent)
		}
		m.notes.Discard(m.ctx, e.imported)
		m.editor = nil
		m.status = "Discarded"
		return m, nil
	case "ctrl+s":
		return m.saveEditor()
	case "tab":
		return m, e.focus((e.field + 1) % 2)
	case "ctrl+a":
		m.status = "Path of the file to attach, enter to import."
		return m, e.focus(fieldAttach)
	case "ctrl+r":
		if ref, ok := e.draft.RemoveImage(len(e.draft.Images) - 1); ok {
			m.status = "Removed image " + filepath.Base(ref)
		} else if ref, ok := e.draft.RemoveAudio(len(e.draft.AudioPaths) - 1); ok {
			m.status = "Removed memo " + filepath.Base(ref)
		}
		return m, nil
	case "enter":
		switch e.field {
		case fieldTitle:
			return m, e.focus(fieldContent)
		case fieldAttach:
			m.status = m.attach(strings.TrimSpace(e.attach.Value()))
			e.attach.SetValue("")
			return m, e.focus(fieldContent)
		}
	}

	var cmd tea.Cmd
	switch e.field {
	case fieldTitle:
		e.title, cmd = e.title.Update(msg)
	case fieldContent:
		e.content, cmd = e.content.Update(msg)
	case fieldAttach:
		e.attach, cmd = e.attach.Update(msg)
	}
	return m, cmd
}

func (m Model) attach(src string) string {
	if src == "" {
		return "Nothing attached"
	}
	e := m.editor
	if audioExts[strings.ToLower(filepath.Ext(src))] {
		ref, err := m.notes.ImportAudio(src)
		if err != nil {
			return errMessage(err)
		}
		e.imported = append(e.imported, ref)
		e.draft.AddAudio(ref, 0)
		return "Attached memo " + filepath.Base(ref)
	}
	ref, err := m.notes.ImportImage(src)
	if err != nil {
		return errMessage(err)
	}
	e.imported = append(e.imported, ref)
	e.draft.AddImage(ref)
	return "Attached image " + filepath.Base(ref)
}

func (m Model) saveEditor() (tea.Model, tea.Cmd) {
	e := m.editor
	n, saved, err := m.notes.Save(m.ctx, e.collect(), e.id)
	if err != nil {
		// Keep the editor open so nothing typed is lost.
		m.status = errMessage(err)
		return m, nil
	}
	m.editor = nil
	// Drops copies that the saved note does not hold, or all of them when
	// nothing was saved.
	m.notes.Discard(m.ctx, e.imported)
	if !saved {
		m.status = "Empty note discarded"
		return m, nil
	}
	m.reloadNotes()
	m.cursor = 0
	for i, v := range m.visibleNotes() {
		if v.ID == n.ID {
			m.cursor = i
			break
		}
	}
	m.status = "Saved " + notes.Preview(n)
	return m, nil
}

func (m Model) renderNotesScreen() string {
	if m.editor != nil {
		return m.renderEditor()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Mes Notes  %d\n\n", len(m.noteList))

	if m.mode == modeSearch || m.query != "" {
		if m.mode == modeSearch {
			b.WriteString(m.input.View())
		} else {
			fmt.Fprintf(&b, "Recherche: %s", m.query)
		}
		b.WriteString("\n\n")
	}

	visible := m.visibleNotes()
	if len(visible) == 0 {
		if len(m.noteList) == 0 {
			b.WriteString("Aucune note pour le moment")
		} else {
			b.WriteString("Aucun résultat")
		}
		return b.String()
	}

	for i, n := range visible {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		fmt.Fprintf(&b, "%s %s  %s\n", cursor, notes.Preview(n), n.Date)
		fmt.Fprintf(&b, "    %s%s\n", notes.Excerpt(n), attachmentBadges(n))
	}

	if n, ok := m.currentNote(); ok {
		b.WriteString("\n")
		b.WriteString(renderNoteDetail(n))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderEditor() string {
	e := m.editor
	var b strings.Builder
	if e.id == "" {
		b.WriteString("Nouvelle note\n\n")
	} else {
		b.WriteString("Modifier la note\n\n")
	}
	b.WriteString(e.title.View())
	b.WriteString("\n\n")
	b.WriteString(e.content.View())
	b.WriteString("\n\n")
	for _, ref := range e.draft.Images {
		fmt.Fprintf(&b, "  image  %s\n", filepath.Base(ref))
	}
	for _, a := range e.draft.AudioPaths {
		fmt.Fprintf(&b, "  memo   %s  %s\n", filepath.Base(a.URI), notes.FormatDuration(a.Duration))
	}
	if e.field == fieldAttach {
		b.WriteString(e.attach.View())
		b.WriteString("\n")
	}
	b.WriteString("ctrl+a attach • ctrl+r remove last attachment")
	return b.String()
}

func renderNoteDetail(n notes.Note) string {
	var b strings.Builder
	b.WriteString("────────────────────────────\n")
	b.WriteString(notes.Preview(n))
	b.WriteString("\n")
	if n.Date != "" {
		b.WriteString(n.Date)
		b.WriteString("\n")
	}
	if n.Content != "" {
		b.WriteString("\n")
		b.WriteString(n.Content)
		b.WriteString("\n")
	}
	for _, ref := range n.Images {
		fmt.Fprintf(&b, "  image  %s\n", filepath.Base(ref))
	}
	for _, a := range n.AudioPaths {
		fmt.Fprintf(&b, "  memo   %s  %s\n", filepath.Base(a.URI), notes.FormatDuration(a.Duration))
	}
	return b.String()
}

func attachmentBadges(n notes.Note) string {
	var parts []string
	if k := len(n.Images); k > 0 {
		parts = append(parts, fmt.Sprintf("%d img", k))
	}
	if k := len(n.AudioPaths); k > 0 {
		parts = append(parts, fmt.Sprintf("%d audio", k))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  [" + strings.Join(parts, ", ") + "]"
}
