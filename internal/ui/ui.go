package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"carnet/internal/config"
	"carnet/internal/notes"
	"carnet/internal/record"
	"carnet/internal/tasks"
)

type screen int

const (
	screenTasks screen = iota
	screenNotes
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeSearch
	modeEdit
)

type confirmKind int

const (
	confirmDeleteTask confirmKind = iota
	confirmDeleteNote
	confirmClearTasks
	confirmClearNotes
)

type pending struct {
	kind  confirmKind
	id    string
	label string
}

type Model struct {
	ctx    context.Context
	tasks  *tasks.Store
	notes  *notes.Store
	cfg    config.Config
	screen screen
	mode   mode

	taskList []tasks.Task
	noteList []notes.Note
	filter   string
	query    string

	cursor  int
	input   textinput.Model
	status  string
	confirm *pending
	editor  *editor
}

func New(ctx context.Context, ts *tasks.Store, ns *notes.Store, cfg config.Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Ajouter une tâche"
	ti.CharLimit = 512
	ti.Width = 40

	m := Model{
		ctx:    ctx,
		tasks:  ts,
		notes:  ns,
		cfg:    cfg,
		input:  ti,
		mode:   modeList,
		filter: initialFilter(cfg.DefaultFilter),
		status: "Press 'a' to add, space to toggle, 'd' to delete, tab for notes.",
	}
	m.reloadTasks()
	m.reloadNotes()
	return m
}

func Run(ctx context.Context, ts *tasks.Store, ns *notes.Store, cfg config.Config) error {
	program := tea.NewProgram(New(ctx, ts, ns, cfg), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg.String())
		}
		if m.editor != nil {
			return m.updateEditor(msg.String(), msg)
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd:
		return m.updateAddMode(key, msg)
	case modeSearch:
		return m.updateSearchMode(key, msg)
	}
	if key == "ctrl+c" || key == m.cfg.Keys.Quit {
		return m, tea.Quit
	}
	if key == m.cfg.Keys.Switch {
		return m.switchScreen(), nil
	}
	if m.screen == screenNotes {
		return m.updateNotesList(key)
	}
	return m.updateTasksList(key)
}

func (m Model) switchScreen() Model {
	if m.screen == screenTasks {
		m.screen = screenNotes
		m.reloadNotes()
		m.status = "Notes: 'a' new, 'e' edit, '/' search, 'd' delete."
	} else {
		m.screen = screenTasks
		m.reloadTasks()
		m.status = "Tasks: 'a' add, space toggle, 'd' delete."
	}
	m.cursor = 0
	return m
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	p := m.confirm
	m.confirm = nil
	switch key {
	case "y", "Y":
	default:
		m.status = "Cancelled"
		return m, nil
	}

	var err error
	switch p.kind {
	case confirmDeleteTask:
		_, err = m.tasks.Delete(m.ctx, p.id)
		m.reloadTasks()
		if err == nil {
			m.status = "Deleted task"
		}
	case confirmClearTasks:
		err = m.tasks.ClearAll(m.ctx)
		m.reloadTasks()
		if err == nil {
			m.status = "All tasks cleared"
		}
	case confirmDeleteNote:
		_, err = m.notes.Delete(m.ctx, p.id)
		m.reloadNotes()
		if err == nil {
			m.status = "Deleted note"
		}
	case confirmClearNotes:
		err = m.notes.ClearAll(m.ctx)
		m.reloadNotes()
		if err == nil {
			m.status = "All notes and attachments removed"
		}
	}
	if err != nil {
		m.status = errMessage(err)
	}
	m.cursor = clampCursor(m.cursor, m.visibleLen())
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.screen == screenNotes {
		b.WriteString(m.renderNotesScreen())
	} else {
		b.WriteString(m.renderTasksScreen())
	}

	b.WriteString("\n\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := []string{" Tâches ", " Notes "}
	active := int(m.screen)
	tabs[active] = "[" + strings.TrimSpace(tabs[active]) + "]"
	return "carnet  " + strings.Join(tabs, " ")
}

func (m Model) renderHelp() string {
	k := m.cfg.Keys
	if m.screen == screenNotes {
		return fmt.Sprintf("%s/%s move • %s new • %s edit • %s search • %s delete • %s clear all • %s tasks • %s quit",
			k.Up, k.Down, k.Add, k.Edit, k.Search, k.Delete, k.ClearAll, k.Switch, k.Quit)
	}
	return fmt.Sprintf("%s/%s move • %s add • %q toggle • %s delete • %s filter • %s clear all • %s notes • %s quit",
		k.Up, k.Down, k.Add, k.Toggle, k.Delete, k.Filter, k.ClearAll, k.Switch, k.Quit)
}

func (m *Model) reloadTasks() {
	m.taskList = m.tasks.Load(m.ctx)
}

func (m *Model) reloadNotes() {
	m.noteList = m.notes.LoadAndSort(m.ctx)
}

func (m Model) visibleLen() int {
	if m.screen == screenNotes {
		return len(m.visibleNotes())
	}
	return len(m.visibleTasks())
}

func (m Model) moveCursor(key string) (Model, bool) {
	switch key {
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, m.visibleLen())
		return m, true
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, m.visibleLen())
		return m, true
	}
	return m, false
}

// errMessage turns a store error into the status line text.
func errMessage(err error) string {
	if errors.Is(err, record.ErrPersist) {
		return "could not save; try again or run `carnet reset` to clear data"
	}
	return fmt.Sprintf("error: %v", err)
}

func initialFilter(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	for _, known := range filterCycle {
		if f == known {
			return f
		}
	}
	return "all"
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
