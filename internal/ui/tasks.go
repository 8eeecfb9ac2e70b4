package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"carnet/internal/tasks"
)

var filterCycle = []string{"all", "active", "done"}

func (m Model) visibleTasks() []tasks.Task {
	return tasks.Filter(m.taskList, m.filter)
}

func (m Model) currentTask() (tasks.Task, bool) {
	visible := m.visibleTasks()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return tasks.Task{}, false
	}
	return visible[m.cursor], true
}

func (m Model) updateTasksList(key string) (tea.Model, tea.Cmd) {
	if moved, ok := m.moveCursor(key); ok {
		return moved, nil
	}
	k := m.cfg.Keys
	switch key {
	case k.Add:
		m.mode = modeAdd
		m.input.Placeholder = "Ajouter une tâche"
		m.input.SetValue("")
		m.status = "Type a task and press enter. Esc to cancel."
		return m, m.input.Focus()
	case k.Toggle:
		t, ok := m.currentTask()
		if !ok {
			return m, nil
		}
		list, err := m.tasks.ToggleComplete(m.ctx, t.ID)
		if err != nil {
			m.status = errMessage(err)
			return m, nil
		}
		m.taskList = list
		m.cursor = clampCursor(m.cursor, m.visibleLen())
		if t.Completed {
			m.status = "Reopened: " + t.Value
		} else {
			m.status = "Done: " + t.Value
		}
	case k.Delete:
		t, ok := m.currentTask()
		if !ok {
			return m, nil
		}
		m.confirm = &pending{kind: confirmDeleteTask, id: t.ID, label: t.Value}
		m.status = fmt.Sprintf("Delete %q? (y/n)", t.Value)
	case k.ClearAll:
		if len(m.taskList) == 0 {
			m.status = "Nothing to clear"
			return m, nil
		}
		m.confirm = &pending{kind: confirmClearTasks}
		m.status = fmt.Sprintf("Delete all %d tasks? (y/n)", len(m.taskList))
	case k.Filter:
		m.filter = nextFilter(m.filter)
		m.cursor = 0
		m.status = "Filter: " + m.filter
	}
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "ctrl+c":
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.status = "Cancelled"
		return m, nil
	case "enter":
		text := m.input.Value()
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		created, ok, err := m.tasks.Add(m.ctx, text)
		switch {
		case err != nil:
			m.status = errMessage(err)
		case !ok:
			m.status = "Empty task ignored"
		default:
			m.reloadTasks()
			m.status = "Added: " + created.Value
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) renderTasksScreen() string {
	var b strings.Builder

	active, done := tasks.Counts(m.taskList)
	b.WriteString(fmt.Sprintf("Mes Tâches  %d à faire · %d terminées  [%s]\n\n", active, done, m.filter))

	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	visible := m.visibleTasks()
	if len(visible) == 0 {
		if len(m.taskList) == 0 {
			b.WriteString("Aucune tâche pour le moment")
		} else {
			b.WriteString("Nothing matches this filter")
		}
		return b.String()
	}
	for i, t := range visible {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		fmt.Fprintf(&b, "%s %s %s\n", cursor, check, t.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func nextFilter(cur string) string {
	for i, f := range filterCycle {
		if f == cur {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return filterCycle[1]
}
