package tasks

import (
	"slices"
	"strings"
	"time"

	"carnet/internal/record"
)

// StorageKey is the key the task collection is stored under.
const StorageKey = "tasks"

// Task is one entry of the todo list.
type Task struct {
	ID        string `json:"id" yaml:"id"`
	Value     string `json:"value" yaml:"value"`
	Completed bool   `json:"completed" yaml:"completed"`
}

func taskID(t Task) string { return t.ID }

// add appends a new incomplete task. ok is false when text is blank.
func add(list []Task, text string, now time.Time) (next []Task, created Task, ok bool) {
	value := strings.TrimSpace(text)
	if value == "" {
		return list, Task{}, false
	}
	created = Task{
		ID:    record.NewID(now, record.IDSet(list, taskID)),
		Value: value,
	}
	next = make([]Task, 0, len(list)+1)
	next = append(next, list...)
	return append(next, created), created, true
}

func remove(list []Task, id string) ([]Task, bool) {
	i := index(list, id)
	if i < 0 {
		return list, false
	}
	return slices.Delete(slices.Clone(list), i, i+1), true
}

// toggle flips the task's completion and regroups the list: every incomplete
// task before every completed one, relative order kept inside each group.
func toggle(list []Task, id string) ([]Task, bool) {
	i := index(list, id)
	if i < 0 {
		return list, false
	}
	flipped := slices.Clone(list)
	flipped[i].Completed = !flipped[i].Completed
	return partition(flipped), true
}

func partition(list []Task) []Task {
	out := make([]Task, 0, len(list))
	for _, t := range list {
		if !t.Completed {
			out = append(out, t)
		}
	}
	for _, t := range list {
		if t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func index(list []Task, id string) int {
	return slices.IndexFunc(list, func(t Task) bool { return t.ID == id })
}

// Counts returns how many tasks are still open and how many are done.
func Counts(list []Task) (active, completed int) {
	for _, t := range list {
		if t.Completed {
			completed++
		} else {
			active++
		}
	}
	return active, completed
}

// Filter keeps the tasks matching a view filter: "active", "done" or anything
// else for all.
func Filter(list []Task, filter string) []Task {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "active", "pending":
		return slices.DeleteFunc(slices.Clone(list), func(t Task) bool { return t.Completed })
	case "done", "completed":
		return slices.DeleteFunc(slices.Clone(list), func(t Task) bool { return !t.Completed })
	default:
		return list
	}
}
