package record

import (
	"strconv"
	"time"
)

// NewID returns the creation timestamp of a record in Unix milliseconds. If
// that id is already taken the next free millisecond is used, so ids stay
// unique and keep sorting by creation time.
func NewID(now time.Time, taken func(id string) bool) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if taken == nil || !taken(id) {
			return id
		}
		ms++
	}
}

// IDSet returns a taken func over the ids of items.
func IDSet[T any](items []T, id func(T) string) func(string) bool {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[id(it)] = struct{}{}
	}
	return func(s string) bool {
		_, ok := set[s]
		return ok
	}
}
