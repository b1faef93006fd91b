// Package history persists when each candidate was last notified.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DateLayout is the on-disk date format.
const DateLayout = "2006-01-02"

// History maps candidate ids to the date of their last notification. It is
// owned by a single run: loaded at start, mutated by the router and saved at
// the end.
type History struct {
	entries map[string]string
}

// New returns an empty history.
func New() *History {
	return &History{entries: map[string]string{}}
}

// Load reads a history file. A missing or empty file yields an empty history.
func Load(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading history file %q: %w", path, err)
	}

	h := New()
	if len(data) == 0 {
		return h, nil
	}
	if err := json.Unmarshal(data, &h.entries); err != nil {
		return nil, fmt.Errorf("decoding history file %q: %w", path, err)
	}
	if h.entries == nil {
		h.entries = map[string]string{}
	}
	return h, nil
}

// Save writes the history next to path and renames it into place.
func (h *History) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	file, err := os.CreateTemp(dir, ".history_*.json")
	if err != nil {
		return fmt.Errorf("creating temporary history file: %w", err)
	}
	defer os.Remove(file.Name())

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h.entries); err != nil {
		file.Close()
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temporary history file: %w", err)
	}

	if err := os.Rename(file.Name(), path); err != nil {
		return fmt.Errorf("replacing history file %q: %w", path, err)
	}
	return nil
}

// Mark records day as the last notification date of id.
func (h *History) Mark(id string, day time.Time) {
	if id == "" {
		return
	}
	h.entries[id] = day.Format(DateLayout)
}

// Last returns the last notification date of id.
func (h *History) Last(id string) (time.Time, bool) {
	raw, ok := h.entries[id]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NotifiedWithin reports whether id was notified fewer than days days before
// today. Unknown ids and unreadable dates report false.
func (h *History) NotifiedWithin(id string, today time.Time, days int) bool {
	last, ok := h.Last(id)
	if !ok {
		return false
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(last).Hours()/24) < days
}

// Forget removes id and reports whether it was present.
func (h *History) Forget(id string) bool {
	if _, ok := h.entries[id]; !ok {
		return false
	}
	delete(h.entries, id)
	return true
}

// Len returns the number of tracked candidates.
func (h *History) Len() int {
	return len(h.entries)
}

// IDs returns the tracked ids in sorted order.
func (h *History) IDs() []string {
	ids := make([]string, 0, len(h.entries))
	for id := range h.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns a copy of the raw id to date mapping.
func (h *History) Entries() map[string]string {
	out := make(map[string]string, len(h.entries))
	for id, day := range h.entries {
		out[id] = day
	}
	return out
}
