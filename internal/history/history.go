// Package history keeps a bounded, linear undo/redo log of whole-flow
// snapshots.
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mur-run/flowspec/internal/flowspec"
)

// DefaultSize is the number of snapshots kept when no size is given.
const DefaultSize = 50

// Entry is one snapshot in the log.
type Entry struct {
	ID          string
	Flow        *flowspec.Flow
	Timestamp   time.Time
	Description string
}

// Info summarizes the log around the current entry.
type Info struct {
	Current       int // 1-based; 0 when empty
	Total         int
	CanUndo       bool
	CanRedo       bool
	RecentActions []string
}

// Manager is the undo/redo log. Pushing after an undo discards the entries
// that could have been redone. It is not safe for concurrent use.
type Manager struct {
	entries []Entry
	current int
	maxSize int
	now     func() time.Time
}

// New returns an empty Manager that keeps at most maxSize snapshots.
// A non-positive maxSize means DefaultSize.
func New(maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}
	return &Manager{current: -1, maxSize: maxSize, now: time.Now}
}

// Push records a snapshot of flow. An empty description is recorded as "Edit".
func (m *Manager) Push(flow *flowspec.Flow, description string) {
	if description == "" {
		description = "Edit"
	}
	if m.current < len(m.entries)-1 {
		m.entries = m.entries[:m.current+1]
	}
	m.entries = append(m.entries, Entry{
		ID:          uuid.NewString(),
		Flow:        flow.Clone(),
		Timestamp:   m.now(),
		Description: description,
	})
	if len(m.entries) > m.maxSize {
		m.entries[0] = Entry{}
		m.entries = m.entries[1:]
	} else {
		m.current++
	}
}

// Undo steps back one entry and returns it.
func (m *Manager) Undo() (Entry, bool) {
	if !m.CanUndo() {
		return Entry{}, false
	}
	m.current--
	return m.entry(m.current), true
}

// Redo steps forward one entry and returns it.
func (m *Manager) Redo() (Entry, bool) {
	if !m.CanRedo() {
		return Entry{}, false
	}
	m.current++
	return m.entry(m.current), true
}

// Current returns the entry at the pointer.
func (m *Manager) Current() (Entry, bool) {
	if m.current < 0 || m.current >= len(m.entries) {
		return Entry{}, false
	}
	return m.entry(m.current), true
}

// entry hands out a copy so callers cannot edit a stored snapshot.
func (m *Manager) entry(i int) Entry {
	e := m.entries[i]
	e.Flow = e.Flow.Clone()
	return e
}

func (m *Manager) CanUndo() bool { return m.current > 0 }

func (m *Manager) CanRedo() bool { return m.current < len(m.entries)-1 }

// Len returns the number of stored snapshots.
func (m *Manager) Len() int { return len(m.entries) }

// Clear empties the log.
func (m *Manager) Clear() {
	m.entries = nil
	m.current = -1
}

// Info reports the position in the log and the descriptions of up to
// window entries either side of the current one. The current entry is
// prefixed with "→ ", the others with two spaces. A negative window means 2.
func (m *Manager) Info(window int) Info {
	if window < 0 {
		window = 2
	}
	info := Info{
		Current:       m.current + 1,
		Total:         len(m.entries),
		CanUndo:       m.CanUndo(),
		CanRedo:       m.CanRedo(),
		RecentActions: []string{},
	}
	lo := max(0, m.current-window)
	hi := min(len(m.entries), m.current+window+1)
	for i := lo; i < hi; i++ {
		marker := "  "
		if i == m.current {
			marker = "→ "
		}
		info.RecentActions = append(info.RecentActions, marker+m.entries[i].Description)
	}
	return info
}

// Debug lists every entry, one per line, marking the current one.
func (m *Manager) Debug() string {
	lines := make([]string, 0, len(m.entries))
	for i, e := range m.entries {
		marker := " "
		if i == m.current {
			marker = "→"
		}
		lines = append(lines, fmt.Sprintf("%s [%d] %s: %s", marker, i, e.Timestamp.Format(time.TimeOnly), e.Description))
	}
	return strings.Join(lines, "\n")
}
