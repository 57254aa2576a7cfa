package poll

import (
	"sync"

	"livepoll/internal/domain"
)

// History is the append-only log of resolved rounds
type History struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
}

// NewHistory creates an empty history log
func NewHistory() *History {
	return &History{}
}

// Append records a resolved round
func (h *History) Append(entry domain.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, cloneEntry(entry))
}

// Snapshot returns every entry in resolution order, newest last
func (h *History) Snapshot() []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := make([]domain.HistoryEntry, len(h.entries))
	for i, entry := range h.entries {
		snapshot[i] = cloneEntry(entry)
	}
	return snapshot
}

// Len returns the number of resolved rounds
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func cloneEntry(entry domain.HistoryEntry) domain.HistoryEntry {
	entry.Question = entry.Question.Clone()
	entry.Results = cloneResults(entry.Results)
	return entry
}
