package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livepoll/internal/domain"
)

func TestHistory_AppendAndSnapshot(t *testing.T) {
	h := NewHistory()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Snapshot())

	h.Append(domain.HistoryEntry{Question: domain.Question{ID: 1, Options: []string{"A", "B"}}})
	h.Append(domain.HistoryEntry{Question: domain.Question{ID: 2, Options: []string{"C", "D"}}})

	snapshot := h.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, int64(1), snapshot[0].Question.ID)
	assert.Equal(t, int64(2), snapshot[1].Question.ID, "newest entry is last")
}

func TestHistory_SnapshotIsIsolated(t *testing.T) {
	h := NewHistory()
	entry := domain.HistoryEntry{
		Question: domain.Question{ID: 1, Options: []string{"A", "B"}},
		Results:  []domain.OptionResult{{Option: "A", Votes: 1, Percentage: 100}, {Option: "B"}},
	}
	h.Append(entry)

	entry.Results[0].Votes = 99
	snapshot := h.Snapshot()
	snapshot[0].Question.Options[0] = "changed"

	again := h.Snapshot()
	assert.Equal(t, 1, again[0].Results[0].Votes)
	assert.Equal(t, "A", again[0].Question.Options[0])
}
