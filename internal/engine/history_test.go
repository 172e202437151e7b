package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-search/fathom/internal/merge"
)

func TestHistoryBuffer_NewestFirst(t *testing.T) {
	h := newHistoryBuffer(10)

	for i := 0; i < 3; i++ {
		h.Add(HistoryEntry{Query: fmt.Sprintf("q-%d", i), Timestamp: time.Now()})
	}

	entries := h.Recent(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "q-2", entries[0].Query)
	assert.Equal(t, "q-0", entries[2].Query)

	limited := h.Recent(2)
	require.Len(t, limited, 2)
	assert.Equal(t, "q-2", limited[0].Query)
}

func TestHistoryBuffer_OverflowKeepsRecentHalf(t *testing.T) {
	// Given a buffer with a cap of 10
	h := newHistoryBuffer(10)

	// When adding one entry past the cap
	for i := 0; i < 11; i++ {
		h.Add(HistoryEntry{Query: fmt.Sprintf("q-%d", i)})
	}

	// Then only the most recent half survives
	entries := h.Recent(0)
	require.Len(t, entries, 5)
	assert.Equal(t, "q-10", entries[0].Query)
	assert.Equal(t, "q-6", entries[4].Query)
}

func TestHistoryBuffer_Reset(t *testing.T) {
	h := newHistoryBuffer(10)
	h.Add(HistoryEntry{Query: "q"})
	h.Reset()
	assert.Empty(t, h.Recent(0))
}

func TestStatsCollector(t *testing.T) {
	s := newStatsCollector()

	// Given a mix of recorded searches
	s.Record("alpha", merge.SourceHybrid, 4)
	s.Record("alpha", merge.SourceHybrid, 2)
	s.Record("beta", merge.SourceKeyword, 0)

	snap := s.Snapshot()

	// Then totals, per-mode counts and averages reflect the stream
	assert.Equal(t, int64(3), snap.TotalSearches)
	assert.Equal(t, int64(2), snap.SearchesByMode[merge.SourceHybrid])
	assert.Equal(t, int64(1), snap.SearchesByMode[merge.SourceKeyword])
	assert.InDelta(t, 2.0, snap.AverageResults, 1e-9)

	// And top queries rank by occurrence
	require.NotEmpty(t, snap.TopQueries)
	assert.Equal(t, "alpha", snap.TopQueries[0].Query)
	assert.Equal(t, int64(2), snap.TopQueries[0].Count)
}

func TestStatsCollector_TopQueriesCapped(t *testing.T) {
	s := newStatsCollector()
	for i := 0; i < 25; i++ {
		s.Record(fmt.Sprintf("query-%d", i), merge.SourceKeyword, 1)
	}
	assert.Len(t, s.Snapshot().TopQueries, topQueryLimit)
}

func TestStatsCollector_Reset(t *testing.T) {
	s := newStatsCollector()
	s.Record("alpha", merge.SourceKeyword, 1)
	s.Reset()

	snap := s.Snapshot()
	assert.Zero(t, snap.TotalSearches)
	assert.Empty(t, snap.TopQueries)
}
