package engine

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fathom-search/fathom/internal/merge"
)

// queryCacheSize bounds the distinct queries tracked for top-query stats.
const queryCacheSize = 1024

// topQueryLimit is how many entries Stats.TopQueries reports.
const topQueryLimit = 10

// historyBuffer is a bounded append log of executed searches. When the cap
// is exceeded, the most recent half is retained.
type historyBuffer struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	cap     int
}

func newHistoryBuffer(cap int) *historyBuffer {
	return &historyBuffer{cap: cap}
}

func (h *historyBuffer) Add(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.cap {
		keep := h.cap / 2
		trimmed := make([]HistoryEntry, keep)
		copy(trimmed, h.entries[len(h.entries)-keep:])
		h.entries = trimmed
	}
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (h *historyBuffer) Recent(limit int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]HistoryEntry, limit)
	for i := 0; i < limit; i++ {
		out[i] = h.entries[n-1-i]
	}
	return out
}

func (h *historyBuffer) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// statsCollector aggregates search counters. Distinct-query counts live in
// an LRU cache so an unbounded query stream cannot grow memory.
type statsCollector struct {
	mu          sync.RWMutex
	total       int64
	byMode      map[merge.Source]int64
	resultSum   int64
	queryCounts *lru.Cache[string, int64]
}

func newStatsCollector() *statsCollector {
	cache, _ := lru.New[string, int64](queryCacheSize)
	return &statsCollector{
		byMode:      make(map[merge.Source]int64),
		queryCounts: cache,
	}
}

func (s *statsCollector) Record(query string, mode merge.Source, resultCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byMode[mode]++
	s.resultSum += int64(resultCount)

	count, _ := s.queryCounts.Get(query)
	s.queryCounts.Add(query, count+1)
}

func (s *statsCollector) Snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMode := make(map[merge.Source]int64, len(s.byMode))
	for mode, n := range s.byMode {
		byMode[mode] = n
	}

	var avg float64
	if s.total > 0 {
		avg = float64(s.resultSum) / float64(s.total)
	}

	counts := make([]QueryCount, 0, s.queryCounts.Len())
	for _, query := range s.queryCounts.Keys() {
		if n, ok := s.queryCounts.Peek(query); ok {
			counts = append(counts, QueryCount{Query: query, Count: n})
		}
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Query < counts[j].Query
	})
	if len(counts) > topQueryLimit {
		counts = counts[:topQueryLimit]
	}

	return Stats{
		TotalSearches:  s.total,
		SearchesByMode: byMode,
		AverageResults: avg,
		TopQueries:     counts,
	}
}

func (s *statsCollector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = 0
	s.resultSum = 0
	s.byMode = make(map[merge.Source]int64)
	s.queryCounts.Purge()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
