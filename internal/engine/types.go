// Package engine orchestrates hybrid retrieval: it fans a query out to the
// lexical index and the optional vector store, merges the ranked lists, and
// owns the index lifecycle, search history and usage stats.
package engine

import (
	"time"

	"github.com/fathom-search/fathom/internal/merge"
)

// SearchOptions configures a hybrid search. The zero value asks for engine
// defaults.
type SearchOptions struct {
	// MaxResults caps the merged result list. Zero means the engine default.
	MaxResults int
	// MinScore drops merged results below this hybrid score. Zero means the
	// engine default; pass a negative value to disable the floor.
	MinScore float64
	// VectorWeight and KeywordWeight override the adaptive weight heuristic
	// when their sum is positive. They are normalized to sum to 1.0.
	VectorWeight  float64
	KeywordWeight float64
	// VectorOnly and KeywordOnly restrict the search to a single path.
	VectorOnly  bool
	KeywordOnly bool
	// HighlightPre and HighlightPost wrap matched tokens in snippets.
	HighlightPre  string
	HighlightPost string
}

// HybridResult is one entry of the merged, re-ranked result list.
// VectorScore and KeywordScore are normalized per-path scores; nil means the
// path did not return this entry.
type HybridResult struct {
	ID           string
	Path         string
	Snippet      string
	Score        float64
	Source       merge.Source
	VectorScore  *float64
	KeywordScore *float64
	StartLine    int
	EndLine      int
}

// HistoryEntry records one executed search.
type HistoryEntry struct {
	Query       string
	Timestamp   time.Time
	ResultCount int
	Mode        merge.Source
}

// IndexStatus reports the state of both backends.
type IndexStatus struct {
	TotalDocuments int
	LexicalReady   bool
	VectorReady    bool
	IndexSizeBytes int64
}

// QueryCount pairs a query with how often it was searched.
type QueryCount struct {
	Query string
	Count int64
}

// Stats aggregates engine usage since construction (or the last Clear).
type Stats struct {
	TotalSearches  int64
	SearchesByMode map[merge.Source]int64
	AverageResults float64
	TopQueries     []QueryCount
}

// Config tunes engine behavior. Zero fields take defaults.
type Config struct {
	// DefaultLimit is the result cap when SearchOptions.MaxResults is 0.
	DefaultLimit int
	// MinScore is the hybrid score floor when SearchOptions.MinScore is 0.
	MinScore float64
	// DiversityBoost is the re-ranking penalty per already-selected result
	// from the same source.
	DiversityBoost float64
	// HistoryCap bounds the search history buffer.
	HistoryCap int
}

const (
	defaultLimit          = 10
	defaultMinScore       = 0.1
	defaultDiversityBoost = 0.05
	defaultHistoryCap     = 1000
)

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = defaultLimit
	}
	if c.MinScore == 0 {
		c.MinScore = defaultMinScore
	}
	if c.DiversityBoost == 0 {
		c.DiversityBoost = defaultDiversityBoost
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = defaultHistoryCap
	}
	return c
}
