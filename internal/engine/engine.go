package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	ferrors "github.com/fathom-search/fathom/internal/errors"
	"github.com/fathom-search/fathom/internal/merge"
	"github.com/fathom-search/fathom/internal/store"
)

// Engine is the hybrid search orchestrator. Construct one with New and share
// it; all methods are safe for concurrent use.
type Engine struct {
	lexical store.LexicalIndex
	vector  store.VectorStore
	cfg     Config
	logger  *slog.Logger

	mu          sync.Mutex
	initialized bool
	initErr     error
	vectorReady bool
	closed      bool

	history *historyBuffer
	stats   *statsCollector
}

// New creates an engine over a lexical index and an optional vector store.
// A nil vector store yields a lexical-only engine. A nil logger falls back
// to slog.Default.
func New(lexical store.LexicalIndex, vector store.VectorStore, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		lexical: lexical,
		vector:  vector,
		cfg:     cfg,
		logger:  logger,
		history: newHistoryBuffer(cfg.HistoryCap),
		stats:   newStatsCollector(),
	}
}

// Initialize probes both backends. It is idempotent and invoked lazily by
// every public operation. A lexical probe failure is fatal and sticky; a
// vector probe failure only disables the vector path.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initializeLocked(ctx)
}

func (e *Engine) initializeLocked(ctx context.Context) error {
	if e.closed {
		return ferrors.New(ferrors.ErrCodeIndexClosed, "engine is closed", nil)
	}
	if e.initErr != nil {
		return e.initErr
	}
	if e.initialized {
		return nil
	}

	if _, err := e.lexical.Status(ctx); err != nil {
		e.initErr = ferrors.Wrap(ferrors.ErrCodeCorruptIndex, fmt.Errorf("lexical index unavailable: %w", err))
		return e.initErr
	}

	if e.vector != nil {
		if _, err := e.vector.Status(ctx); err != nil {
			e.logger.Warn("vector store unavailable, degrading to keyword-only search",
				slog.String("error", err.Error()))
			e.vectorReady = false
		} else {
			e.vectorReady = true
		}
	}

	e.initialized = true
	return nil
}

// ensureReady runs lazy initialization and reports whether the vector path
// is usable.
func (e *Engine) ensureReady(ctx context.Context) (vectorReady bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.initializeLocked(ctx); err != nil {
		return false, err
	}
	return e.vectorReady, nil
}

// Search runs a hybrid search: both paths concurrently, merged, re-ranked
// and truncated. Vector failures degrade to keyword-only results; lexical
// failures propagate.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) ([]*HybridResult, error) {
	// A query with no searchable terms matches nothing. Not an error.
	query = strings.TrimSpace(query)
	if query == "" {
		return []*HybridResult{}, nil
	}
	if opts.VectorOnly && opts.KeywordOnly {
		return nil, ferrors.ValidationError("vector-only and keyword-only are mutually exclusive", nil).
			WithDetail("query", query)
	}

	vectorReady, err := e.ensureReady(ctx)
	if err != nil {
		return nil, err
	}

	if opts.MaxResults <= 0 {
		opts.MaxResults = e.cfg.DefaultLimit
	}
	switch {
	case opts.MinScore == 0:
		opts.MinScore = e.cfg.MinScore
	case opts.MinScore < 0:
		opts.MinScore = 0
	}

	useVector := vectorReady && !opts.KeywordOnly
	useKeyword := !opts.VectorOnly
	if opts.VectorOnly && !useVector {
		// Collaborator absence degrades to an empty result, never an error.
		e.logger.Warn("vector search requested but vector store is unavailable",
			slog.String("query", query))
		return []*HybridResult{}, nil
	}

	weights := e.resolveWeights(query, opts)

	// Over-fetch so the merged list still fills MaxResults after the score
	// floor and dedup.
	fetch := opts.MaxResults * 2

	var vecCands, keyCands []*merge.Candidate
	g, gctx := errgroup.WithContext(ctx)

	if useVector {
		g.Go(func() error {
			results, err := e.vector.Search(gctx, query, fetch)
			if err != nil {
				e.logger.Warn("vector search failed, continuing with keyword results",
					slog.String("query", query),
					slog.String("error", err.Error()))
				return nil
			}
			vecCands = vectorCandidates(results, query, opts)
			return nil
		})
	}
	if useKeyword {
		g.Go(func() error {
			results, err := e.lexical.Search(gctx, query, store.SearchOptions{
				MaxResults:    fetch,
				HighlightPre:  opts.HighlightPre,
				HighlightPost: opts.HighlightPost,
			})
			if err != nil {
				return ferrors.Wrap(ferrors.ErrCodeSearchFailed, err)
			}
			keyCands = keywordCandidates(results)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := merge.Merge(vecCands, keyCands, weights.Vector, weights.Keyword)

	filtered := merged[:0]
	for _, m := range merged {
		if m.Score >= opts.MinScore {
			filtered = append(filtered, m)
		}
	}
	filtered = merge.Rerank(filtered, e.cfg.DiversityBoost)
	if len(filtered) > opts.MaxResults {
		filtered = filtered[:opts.MaxResults]
	}

	results := make([]*HybridResult, len(filtered))
	for i, m := range filtered {
		results[i] = &HybridResult{
			ID:           m.ID,
			Path:         m.Path,
			Snippet:      m.Snippet,
			Score:        m.Score,
			Source:       m.Source,
			VectorScore:  m.VectorScore,
			KeywordScore: m.KeywordScore,
			StartLine:    m.StartLine,
			EndLine:      m.EndLine,
		}
	}

	mode := searchMode(len(vecCands) > 0, len(keyCands) > 0)
	e.history.Add(HistoryEntry{
		Query:       query,
		Timestamp:   nowUTC(),
		ResultCount: len(results),
		Mode:        mode,
	})
	e.stats.Record(query, mode, len(results))

	return results, nil
}

// VectorSearch runs a semantic-only search.
func (e *Engine) VectorSearch(ctx context.Context, query string, opts SearchOptions) ([]*HybridResult, error) {
	opts.VectorOnly = true
	opts.KeywordOnly = false
	return e.Search(ctx, query, opts)
}

// KeywordSearch runs a lexical-only search.
func (e *Engine) KeywordSearch(ctx context.Context, query string, opts SearchOptions) ([]*HybridResult, error) {
	opts.KeywordOnly = true
	opts.VectorOnly = false
	return e.Search(ctx, query, opts)
}

// IndexDocument writes a document through to the lexical index, then
// best-effort to the vector store.
func (e *Engine) IndexDocument(ctx context.Context, doc *store.Document) error {
	vectorReady, err := e.ensureReady(ctx)
	if err != nil {
		return err
	}
	return e.indexOne(ctx, doc, vectorReady)
}

// IndexDocuments indexes a batch sequentially and returns the number of
// documents accepted by the lexical index. Per-document failures are logged
// and skipped.
func (e *Engine) IndexDocuments(ctx context.Context, docs []*store.Document) (int, error) {
	vectorReady, err := e.ensureReady(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, doc := range docs {
		if err := e.indexOne(ctx, doc, vectorReady); err != nil {
			e.logger.Warn("document skipped during batch indexing",
				slog.String("id", doc.DeriveID()),
				slog.String("error", err.Error()))
			continue
		}
		indexed++
	}
	return indexed, nil
}

func (e *Engine) indexOne(ctx context.Context, doc *store.Document, vectorReady bool) error {
	if err := e.lexical.Index(ctx, doc); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeIndexFailed, err)
	}
	if vectorReady {
		if err := e.vector.Index(ctx, doc); err != nil {
			e.logger.Warn("vector indexing failed, document is keyword-searchable only",
				slog.String("id", doc.ID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// DeleteDocument removes a document from both backends. The lexical result
// is authoritative; vector deletion is best-effort.
func (e *Engine) DeleteDocument(ctx context.Context, id string) (bool, error) {
	vectorReady, err := e.ensureReady(ctx)
	if err != nil {
		return false, err
	}

	deleted, err := e.lexical.Delete(ctx, id)
	if err != nil {
		return false, ferrors.Wrap(ferrors.ErrCodeIndexFailed, err)
	}
	if vectorReady {
		if err := e.vector.Delete(ctx, id); err != nil {
			e.logger.Warn("vector deletion failed",
				slog.String("id", id),
				slog.String("error", err.Error()))
		}
	}
	return deleted, nil
}

// Clear empties both backends and resets history and stats.
func (e *Engine) Clear(ctx context.Context) error {
	vectorReady, err := e.ensureReady(ctx)
	if err != nil {
		return err
	}

	if err := e.lexical.Clear(ctx); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeIndexFailed, err)
	}
	if vectorReady {
		if err := e.vector.Clear(ctx); err != nil {
			e.logger.Warn("vector clear failed", slog.String("error", err.Error()))
		}
	}

	e.history.Reset()
	e.stats.Reset()
	return nil
}

// Status reports document counts and backend readiness.
func (e *Engine) Status(ctx context.Context) (*IndexStatus, error) {
	vectorReady, err := e.ensureReady(ctx)
	if err != nil {
		return nil, err
	}

	lexStatus, err := e.lexical.Status(ctx)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeSearchFailed, err)
	}
	return &IndexStatus{
		TotalDocuments: lexStatus.TotalDocuments,
		LexicalReady:   true,
		VectorReady:    vectorReady,
		IndexSizeBytes: lexStatus.IndexSizeBytes,
	}, nil
}

// History returns up to limit recent searches, newest first. limit <= 0
// returns everything retained.
func (e *Engine) History(limit int) []HistoryEntry {
	return e.history.Recent(limit)
}

// Stats returns aggregated usage counters.
func (e *Engine) Stats() Stats {
	return e.stats.Snapshot()
}

// Close releases both backends. The engine is unusable afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.initialized = false
	e.vectorReady = false

	err := e.lexical.Close()
	if e.vector != nil {
		if vErr := e.vector.Close(); err == nil {
			err = vErr
		}
	}
	return err
}

// resolveWeights prefers explicit caller weights, normalized to sum to 1.0;
// otherwise the adaptive heuristic decides from the query shape.
func (e *Engine) resolveWeights(query string, opts SearchOptions) merge.Weights {
	sum := opts.VectorWeight + opts.KeywordWeight
	if sum > 0 {
		return merge.Weights{
			Vector:  opts.VectorWeight / sum,
			Keyword: opts.KeywordWeight / sum,
		}
	}
	return merge.AdjustWeights(query)
}

func vectorCandidates(results []*store.VectorResult, query string, opts SearchOptions) []*merge.Candidate {
	tokens := store.Tokenize(query)
	cands := make([]*merge.Candidate, len(results))
	for i, r := range results {
		cands[i] = &merge.Candidate{
			ID:        r.ID,
			Path:      r.Path,
			Snippet:   store.BuildSnippet(r.Content, tokens, opts.HighlightPre, opts.HighlightPost),
			Score:     r.Score,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
		}
	}
	return cands
}

func keywordCandidates(results []*store.LexicalResult) []*merge.Candidate {
	cands := make([]*merge.Candidate, len(results))
	for i, r := range results {
		cands[i] = &merge.Candidate{
			ID:        r.ID,
			Path:      r.Path,
			Snippet:   r.Snippet,
			Score:     r.Score,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
		}
	}
	return cands
}

func searchMode(hasVector, hasKeyword bool) merge.Source {
	switch {
	case hasVector && hasKeyword:
		return merge.SourceHybrid
	case hasVector:
		return merge.SourceVector
	default:
		return merge.SourceKeyword
	}
}
