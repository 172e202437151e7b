package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search/query"
	index "github.com/blevesearch/bleve_index_api"
)

const (
	// WordTokenizerName is the registry name of the word-boundary tokenizer.
	WordTokenizerName = "word_boundary_tokenizer"

	// WordAnalyzerName is the registry name of the analyzer built on it.
	WordAnalyzerName = "word_boundary_analyzer"

	contentField = "content"
)

func init() {
	_ = registry.RegisterTokenizer(WordTokenizerName, wordTokenizerConstructor)
}

// BleveLexicalIndex implements LexicalIndex on a Bleve full-text index with
// BM25 scoring. The Bleve index holds only the tokenized content per
// document ID; display fields live in the companion MetadataStore.
type BleveLexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	meta   *MetadataStore
	path   string
	closed bool
}

// Verify interface implementation at compile time.
var _ LexicalIndex = (*BleveLexicalIndex)(nil)

// bleveDocument is the document structure Bleve indexes.
type bleveDocument struct {
	Content string `json:"content"`
}

// NewBleveLexicalIndex opens or creates a lexical index under dir. An empty
// dir creates a purely in-memory index for testing.
func NewBleveLexicalIndex(dir string) (*BleveLexicalIndex, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("create index mapping: %w", err)
	}

	var idx bleve.Index
	var metaPath, blevePath string
	if dir == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("create index directory %s: %w", dir, mkErr)
		}
		blevePath = filepath.Join(dir, "lexical.bleve")
		metaPath = filepath.Join(dir, "documents.db")

		idx, err = bleve.Open(blevePath)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(blevePath, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open lexical index: %w", err)
	}

	meta, err := NewMetadataStore(metaPath)
	if err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	return &BleveLexicalIndex{index: idx, meta: meta, path: blevePath}, nil
}

// createIndexMapping builds the Bleve mapping: word-boundary analyzer and
// BM25 relevance scoring.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(WordAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": WordTokenizerName,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("add custom analyzer: %w", err)
	}

	indexMapping.DefaultAnalyzer = WordAnalyzerName
	indexMapping.ScoringModel = index.BM25Scoring

	return indexMapping, nil
}

// Index adds a document, replacing any existing entry under the same ID.
func (b *BleveLexicalIndex) Index(ctx context.Context, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}
	if doc.Path == "" && doc.ID == "" {
		return fmt.Errorf("document requires an id or a path")
	}
	if doc.Content == "" {
		return fmt.Errorf("document %s has empty content", doc.DeriveID())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("lexical index is closed")
	}

	doc.ID = doc.DeriveID()

	// Bleve replaces an existing document under the same ID, so no explicit
	// delete is needed for replace semantics.
	if err := b.index.Index(doc.ID, bleveDocument{Content: doc.Content}); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	if err := b.meta.Save(ctx, doc); err != nil {
		return fmt.Errorf("save metadata for %s: %w", doc.ID, err)
	}
	return nil
}

// IndexBatch applies Index sequentially and returns the number of documents
// indexed. A failing document is logged and skipped; the batch continues.
func (b *BleveLexicalIndex) IndexBatch(ctx context.Context, docs []*Document) (int, error) {
	indexed := 0
	for _, doc := range docs {
		if err := b.Index(ctx, doc); err != nil {
			slog.Warn("document skipped during batch indexing",
				slog.String("id", doc.DeriveID()),
				slog.String("error", err.Error()))
			continue
		}
		indexed++
	}
	return indexed, nil
}

// Search runs a disjunctive prefix query over the tokenized query terms and
// returns candidates ordered by bounded relevance score.
func (b *BleveLexicalIndex) Search(ctx context.Context, queryStr string, opts SearchOptions) ([]*LexicalResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("lexical index is closed")
	}

	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}

	tokens := Tokenize(queryStr)
	if len(tokens) == 0 {
		return []*LexicalResult{}, nil
	}

	disjuncts := make([]query.Query, 0, len(tokens))
	for _, tok := range tokens {
		pq := bleve.NewPrefixQuery(tok)
		pq.SetField(contentField)
		disjuncts = append(disjuncts, pq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(disjuncts...))
	req.Size = opts.MaxResults

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	if len(res.Hits) == 0 {
		return []*LexicalResult{}, nil
	}

	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	docs, err := b.meta.GetBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load result metadata: %w", err)
	}

	results := make([]*LexicalResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		score := boundScore(hit.Score)
		if score < opts.MinScore {
			continue
		}
		doc, ok := docs[hit.ID]
		if !ok {
			// Orphan in the full-text index; harmless, skip.
			continue
		}
		results = append(results, &LexicalResult{
			ID:        doc.ID,
			Path:      doc.Path,
			Snippet:   BuildSnippet(doc.Content, tokens, opts.HighlightPre, opts.HighlightPost),
			Score:     score,
			StartLine: doc.StartLine,
			EndLine:   doc.EndLine,
		})
	}
	return results, nil
}

// Delete removes a document. Returns whether anything was deleted.
func (b *BleveLexicalIndex) Delete(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false, fmt.Errorf("lexical index is closed")
	}

	if err := b.index.Delete(id); err != nil {
		return false, fmt.Errorf("delete document %s: %w", id, err)
	}
	deleted, err := b.meta.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Clear removes all entries.
func (b *BleveLexicalIndex) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("lexical index is closed")
	}

	ids, err := b.allIDs()
	if err != nil {
		return err
	}
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("clear lexical index: %w", err)
	}
	return b.meta.Clear(ctx)
}

// Status returns the document count and estimated on-disk index size.
func (b *BleveLexicalIndex) Status(ctx context.Context) (*LexicalStatus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("lexical index is closed")
	}

	count, err := b.meta.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &LexicalStatus{
		TotalDocuments: count,
		IndexSizeBytes: b.sizeBytes(),
	}, nil
}

// Close releases index resources. Subsequent operations fail.
func (b *BleveLexicalIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	err := b.index.Close()
	if metaErr := b.meta.Close(); err == nil {
		err = metaErr
	}
	return err
}

// allIDs returns every document ID in the Bleve index.
func (b *BleveLexicalIndex) allIDs() ([]string, error) {
	count, _ := b.index.DocCount()
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)

	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("enumerate document ids: %w", err)
	}
	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// sizeBytes walks the on-disk index directory. In-memory indexes report 0.
func (b *BleveLexicalIndex) sizeBytes() int64 {
	var total int64
	if b.path != "" {
		_ = filepath.Walk(b.path, func(_ string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				total += info.Size()
			}
			return nil
		})
	}
	total += b.meta.SizeBytes()
	return total
}

// boundScore maps an unbounded BM25 score into [0,1) with decreasing
// returns: better raw scores land closer to 1.
func boundScore(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return raw / (1 + raw)
}

// wordTokenizerConstructor builds the word-boundary tokenizer for Bleve.
func wordTokenizerConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.Tokenizer, error) {
	return &wordBoundaryTokenizer{}, nil
}

// wordBoundaryTokenizer adapts Tokenize to Bleve's analysis interface.
type wordBoundaryTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *wordBoundaryTokenizer) Tokenize(input []byte) analysis.TokenStream {
	tokens := Tokenize(string(input))

	stream := make(analysis.TokenStream, 0, len(tokens))
	for i, tok := range tokens {
		stream = append(stream, &analysis.Token{
			Term:     []byte(tok),
			Position: i + 1,
			Start:    0,
			End:      len(tok),
			Type:     analysis.AlphaNumeric,
		})
	}
	return stream
}
