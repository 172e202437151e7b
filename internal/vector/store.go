package vector

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/fathom-search/fathom/internal/store"
)

// Store is an HNSW-backed semantic index. Queries are embedded through the
// configured Embedder and matched by cosine similarity.
//
// The graph keys nodes by uint64; string document IDs map to keys through
// idMap/keyMap. Deletion is lazy: the node stays in the graph but loses its
// mapping, so it can never surface in results.
type Store struct {
	mu       sync.RWMutex
	embedder Embedder
	graph    *hnsw.Graph[uint64]

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64

	docs map[string]docEntry

	path   string
	closed bool
}

// docEntry holds the display fields returned alongside a match.
type docEntry struct {
	Path      string
	Content   string
	StartLine int
	EndLine   int
}

// storeMetadata is the gob-persisted portion of the store.
type storeMetadata struct {
	IDMap   map[string]uint64
	NextKey uint64
	Docs    map[string]docEntry
}

var _ store.VectorStore = (*Store)(nil)

// NewStore creates a semantic store over the given embedder. A non-empty
// path enables persistence: existing data is loaded immediately and Save
// writes it back.
func NewStore(embedder Embedder, path string) (*Store, error) {
	s := &Store{
		embedder: embedder,
		graph:    newGraph(),
		idMap:    make(map[string]uint64),
		keyMap:   make(map[uint64]string),
		docs:     make(map[string]docEntry),
		path:     path,
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := s.load(path); err != nil {
				return nil, fmt.Errorf("load vector store: %w", err)
			}
		}
	}
	return s, nil
}

func newGraph() *hnsw.Graph[uint64] {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25
	return graph
}

// Search embeds the query and returns up to maxResults nearest documents
// with similarity scores in [0,1].
func (s *Store) Search(ctx context.Context, query string, maxResults int) ([]*store.VectorResult, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if s.graph.Len() == 0 {
		return []*store.VectorResult{}, nil
	}

	// Over-fetch to compensate for lazily deleted nodes still in the graph.
	nodes := s.graph.Search(vec, maxResults+s.graph.Len()-len(s.idMap))

	results := make([]*store.VectorResult, 0, maxResults)
	for _, node := range nodes {
		id, ok := s.keyMap[node.Key]
		if !ok {
			continue
		}
		entry := s.docs[id]
		distance := s.graph.Distance(vec, node.Value)
		results = append(results, &store.VectorResult{
			ID:        id,
			Path:      entry.Path,
			Content:   entry.Content,
			Score:     float64(1.0 - distance/2.0),
			StartLine: entry.StartLine,
			EndLine:   entry.EndLine,
		})
		if len(results) == maxResults {
			break
		}
	}
	return results, nil
}

// Index embeds and stores a document, replacing any entry under the same ID.
func (s *Store) Index(ctx context.Context, doc *store.Document) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}
	id := doc.DeriveID()

	vec, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	// Lazy deletion: orphan the previous node rather than removing it,
	// which coder/hnsw does not handle well for the last node.
	if existingKey, exists := s.idMap[id]; exists {
		delete(s.keyMap, existingKey)
		delete(s.idMap, id)
	}

	key := s.nextKey
	s.nextKey++
	s.graph.Add(hnsw.MakeNode(key, vec))

	s.idMap[id] = key
	s.keyMap[key] = id
	s.docs[id] = docEntry{
		Path:      doc.Path,
		Content:   doc.Content,
		StartLine: doc.StartLine,
		EndLine:   doc.EndLine,
	}
	return nil
}

// Delete removes a document. Missing IDs are a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}
	if key, exists := s.idMap[id]; exists {
		delete(s.keyMap, key)
		delete(s.idMap, id)
		delete(s.docs, id)
	}
	return nil
}

// Clear drops all entries and starts a fresh graph.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}
	s.graph = newGraph()
	s.idMap = make(map[string]uint64)
	s.keyMap = make(map[uint64]string)
	s.docs = make(map[string]docEntry)
	s.nextKey = 0
	return nil
}

// Status reports the number of live entries.
func (s *Store) Status(_ context.Context) (*store.VectorStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	return &store.VectorStatus{TotalEntries: len(s.idMap)}, nil
}

// Save persists the graph and mappings to the configured path using a temp
// file and atomic rename.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := s.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return s.saveMetadata(s.path + ".meta")
}

func (s *Store) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}

	meta := storeMetadata{
		IDMap:   s.idMap,
		NextKey: s.nextKey,
		Docs:    s.docs,
	}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func (s *Store) load(path string) error {
	metaFile, err := os.Open(path + ".meta")
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer func() { _ = metaFile.Close() }()

	var meta storeMetadata
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}

	s.idMap = meta.IDMap
	s.nextKey = meta.NextKey
	s.docs = meta.Docs
	s.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range meta.IDMap {
		s.keyMap[key] = id
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// coder/hnsw Import requires an io.ByteReader.
	if err := s.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}

// Close releases the embedder. The store is unusable afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return s.embedder.Close()
}
