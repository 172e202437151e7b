// Package store provides the document model, the lexical (BM25) index backed
// by Bleve, and the SQLite metadata store that holds document content and
// display fields. This is the persistence layer for all indexed data.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is the unit of indexing.
type Document struct {
	// ID is the stable identifier. When empty it is derived from Path.
	ID string
	// Path is a logical location string, used for display and dedup fallback.
	Path string
	// Content is the full text body.
	Content string
	// Source labels where the document came from (free-form, e.g. "notes").
	Source string
	// StartLine and EndLine locate the document inside a larger file.
	// Zero means unknown.
	StartLine int
	EndLine   int
	// Metadata holds free-form key/value fields.
	Metadata map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeriveID returns the document's ID, computing a content-addressed hash of
// the path when the caller did not supply one.
func (d *Document) DeriveID() string {
	if d.ID != "" {
		return d.ID
	}
	sum := sha256.Sum256([]byte(d.Path))
	return hex.EncodeToString(sum[:])
}

// LexicalResult is a single keyword-search candidate. Score is the bounded
// relevance score in [0,1).
type LexicalResult struct {
	ID        string
	Path      string
	Snippet   string
	Score     float64
	StartLine int
	EndLine   int
}

// LexicalStatus reports lexical index state.
type LexicalStatus struct {
	TotalDocuments int
	IndexSizeBytes int64
}

// SearchOptions configures a lexical search.
type SearchOptions struct {
	// MaxResults caps the result list (default: 10).
	MaxResults int
	// MinScore drops candidates below this bounded score (default: 0).
	MinScore float64
	// HighlightPre and HighlightPost wrap matched tokens in snippets when
	// both are non-empty.
	HighlightPre  string
	HighlightPost string
}

// LexicalIndex maintains an inverted, queryable text index with relevance
// ranking. Implementations must give replace semantics per document ID.
type LexicalIndex interface {
	Index(ctx context.Context, doc *Document) error
	IndexBatch(ctx context.Context, docs []*Document) (int, error)
	Search(ctx context.Context, query string, opts SearchOptions) ([]*LexicalResult, error)
	Delete(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
	Status(ctx context.Context) (*LexicalStatus, error)
	Close() error
}

// VectorResult is a single semantic-search candidate from the vector
// collaborator. Score is a similarity in [0,1].
type VectorResult struct {
	ID        string
	Path      string
	Content   string
	Score     float64
	StartLine int
	EndLine   int
}

// VectorStatus reports vector collaborator state.
type VectorStatus struct {
	TotalEntries int
}

// VectorStore is the contract consumed from the optional vector-store
// collaborator. The engine treats every failure here as non-fatal.
type VectorStore interface {
	Search(ctx context.Context, query string, maxResults int) ([]*VectorResult, error)
	Index(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Status(ctx context.Context) (*VectorStatus, error)
	Close() error
}
