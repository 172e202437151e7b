package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLexicalIndex(t *testing.T) *BleveLexicalIndex {
	t.Helper()
	idx, err := NewBleveLexicalIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveLexicalIndex_IndexAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	// Given an indexed document
	doc := &Document{
		Path:    "fables/fox.txt",
		Content: "the quick brown fox jumps over the lazy dog",
	}
	require.NoError(t, idx.Index(ctx, doc))

	// When searching with highlight markers
	results, err := idx.Search(ctx, "quick fox", SearchOptions{
		HighlightPre:  "<<",
		HighlightPost: ">>",
	})
	require.NoError(t, err)

	// Then the document is found with a bounded score and highlighted snippet
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, doc.DeriveID(), r.ID)
	assert.Equal(t, "fables/fox.txt", r.Path)
	assert.Greater(t, r.Score, 0.0)
	assert.Less(t, r.Score, 1.0)
	assert.Contains(t, r.Snippet, "<<quick>>")
	assert.Contains(t, r.Snippet, "<<fox>>")
}

func TestBleveLexicalIndex_ReplaceSemantics(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	// Given a document indexed twice under the same path
	require.NoError(t, idx.Index(ctx, &Document{Path: "a.txt", Content: "original wording here"}))
	require.NoError(t, idx.Index(ctx, &Document{Path: "a.txt", Content: "replacement wording here"}))

	// Then the index holds a single document
	status, err := idx.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalDocuments)

	// And only the new content is searchable
	results, err := idx.Search(ctx, "replacement", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = idx.Search(ctx, "original", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveLexicalIndex_DeleteVisibility(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	doc := &Document{Path: "gone.txt", Content: "ephemeral content"}
	require.NoError(t, idx.Index(ctx, doc))

	// When deleting the document
	deleted, err := idx.Delete(ctx, doc.DeriveID())
	require.NoError(t, err)
	assert.True(t, deleted)

	// Then it no longer appears in results
	results, err := idx.Search(ctx, "ephemeral", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)

	// And deleting again reports nothing removed
	deleted, err = idx.Delete(ctx, doc.DeriveID())
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestBleveLexicalIndex_MinScoreAboveBoundYieldsNothing(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(ctx, &Document{Path: "a.txt", Content: "alpha content"}))

	// Bounded scores stay below 1, so a floor above 1 filters everything.
	results, err := idx.Search(ctx, "alpha", SearchOptions{MinScore: 1.1})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveLexicalIndex_TermIsolation(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(ctx, &Document{Path: "a.txt", Content: "alpha only here"}))
	require.NoError(t, idx.Index(ctx, &Document{Path: "b.txt", Content: "beta only here"}))

	// A query for one term must not surface the other document.
	results, err := idx.Search(ctx, "alpha", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.txt", results[0].Path)
}

func TestBleveLexicalIndex_EmptyQuery(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	require.NoError(t, idx.Index(ctx, &Document{Path: "a.txt", Content: "something"}))

	// Queries that tokenize to nothing return empty results, not an error.
	for _, q := range []string{"", "   ", "!!!", "a"} {
		results, err := idx.Search(ctx, q, SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, results, "query %q", q)
	}
}

func TestBleveLexicalIndex_OrderingAndTruncation(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	// Given documents with varying term frequency for "signal"
	for i := 0; i < 5; i++ {
		content := "signal"
		for j := 0; j < i; j++ {
			content += " signal"
		}
		require.NoError(t, idx.Index(ctx, &Document{
			Path:    fmt.Sprintf("doc-%d.txt", i),
			Content: content + " padding words to vary document length",
		}))
	}

	// When searching with a small result cap
	results, err := idx.Search(ctx, "signal", SearchOptions{MaxResults: 3})
	require.NoError(t, err)

	// Then results are capped and ordered by descending score
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestBleveLexicalIndex_IndexBatchSkipsInvalid(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	docs := []*Document{
		{Path: "ok-1.txt", Content: "first valid document"},
		{Path: "bad.txt", Content: ""},
		{Path: "ok-2.txt", Content: "second valid document"},
	}

	// When indexing a batch containing an invalid document
	indexed, err := idx.IndexBatch(ctx, docs)
	require.NoError(t, err)

	// Then the valid documents are indexed and the bad one is skipped
	assert.Equal(t, 2, indexed)

	status, err := idx.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalDocuments)
}

func TestBleveLexicalIndex_BulkIndexAndClear(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)

	// Given 500 unique documents
	docs := make([]*Document, 500)
	for i := range docs {
		docs[i] = &Document{
			Path:    fmt.Sprintf("bulk/doc-%03d.txt", i),
			Content: fmt.Sprintf("bulk document number %d with shared corpus terms", i),
		}
	}

	indexed, err := idx.IndexBatch(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 500, indexed)

	status, err := idx.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500, status.TotalDocuments)

	// When clearing the index
	require.NoError(t, idx.Clear(ctx))

	// Then it is empty and searches find nothing
	status, err = idx.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.TotalDocuments)

	results, err := idx.Search(ctx, "bulk", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveLexicalIndex_ClosedOperationsFail(t *testing.T) {
	ctx := context.Background()
	idx := newTestLexicalIndex(t)
	require.NoError(t, idx.Close())

	assert.Error(t, idx.Index(ctx, &Document{Path: "a.txt", Content: "c"}))
	_, err := idx.Search(ctx, "query", SearchOptions{})
	assert.Error(t, err)
	_, err = idx.Status(ctx)
	assert.Error(t, err)

	// Close is idempotent.
	assert.NoError(t, idx.Close())
}

func TestDocument_DeriveID(t *testing.T) {
	// Explicit IDs win; otherwise the ID is derived from the path and stable.
	withID := &Document{ID: "explicit", Path: "p"}
	assert.Equal(t, "explicit", withID.DeriveID())

	a := &Document{Path: "same/path.txt"}
	b := &Document{Path: "same/path.txt"}
	c := &Document{Path: "other/path.txt"}
	assert.Equal(t, a.DeriveID(), b.DeriveID())
	assert.NotEqual(t, a.DeriveID(), c.DeriveID())
	assert.Len(t, a.DeriveID(), 64)
}
