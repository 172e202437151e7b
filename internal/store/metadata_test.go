package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetadataStore(t *testing.T) *MetadataStore {
	t.Helper()
	s, err := NewMetadataStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMetadataStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	// Given a document with metadata
	doc := &Document{
		ID:        "doc-1",
		Path:      "notes/alpha.md",
		Content:   "alpha content",
		Source:    "notes",
		StartLine: 3,
		EndLine:   9,
		Metadata:  map[string]string{"lang": "en"},
	}

	// When saving and reading it back
	require.NoError(t, s.Save(ctx, doc))
	got, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)

	// Then all fields round-trip
	require.NotNil(t, got)
	assert.Equal(t, doc.Path, got.Path)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, doc.Source, got.Source)
	assert.Equal(t, doc.StartLine, got.StartLine)
	assert.Equal(t, doc.EndLine, got.EndLine)
	assert.Equal(t, doc.Metadata, got.Metadata)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMetadataStore_UpsertPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	// Given an existing document
	require.NoError(t, s.Save(ctx, &Document{ID: "doc-1", Path: "a", Content: "v1"}))
	first, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)

	// When saving a new version under the same ID
	require.NoError(t, s.Save(ctx, &Document{ID: "doc-1", Path: "a", Content: "v2"}))
	second, err := s.Get(ctx, "doc-1")
	require.NoError(t, err)

	// Then content is replaced and the creation time is preserved
	assert.Equal(t, "v2", second.Content)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetadataStore_GetMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	doc, err := s.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMetadataStore_GetBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	require.NoError(t, s.Save(ctx, &Document{ID: "a", Path: "pa", Content: "ca"}))
	require.NoError(t, s.Save(ctx, &Document{ID: "b", Path: "pb", Content: "cb"}))

	// When fetching a mix of present and absent IDs
	docs, err := s.GetBatch(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)

	// Then only present IDs appear
	assert.Len(t, docs, 2)
	assert.Equal(t, "ca", docs["a"].Content)
	assert.Equal(t, "cb", docs["b"].Content)
	assert.NotContains(t, docs, "missing")
}

func TestMetadataStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	require.NoError(t, s.Save(ctx, &Document{ID: "a", Path: "p", Content: "c"}))

	deleted, err := s.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMetadataStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	require.NoError(t, s.Save(ctx, &Document{ID: "a", Path: "p", Content: "c"}))
	require.NoError(t, s.Clear(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMetadataStore_ClosedOperationsFail(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)
	require.NoError(t, s.Close())

	assert.Error(t, s.Save(ctx, &Document{ID: "a", Path: "p", Content: "c"}))
	_, err := s.Get(ctx, "a")
	assert.Error(t, err)
}
