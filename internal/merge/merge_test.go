package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScores(t *testing.T) {
	t.Run("min-max rescales into unit range", func(t *testing.T) {
		// Given candidates with spread scores
		in := []*Candidate{
			{ID: "a", Score: 2.0},
			{ID: "b", Score: 6.0},
			{ID: "c", Score: 4.0},
		}

		// When normalizing
		out := NormalizeScores(in)

		// Then min maps to 0, max to 1, midpoints proportionally
		assert.Equal(t, 0.0, out[0].Score)
		assert.Equal(t, 1.0, out[1].Score)
		assert.Equal(t, 0.5, out[2].Score)

		// And the input is untouched
		assert.Equal(t, 2.0, in[0].Score)
	})

	t.Run("single candidate normalizes to one", func(t *testing.T) {
		out := NormalizeScores([]*Candidate{{ID: "a", Score: 0.3}})
		require.Len(t, out, 1)
		assert.Equal(t, 1.0, out[0].Score)
	})

	t.Run("all-equal scores normalize to one", func(t *testing.T) {
		out := NormalizeScores([]*Candidate{
			{ID: "a", Score: 0.5},
			{ID: "b", Score: 0.5},
		})
		assert.Equal(t, 1.0, out[0].Score)
		assert.Equal(t, 1.0, out[1].Score)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NormalizeScores(nil))
	})
}

func TestMerge(t *testing.T) {
	t.Run("disjoint lists keep per-source attribution", func(t *testing.T) {
		// Given one vector-only and one keyword-only candidate
		vector := []*Candidate{{ID: "v", Path: "v.txt", Score: 0.9}}
		keyword := []*Candidate{{ID: "k", Path: "k.txt", Score: 0.8}}

		// When merging with baseline weights
		merged := Merge(vector, keyword, 0.7, 0.3)

		// Then each entry carries its source and a nil score for the other path
		require.Len(t, merged, 2)
		byID := map[string]*Merged{merged[0].ID: merged[0], merged[1].ID: merged[1]}

		v := byID["v"]
		assert.Equal(t, SourceVector, v.Source)
		require.NotNil(t, v.VectorScore)
		assert.Nil(t, v.KeywordScore)
		assert.InDelta(t, 0.7, v.Score, 1e-9)

		k := byID["k"]
		assert.Equal(t, SourceKeyword, k.Source)
		assert.Nil(t, k.VectorScore)
		require.NotNil(t, k.KeywordScore)
		assert.InDelta(t, 0.3, k.Score, 1e-9)
	})

	t.Run("shared id deduplicates into hybrid", func(t *testing.T) {
		// Given the same document found by both paths
		vector := []*Candidate{
			{ID: "shared", Path: "s.txt", Snippet: "vector snippet", Score: 1.0},
			{ID: "v2", Path: "v2.txt", Score: 0.2},
		}
		keyword := []*Candidate{
			{ID: "shared", Path: "s.txt", Snippet: "keyword snippet", Score: 5.0},
			{ID: "k2", Path: "k2.txt", Score: 1.0},
		}

		// When merging
		merged := Merge(vector, keyword, 0.5, 0.5)

		// Then the shared entry appears once, marked hybrid, with both scores
		require.Len(t, merged, 3)
		shared := merged[0]
		assert.Equal(t, "shared", shared.ID)
		assert.Equal(t, SourceHybrid, shared.Source)
		require.NotNil(t, shared.VectorScore)
		require.NotNil(t, shared.KeywordScore)
		assert.Equal(t, 1.0, *shared.VectorScore)
		assert.Equal(t, 1.0, *shared.KeywordScore)
		assert.InDelta(t, 1.0, shared.Score, 1e-9)
	})

	t.Run("deterministic ordering with id tiebreak", func(t *testing.T) {
		keyword := []*Candidate{
			{ID: "bbb", Score: 1.0},
			{ID: "aaa", Score: 1.0},
		}

		merged := Merge(nil, keyword, 0.7, 0.3)

		require.Len(t, merged, 2)
		assert.Equal(t, "aaa", merged[0].ID)
		assert.Equal(t, "bbb", merged[1].ID)
	})

	t.Run("both empty yields empty", func(t *testing.T) {
		assert.Empty(t, Merge(nil, nil, 0.7, 0.3))
	})
}

func TestRerank(t *testing.T) {
	t.Run("zero boost preserves score order", func(t *testing.T) {
		results := []*Merged{
			{ID: "b", Score: 0.5, Source: SourceKeyword},
			{ID: "a", Score: 0.9, Source: SourceKeyword},
			{ID: "c", Score: 0.7, Source: SourceKeyword},
		}

		out := Rerank(results, 0)

		assert.Equal(t, []string{"a", "c", "b"}, ids(out))
	})

	t.Run("boost promotes source diversity", func(t *testing.T) {
		// Given a keyword-dominated head with a close vector runner-up
		results := []*Merged{
			{ID: "k1", Score: 0.90, Source: SourceKeyword},
			{ID: "k2", Score: 0.89, Source: SourceKeyword},
			{ID: "v1", Score: 0.88, Source: SourceVector},
			{ID: "k3", Score: 0.87, Source: SourceKeyword},
		}

		// When re-ranking with a boost larger than the score gaps
		out := Rerank(results, 0.05)

		// Then the vector result is promoted past the second keyword result
		assert.Equal(t, []string{"k1", "v1", "k2", "k3"}, ids(out))
	})

	t.Run("keeps all input entries", func(t *testing.T) {
		results := []*Merged{
			{ID: "a", Score: 0.9, Source: SourceHybrid},
			{ID: "b", Score: 0.8, Source: SourceVector},
			{ID: "c", Score: 0.7, Source: SourceKeyword},
		}
		out := Rerank(results, 0.2)
		assert.Len(t, out, 3)
	})

	t.Run("short input passthrough", func(t *testing.T) {
		single := []*Merged{{ID: "a", Score: 1}}
		assert.Equal(t, single, Rerank(single, 0.05))
		assert.Empty(t, Rerank(nil, 0.05))
	})
}

func ids(results []*Merged) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
