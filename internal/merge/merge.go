// Package merge combines candidate lists from the vector and lexical search
// paths into a single ranked result set. Scores are normalized per list,
// combined with a weighted sum, and optionally re-ranked for source
// diversity.
package merge

import "sort"

// Source identifies which search path produced a result.
type Source string

const (
	SourceVector  Source = "vector"
	SourceKeyword Source = "keyword"
	SourceHybrid  Source = "hybrid"
)

// Candidate is one scored result from a single search path.
type Candidate struct {
	ID        string
	Path      string
	Snippet   string
	Score     float64
	StartLine int
	EndLine   int
}

// Merged is a fused result. VectorScore and KeywordScore are the normalized
// per-path scores; a nil pointer means that path did not return the entry.
type Merged struct {
	ID           string
	Path         string
	Snippet      string
	Score        float64
	Source       Source
	VectorScore  *float64
	KeywordScore *float64
	StartLine    int
	EndLine      int
}

// NormalizeScores rescales scores into [0,1] with min-max normalization,
// returning new candidates. A single candidate, or a list where every score
// is equal, normalizes to 1.0.
func NormalizeScores(candidates []*Candidate) []*Candidate {
	if len(candidates) == 0 {
		return []*Candidate{}
	}

	minScore, maxScore := candidates[0].Score, candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score < minScore {
			minScore = c.Score
		}
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}

	out := make([]*Candidate, len(candidates))
	span := maxScore - minScore
	for i, c := range candidates {
		norm := *c
		if span == 0 {
			norm.Score = 1.0
		} else {
			norm.Score = (c.Score - minScore) / span
		}
		out[i] = &norm
	}
	return out
}

// Merge fuses the two candidate lists with a weighted sum of normalized
// scores. Entries present in both lists are deduplicated by ID and their
// source is marked hybrid; display fields are taken from whichever path
// scored the entry higher. The result is sorted by score descending, with
// ID as a deterministic tiebreaker.
func Merge(vector, keyword []*Candidate, vectorWeight, keywordWeight float64) []*Merged {
	vector = NormalizeScores(vector)
	keyword = NormalizeScores(keyword)

	byID := make(map[string]*Merged, len(vector)+len(keyword))
	order := make([]string, 0, len(vector)+len(keyword))

	for _, c := range vector {
		score := c.Score
		byID[c.ID] = &Merged{
			ID:          c.ID,
			Path:        c.Path,
			Snippet:     c.Snippet,
			Score:       score * vectorWeight,
			Source:      SourceVector,
			VectorScore: &score,
			StartLine:   c.StartLine,
			EndLine:     c.EndLine,
		}
		order = append(order, c.ID)
	}

	for _, c := range keyword {
		score := c.Score
		existing, ok := byID[c.ID]
		if !ok {
			byID[c.ID] = &Merged{
				ID:           c.ID,
				Path:         c.Path,
				Snippet:      c.Snippet,
				Score:        score * keywordWeight,
				Source:       SourceKeyword,
				KeywordScore: &score,
				StartLine:    c.StartLine,
				EndLine:      c.EndLine,
			}
			order = append(order, c.ID)
			continue
		}

		existing.Score += score * keywordWeight
		existing.Source = SourceHybrid
		existing.KeywordScore = &score
		if existing.VectorScore == nil || score > *existing.VectorScore {
			existing.Path = c.Path
			existing.Snippet = c.Snippet
			existing.StartLine = c.StartLine
			existing.EndLine = c.EndLine
		}
	}

	merged := make([]*Merged, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	sortMerged(merged)
	return merged
}

// Rerank reorders results to promote source diversity: each pick is the
// remaining result with the highest score after subtracting boost once per
// already-selected result from the same source. A boost of 0 leaves the
// score ordering unchanged.
func Rerank(results []*Merged, boost float64) []*Merged {
	if len(results) <= 1 {
		return results
	}

	remaining := make([]*Merged, len(results))
	copy(remaining, results)
	sortMerged(remaining)

	if boost == 0 {
		return remaining
	}

	selected := make([]*Merged, 0, len(remaining))
	counts := make(map[Source]int, 3)

	for len(remaining) > 0 {
		best := 0
		bestScore := remaining[0].Score - boost*float64(counts[remaining[0].Source])
		for i := 1; i < len(remaining); i++ {
			s := remaining[i].Score - boost*float64(counts[remaining[i].Source])
			if s > bestScore || (s == bestScore && remaining[i].ID < remaining[best].ID) {
				best = i
				bestScore = s
			}
		}
		pick := remaining[best]
		selected = append(selected, pick)
		counts[pick.Source]++
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return selected
}

func sortMerged(results []*Merged) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}
