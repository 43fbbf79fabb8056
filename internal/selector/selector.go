// Package selector chooses which retrieved passages feed each generation
// phase, balancing embedding relevance against source diversity with a
// greedy sequential re-ranking.
package selector

import (
	"errors"
	"fmt"
	"math"

	"github.com/tahrir-ai/tahrir/internal/article"
	"github.com/tahrir-ai/tahrir/internal/passage"
)

var (
	ErrInvalidArgument = errors.New("invalid selection argument")
)

// Config holds the selection weights. Weights are threaded explicitly so
// runs can override them without shared mutable state.
type Config struct {
	// RelevanceWeight scales the similarity term of the combined score
	RelevanceWeight float64

	// DiversityWeight scales the source-diversity term
	DiversityWeight float64

	// SectionBonus is added to relevance when the query section title
	// overlaps the passage's section label
	SectionBonus float64

	// PerSourceCap limits passages per source while uncapped candidates
	// remain (0 disables the cap)
	PerSourceCap int
}

// DefaultConfig returns the documented default weights.
func DefaultConfig() Config {
	return Config{
		RelevanceWeight: 0.7,
		DiversityWeight: 0.3,
		SectionBonus:    0.15,
		PerSourceCap:    4,
	}
}

// Select returns up to k passages from the pool, ordered by selection.
//
// Relevance per passage is the maximum cosine similarity between the
// passage embedding and each query vector (keyword first, then its
// variations), plus a bonus when the query section title overlaps the
// passage's section label. Diversity decreases as passages from the same
// source accumulate in the result, so it is recomputed after every pick
// rather than applied as a single static sort. Equal combined scores break
// toward the lexicographically smaller passage id.
func Select(q passage.Query, pool []passage.Passage, queryVecs [][]float32, k int, cfg Config) ([]passage.Passage, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidArgument, k)
	}
	if len(pool) == 0 {
		return []passage.Passage{}, nil
	}

	type candidate struct {
		p         passage.Passage
		relevance float64
	}

	sectionTokens := article.FoldTokens(q.SectionTitle)

	remaining := make([]candidate, 0, len(pool))
	for _, p := range pool {
		rel := 0.0
		for _, qv := range queryVecs {
			if sim := cosine(p.Embedding, qv); sim > rel {
				rel = sim
			}
		}
		if len(sectionTokens) > 0 && labelOverlaps(sectionTokens, p.SectionLabel) {
			rel += cfg.SectionBonus
		}
		remaining = append(remaining, candidate{p: p, relevance: rel})
	}

	selected := make([]passage.Passage, 0, min(k, len(pool)))
	perSource := make(map[string]int)

	for len(selected) < k && len(remaining) > 0 {
		// A capped source is skipped only while uncapped candidates remain,
		// so the min(k, |pool|) length guarantee always holds.
		anyUncapped := false
		if cfg.PerSourceCap > 0 {
			for _, c := range remaining {
				if perSource[c.p.SourceID] < cfg.PerSourceCap {
					anyUncapped = true
					break
				}
			}
		}

		best := -1
		bestScore := math.Inf(-1)
		for i, c := range remaining {
			if cfg.PerSourceCap > 0 && anyUncapped && perSource[c.p.SourceID] >= cfg.PerSourceCap {
				continue
			}
			diversity := 1.0 / float64(1+perSource[c.p.SourceID])
			score := cfg.RelevanceWeight*c.relevance + cfg.DiversityWeight*diversity
			if score > bestScore || (score == bestScore && best >= 0 && c.p.ID < remaining[best].p.ID) {
				best = i
				bestScore = score
			}
		}
		if best < 0 {
			break
		}

		selected = append(selected, remaining[best].p)
		perSource[remaining[best].p.SourceID]++
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return selected, nil
}

// labelOverlaps reports whether any query section token appears in the
// passage's folded section label.
func labelOverlaps(sectionTokens []string, label string) bool {
	labelTokens := article.FoldTokens(label)
	if len(labelTokens) == 0 {
		return false
	}
	for _, st := range sectionTokens {
		for _, lt := range labelTokens {
			if st == lt {
				return true
			}
		}
	}
	return false
}

// cosine computes cosine similarity over float32 vectors, 0 for mismatched
// or zero-length input.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
