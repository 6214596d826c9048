package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// CosineSimilarity returns dot(a, b) / (|a| |b|).
// Mismatched lengths, empty vectors and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank orders candidates by descending similarity to query, drops those
// scoring below minThreshold and keeps at most topK.
//
// Candidates that carry their stored embedding are re-scored against the
// query; the rest keep the score reported by the vector store. Ties keep
// their input order. A topK of zero or less returns nothing.
func Rank(query []float32, candidates []driven.VectorHit, topK int, minThreshold float64) []driven.VectorHit {
	if topK <= 0 || len(candidates) == 0 {
		return []driven.VectorHit{}
	}

	scored := make([]driven.VectorHit, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		if len(scored[i].Embedding) > 0 && len(query) > 0 {
			scored[i].Score = CosineSimilarity(query, scored[i].Embedding)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	ranked := make([]driven.VectorHit, 0, min(topK, len(scored)))
	for _, hit := range scored {
		if hit.Score < minThreshold {
			// Sorted descending, nothing further can pass.
			break
		}
		ranked = append(ranked, hit)
		if len(ranked) == topK {
			break
		}
	}
	return ranked
}
