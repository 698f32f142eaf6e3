// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity provides cosine similarity over embedding vectors for
// the deduplication step. Per prd008-article R5.2.
package similarity

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1]. Vectors of
// different lengths, empty vectors, and zero vectors yield 0, which treats
// unusable input as "no signal" rather than an error.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Max returns the highest cosine similarity between v and any vector in
// corpus, together with the index of that vector. An empty corpus returns
// (0, -1).
func Max(v []float64, corpus [][]float64) (float64, int) {
	best := 0.0
	bestIdx := -1
	for i, c := range corpus {
		if s := Cosine(v, c); bestIdx == -1 || s > best {
			best = s
			bestIdx = i
		}
	}
	return best, bestIdx
}
