package storage

import "math"

// CosineSimilarity returns the cosine similarity of a and b, or 0 when
// either vector is empty, zero, or the dimensions differ. Backends without
// native vector support (SQLite) rank candidates with this in Go.
func CosineSimilarity(a, b []float64) float64 {
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
