// Package search implements nearest-neighbor retrieval over issue
// embeddings, with a pgvector path for PostgreSQL and an in-process path
// for SQLite.
package search

import "math"

// DistanceTolerance is the float tolerance within which two cosine
// distances count as tied; ties are broken by recency.
const DistanceTolerance = 1e-6

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical), or 0 if either
// vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// CosineDistance computes 1 - cosine similarity, matching pgvector's <=>
// operator.
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}
