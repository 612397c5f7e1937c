// Package mathutil provides the vector math used by the index implementations.
package mathutil

import "math"

// DotProduct computes the dot product of two vectors.
func DotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm computes the L2 norm of a vector.
func Norm(v []float32) float32 {
	return float32(math.Sqrt(float64(DotProduct(v, v))))
}

// CosineSimilarity returns 1 for identical directions, 0 for perpendicular,
// -1 for opposite. Zero vectors compare as 0.
func CosineSimilarity(a, b []float32) float32 {
	normA := Norm(a)
	normB := Norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return DotProduct(a, b) / (normA * normB)
}

// CosineDistance converts cosine similarity to a distance metric:
// 0 for identical vectors, 2 for opposite vectors.
func CosineDistance(a, b []float32) float32 {
	return 1 - CosineSimilarity(a, b)
}
