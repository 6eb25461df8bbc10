// Package vector provides similarity primitives for fixed-length face embeddings.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two embeddings of different length are compared.
var ErrDimensionMismatch = errors.New("vector: dimension mismatch")

// Cosine computes the cosine similarity between two vectors in [-1, 1].
// Zero vectors have no direction, so their cosine is 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	cos := dotProduct / math.Sqrt(normA*normB)
	// Clamp to [-1, 1] to handle floating point errors
	return min(max(cos, -1), 1), nil
}

// Similarity maps cosine similarity onto [0, 1] via (cos + 1) / 2.
// Higher is more similar. If either vector is a zero vector the similarity is 0.
// This is the scale all match thresholds are expressed in.
func Similarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	if isZero(a) || isZero(b) {
		return 0, nil
	}
	cos, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return (cos + 1) / 2, nil
}

// CosineDistance computes the cosine distance between two vectors.
// Returns a value between 0 (identical) and 2 (opposite).
// Invalid input (mismatched length, empty or zero vectors) yields the maximum distance.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || isZero(a) || isZero(b) {
		return 2.0
	}
	cos, err := Cosine(a, b)
	if err != nil {
		return 2.0
	}
	return 1 - cos
}

// SimilarityFromDistance converts a cosine distance back onto the [0, 1] similarity scale.
func SimilarityFromDistance(distance float64) float64 {
	return min(max(1-distance/2, 0), 1)
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
