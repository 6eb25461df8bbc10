package vector

import (
	"errors"
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "scaled vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{2, 4, 6},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.5,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0},
			b:        []float32{-1, 0},
			expected: 0.0,
		},
		{
			name:     "zero vector",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "both zero",
			a:        []float32{0, 0},
			b:        []float32{0, 0},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Similarity(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Similarity(%v, %v) unexpected error: %v", tt.a, tt.b, err)
			}
			if math.IsNaN(result) {
				t.Fatalf("Similarity(%v, %v) = NaN", tt.a, tt.b)
			}
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("Similarity(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestSimilarity_DimensionMismatch(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
	}{
		{"longer first", []float32{1, 2, 3}, []float32{1, 2}},
		{"longer second", []float32{1}, []float32{1, 2}},
		{"empty vs non-empty", []float32{}, []float32{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Similarity(tt.a, tt.b)
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("Similarity(%v, %v) error = %v, want ErrDimensionMismatch", tt.a, tt.b, err)
			}
			_, err = Cosine(tt.a, tt.b)
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("Cosine(%v, %v) error = %v, want ErrDimensionMismatch", tt.a, tt.b, err)
			}
		})
	}
}

func TestSimilarity_SelfIsMaximalAndSymmetric(t *testing.T) {
	vectors := [][]float32{
		{0.12, -0.5, 0.33, 0.9},
		{1e-3, 2e-3, -7e-4, 5e-3},
		{-4, 8, 15, -16},
		{0.7071, 0.7071, 0, 0},
	}

	for i, a := range vectors {
		self, err := Similarity(a, a)
		if err != nil {
			t.Fatalf("Similarity(a, a) unexpected error: %v", err)
		}
		if math.Abs(self-1) > 1e-9 {
			t.Errorf("Similarity(v%d, v%d) = %v, want 1", i, i, self)
		}
		for j, b := range vectors {
			ab, _ := Similarity(a, b)
			ba, _ := Similarity(b, a)
			if ab != ba {
				t.Errorf("Similarity(v%d, v%d) = %v but Similarity(v%d, v%d) = %v", i, j, ab, j, i, ba)
			}
			if ab > self+1e-9 {
				t.Errorf("Similarity(v%d, v%d) = %v exceeds self-similarity %v", i, j, ab, self)
			}
		}
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{"identical", []float32{1, 1}, []float32{1, 1}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"mismatch", []float32{1, 0}, []float32{1}, 2},
		{"zero", []float32{0, 0}, []float32{1, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineDistance(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("CosineDistance(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestSimilarityFromDistance(t *testing.T) {
	a := []float32{0.3, -0.2, 0.9}
	b := []float32{0.1, 0.4, 0.5}

	sim, err := Similarity(a, b)
	if err != nil {
		t.Fatalf("Similarity unexpected error: %v", err)
	}
	got := SimilarityFromDistance(CosineDistance(a, b))
	if math.Abs(got-sim) > 1e-9 {
		t.Errorf("SimilarityFromDistance(CosineDistance) = %v, want %v", got, sim)
	}
}
