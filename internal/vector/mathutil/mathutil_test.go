package mathutil

import (
	"math"
	"testing"
)

func TestDotProduct(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	if got := DotProduct(a, b); got != 32 {
		t.Errorf("DotProduct = %v, want 32", got)
	}
}

func TestNorm(t *testing.T) {
	v := []float32{3, 4}
	if got := Norm(v); got != 5 {
		t.Errorf("Norm = %v, want 5", got)
	}
}

func TestCosineDistance(t *testing.T) {
	a := []float32{1, 0}

	if d := CosineDistance(a, []float32{1, 0}); math.Abs(float64(d)) > 1e-6 {
		t.Errorf("distance to self = %v, want 0", d)
	}
	if d := CosineDistance(a, []float32{0, 1}); math.Abs(float64(d)-1) > 1e-6 {
		t.Errorf("distance to perpendicular = %v, want 1", d)
	}
	if d := CosineDistance(a, []float32{-1, 0}); math.Abs(float64(d)-2) > 1e-6 {
		t.Errorf("distance to opposite = %v, want 2", d)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	if s := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); s != 0 {
		t.Errorf("similarity with zero vector = %v, want 0", s)
	}
}
