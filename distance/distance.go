package distance

import (
	"slices"

	"github.com/hupe1980/recgo/internal/vecmath"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return vecmath.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return vecmath.SquaredL2(a, b)
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float32 {
	return vecmath.Sqrt(vecmath.Dot(v, v))
}

// Cosine returns the cosine similarity of a and b, or 0 if either is a zero vector.
func Cosine(a, b []float32) float32 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return vecmath.Dot(a, b) / (na * nb)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm, in which case v is left untouched.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := vecmath.Dot(v, v)
	if norm2 == 0 {
		return false
	}
	vecmath.ScaleInPlace(v, 1/vecmath.Sqrt(norm2))
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}

// Mean returns the element-wise arithmetic mean of vectors, which must all
// share the same length. It returns nil for an empty input.
func Mean(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		vecmath.Axpy(out, 1, v)
	}
	vecmath.ScaleInPlace(out, 1/float32(len(vectors)))
	return out
}

// AddScaled computes dst += alpha * x.
func AddScaled(dst []float32, alpha float32, x []float32) {
	vecmath.Axpy(dst, alpha, x)
}
