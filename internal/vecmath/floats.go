package vecmath

import "math"

var (
	dotImpl       = dotGeneric
	squaredL2Impl = squaredL2Generic
	axpyImpl      = axpyGeneric
)

// Dot calculates the dot product of two vectors.
//
// SAFETY: assumes len(a) == len(b).
func Dot(a, b []float32) float32 {
	return dotImpl(a, b)
}

// SquaredL2 calculates the squared L2 distance.
//
// SAFETY: assumes len(a) == len(b).
func SquaredL2(a, b []float32) float32 {
	return squaredL2Impl(a, b)
}

// Axpy computes dst += alpha * x.
//
// SAFETY: assumes len(dst) == len(x).
func Axpy(dst []float32, alpha float32, x []float32) {
	axpyImpl(dst, alpha, x)
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}

// Sqrt is a float32 square root.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func dotGeneric(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

func dotUnrolled(a, b []float32) float32 {
	var s0, s1, s2, s3 float32
	n := len(a)
	b = b[:n]
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

func squaredL2Generic(a, b []float32) float32 {
	var d float32
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

func squaredL2Unrolled(a, b []float32) float32 {
	var s0, s1, s2, s3 float32
	n := len(a)
	b = b[:n]
	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		s0 += d * d
	}
	return (s0 + s1) + (s2 + s3)
}

func axpyGeneric(dst []float32, alpha float32, x []float32) {
	for i := range dst {
		dst[i] += alpha * x[i]
	}
}

func axpyUnrolled(dst []float32, alpha float32, x []float32) {
	n := len(dst)
	x = x[:n]
	i := 0
	for ; i+4 <= n; i += 4 {
		dst[i] += alpha * x[i]
		dst[i+1] += alpha * x[i+1]
		dst[i+2] += alpha * x[i+2]
		dst[i+3] += alpha * x[i+3]
	}
	for ; i < n; i++ {
		dst[i] += alpha * x[i]
	}
}
