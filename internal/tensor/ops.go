package tensor

import (
	"math"
	"strconv"
	"strings"
)

// AddScaled adds a*src to dst element-wise.
func AddScaled(dst, src []float32, a float32) {
	for i := range dst {
		dst[i] += a * src[i]
	}
}

// Scale multiplies every element of x by a.
func Scale(x []float32, a float32) {
	for i := range x {
		x[i] *= a
	}
}

// Zero clears x.
func Zero(x []float32) {
	for i := range x {
		x[i] = 0
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm returns the L2 norm of x.
func Norm(x []float32) float32 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}

// Normalize scales x to unit length. Zero vectors are left untouched.
func Normalize(x []float32) {
	n := Norm(x)
	if n > 0 {
		Scale(x, 1/n)
	}
}

// Softmax applies the softmax function to x.
func Softmax(x []float32) {
	if len(x) == 0 {
		return
	}
	maxv := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > maxv {
			maxv = x[i]
		}
	}
	var sum float64
	for i := range x {
		v := math.Exp(float64(x[i] - maxv))
		x[i] = float32(v)
		sum += v
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / sum)
	for i := range x {
		x[i] *= inv
	}
}

// FormatVec renders x as space separated values with five significant digits.
func FormatVec(x []float32) string {
	var sb strings.Builder
	buf := make([]byte, 0, 16)
	for i, v := range x {
		if i > 0 {
			sb.WriteByte(' ')
		}
		buf = strconv.AppendFloat(buf[:0], float64(v), 'g', 5, 32)
		sb.Write(buf)
	}
	return sb.String()
}
