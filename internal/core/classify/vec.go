package classify

import "math"

// Norm returns v scaled to unit length. A zero vector is returned as a zero copy
func Norm(v []float64) []float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	n := math.Sqrt(s)
	if n == 0 {
		n = 1
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

// Dot is the inner product over the shorter of a and b; callers check lengths
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	s := 0.0
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}

// AddScaled returns norm(a + beta*b)
func AddScaled(a, b []float64, beta float64) []float64 {
	mix := make([]float64, len(a))
	for i := range a {
		mix[i] = a[i] + beta*b[i]
	}
	return Norm(mix)
}

// Softmax maps xs to a distribution at temperature temp. The max is
// subtracted before exponentiating; temp is floored at 1e-6
func Softmax(xs []float64, temp float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	t := math.Max(1e-6, temp)
	mx := xs[0]
	for _, x := range xs[1:] {
		mx = math.Max(mx, x)
	}
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		out[i] = math.Exp((x - mx) / t)
		sum += out[i]
	}
	if sum == 0 {
		sum = 1
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the first index holding the maximum, or -1 for an empty slice
func Argmax(xs []float64) int {
	best := -1
	for i, x := range xs {
		if best < 0 || x > xs[best] {
			best = i
		}
	}
	return best
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 { return math.Min(hi, math.Max(lo, v)) }
