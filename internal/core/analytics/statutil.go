// Package analytics holds the pure computation engines. Every function in
// this package is a deterministic function of its input snapshot: no
// repository access, no clock reads, no shared state. Callers pass the
// reference day ("today") explicitly wherever recency matters.
package analytics

import "math"

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the population variance.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

// pearson computes the Pearson correlation coefficient of two equal-length
// series. Zero-variance input yields 0, not NaN.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}

	mx, my := mean(xs), mean(ys)

	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}

	if vx == 0 || vy == 0 {
		return 0
	}

	r := cov / math.Sqrt(vx*vy)

	// Guard against float drift pushing the coefficient past ±1.
	return math.Max(-1, math.Min(1, r))
}

// normalizedEntropy computes Shannon entropy of a count distribution,
// normalized by log(len(counts)) so the result lies in [0,1].
func normalizedEntropy(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 || len(counts) < 2 {
		return 0
	}

	h := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}

	return h / math.Log(float64(len(counts)))
}

// olsSlope fits y = a + b*i over i = 0..n-1 and returns b.
func olsSlope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	mx, my := mean(xs), mean(ys)

	var num, den float64
	for i := 0; i < n; i++ {
		num += (xs[i] - mx) * (ys[i] - my)
		den += (xs[i] - mx) * (xs[i] - mx)
	}
	if den == 0 {
		return 0
	}
	return num / den
}
