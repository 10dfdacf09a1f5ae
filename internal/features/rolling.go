package features

import "math"

// Rolling windows cover the last n positions up to and including i. NaN observations are
// skipped; the result is NaN when fewer than minObs observations remain.

func rollingMean(xs []float64, n, minObs int) []float64 {
	return rolling(xs, n, minObs, func(win []float64, cnt int) float64 {
		return sum(win) / float64(cnt)
	})
}

func rollingSum(xs []float64, n, minObs int) []float64 {
	return rolling(xs, n, minObs, func(win []float64, _ int) float64 {
		return sum(win)
	})
}

// rollingStd is the sample standard deviation (n-1 in the denominator).
func rollingStd(xs []float64, n, minObs int) []float64 {
	return rolling(xs, n, minObs, func(win []float64, cnt int) float64 {
		if cnt < 2 {
			return math.NaN()
		}
		mean := sum(win) / float64(cnt)
		var ss float64
		for _, x := range win {
			if !math.IsNaN(x) {
				d := x - mean
				ss += d * d
			}
		}
		return math.Sqrt(ss / float64(cnt-1))
	})
}

func rolling(xs []float64, n, minObs int, agg func(win []float64, cnt int) float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		lo := max(0, i-n+1)
		win := xs[lo : i+1]
		cnt := 0
		for _, x := range win {
			if !math.IsNaN(x) {
				cnt++
			}
		}
		if cnt == 0 || cnt < minObs {
			out[i] = math.NaN()
			continue
		}
		out[i] = agg(win, cnt)
	}
	return out
}

func sum(win []float64) float64 {
	var s float64
	for _, x := range win {
		if !math.IsNaN(x) {
			s += x
		}
	}
	return s
}

// pctChange returns x[i]/x[i-1] - 1, NaN for the first position. A zero previous value
// yields ±Inf, which makes every rolling window containing it undefined.
func pctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}

// finite maps ±Inf to NaN.
func finite(x float64) float64 {
	if math.IsInf(x, 0) {
		return math.NaN()
	}
	return x
}
