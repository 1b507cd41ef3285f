package assessment

import "math"

// mean returns the arithmetic mean, zero for empty input.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev returns the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// peerZScore computes the z-score of values[i] against the other values in
// the batch. Measuring against peers rather than the whole batch keeps a
// single extreme value from inflating its own reference deviation. When the
// peers have zero spread, any meaningful deviation is reported as +Inf.
func peerZScore(values []float64, i int) float64 {
	peers := make([]float64, 0, len(values)-1)
	for j, v := range values {
		if j != i {
			peers = append(peers, v)
		}
	}
	if len(peers) == 0 {
		return 0
	}
	m := mean(peers)
	sd := stddev(peers)
	diff := math.Abs(values[i] - m)
	if sd == 0 {
		if m != 0 && diff/math.Abs(m) > 0.01 {
			return math.Inf(1)
		}
		if m == 0 && diff > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return diff / sd
}
