package stats

import (
	"math"
	"time"
)

const (
	// OnsetBuckets is the number of 15-minute buckets in a day.
	OnsetBuckets = 96
	// SmoothingSigma is the Gaussian kernel width, in buckets.
	SmoothingSigma = 1.5
	// HorizonBuckets is the look-ahead window (two hours).
	HorizonBuckets = 8

	kernelTruncate = 4.0
)

// OnsetBucket maps a fractional hour of day to its 15-minute bucket.
func OnsetBucket(hour float64) int {
	b := int(math.Floor(hour*4)) % OnsetBuckets
	if b < 0 {
		b += OnsetBuckets
	}
	return b
}

// OnsetHistogram counts onset hours per 15-minute bucket.
func OnsetHistogram(hours []float64) []float64 {
	bins := make([]float64, OnsetBuckets)
	for _, h := range hours {
		bins[OnsetBucket(h)]++
	}
	return bins
}

// GaussianKernel returns normalised weights for offsets -r..r, where
// r = int(truncate*sigma + 0.5).
func GaussianKernel(sigma float64) []float64 {
	radius := int(kernelTruncate*sigma + 0.5)
	weights := make([]float64, 2*radius+1)
	var sum float64
	for i := range weights {
		x := float64(i - radius)
		w := math.Exp(-0.5 * x * x / (sigma * sigma))
		weights[i] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// SmoothCircular convolves values with a Gaussian kernel, wrapping around
// both ends.
func SmoothCircular(values []float64, sigma float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	kernel := GaussianKernel(sigma)
	radius := len(kernel) / 2
	for i := 0; i < n; i++ {
		var acc float64
		for k, w := range kernel {
			j := ((i+k-radius)%n + n) % n
			acc += w * values[j]
		}
		out[i] = acc
	}
	return out
}

// OnsetDensity is the smoothed onset histogram.
func OnsetDensity(hours []float64) []float64 {
	return SmoothCircular(OnsetHistogram(hours), SmoothingSigma)
}

// OnlineProbability estimates the chance that the next onset falls in the
// HorizonBuckets following now's bucket. The window wraps past midnight.
// Returns 0 when there is no mass.
func OnlineProbability(hours []float64, now time.Time) float64 {
	density := OnsetDensity(hours)
	var total float64
	for _, v := range density {
		total += v
	}
	if total <= 0 {
		return 0
	}
	nowBucket := OnsetBucket(OnsetHour(now))
	var window float64
	for k := 1; k <= HorizonBuckets; k++ {
		window += density[(nowBucket+k)%OnsetBuckets]
	}
	p := window / total
	if p > 1 {
		p = 1
	}
	return p
}
