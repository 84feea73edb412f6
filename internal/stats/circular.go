package stats

import "math"

const hoursPerDay = 24.0

// CircularMeanHour averages hours of day as angles on a 24-hour clock, so
// 23:00 and 01:00 average to 00:00 rather than 12:00. The result is in [0, 24).
func CircularMeanHour(hours []float64) float64 {
	if len(hours) == 0 {
		return 0
	}
	sinMean, cosMean := meanVector(hours)
	deg := math.Atan2(sinMean, cosMean) * 180 / math.Pi
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	h := deg / 360 * hoursPerDay
	if h >= hoursPerDay {
		h = 0
	}
	return h
}

// CircularStdDevHours is the circular standard deviation, sqrt(-2 ln R),
// expressed in hours.
func CircularStdDevHours(hours []float64) float64 {
	if len(hours) == 0 {
		return 0
	}
	sinMean, cosMean := meanVector(hours)
	r := math.Hypot(sinMean, cosMean)
	if r <= 0 {
		return math.Inf(1)
	}
	if r >= 1 {
		return 0
	}
	return math.Sqrt(-2*math.Log(r)) / (2 * math.Pi) * hoursPerDay
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// Mean is the arithmetic mean; zero for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanVector(hours []float64) (sinMean, cosMean float64) {
	for _, h := range hours {
		rad := h / hoursPerDay * 2 * math.Pi
		sinMean += math.Sin(rad)
		cosMean += math.Cos(rad)
	}
	n := float64(len(hours))
	return sinMean / n, cosMean / n
}
