package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/vrcxinsight/internal/model"
)

// clockDistance is the shortest distance in hours between two hours of day.
func clockDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), hoursPerDay)
	if d > hoursPerDay/2 {
		d = hoursPerDay - d
	}
	return d
}

func TestCircularMeanHourWrapsMidnight(t *testing.T) {
	got := CircularMeanHour([]float64{23.0, 1.0})
	assert.Less(t, clockDistance(got, 0), 1e-9, "got %v", got)
	assert.NotEqual(t, Mean([]float64{23.0, 1.0}), got)
	assert.InDelta(t, 12.0, Mean([]float64{23.0, 1.0}), 1e-9)
}

func TestCircularMeanHourRange(t *testing.T) {
	cases := []struct {
		hours []float64
		want  float64
	}{
		{[]float64{20}, 20},
		{[]float64{19, 21}, 20},
		{[]float64{22, 23, 0, 1, 2}, 0},
		{[]float64{6, 6.5, 5.5}, 6},
	}
	for _, tc := range cases {
		got := CircularMeanHour(tc.hours)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 24.0)
		assert.Less(t, clockDistance(got, tc.want), 1e-9, "hours %v: got %v", tc.hours, got)
	}
}

func TestCircularStdDevHours(t *testing.T) {
	assert.InDelta(t, 0, CircularStdDevHours([]float64{5, 5, 5}), 1e-6)
	tight := CircularStdDevHours([]float64{23.5, 0, 0.5})
	assert.Less(t, tight, highStabilityHours)
	assert.Greater(t, StdDev([]float64{23.5, 0, 0.5}), regularStabilityHours)
	assert.True(t, math.IsInf(CircularStdDevHours([]float64{0, 12}), 1) ||
		CircularStdDevHours([]float64{0, 12}) > regularStabilityHours)
}

func TestStdDevIsPopulation(t *testing.T) {
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Zero(t, StdDev(nil))
}

func TestClassifyStabilityMonotonic(t *testing.T) {
	assert.Equal(t, model.StabilityHigh, ClassifyStability(1.0))
	assert.Equal(t, model.StabilityRegular, ClassifyStability(2.0))
	assert.Equal(t, model.StabilityRandom, ClassifyStability(4.0))
	assert.Equal(t, model.StabilityRegular, ClassifyStability(1.5))
	assert.Equal(t, model.StabilityRandom, ClassifyStability(3.0))
}

func TestGaussianKernel(t *testing.T) {
	kernel := GaussianKernel(SmoothingSigma)
	require.Len(t, kernel, 13)
	var sum float64
	for i, w := range kernel {
		sum += w
		assert.InDelta(t, w, kernel[len(kernel)-1-i], 1e-15)
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Greater(t, kernel[6], kernel[5])
}

func TestSmoothCircularWrapsAndKeepsMass(t *testing.T) {
	bins := make([]float64, OnsetBuckets)
	bins[0] = 1
	smoothed := SmoothCircular(bins, SmoothingSigma)
	var total float64
	for _, v := range smoothed {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-12)
	assert.InDelta(t, smoothed[1], smoothed[OnsetBuckets-1], 1e-15)
	assert.Greater(t, smoothed[OnsetBuckets-1], 0.0)
}

func TestOnsetBucket(t *testing.T) {
	assert.Equal(t, 0, OnsetBucket(0))
	assert.Equal(t, 80, OnsetBucket(20))
	assert.Equal(t, 81, OnsetBucket(20.25))
	assert.Equal(t, 95, OnsetBucket(23.99))
	assert.Equal(t, 0, OnsetBucket(24))
}

func TestOnlineProbabilityBounds(t *testing.T) {
	hours := []float64{20, 20.5, 21, 19.75, 20.25}
	for h := 0; h < 24; h++ {
		for _, m := range []int{0, 14, 15, 59} {
			p := OnlineProbability(hours, time.Date(2024, 1, 1, h, m, 0, 0, time.UTC))
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
	}
	assert.Zero(t, OnlineProbability(nil, time.Now()))
}

func TestOnlineProbabilityWindow(t *testing.T) {
	hours := []float64{20, 20, 20, 20, 20}
	before := OnlineProbability(hours, time.Date(2024, 1, 1, 19, 0, 0, 0, time.UTC))
	after := OnlineProbability(hours, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	assert.Greater(t, before, 0.9)
	assert.InDelta(t, 0, after, 1e-9)
}

func TestOnlineProbabilityWrapsPastMidnight(t *testing.T) {
	hours := []float64{0.5, 0.5, 0.5, 0.5, 0.5}
	p := OnlineProbability(hours, time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))
	assert.Greater(t, p, 0.9)
}

func TestComputeMetricsRequiresMinimum(t *testing.T) {
	sessions := make([]model.Session, MinSessions-1)
	_, ok := ComputeMetrics(sessions, time.Now(), Options{})
	assert.False(t, ok)
}

func TestComputeMetricsMidnightStability(t *testing.T) {
	var sessions []model.Session
	for _, h := range []float64{23.5, 23.75, 0, 0.25, 0.5} {
		sessions = append(sessions, model.Session{OnsetHour: h, DurationHours: 1})
	}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	linear, ok := ComputeMetrics(sessions, now, Options{})
	require.True(t, ok)
	assert.Equal(t, model.StabilityRandom, linear.Stability)

	circular, ok := ComputeMetrics(sessions, now, Options{CircularStability: true})
	require.True(t, ok)
	assert.Equal(t, model.StabilityHigh, circular.Stability)
	assert.Less(t, clockDistance(circular.TypicalOnsetHour, 0), 0.01)
}

func TestCurrentStatusOnline(t *testing.T) {
	now := time.Date(2024, 1, 8, 21, 0, 0, 0, time.UTC)
	last := model.Event{Type: model.EventOnline, At: now.Add(-time.Hour)}

	status := CurrentStatus(last, now, 2.5, true)
	assert.True(t, status.Online)
	assert.InDelta(t, 1.0, status.ElapsedHours, 1e-9)
	require.NotNil(t, status.ExpectedOffline)
	assert.Equal(t, now.Add(90*time.Minute), *status.ExpectedOffline)

	overdue := CurrentStatus(model.Event{Type: model.EventOnline, At: now.Add(-5 * time.Hour)}, now, 2.5, true)
	require.NotNil(t, overdue.ExpectedOffline)
	assert.Equal(t, now, *overdue.ExpectedOffline)

	unknown := CurrentStatus(last, now, 0, false)
	assert.True(t, unknown.Online)
	assert.Nil(t, unknown.ExpectedOffline)
}

func TestCurrentStatusOffline(t *testing.T) {
	now := time.Date(2024, 1, 8, 21, 0, 0, 0, time.UTC)
	last := model.Event{Type: model.EventOffline, At: now.Add(-3 * time.Hour)}
	status := CurrentStatus(last, now, 2.5, true)
	assert.False(t, status.Online)
	assert.Equal(t, last.At, status.LastEventAt)
	assert.Nil(t, status.ExpectedOffline)
	assert.Zero(t, status.ElapsedHours)
}
