package stats

import (
	"time"

	"github.com/verte-zerg/vrcxinsight/internal/model"
)

// MinSessions is the number of sessions below which no metrics are reported.
const MinSessions = 5

const (
	highStabilityHours    = 1.5
	regularStabilityHours = 3.0
)

// Options tunes the estimator.
type Options struct {
	// CircularStability classifies stability with the circular standard
	// deviation instead of the linear one.
	CircularStability bool
}

// ComputeMetrics derives the MetricSet of sessions. ok is false when there
// are fewer than MinSessions sessions; no metric is computed in that case.
func ComputeMetrics(sessions []model.Session, now time.Time, opts Options) (metrics model.MetricSet, ok bool) {
	if len(sessions) < MinSessions {
		return model.MetricSet{}, false
	}
	durations := make([]float64, len(sessions))
	for i, s := range sessions {
		durations[i] = s.DurationHours
	}
	hours := OnsetHours(sessions)

	sigma := StdDev(hours)
	if opts.CircularStability {
		sigma = CircularStdDevHours(hours)
	}
	return model.MetricSet{
		Count:             len(sessions),
		MeanDurationHours: Mean(durations),
		TypicalOnsetHour:  CircularMeanHour(hours),
		OnlineProbability: OnlineProbability(hours, now),
		OnsetStdDevHours:  sigma,
		Stability:         ClassifyStability(sigma),
	}, true
}

// ClassifyStability maps an onset dispersion in hours to a label.
func ClassifyStability(sigma float64) model.Stability {
	switch {
	case sigma < highStabilityHours:
		return model.StabilityHigh
	case sigma < regularStabilityHours:
		return model.StabilityRegular
	default:
		return model.StabilityRandom
	}
}

// CurrentStatus projects the contact's state from the last raw event. For an
// online contact with a known mean duration, the expected departure is
// now + max(0, mean - elapsed).
func CurrentStatus(last model.Event, now time.Time, meanHours float64, haveMean bool) model.Status {
	status := model.Status{
		Online:      last.Type == model.EventOnline,
		LastEventAt: last.At,
	}
	if !status.Online {
		return status
	}
	status.ElapsedHours = now.Sub(last.At).Hours()
	if haveMean {
		remaining := meanHours - status.ElapsedHours
		if remaining < 0 {
			remaining = 0
		}
		expected := now.Add(time.Duration(remaining * float64(time.Hour)))
		status.ExpectedOffline = &expected
	}
	return status
}
