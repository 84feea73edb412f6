// Package stats contains session reconstruction, estimation and reporting.
package stats

import (
	"time"

	"github.com/verte-zerg/vrcxinsight/internal/model"
)

const (
	// MinSessionHours is the exclusive lower bound on a kept session (about 72s).
	MinSessionHours = 0.02
	// MaxSessionHours is the exclusive upper bound on a kept session.
	MaxSessionHours = 24.0
)

// ReconstructSessions pairs Online/Offline events into sessions in a single
// ordered scan. An Online overwrites any pending Online; an Offline closes the
// pending Online (kept only when its duration is plausible) and is ignored
// when nothing is pending. Events are not re-sorted.
func ReconstructSessions(events []model.Event) []model.Session {
	var sessions []model.Session
	var pending *model.Event
	for i := range events {
		ev := events[i]
		switch ev.Type {
		case model.EventOnline:
			pending = &events[i]
		case model.EventOffline:
			if pending == nil {
				continue
			}
			start := pending.At
			pending = nil
			hours := ev.At.Sub(start).Hours()
			if hours <= MinSessionHours || hours >= MaxSessionHours {
				continue
			}
			sessions = append(sessions, model.Session{
				Start:         start,
				End:           ev.At,
				DurationHours: hours,
				OnsetHour:     OnsetHour(start),
			})
		}
	}
	return sessions
}

// OnsetHour returns the fractional hour of day (minute resolution).
func OnsetHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0
}

// OnsetHours extracts the onset hour of every session.
func OnsetHours(sessions []model.Session) []float64 {
	hours := make([]float64, len(sessions))
	for i, s := range sessions {
		hours[i] = s.OnsetHour
	}
	return hours
}

// RecentFirst returns a copy of sessions in most-recent-first order.
func RecentFirst(sessions []model.Session) []model.Session {
	out := make([]model.Session, len(sessions))
	for i, s := range sessions {
		out[len(sessions)-1-i] = s
	}
	return out
}
