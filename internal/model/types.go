// Package model defines shared data structures.
package model

import "time"

// EventType is the kind of a presence feed record.
type EventType string

const (
	// EventOnline marks a friend coming online.
	EventOnline EventType = "Online"
	// EventOffline marks a friend going offline.
	EventOffline EventType = "Offline"
	// EventUnknown is any other stored type value.
	EventUnknown EventType = ""
)

// ParseEventType maps a stored type string to an EventType.
func ParseEventType(raw string) EventType {
	switch raw {
	case string(EventOnline):
		return EventOnline
	case string(EventOffline):
		return EventOffline
	default:
		return EventUnknown
	}
}

// Event is one presence record for a contact. At is local wall time with the
// zone stripped (carried in UTC).
type Event struct {
	Type EventType
	At   time.Time
}

// Session is a reconstructed online interval.
type Session struct {
	Start         time.Time
	End           time.Time
	DurationHours float64
	OnsetHour     float64
}

// Stability labels how regular a contact's onset times are.
type Stability string

const (
	StabilityHigh    Stability = "High"
	StabilityRegular Stability = "Regular"
	StabilityRandom  Stability = "Random"
)

// MetricSet holds the aggregate metrics of a session set.
type MetricSet struct {
	Count             int       `json:"count" yaml:"count"`
	MeanDurationHours float64   `json:"mean_duration_hours" yaml:"mean_duration_hours"`
	TypicalOnsetHour  float64   `json:"typical_onset_hour" yaml:"typical_onset_hour"`
	OnlineProbability float64   `json:"online_probability" yaml:"online_probability"`
	OnsetStdDevHours  float64   `json:"onset_stddev_hours" yaml:"onset_stddev_hours"`
	Stability         Stability `json:"stability" yaml:"stability"`
}

// Status is the current-status projection derived from the last raw event.
type Status struct {
	Online bool
	// LastEventAt is the timestamp of the last raw event.
	LastEventAt  time.Time
	ElapsedHours float64
	// ExpectedOffline is only set for online contacts with a known mean duration.
	ExpectedOffline *time.Time
}

// AnalysisRequest selects the data source table and the contact to analyse.
type AnalysisRequest struct {
	Table   string
	Contact string
}

// WeeklyMatrix counts onsets by weekday (Monday first) and hour of day.
type WeeklyMatrix [7][24]int

// Outcome classifies a completed analysis.
type Outcome int

const (
	// OutcomeOK means metrics were computed.
	OutcomeOK Outcome = iota
	// OutcomeNoData means no rows matched the request.
	OutcomeNoData
	// OutcomeInsufficientData means too few sessions to compute metrics.
	OutcomeInsufficientData
)

// String returns a short label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoData:
		return "no data"
	case OutcomeInsufficientData:
		return "insufficient data"
	default:
		return "unknown"
	}
}

// ContactCount is a contact name with the number of online events recorded.
type ContactCount struct {
	Name   string
	Online int
}
