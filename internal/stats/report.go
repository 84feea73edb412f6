package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/vrcxinsight/internal/model"
)

// EventSource supplies timezone-normalised presence rows.
type EventSource interface {
	ListEvents(ctx context.Context, table, contact string) ([]model.Event, error)
	ListOnlineTimes(ctx context.Context, table, contact string) ([]time.Time, error)
}

// Report is the result of one analysis run.
type Report struct {
	Request model.AnalysisRequest
	Outcome model.Outcome
	// Sessions are in source order; see RecentSessions for display order.
	Sessions []model.Session
	Metrics  model.MetricSet
	// Status is set whenever at least one event exists.
	Status    *model.Status
	Density   []float64
	EventRows int
	NowLocal  time.Time
}

// RecentSessions returns the sessions most-recent-first.
func (r Report) RecentSessions() []model.Session {
	return RecentFirst(r.Sessions)
}

// Analyze runs reconstruction and estimation for one contact. Missing rows
// and too few sessions are reported through Outcome; only read and parse
// failures are errors.
func Analyze(ctx context.Context, src EventSource, req model.AnalysisRequest, now time.Time, opts Options) (Report, error) {
	req.Contact = strings.TrimSpace(req.Contact)
	report := Report{Request: req, NowLocal: now}
	if req.Contact == "" {
		report.Outcome = model.OutcomeNoData
		return report, nil
	}
	events, err := src.ListEvents(ctx, req.Table, req.Contact)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load events: %w", err)
	}
	report.EventRows = len(events)
	if len(events) == 0 {
		report.Outcome = model.OutcomeNoData
		return report, nil
	}

	report.Sessions = ReconstructSessions(events)
	last := events[len(events)-1]

	metrics, ok := ComputeMetrics(report.Sessions, now, opts)
	if !ok {
		status := CurrentStatus(last, now, 0, false)
		report.Status = &status
		report.Outcome = model.OutcomeInsufficientData
		return report, nil
	}
	status := CurrentStatus(last, now, metrics.MeanDurationHours, true)
	report.Status = &status
	report.Metrics = metrics
	report.Density = OnsetDensity(OnsetHours(report.Sessions))
	report.Outcome = model.OutcomeOK
	return report, nil
}

// HeatmapReport is a weekly activity matrix for one contact or a whole table.
type HeatmapReport struct {
	Table   string
	Contact string
	Outcome model.Outcome
	Matrix  model.WeeklyMatrix
	Total   int
}

// Heatmap aggregates Online events by weekday and hour. An empty contact
// covers every contact in the table.
func Heatmap(ctx context.Context, src EventSource, table, contact string) (HeatmapReport, error) {
	contact = strings.TrimSpace(contact)
	report := HeatmapReport{Table: table, Contact: contact}
	times, err := src.ListOnlineTimes(ctx, table, contact)
	if err != nil {
		return HeatmapReport{}, fmt.Errorf("failed to load online events: %w", err)
	}
	if len(times) == 0 {
		report.Outcome = model.OutcomeNoData
		return report, nil
	}
	report.Matrix = WeeklyActivity(times)
	report.Total = MatrixTotal(report.Matrix)
	report.Outcome = model.OutcomeOK
	return report, nil
}
