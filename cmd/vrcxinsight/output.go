package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/vrcxinsight/internal/model"
	"github.com/verte-zerg/vrcxinsight/internal/stats"
)

const docTimeLayout = "2006-01-02 15:04:05"

type analysisDoc struct {
	Table    string           `json:"table" yaml:"table"`
	Contact  string           `json:"contact" yaml:"contact"`
	Outcome  string           `json:"outcome" yaml:"outcome"`
	Status   *statusDoc       `json:"status,omitempty" yaml:"status,omitempty"`
	Metrics  *model.MetricSet `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Sessions []sessionDoc     `json:"sessions" yaml:"sessions"`
}

type statusDoc struct {
	Online          bool    `json:"online" yaml:"online"`
	LastEventAt     string  `json:"last_event_at" yaml:"last_event_at"`
	ElapsedHours    float64 `json:"elapsed_hours,omitempty" yaml:"elapsed_hours,omitempty"`
	ExpectedOffline string  `json:"expected_offline,omitempty" yaml:"expected_offline,omitempty"`
}

type sessionDoc struct {
	Start         string  `json:"start" yaml:"start"`
	End           string  `json:"end" yaml:"end"`
	DurationHours float64 `json:"duration_hours" yaml:"duration_hours"`
	OnsetHour     float64 `json:"onset_hour" yaml:"onset_hour"`
}

// newAnalysisDoc flattens a report into the json/yaml output shape. Times
// are wall-clock times in the configured timezone.
func newAnalysisDoc(r stats.Report) analysisDoc {
	doc := analysisDoc{
		Table:    r.Request.Table,
		Contact:  r.Request.Contact,
		Outcome:  r.Outcome.String(),
		Sessions: make([]sessionDoc, 0, len(r.Sessions)),
	}
	if r.Status != nil {
		doc.Status = &statusDoc{
			Online:       r.Status.Online,
			LastEventAt:  r.Status.LastEventAt.Format(docTimeLayout),
			ElapsedHours: r.Status.ElapsedHours,
		}
		if r.Status.ExpectedOffline != nil {
			doc.Status.ExpectedOffline = r.Status.ExpectedOffline.Format(docTimeLayout)
		}
	}
	if r.Outcome == model.OutcomeOK {
		metrics := r.Metrics
		doc.Metrics = &metrics
	}
	for _, s := range r.RecentSessions() {
		doc.Sessions = append(doc.Sessions, sessionDoc{
			Start:         s.Start.Format(docTimeLayout),
			End:           s.End.Format(docTimeLayout),
			DurationHours: s.DurationHours,
			OnsetHour:     s.OnsetHour,
		})
	}
	return doc
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return nil
}

func writeContacts(w io.Writer, contacts []model.ContactCount) error {
	if err := stats.RenderContacts(w, contacts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
