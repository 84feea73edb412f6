package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/vrcxinsight/internal/model"
)

// clockEpsilon absorbs trig round-off (19.9999999 for 20:00) before minutes
// are truncated.
const clockEpsilon = 1e-9

// FormatClock renders a fractional hour as HH:MM, truncating minutes.
func FormatClock(hour float64) string {
	hour = math.Mod(hour+clockEpsilon, hoursPerDay)
	h := int(hour)
	m := int((hour - math.Floor(hour)) * 60)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// FormatProbability renders a probability as a percentage.
func FormatProbability(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// FormatHours renders a duration in hours.
func FormatHours(h float64) string {
	return fmt.Sprintf("%.2f h", h)
}

// StatusText returns the headline and detail lines for a status.
func StatusText(status *model.Status) (headline, detail string) {
	if status == nil {
		return "No status", ""
	}
	if !status.Online {
		return "OFFLINE", "last seen " + status.LastEventAt.Format("01-02 15:04")
	}
	detail = fmt.Sprintf("online for %.1f h", status.ElapsedHours)
	if status.ExpectedOffline != nil {
		detail += ", expected offline at " + status.ExpectedOffline.Format("15:04")
	}
	return "ONLINE", detail
}

// OutcomeText is the user-facing line for non-OK outcomes.
func OutcomeText(outcome model.Outcome, contact string) string {
	switch outcome {
	case model.OutcomeNoData:
		if contact == "" {
			return "Enter a contact name to analyse."
		}
		return fmt.Sprintf("Contact %q not found.", contact)
	case model.OutcomeInsufficientData:
		return fmt.Sprintf("Insufficient data: fewer than %d sessions.", MinSessions)
	default:
		return ""
	}
}

// MetricCard is a labelled metric value.
type MetricCard struct {
	Label string
	Value string
}

// MetricCards lists the metrics in display order.
func MetricCards(m model.MetricSet) []MetricCard {
	return []MetricCard{
		{Label: "Sessions", Value: strconv.Itoa(m.Count)},
		{Label: "Online next 2h", Value: FormatProbability(m.OnlineProbability)},
		{Label: "Avg duration", Value: FormatHours(m.MeanDurationHours)},
		{Label: "Typical onset", Value: FormatClock(m.TypicalOnsetHour)},
		{Label: "Stability", Value: string(m.Stability)},
	}
}

// SessionHeaders are the column titles of the session table.
var SessionHeaders = []string{"Date", "Online", "Hours", "Offline"}

// SessionRows formats sessions most-recent-first.
func SessionRows(sessions []model.Session) [][]string {
	recent := RecentFirst(sessions)
	rows := make([][]string, 0, len(recent))
	for _, s := range recent {
		rows = append(rows, []string{
			s.Start.Format("2006-01-02"),
			s.Start.Format("15:04"),
			fmt.Sprintf("%.2f", s.DurationHours),
			s.End.Format("15:04"),
		})
	}
	return rows
}

// StatusStyler decorates the status headline, e.g. with terminal colours.
type StatusStyler func(online bool, headline string) string

// RenderReport prints status, metrics and sessions for a report. A nil
// style leaves the headline plain.
func RenderReport(w io.Writer, r Report, style StatusStyler) error {
	if _, err := fmt.Fprintf(w, "Contact: %s  Table: %s\n", r.Request.Contact, r.Request.Table); err != nil {
		return err
	}
	if r.Outcome == model.OutcomeNoData {
		_, err := fmt.Fprintln(w, OutcomeText(r.Outcome, r.Request.Contact))
		return err
	}
	headline, detail := StatusText(r.Status)
	if style != nil && r.Status != nil {
		headline = style(r.Status.Online, headline)
	}
	if _, err := fmt.Fprintf(w, "Status: %s  %s\n\n", headline, detail); err != nil {
		return err
	}
	if r.Outcome == model.OutcomeInsufficientData {
		if _, err := fmt.Fprintln(w, OutcomeText(r.Outcome, r.Request.Contact)); err != nil {
			return err
		}
	} else {
		for _, card := range MetricCards(r.Metrics) {
			if _, err := fmt.Fprintf(w, "%-15s %s\n", card.Label+":", card.Value); err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return RenderSessions(w, r.Sessions)
}

// RenderSessions prints the session table, most recent first.
func RenderSessions(w io.Writer, sessions []model.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	lines := formatTable(SessionHeaders, SessionRows(sessions), map[int]bool{2: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CellShader decorates a formatted heatmap cell for its level (0-4).
type CellShader func(level int, cell string) string

// HeatmapLines formats the matrix as a grid with hour columns and counts as
// cell labels. shade may be nil.
func HeatmapLines(m model.WeeklyMatrix, shade CellShader) []string {
	cellWidth := 2
	for d := range m {
		for h := range m[d] {
			if n := len(strconv.Itoa(m[d][h])); n > cellWidth {
				cellWidth = n
			}
		}
	}
	levels := ComputeHeatLevels(m)

	var header strings.Builder
	header.WriteString("    ")
	for h := 0; h < 24; h++ {
		header.WriteString(fmt.Sprintf(" %*d", cellWidth, h))
	}
	lines := []string{header.String()}
	for d := range m {
		var row strings.Builder
		row.WriteString(WeekdayLabels[d] + " ")
		for h := range m[d] {
			cell := fmt.Sprintf("%*d", cellWidth, m[d][h])
			if shade != nil {
				cell = shade(levels.Level(m[d][h]), cell)
			}
			row.WriteString(" " + cell)
		}
		lines = append(lines, row.String())
	}
	return lines
}

// RenderHeatmap prints a heatmap report.
func RenderHeatmap(w io.Writer, r HeatmapReport, shade CellShader) error {
	title := "Weekly activity: all contacts"
	if r.Contact != "" {
		title = "Weekly activity: " + r.Contact
	}
	if _, err := fmt.Fprintf(w, "%s  (%s)\n", title, r.Table); err != nil {
		return err
	}
	if r.Outcome == model.OutcomeNoData {
		_, err := fmt.Fprintln(w, "No online records in this data source.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Online events: %d\n", r.Total); err != nil {
		return err
	}
	for _, line := range HeatmapLines(r.Matrix, shade) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderContacts prints contacts with their online event counts.
func RenderContacts(w io.Writer, contacts []model.ContactCount) error {
	if len(contacts) == 0 {
		_, err := fmt.Fprintln(w, "No contacts found.")
		return err
	}
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Online)})
	}
	for _, line := range formatTable([]string{"Contact", "Online"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
