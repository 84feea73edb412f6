package insightui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vrcxinsight/internal/model"
	"github.com/verte-zerg/vrcxinsight/internal/stats"
)

const plotHeight = 10

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	onlineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	offlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// heatStyles shade heatmap cells by quartile level, light to dark blue-green.
var heatStyles = [5]lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E")),
	lipgloss.NewStyle().Background(lipgloss.Color("#EDF8B1")).Foreground(lipgloss.Color("#1A1A1A")),
	lipgloss.NewStyle().Background(lipgloss.Color("#7FCDBB")).Foreground(lipgloss.Color("#1A1A1A")),
	lipgloss.NewStyle().Background(lipgloss.Color("#2C7FB8")).Foreground(lipgloss.Color("#F0F0F0")),
	lipgloss.NewStyle().Background(lipgloss.Color("#253494")).Foreground(lipgloss.Color("#F0F0F0")),
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := padLines(m.renderRequestSummary(), m.width)
	return tabs + "\n" + summary
}

func (m *Model) renderRequestSummary() string {
	feed := m.req.Table
	if feed == "" {
		feed = "none"
	}
	contact := m.req.Contact
	if contact == "" {
		contact = "none"
	}
	summary := fmt.Sprintf("Table: %s  Contact: %s  Timezone: %s", feed, contact, m.src.Location())
	if m.loaded && m.report.EventRows > 0 {
		summary += fmt.Sprintf("  Events: %d", m.report.EventRows)
	}
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Analyse: /  Re-run: enter  Quit: q")
}

func (m *Model) renderFormHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: run  esc: cancel  quit: ctrl+c")
}

func (m *Model) renderFooter() string {
	if m.formMode {
		return m.renderFormHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return m.renderHelp()
}

func (m *Model) renderForm() string {
	lines := []string{"Analysis (enter to run, esc to cancel)"}
	for _, input := range m.formInputs {
		lines = append(lines, input.View())
	}
	if len(m.tables) > 0 {
		lines = append(lines, headerStyle.Render(truncateLine("Tables: "+strings.Join(m.tables, ", "), m.width)))
	}
	if m.formError != "" {
		lines = append(lines, errorStyle.Render(m.formError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.formMode {
		return fitLines(m.renderForm(), m.width, height)
	}
	if m.activeTab == tabSessions {
		if !m.loaded || len(m.report.Sessions) == 0 {
			return fitLines(m.sessionsPlaceholder(), m.width, height)
		}
		view := tableMutedStyle.Render(m.sessionTable.View())
		return fitLines(view, m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) sessionsPlaceholder() string {
	if !m.loaded {
		return noAnalysisText
	}
	if m.report.Outcome == model.OutcomeNoData {
		return stats.OutcomeText(m.report.Outcome, m.req.Contact)
	}
	return "No sessions found."
}

const noAnalysisText = "No analysis yet. Press / to choose a table and contact."

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if !m.loaded {
		for i := range m.viewports {
			m.viewports[i].SetContent(noAnalysisText)
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabHeatmap].SetContent(renderContactHeatmap(m.heat, m.req.Contact))
	m.viewports[tabGlobalHeatmap].SetContent(renderHeatmap(m.global))
}

func renderOverview(r stats.Report, width int) string {
	if r.Outcome == model.OutcomeNoData {
		return stats.OutcomeText(r.Outcome, r.Request.Contact)
	}
	status := renderStatus(r.Status)
	if r.Outcome == model.OutcomeInsufficientData {
		return status + "\n\n" + stats.OutcomeText(r.Outcome, r.Request.Contact)
	}
	cards := renderMetricCards(r.Metrics, width)
	plot := renderDensity(r, width)
	return strings.TrimRight(status+"\n\n"+cards+"\n\n"+plot, "\n")
}

func renderStatus(status *model.Status) string {
	headline, detail := stats.StatusText(status)
	style := offlineStyle
	if status != nil && status.Online {
		style = onlineStyle
	}
	return style.Render(headline) + "  " + detail
}

func renderMetricCards(metrics model.MetricSet, width int) string {
	cards := make([]string, 0, 5)
	for _, card := range stats.MetricCards(metrics) {
		cards = append(cards, metricCard(card.Label, card.Value))
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderDensity(r stats.Report, width int) string {
	if len(r.Density) == 0 {
		return ""
	}
	var buf bytes.Buffer
	title := fmt.Sprintf("Onset density (now %s)", r.NowLocal.Format("15:04"))
	marker := stats.OnsetHour(r.NowLocal)
	if err := stats.PlotDensity(&buf, title, r.Density, marker, stats.PlotWidthFor(width), plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render density: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderContactHeatmap(r stats.HeatmapReport, contact string) string {
	if contact == "" {
		return stats.OutcomeText(model.OutcomeNoData, "")
	}
	return renderHeatmap(r)
}

func renderHeatmap(r stats.HeatmapReport) string {
	var buf bytes.Buffer
	if err := stats.RenderHeatmap(&buf, r, shadeCell); err != nil {
		return fmt.Sprintf("Failed to render heatmap: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func shadeCell(level int, cell string) string {
	if level < 0 || level >= len(heatStyles) {
		return cell
	}
	return heatStyles[level].Render(cell)
}

func (m *Model) initSessionTable() {
	m.sessionTable = table.New(
		table.WithColumns(sessionColumns()),
		table.WithHeight(1),
	)
	m.sessionTable.SetStyles(sessionTableStyles())
}

func sessionColumns() []table.Column {
	widths := []int{10, 6, 6, 7}
	columns := make([]table.Column, len(stats.SessionHeaders))
	for i, title := range stats.SessionHeaders {
		columns[i] = table.Column{Title: title, Width: widths[i]}
	}
	return columns
}

// applySessionTable loads the report's sessions, most recent first, and
// resizes the table for the new row count.
func (m *Model) applySessionTable() {
	sessionRows := stats.SessionRows(m.report.Sessions)
	rows := make([]table.Row, 0, len(sessionRows))
	for _, r := range sessionRows {
		rows = append(rows, table.Row(r))
	}
	m.sessionTable.SetRows(rows)
	m.sessionTable.GotoTop()
	m.layout = tableLayout{}
	if m.width > 0 && m.height > 0 {
		_, bodyHeight, _ := m.layoutHeights()
		m.setSessionTableSize(m.width, bodyHeight)
	}
}

func (m *Model) setSessionTableSize(width, height int) {
	viewportHeight := maxInt(1, height-1)
	if m.layout.width == width && m.layout.height == viewportHeight {
		return
	}
	m.layout.width = width
	m.layout.height = viewportHeight
	m.sessionTable.SetWidth(width)
	m.sessionTable.SetHeight(viewportHeight)
	viewportHeight = m.adjustSessionTableHeight(height)
	if m.layout.height != viewportHeight {
		m.layout.height = viewportHeight
		m.sessionTable.SetHeight(viewportHeight)
	}
}

// adjustSessionTableHeight corrects for the header border so the rendered
// table fills exactly bodyHeight lines.
func (m *Model) adjustSessionTableHeight(bodyHeight int) int {
	target := maxInt(1, bodyHeight)
	height := m.sessionTable.Height()
	viewHeight := lipgloss.Height(m.sessionTable.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	m.sessionTable.SetHeight(height)
	viewHeight = lipgloss.Height(m.sessionTable.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	return height
}

func sessionTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
