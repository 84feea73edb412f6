// Package insightui provides the Bubble Tea presence analysis interface.
package insightui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vrcxinsight/internal/model"
	"github.com/verte-zerg/vrcxinsight/internal/stats"
	"github.com/verte-zerg/vrcxinsight/internal/timeconv"
)

const (
	tabOverview = iota
	tabSessions
	tabHeatmap
	tabGlobalHeatmap
)

const (
	formTable = iota
	formContact
)

// Source is the data the UI reads: feed tables, contacts and events.
type Source interface {
	stats.EventSource
	ListFeedTables(ctx context.Context) ([]string, error)
	ListContacts(ctx context.Context, table string) ([]model.ContactCount, error)
	Location() *time.Location
}

// Model implements the Bubble Tea analysis UI.
type Model struct {
	src  Source
	opts stats.Options
	now  func() time.Time

	// req is the request behind the results on screen.
	req    model.AnalysisRequest
	report stats.Report
	heat   stats.HeatmapReport
	global stats.HeatmapReport
	loaded bool
	errMsg string
	tables []string

	tabs         []string
	activeTab    int
	viewports    []viewport.Model
	sessionTable table.Model
	layout       tableLayout

	width  int
	height int

	formMode   bool
	formInputs []textinput.Model
	formIndex  int
	formError  string
}

type tableLayout struct {
	width  int
	height int
}

// NewModel constructs the UI and runs the initial request.
func NewModel(src Source, req model.AnalysisRequest, opts stats.Options) *Model {
	m := &Model{
		src:  src,
		opts: opts,
		tabs: []string{"Overview", "Sessions", "Heatmap", "Global heatmap"},
	}
	m.now = func() time.Time {
		return timeconv.Now(src.Location())
	}
	m.initInputs()
	m.initSessionTable()
	m.initViewports()
	m.loadTables()
	m.run(req)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.formMode {
			return m.updateForm(msg)
		}
		if m.activeTab == tabSessions {
			m.sessionTable.Focus()
		} else {
			m.sessionTable.Blur()
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startForm()
		case "enter", "r":
			m.run(m.req)
			m.updateLayout()
			return m, nil
		case "g", "home":
			if m.activeTab == tabSessions {
				m.sessionTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabSessions {
				m.sessionTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabSessions {
				var cmd tea.Cmd
				m.sessionTable, cmd = m.sessionTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// run executes req and replaces every result on screen. On failure the
// previous results stay and the error goes to the footer.
func (m *Model) run(req model.AnalysisRequest) {
	req.Table = strings.TrimSpace(req.Table)
	req.Contact = strings.TrimSpace(req.Contact)
	if req.Table == "" {
		m.errMsg = "no feed table selected; press / to choose one"
		return
	}
	ctx := context.Background()
	report, err := stats.Analyze(ctx, m.src, req, m.now(), m.opts)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	var heat stats.HeatmapReport
	if req.Contact != "" {
		heat, err = stats.Heatmap(ctx, m.src, req.Table, req.Contact)
		if err != nil {
			m.errMsg = err.Error()
			return
		}
	}
	global, err := stats.Heatmap(ctx, m.src, req.Table, "")
	if err != nil {
		m.errMsg = err.Error()
		return
	}

	m.req = req
	m.report = report
	m.heat = heat
	m.global = global
	m.loaded = true
	m.errMsg = ""
	m.applySessionTable()
	m.renderTabContents()
}

func (m *Model) loadTables() {
	tables, err := m.src.ListFeedTables(context.Background())
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to list feed tables: %v", err)
		return
	}
	m.tables = tables
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.formInputs = []textinput.Model{
		newFormInput("Table: "),
		newFormInput("Contact: "),
	}
}

func newFormInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.formMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.setSessionTableSize(m.width, vpHeight)
	for i := range m.formInputs {
		promptWidth := lipgloss.Width(m.formInputs[i].Prompt)
		m.formInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabSessions {
		m.sessionTable.Focus()
	} else {
		m.sessionTable.Blur()
	}
}

func (m *Model) startForm() (tea.Model, tea.Cmd) {
	m.formMode = true
	m.formError = ""
	m.formInputs[formTable].SetValue(m.req.Table)
	if m.req.Table == "" && len(m.tables) > 0 {
		m.formInputs[formTable].SetValue(m.tables[0])
	}
	m.formInputs[formContact].SetValue(m.req.Contact)
	return m, m.setFormIndex(formContact)
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.formMode = false
		m.formError = ""
		return m, nil
	case tea.KeyEnter:
		req, err := m.formRequest()
		if err != nil {
			m.formError = err.Error()
			return m, nil
		}
		m.formMode = false
		m.formError = ""
		m.run(req)
		m.updateLayout()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFormIndex(m.formIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFormIndex(m.formIndex - 1)
	}
	var cmd tea.Cmd
	m.formInputs[m.formIndex], cmd = m.formInputs[m.formIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFormIndex(idx int) tea.Cmd {
	count := len(m.formInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.formIndex = idx
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.formIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

// formRequest builds a new request from the form. Tables are checked
// against the discovered list when one is available.
func (m *Model) formRequest() (model.AnalysisRequest, error) {
	table := strings.TrimSpace(m.formInputs[formTable].Value())
	contact := strings.TrimSpace(m.formInputs[formContact].Value())
	if table == "" {
		return model.AnalysisRequest{}, fmt.Errorf("table must not be empty")
	}
	if len(m.tables) > 0 && !containsString(m.tables, table) {
		return model.AnalysisRequest{}, fmt.Errorf("unknown table %q", table)
	}
	return model.AnalysisRequest{Table: table, Contact: contact}, nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
