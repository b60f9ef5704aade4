package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentdeck/agentdeck/pkg/api"
	"github.com/agentdeck/agentdeck/pkg/app"
	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/notify"
	"github.com/agentdeck/agentdeck/pkg/stream"
	"github.com/agentdeck/agentdeck/pkg/types"
)

type tab int

const (
	tabTasks tab = iota
	tabAgents
	tabWorkflows
	tabIncidents
)

var tabNames = []string{"Tasks", "Agents", "Workflows", "Incidents"}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("63"))

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	toastStyles = map[types.NotificationType]lipgloss.Style{
		types.NotificationError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")),
		types.NotificationWarning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("214")),
		types.NotificationSuccess: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("28")),
	}

	streamStateColors = map[stream.State]string{
		stream.StateConnected:    "46",
		stream.StateConnecting:   "214",
		stream.StateDisconnected: "241",
		stream.StateAuthFailed:   "196",
	}
)

type model struct {
	app *app.App

	active tab
	cursor [4]int

	tasks     []types.Task
	agents    []types.Agent
	workflows []types.Workflow
	incidents []types.SecurityIncident

	progress    []types.WorkflowProgress
	streamState stream.State
	unread      int
	toast       *notify.Toast
	errs        [4]error

	spinner  spinner.Model
	viewport viewport.Model
	loading  bool
	ready    bool
	width    int
	height   int
}

func newModel(a *app.App) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	active := tab(a.Preferences().DashboardTab)
	if active < 0 || int(active) >= len(tabNames) {
		active = tabTasks
	}

	return model{
		app:         a,
		active:      active,
		spinner:     sp,
		loading:     true,
		streamState: a.Stream.State(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := msg.Height - 5
		if contentHeight < 3 {
			contentHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case snapshotMsg:
		m.loading = false
		m.tasks = msg.tasks
		m.agents = msg.agents
		m.workflows = msg.workflows
		m.incidents = msg.incidents
		// The initial fetch is combined, so its failure shows everywhere
		// until each panel's own query reports in.
		for i := range m.errs {
			m.errs[i] = msg.err
		}
		m.refresh()
		return m, nil

	case queryMsg:
		m.applyQuery(msg)
		m.refresh()
		return m, nil

	case streamMsg:
		m.streamState = msg.state
		m.progress = msg.progress
		m.refresh()
		return m, nil

	case toastMsg:
		t := msg.toast
		m.toast = &t
		id := t.Notification.ID
		return m, tea.Tick(t.Duration, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		})

	case toastExpiredMsg:
		if m.toast != nil && m.toast.Notification.ID == msg.id {
			m.toast = nil
		}
		return m, nil

	case bellMsg:
		m.unread = msg.unread
		return m, nil

	case tickMsg:
		return m, tea.Batch(tick(), m.pollStream())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		prefs := m.app.Preferences()
		prefs.DashboardTab = int(m.active)
		if err := m.app.SavePreferences(prefs); err != nil {
			logger := log.WithComponent("dashboard")
			logger.Warn().Err(err).Msg("failed to save preferences")
		}
		return m, tea.Quit

	case "tab", "right", "l":
		m.active = (m.active + 1) % tab(len(tabNames))
		m.refresh()

	case "shift+tab", "left", "h":
		m.active = (m.active + tab(len(tabNames)) - 1) % tab(len(tabNames))
		m.refresh()

	case "up", "k":
		if m.cursor[m.active] > 0 {
			m.cursor[m.active]--
			m.refresh()
		}

	case "down", "j":
		if m.cursor[m.active] < m.activeLen()-1 {
			m.cursor[m.active]++
			m.refresh()
		}

	case "r":
		return m, m.refetchActive()

	case "m":
		if m.active == tabTasks {
			return m, m.toggleImportance()
		}
	}
	return m, nil
}

func (m *model) activeLen() int {
	switch m.active {
	case tabTasks:
		return len(m.tasks)
	case tabAgents:
		return len(m.agents)
	case tabWorkflows:
		return len(m.workflows)
	default:
		return len(m.incidents)
	}
}

// applyQuery folds one query result into its panel. Errors stay local to
// the panel that fetched them; other panels keep rendering their own state.
func (m *model) applyQuery(msg queryMsg) {
	switch msg.key {
	case app.KeyTasks:
		m.errs[tabTasks] = msg.res.Err
		if l, ok := msg.res.Data.(*api.TaskList); ok {
			m.tasks = l.Tasks
		}
	case app.KeyAgents:
		m.errs[tabAgents] = msg.res.Err
		if l, ok := msg.res.Data.(*api.AgentList); ok {
			m.agents = l.Agents
		}
	case app.KeyWorkflows:
		m.errs[tabWorkflows] = msg.res.Err
		if l, ok := msg.res.Data.(*api.WorkflowList); ok {
			m.workflows = l.Workflows
		}
	case app.KeyIncidents:
		m.errs[tabIncidents] = msg.res.Err
		if l, ok := msg.res.Data.(*api.IncidentList); ok {
			m.incidents = l.Incidents
		}
	}
}

func (m *model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

// refetchActive invalidates the visible panel's query; the subscription
// pump delivers the fresh result.
func (m model) refetchActive() tea.Cmd {
	a := m.app
	active := m.active
	return func() tea.Msg {
		switch active {
		case tabTasks:
			a.Cache.Invalidate(app.KeyTasks)
		case tabAgents:
			a.Cache.Invalidate(app.KeyAgents)
		case tabWorkflows:
			a.Cache.Invalidate(app.KeyWorkflows)
		case tabIncidents:
			a.Cache.Invalidate(app.KeyIncidents)
		}
		return nil
	}
}

// toggleImportance flips the selected task's important flag
func (m model) toggleImportance() tea.Cmd {
	idx := m.cursor[tabTasks]
	if idx >= len(m.tasks) {
		return nil
	}
	task := m.tasks[idx]
	a := m.app
	return func() tea.Msg {
		err := a.MarkTaskImportance(context.Background(), task.ID, !task.Important, task.WorkflowID)
		if err != nil {
			a.Notify.Add(notify.AddInput{
				Type:    types.NotificationError,
				Title:   "Task update failed",
				Message: err.Error(),
			})
		}
		return nil
	}
}

// pollStream samples the stream client state and progress tracker
func (m model) pollStream() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		return streamMsg{
			state:    a.Stream.State(),
			progress: a.Stream.Progress().All(),
		}
	}
}

func (m model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader() + "\n")
	b.WriteString(m.renderTabs() + "\n")
	b.WriteString(m.viewport.View() + "\n")
	if m.toast != nil {
		style, ok := toastStyles[m.toast.Notification.Type]
		if !ok {
			style = headerStyle
		}
		b.WriteString(style.Render(" "+m.toast.Notification.Title+": "+m.toast.Notification.Message+" ") + "\n")
	}
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m model) renderHeader() string {
	sess := m.app.Auth.Session()
	user := "not signed in"
	if sess.IsAuthenticated {
		user = sess.Username
	}

	state := string(m.streamState)
	stateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(streamStateColors[m.streamState]))

	left := headerStyle.Render(" Agentdeck ")
	right := fmt.Sprintf(" %s │ stream: %s │ 🔔 %d", user, stateStyle.Render(state), m.unread)
	return left + dimStyle.Render(right)
}

func (m model) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.active {
			parts[i] = activeTabStyle.Render("[" + name + "]")
		} else {
			parts[i] = inactiveTabStyle.Render(" " + name + " ")
		}
	}
	return strings.Join(parts, " ")
}

func (m model) renderContent() string {
	if m.loading {
		return fmt.Sprintf("\n  %s fetching...", m.spinner.View())
	}

	var b strings.Builder
	if err := m.errs[m.active]; err != nil {
		b.WriteString(errStyle.Render("  ! "+err.Error()) + "\n\n")
	}

	switch m.active {
	case tabTasks:
		m.renderTasks(&b)
	case tabAgents:
		m.renderAgents(&b)
	case tabWorkflows:
		m.renderWorkflows(&b)
	case tabIncidents:
		m.renderIncidents(&b)
	}
	return b.String()
}

func (m model) renderTasks(b *strings.Builder) {
	if len(m.tasks) == 0 {
		b.WriteString(dimStyle.Render("  no tasks"))
		return
	}
	for i, t := range m.tasks {
		line := fmt.Sprintf("%s%-9s %s", mark(t.Important, "★ ", "  "), t.State, t.Title)
		b.WriteString(m.renderRow(i, tabTasks, line))
	}
}

func (m model) renderAgents(b *strings.Builder) {
	if len(m.agents) == 0 {
		b.WriteString(dimStyle.Render("  no agents"))
		return
	}
	for i, a := range m.agents {
		line := fmt.Sprintf("%-9s %s", a.Status, a.Name)
		b.WriteString(m.renderRow(i, tabAgents, line))
	}
}

func (m model) renderWorkflows(b *strings.Builder) {
	if len(m.workflows) == 0 {
		b.WriteString(dimStyle.Render("  no workflows"))
		return
	}
	progressByID := make(map[string]types.WorkflowProgress, len(m.progress))
	for _, p := range m.progress {
		progressByID[p.WorkflowID] = p
	}
	for i, w := range m.workflows {
		line := fmt.Sprintf("%-9s %s", w.Status, w.Name)
		if p, ok := progressByID[w.ID]; ok {
			line += fmt.Sprintf("  %s %.0f%%", p.CurrentPhase, p.OverallProgressPct)
		}
		b.WriteString(m.renderRow(i, tabWorkflows, line))
	}
}

func (m model) renderIncidents(b *strings.Builder) {
	if len(m.incidents) == 0 {
		b.WriteString(dimStyle.Render("  no incidents"))
		return
	}
	for i, inc := range m.incidents {
		line := fmt.Sprintf("%-9s %s", inc.Severity, inc.Summary)
		b.WriteString(m.renderRow(i, tabIncidents, line))
	}
}

func (m model) renderRow(i int, t tab, line string) string {
	cursor := "  "
	style := lipgloss.NewStyle()
	if i == m.cursor[t] && t == m.active {
		cursor = "> "
		style = selectedStyle
	}
	return style.Render(cursor+line) + "\n"
}

func (m model) renderFooter() string {
	help := "←/→: tab • ↑/↓: navigate • r: refresh"
	if m.active == tabTasks {
		help += " • m: toggle importance"
	}
	help += " • q: quit"
	return dimStyle.Render(help)
}

func mark(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
