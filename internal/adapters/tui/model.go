// Package tui implements the Bubble Tea shop-floor board.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a tab in the board.
type Tab int

const (
	TabProjects Tab = iota
	TabTasks
	TabDevices
	TabAlerts
)

func (t Tab) String() string {
	return []string{"Projects", "Tasks", "Devices", "Alerts"}[t]
}

// Model represents the main board state.
type Model struct {
	client      *Client
	activeTab   Tab
	tabs        []Tab
	width       int
	height      int
	help        help.Model
	keys        keyMap
	projects    *ProjectBoardModel
	taskBoard   *TaskBoardModel
	devices     *DeviceBoardModel
	alerts      *AlertBoardModel
	lastErr     error
	initialized bool
}

// keyMap defines the key bindings.
type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Refresh  key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Refresh, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Refresh, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next tab"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev tab"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}

// NewModel creates a new board model talking to the daemon at addr.
func NewModel(addr string) Model {
	client := NewClient(addr)
	return Model{
		client:    client,
		activeTab: TabProjects,
		tabs:      []Tab{TabProjects, TabTasks, TabDevices, TabAlerts},
		help:      help.New(),
		keys:      defaultKeyMap,
		projects:  NewProjectBoardModel(),
		taskBoard: NewTaskBoardModel(client),
		devices:   NewDeviceBoardModel(),
		alerts:    NewAlertBoardModel(client),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.refreshAll(),
		refreshTick(),
	)
}

func (m Model) refreshAll() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return m.client.fetchProjects() },
		func() tea.Msg { return m.client.fetchTasks() },
		func() tea.Msg { return m.client.fetchDevices() },
		func() tea.Msg { return m.client.fetchAlerts() },
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.initialized = true

	case refreshTickMsg:
		return m, tea.Batch(m.refreshAll(), refreshTick())

	case projectsLoadedMsg:
		m.lastErr = nil
		m.projects.SetProjects(msg)
	case tasksLoadedMsg:
		m.lastErr = nil
		m.taskBoard.SetTasks(msg)
	case devicesLoadedMsg:
		m.lastErr = nil
		m.devices.SetDevices(msg)
	case alertsLoadedMsg:
		m.lastErr = nil
		m.alerts.SetAlerts(msg)
	case taskChangedMsg, alertChangedMsg:
		// A mutation went through, re-pull everything it may have touched.
		return m, m.refreshAll()
	case apiErrMsg:
		m.lastErr = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = Tab((int(m.activeTab) + 1) % len(m.tabs))
		case key.Matches(msg, m.keys.ShiftTab):
			m.activeTab = Tab((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs))
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refreshAll()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	// Update active tab's model
	var cmd tea.Cmd
	switch m.activeTab {
	case TabProjects:
		m.projects, cmd = m.projects.Update(msg)
	case TabTasks:
		m.taskBoard, cmd = m.taskBoard.Update(msg)
	case TabDevices:
		m.devices, cmd = m.devices.Update(msg)
	case TabAlerts:
		m.alerts, cmd = m.alerts.Update(msg)
	}

	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.initialized {
		return "Loading..."
	}

	tabBar := m.renderTabs()

	var content string
	contentHeight := m.height - 4
	switch m.activeTab {
	case TabProjects:
		content = m.projects.View(m.width, contentHeight)
	case TabTasks:
		content = m.taskBoard.View(m.width, contentHeight)
	case TabDevices:
		content = m.devices.View(m.width, contentHeight)
	case TabAlerts:
		content = m.alerts.View(m.width, contentHeight)
	}

	statusLine := ""
	if m.lastErr != nil {
		statusLine = statusErrorStyle.Render("⚠ " + m.lastErr.Error())
	}

	helpView := m.help.View(m.keys)
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusLine, helpView)
}

// renderTabs renders the tab bar.
func (m Model) renderTabs() string {
	var tabs []string
	for _, tab := range m.tabs {
		style := inactiveTabStyle
		if tab == m.activeTab {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(tab.String()))
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return tabBarStyle.Width(m.width).Render(tabRow)
}
