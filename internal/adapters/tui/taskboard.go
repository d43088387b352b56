package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/plantline/plantline/internal/core/domain"
)

// TaskItem wraps a task for the list widget.
type TaskItem struct {
	task *domain.Task
}

func (t TaskItem) Title() string {
	icon := "⏳"
	switch t.task.Status {
	case domain.TaskStatusOngoing:
		icon = "⚡"
	case domain.TaskStatusPaused:
		icon = "⏸"
	case domain.TaskStatusPausedEmergency:
		icon = "🚨"
	case domain.TaskStatusCompleted:
		icon = "✅"
	case domain.TaskStatusFailed:
		icon = "❌"
	}
	return fmt.Sprintf("%s %s (unit %d/%d, step %d)",
		icon, t.task.Name, t.task.ExecutionNumber, t.task.TotalExecutions, t.task.StepOrder)
}

func (t TaskItem) Description() string {
	device := "unassigned"
	if t.task.DeviceID != nil {
		device = "device " + t.task.DeviceID.String()[:8]
	}
	return fmt.Sprintf("Status: %s | %s | Est: %s", t.task.Status, device, t.task.EstimatedDuration)
}

func (t TaskItem) FilterValue() string {
	return t.task.Name + " " + string(t.task.Status)
}

// TaskBoardModel lists tasks and drives their lifecycle.
type TaskBoardModel struct {
	client      *Client
	list        list.Model
	selected    *domain.Task
	showDetails bool
	keys        taskBoardKeyMap
}

type taskBoardKeyMap struct {
	Start    key.Binding
	Pause    key.Binding
	Resume   key.Binding
	Complete key.Binding
	Fail     key.Binding
	Details  key.Binding
	Back     key.Binding
}

func defaultTaskBoardKeyMap() taskBoardKeyMap {
	return taskBoardKeyMap{
		Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Pause:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Resume:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete")),
		Fail:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "fail")),
		Details:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	}
}

// NewTaskBoardModel creates the task board.
func NewTaskBoardModel(client *Client) *TaskBoardModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(primaryColor).BorderForeground(primaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(mutedColor).BorderForeground(primaryColor)

	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "🔧 Tasks"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &TaskBoardModel{
		client: client,
		list:   l,
		keys:   defaultTaskBoardKeyMap(),
	}
}

// SetTasks replaces the board contents.
func (m *TaskBoardModel) SetTasks(tasks []*domain.Task) {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{task: t}
	}
	m.list.SetItems(items)
}

// Update handles task board input.
func (m *TaskBoardModel) Update(msg tea.Msg) (*TaskBoardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 4)
		m.list.SetHeight(msg.Height - 8)

	case tea.KeyMsg:
		if m.showDetails {
			if key.Matches(msg, m.keys.Back) {
				m.showDetails = false
				m.selected = nil
			}
			return m, nil
		}
		if m.list.FilterState() == list.Filtering {
			break
		}

		item, ok := m.list.SelectedItem().(TaskItem)
		if ok {
			switch {
			case key.Matches(msg, m.keys.Details):
				m.selected = item.task
				m.showDetails = true
				return m, nil
			case key.Matches(msg, m.keys.Start):
				return m, m.client.taskAction(item.task.ID, "start")
			case key.Matches(msg, m.keys.Pause):
				return m, m.client.taskAction(item.task.ID, "pause")
			case key.Matches(msg, m.keys.Resume):
				return m, m.client.taskAction(item.task.ID, "resume")
			case key.Matches(msg, m.keys.Complete):
				return m, m.client.taskAction(item.task.ID, "complete")
			case key.Matches(msg, m.keys.Fail):
				return m, m.client.taskAction(item.task.ID, "fail")
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task board.
func (m *TaskBoardModel) View(width, height int) string {
	if m.showDetails && m.selected != nil {
		return m.renderDetails(width)
	}
	return m.list.View()
}

func (m *TaskBoardModel) renderDetails(width int) string {
	t := m.selected

	lines := []string{
		titleStyle.Render("Task " + t.Name),
		"",
		fmt.Sprintf("ID:        %s", t.ID),
		fmt.Sprintf("Project:   %s", t.ProjectID),
		fmt.Sprintf("Status:    %s", renderStatus(string(t.Status))),
		fmt.Sprintf("Unit:      %d of %d", t.ExecutionNumber, t.TotalExecutions),
		fmt.Sprintf("Step:      %d", t.StepOrder),
		fmt.Sprintf("Estimated: %s", t.EstimatedDuration),
	}
	if t.DeviceID != nil {
		lines = append(lines, fmt.Sprintf("Device:    %s", *t.DeviceID))
	}
	if t.WorkerID != nil {
		lines = append(lines, fmt.Sprintf("Worker:    %s", *t.WorkerID))
	}
	for _, pause := range t.PauseHistory {
		state := "open"
		if pause.ResumedAt != nil {
			state = "resumed"
		}
		lines = append(lines, fmt.Sprintf("Pause:     %s by %s (%s)", pause.Reason, pause.PausedBy, state))
	}
	lines = append(lines, "", subtitleStyle.Render("esc to go back"))

	return boxStyle.Width(width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
