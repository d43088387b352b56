package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/plantline/plantline/internal/core/domain"
)

// AlertItem wraps an alert for the list widget.
type AlertItem struct {
	alert *domain.Alert
}

func (a AlertItem) Title() string {
	icon := "🚨"
	if a.alert.Status == domain.AlertStatusAcknowledged {
		icon = "👁"
	}
	return fmt.Sprintf("%s %s", icon, a.alert.Title)
}

func (a AlertItem) Description() string {
	return fmt.Sprintf("Status: %s | By: %s | %s",
		a.alert.Status, a.alert.ReportedBy, a.alert.CreatedAt.Format("15:04:05"))
}

func (a AlertItem) FilterValue() string {
	return a.alert.Title + " " + string(a.alert.Status)
}

// AlertBoardModel lists active alerts and lets the operator acknowledge or
// resolve them.
type AlertBoardModel struct {
	client *Client
	list   list.Model
	keys   alertBoardKeyMap
}

type alertBoardKeyMap struct {
	Acknowledge key.Binding
	Resolve     key.Binding
}

func defaultAlertBoardKeyMap() alertBoardKeyMap {
	return alertBoardKeyMap{
		Acknowledge: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "acknowledge")),
		Resolve:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resolve")),
	}
}

// NewAlertBoardModel creates the alert board.
func NewAlertBoardModel(client *Client) *AlertBoardModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(errorColor).BorderForeground(errorColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(mutedColor).BorderForeground(errorColor)

	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "🚨 Active Alerts"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &AlertBoardModel{
		client: client,
		list:   l,
		keys:   defaultAlertBoardKeyMap(),
	}
}

// SetAlerts replaces the board contents.
func (m *AlertBoardModel) SetAlerts(alerts []*domain.Alert) {
	items := make([]list.Item, len(alerts))
	for i, a := range alerts {
		items[i] = AlertItem{alert: a}
	}
	m.list.SetItems(items)
}

// Update handles alert board input.
func (m *AlertBoardModel) Update(msg tea.Msg) (*AlertBoardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width - 4)
		m.list.SetHeight(msg.Height - 8)

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if item, ok := m.list.SelectedItem().(AlertItem); ok {
			switch {
			case key.Matches(msg, m.keys.Acknowledge):
				return m, m.client.alertAction(item.alert.ID, "acknowledge")
			case key.Matches(msg, m.keys.Resolve):
				return m, m.client.alertAction(item.alert.ID, "resolve")
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the alert board.
func (m *AlertBoardModel) View(width, height int) string {
	return m.list.View()
}
