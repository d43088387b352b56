package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/plantline/plantline/internal/core/domain"
)

// ProjectItem wraps a project for the list widget.
type ProjectItem struct {
	project *domain.Project
}

func (p ProjectItem) Title() string {
	return fmt.Sprintf("%s  %s %.1f%%",
		p.project.Name, renderProgressBar(p.project.Progress, 20), p.project.Progress)
}

func (p ProjectItem) Description() string {
	return fmt.Sprintf("Status: %s | Produced %d of %d",
		p.project.Status, p.project.ProducedQuantity, p.project.TargetQuantity)
}

func (p ProjectItem) FilterValue() string {
	return p.project.Name + " " + string(p.project.Status)
}

// ProjectBoardModel lists projects with their production progress.
type ProjectBoardModel struct {
	list list.Model
}

// NewProjectBoardModel creates the project board.
func NewProjectBoardModel() *ProjectBoardModel {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(primaryColor).BorderForeground(primaryColor)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(mutedColor).BorderForeground(primaryColor)

	l := list.New([]list.Item{}, delegate, 80, 20)
	l.Title = "🏭 Projects"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ProjectBoardModel{list: l}
}

// SetProjects replaces the board contents.
func (m *ProjectBoardModel) SetProjects(projects []*domain.Project) {
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = ProjectItem{project: p}
	}
	m.list.SetItems(items)
}

// Update handles project board input.
func (m *ProjectBoardModel) Update(msg tea.Msg) (*ProjectBoardModel, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.list.SetWidth(msg.Width - 4)
		m.list.SetHeight(msg.Height - 8)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the project board.
func (m *ProjectBoardModel) View(width, height int) string {
	return m.list.View()
}
